package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/refboard/internal/http/response"
	"github.com/refboard/internal/models"
	"github.com/refboard/internal/repository"
	"github.com/refboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateReferralRequest 创建推荐条目请求
type CreateReferralRequest struct {
	Name               string            `json:"name" binding:"required"`
	Description        string            `json:"description"`
	Category           string            `json:"category" binding:"required"`
	Company            string            `json:"company"`
	PriceRange         string            `json:"price_range"`
	Rating             float64           `json:"rating"`
	ReferralURL        string            `json:"referral_url" binding:"required"`
	OriginalURL        string            `json:"original_url"`
	ImageURL           string            `json:"image_url"`
	LogoURL            string            `json:"logo_url"`
	Discount           string            `json:"discount"`
	Bonus              string            `json:"bonus"`
	Features           map[string]string `json:"features"`
	Pros               map[string]string `json:"pros"`
	Cons               map[string]string `json:"cons"`
	TargetAudience     map[string]bool   `json:"target_audience"`
	UseCase            string            `json:"use_case"`
	PersonalExperience string            `json:"personal_experience"`
	IsActive           *bool             `json:"is_active"`
	IsFeatured         bool              `json:"is_featured"`
	Priority           int               `json:"priority"`
}

// UpdateReferralRequest 更新推荐条目请求，缺省字段不变
type UpdateReferralRequest struct {
	Name               *string           `json:"name"`
	Description        *string           `json:"description"`
	Category           *string           `json:"category"`
	Company            *string           `json:"company"`
	PriceRange         *string           `json:"price_range"`
	Rating             *float64          `json:"rating"`
	ReferralURL        *string           `json:"referral_url"`
	OriginalURL        *string           `json:"original_url"`
	ImageURL           *string           `json:"image_url"`
	LogoURL            *string           `json:"logo_url"`
	Discount           *string           `json:"discount"`
	Bonus              *string           `json:"bonus"`
	Features           map[string]string `json:"features"`
	Pros               map[string]string `json:"pros"`
	Cons               map[string]string `json:"cons"`
	TargetAudience     map[string]bool   `json:"target_audience"`
	UseCase            *string           `json:"use_case"`
	PersonalExperience *string           `json:"personal_experience"`
	IsActive           *bool             `json:"is_active"`
	IsFeatured         *bool             `json:"is_featured"`
	Priority           *int              `json:"priority"`
}

// ListReferrals 管理端推荐列表
func (h *Handler) ListReferrals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ReferralListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   strings.TrimSpace(c.Query("category")),
		PriceRange: strings.TrimSpace(c.Query("price_range")),
		Search:     strings.TrimSpace(c.Query("search")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		isActive := raw == "true" || raw == "1"
		filter.IsActive = &isActive
	}
	if raw := strings.TrimSpace(c.Query("is_featured")); raw != "" {
		isFeatured := raw == "true" || raw == "1"
		filter.IsFeatured = &isFeatured
	}

	rows, total, err := h.ReferralService.ListReferrals(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetReferral 管理端推荐详情
func (h *Handler) GetReferral(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	referral, err := h.ReferralService.GetReferral(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.referral_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, referral)
}

// CreateReferral 创建推荐条目
func (h *Handler) CreateReferral(c *gin.Context) {
	var req CreateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	referral, err := h.ReferralService.CreateReferral(service.CreateReferralInput{
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Company:            req.Company,
		PriceRange:         req.PriceRange,
		Rating:             decimal.NewFromFloat(req.Rating),
		ReferralURL:        req.ReferralURL,
		OriginalURL:        req.OriginalURL,
		ImageURL:           req.ImageURL,
		LogoURL:            req.LogoURL,
		Discount:           req.Discount,
		Bonus:              req.Bonus,
		Features:           models.StringMap(req.Features),
		Pros:               models.StringMap(req.Pros),
		Cons:               models.StringMap(req.Cons),
		TargetAudience:     models.BoolMap(req.TargetAudience),
		UseCase:            req.UseCase,
		PersonalExperience: req.PersonalExperience,
		IsActive:           req.IsActive,
		IsFeatured:         req.IsFeatured,
		Priority:           req.Priority,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	requestLog(c).Infow("admin_referral_created",
		"operator_admin_id", currentAdminID(c),
		"referral_id", referral.ID,
		"name", referral.Name,
	)
	response.Success(c, referral)
}

// UpdateReferral 更新推荐条目
func (h *Handler) UpdateReferral(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req UpdateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	input := service.UpdateReferralInput{
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		Company:            req.Company,
		PriceRange:         req.PriceRange,
		ReferralURL:        req.ReferralURL,
		OriginalURL:        req.OriginalURL,
		ImageURL:           req.ImageURL,
		LogoURL:            req.LogoURL,
		Discount:           req.Discount,
		Bonus:              req.Bonus,
		Features:           models.StringMap(req.Features),
		Pros:               models.StringMap(req.Pros),
		Cons:               models.StringMap(req.Cons),
		TargetAudience:     models.BoolMap(req.TargetAudience),
		UseCase:            req.UseCase,
		PersonalExperience: req.PersonalExperience,
		IsActive:           req.IsActive,
		IsFeatured:         req.IsFeatured,
		Priority:           req.Priority,
	}
	if req.Rating != nil {
		rating := decimal.NewFromFloat(*req.Rating)
		input.Rating = &rating
	}

	referral, err := h.ReferralService.UpdateReferral(id, input)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.referral_not_found", nil)
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	requestLog(c).Infow("admin_referral_updated",
		"operator_admin_id", currentAdminID(c),
		"referral_id", referral.ID,
	)
	response.Success(c, referral)
}

// DeleteReferral 删除推荐条目及其点击记录
func (h *Handler) DeleteReferral(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	if err := h.ReferralService.DeleteReferral(id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.referral_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.delete_failed", err)
		return
	}

	requestLog(c).Infow("admin_referral_deleted",
		"operator_admin_id", currentAdminID(c),
		"referral_id", id,
	)
	response.Success(c, nil)
}

// GetReferralStats 推荐统计汇总
func (h *Handler) GetReferralStats(c *gin.Context) {
	stats, err := h.ReferralService.GetStats()
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// GetReferralDetailStats 单个推荐条目的统计
func (h *Handler) GetReferralDetailStats(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	stats, err := h.ReferralService.GetReferralStats(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.referral_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.Success(c, stats)
}

// ListReferralClicks 单个推荐条目的点击记录
func (h *Handler) ListReferralClicks(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	if _, err := h.ReferralService.GetReferral(id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.referral_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ReferralClickListFilter{
		Page:       page,
		PageSize:   pageSize,
		ReferralID: id,
	}
	if raw := strings.TrimSpace(c.Query("converted")); raw != "" {
		converted := raw == "true" || raw == "1"
		filter.Converted = &converted
	}

	rows, total, err := h.ReferralService.ListClicks(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
