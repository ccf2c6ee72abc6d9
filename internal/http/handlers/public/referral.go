package public

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/refboard/internal/cache"
	"github.com/refboard/internal/http/response"
	"github.com/refboard/internal/models"
	"github.com/refboard/internal/repository"
	"github.com/refboard/internal/service"

	"github.com/gin-gonic/gin"
)

// cachedReferralList 公开列表缓存载体
type cachedReferralList struct {
	Rows       []models.Referral   `json:"rows"`
	Pagination response.Pagination `json:"pagination"`
}

// ListReferrals 公开推荐列表，仅返回启用条目
func (h *Handler) ListReferrals(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	category := strings.TrimSpace(c.Query("category"))
	priceRange := strings.TrimSpace(c.Query("price_range"))
	featured := strings.TrimSpace(c.Query("featured"))

	// 默认无筛选首页走缓存
	cacheable := page == 1 && pageSize == 20 && category == "" && priceRange == "" && featured == ""
	if cacheable {
		var cached cachedReferralList
		if hit, err := cache.GetJSON(c.Request.Context(), service.PublicListCacheKey, &cached); err == nil && hit {
			response.SuccessWithPage(c, cached.Rows, cached.Pagination)
			return
		}
	}

	filter := repository.ReferralListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   category,
		PriceRange: priceRange,
		OnlyActive: true,
	}
	if featured != "" {
		isFeatured := featured == "true" || featured == "1"
		filter.IsFeatured = &isFeatured
	}

	rows, total, err := h.ReferralService.ListReferrals(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)

	if cacheable {
		ttl := time.Duration(h.Config.Referral.ListCacheTTLSeconds) * time.Second
		if ttl > 0 {
			if err := cache.SetJSON(c.Request.Context(), service.PublicListCacheKey, cachedReferralList{
				Rows:       rows,
				Pagination: pagination,
			}, ttl); err != nil {
				requestLog(c).Warnw("public_referral_list_cache_set_failed", "error", err)
			}
		}
	}

	response.SuccessWithPage(c, rows, pagination)
}

// GetReferral 公开推荐详情，未启用条目视为不存在
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
	if !referral.IsActive {
		respondError(c, response.CodeNotFound, "error.referral_not_found", nil)
		return
	}

	response.Success(c, referral)
}

// TrackClickRequest 点击上报请求
type TrackClickRequest struct {
	SessionID string  `json:"session_id" binding:"required"`
	UserID    *string `json:"user_id"`
	Referrer  string  `json:"referrer"`
}

// TrackClick 记录出站点击
func (h *Handler) TrackClick(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req TrackClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	click, err := h.ReferralService.TrackClick(service.TrackClickInput{
		ReferralID: id,
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Referrer:   req.Referrer,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.referral_not_found", nil)
			return
		}
		if errors.Is(err, service.ErrInvalidInput) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		// 点击落库失败不阻断跳转
		requestLog(c).Errorw("public_track_click_failed", "referral_id", id, "error", err)
		response.Success(c, gin.H{"tracked": false})
		return
	}

	response.Success(c, gin.H{
		"tracked":    true,
		"click_id":   click.ID,
		"clicked_at": click.ClickedAt,
	})
}
