package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/refboard/internal/http/response"
	"github.com/refboard/internal/repository"
	"github.com/refboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ListClicks 管理端点击记录列表
func (h *Handler) ListClicks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ReferralClickListFilter{
		Page:       page,
		PageSize:   pageSize,
		ReferralID: strings.TrimSpace(c.Query("referral_id")),
		SessionID:  strings.TrimSpace(c.Query("session_id")),
		UserID:     strings.TrimSpace(c.Query("user_id")),
	}
	if raw := strings.TrimSpace(c.Query("converted")); raw != "" {
		converted := raw == "true" || raw == "1"
		filter.Converted = &converted
	}
	if raw := strings.TrimSpace(c.Query("clicked_from")); raw != "" {
		if from, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.ClickedFrom = &from
		}
	}
	if raw := strings.TrimSpace(c.Query("clicked_to")); raw != "" {
		if to, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.ClickedTo = &to
		}
	}

	rows, total, err := h.ReferralService.ListClicks(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ConvertClickRequest 转化标记请求
type ConvertClickRequest struct {
	ConversionValue *float64 `json:"conversion_value"`
}

// ConvertClick 将点击标记为已转化，重复调用幂等
func (h *Handler) ConvertClick(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	// 请求体可为空，空体等价于不带转化金额
	var req ConvertClickRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}

	var value *decimal.Decimal
	if req.ConversionValue != nil {
		if *req.ConversionValue < 0 {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		v := decimal.NewFromFloat(*req.ConversionValue)
		value = &v
	}

	click, err := h.ReferralService.MarkClickConverted(id, value)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.click_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.save_failed", err)
		return
	}

	requestLog(c).Infow("admin_click_converted",
		"operator_admin_id", currentAdminID(c),
		"click_id", click.ID,
		"referral_id", click.ReferralID,
	)
	response.Success(c, click)
}
