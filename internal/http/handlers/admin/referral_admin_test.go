package admin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/refboard/internal/config"
	"github.com/refboard/internal/constants"
	"github.com/refboard/internal/models"
	"github.com/refboard/internal/provider"
	"github.com/refboard/internal/repository"
	"github.com/refboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupAdminHandlerTest(t *testing.T) (*gin.Engine, *service.ReferralService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Referral{}, &models.ReferralClick{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{}
	cfg.Referral.EarningsPerConversion = 5
	referralService := service.NewReferralService(cfg,
		repository.NewReferralRepository(db),
		repository.NewReferralClickRepository(db),
		nil,
	)

	handler := New(&provider.Container{
		Config:          cfg,
		ReferralService: referralService,
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("admin_id", uint(1))
		c.Set("username", "admin")
	})
	r.GET("/api/v1/admin/referrals", handler.ListReferrals)
	r.POST("/api/v1/admin/referrals", handler.CreateReferral)
	r.GET("/api/v1/admin/referrals/stats", handler.GetReferralStats)
	r.PUT("/api/v1/admin/referrals/:id", handler.UpdateReferral)
	r.DELETE("/api/v1/admin/referrals/:id", handler.DeleteReferral)
	r.GET("/api/v1/admin/referrals/:id/stats", handler.GetReferralDetailStats)
	r.GET("/api/v1/admin/referrals/:id/clicks", handler.ListReferralClicks)
	r.GET("/api/v1/admin/clicks", handler.ListClicks)
	r.POST("/api/v1/admin/clicks/:id/convert", handler.ConvertClick)
	return r, referralService
}

type adminEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, adminEnvelope) {
	t.Helper()
	w := httptest.NewRecorder()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)

	var resp adminEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v (body=%s)", err, w.Body.String())
	}
	return w, resp
}

func TestCreateReferralEndpoint(t *testing.T) {
	r, _ := setupAdminHandlerTest(t)

	_, resp := doJSON(t, r, http.MethodPost, "/api/v1/admin/referrals", `{
		"name": "CloudBox VPS",
		"category": "hosting",
		"referral_url": "https://cloudbox.example.com/?ref=refboard",
		"rating": 4.5,
		"features": {"zh-CN": "KVM 虚拟化"},
		"target_audience": {"developer": true},
		"is_featured": true
	}`)
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var created models.Referral
	if err := json.Unmarshal(resp.Data, &created); err != nil {
		t.Fatalf("unmarshal referral failed: %v", err)
	}
	if created.ID == "" || !created.IsFeatured {
		t.Fatalf("unexpected created referral: %+v", created)
	}

	// 缺少必填字段
	_, resp = doJSON(t, r, http.MethodPost, "/api/v1/admin/referrals", `{"name": "Nameless"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("missing fields status_code want 400 got %d", resp.StatusCode)
	}

	// 非法分类
	_, resp = doJSON(t, r, http.MethodPost, "/api/v1/admin/referrals", `{
		"name": "Bad",
		"category": "gaming",
		"referral_url": "https://example.com"
	}`)
	if resp.StatusCode != 400 {
		t.Fatalf("bad category status_code want 400 got %d", resp.StatusCode)
	}
}

func TestUpdateAndDeleteReferralEndpoint(t *testing.T) {
	r, svc := setupAdminHandlerTest(t)
	referral, err := svc.CreateReferral(service.CreateReferralInput{
		Name:        "NoteFlow",
		Category:    constants.ReferralCategoryTools,
		ReferralURL: "https://noteflow.example.com",
	})
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}

	_, resp := doJSON(t, r, http.MethodPut, "/api/v1/admin/referrals/"+referral.ID, `{"is_active": false, "priority": 5}`)
	if resp.StatusCode != 0 {
		t.Fatalf("update status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var updated models.Referral
	if err := json.Unmarshal(resp.Data, &updated); err != nil {
		t.Fatalf("unmarshal referral failed: %v", err)
	}
	if updated.IsActive || updated.Priority != 5 {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	_, resp = doJSON(t, r, http.MethodPut, "/api/v1/admin/referrals/no-such-id", `{"priority": 1}`)
	if resp.StatusCode != 404 {
		t.Fatalf("update missing status_code want 404 got %d", resp.StatusCode)
	}

	_, resp = doJSON(t, r, http.MethodDelete, "/api/v1/admin/referrals/"+referral.ID, "")
	if resp.StatusCode != 0 {
		t.Fatalf("delete status_code want 0 got %d", resp.StatusCode)
	}
	_, resp = doJSON(t, r, http.MethodDelete, "/api/v1/admin/referrals/"+referral.ID, "")
	if resp.StatusCode != 404 {
		t.Fatalf("second delete status_code want 404 got %d", resp.StatusCode)
	}
}

func TestConvertClickEndpoint(t *testing.T) {
	r, svc := setupAdminHandlerTest(t)
	referral, err := svc.CreateReferral(service.CreateReferralInput{
		Name:        "FinTrack",
		Category:    constants.ReferralCategoryFinance,
		ReferralURL: "https://fintrack.example.com",
	})
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}
	click, err := svc.TrackClick(service.TrackClickInput{ReferralID: referral.ID, SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("track click: %v", err)
	}

	_, resp := doJSON(t, r, http.MethodPost, "/api/v1/admin/clicks/"+click.ID+"/convert", `{"conversion_value": 42.5}`)
	if resp.StatusCode != 0 {
		t.Fatalf("convert status_code want 0 got %d (%s)", resp.StatusCode, resp.Msg)
	}
	var converted models.ReferralClick
	if err := json.Unmarshal(resp.Data, &converted); err != nil {
		t.Fatalf("unmarshal click failed: %v", err)
	}
	if !converted.Converted {
		t.Fatalf("expected converted=true")
	}

	// 空请求体等价于不带转化金额，且重复转化保持幂等
	_, resp = doJSON(t, r, http.MethodPost, "/api/v1/admin/clicks/"+click.ID+"/convert", "")
	if resp.StatusCode != 0 {
		t.Fatalf("empty body convert status_code want 0 got %d", resp.StatusCode)
	}
	got, err := svc.GetReferral(referral.ID)
	if err != nil {
		t.Fatalf("get referral: %v", err)
	}
	if got.ConversionCount != 1 {
		t.Fatalf("conversion count want 1 got %d", got.ConversionCount)
	}

	_, resp = doJSON(t, r, http.MethodPost, "/api/v1/admin/clicks/"+click.ID+"/convert", `{"conversion_value": -1}`)
	if resp.StatusCode != 400 {
		t.Fatalf("negative value status_code want 400 got %d", resp.StatusCode)
	}

	_, resp = doJSON(t, r, http.MethodPost, "/api/v1/admin/clicks/no-such-id/convert", "")
	if resp.StatusCode != 404 {
		t.Fatalf("missing click status_code want 404 got %d", resp.StatusCode)
	}
}

func TestReferralDetailStatsEndpoint(t *testing.T) {
	r, svc := setupAdminHandlerTest(t)
	referral, err := svc.CreateReferral(service.CreateReferralInput{
		Name:        "CloudBox",
		Category:    constants.ReferralCategoryHosting,
		ReferralURL: "https://cloudbox.example.com",
	})
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}
	click, err := svc.TrackClick(service.TrackClickInput{ReferralID: referral.ID, SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("track click: %v", err)
	}
	if _, err := svc.MarkClickConverted(click.ID, nil); err != nil {
		t.Fatalf("mark converted: %v", err)
	}

	_, resp := doJSON(t, r, http.MethodGet, "/api/v1/admin/referrals/"+referral.ID+"/stats", "")
	if resp.StatusCode != 0 {
		t.Fatalf("detail stats status_code want 0 got %d", resp.StatusCode)
	}
	var stats service.ReferralDetailStats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		t.Fatalf("unmarshal stats failed: %v", err)
	}
	if stats.ClickCount != 1 || stats.ConversionCount != 1 {
		t.Fatalf("counts want 1/1 got %d/%d", stats.ClickCount, stats.ConversionCount)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/api/v1/admin/referrals/"+referral.ID+"/clicks", "")
	if resp.StatusCode != 0 {
		t.Fatalf("referral clicks status_code want 0 got %d", resp.StatusCode)
	}
	var rows []models.ReferralClick
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		t.Fatalf("unmarshal clicks failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != click.ID {
		t.Fatalf("unexpected click rows: %+v", rows)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/api/v1/admin/referrals/no-such-id/stats", "")
	if resp.StatusCode != 404 {
		t.Fatalf("missing referral status_code want 404 got %d", resp.StatusCode)
	}
}

func TestReferralStatsEndpoint(t *testing.T) {
	r, svc := setupAdminHandlerTest(t)
	referral, err := svc.CreateReferral(service.CreateReferralInput{
		Name:        "LearnHub",
		Category:    constants.ReferralCategoryEducation,
		ReferralURL: "https://learnhub.example.com",
	})
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}
	click, err := svc.TrackClick(service.TrackClickInput{ReferralID: referral.ID, SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("track click: %v", err)
	}
	if _, err := svc.MarkClickConverted(click.ID, nil); err != nil {
		t.Fatalf("mark converted: %v", err)
	}

	_, resp := doJSON(t, r, http.MethodGet, "/api/v1/admin/referrals/stats", "")
	if resp.StatusCode != 0 {
		t.Fatalf("stats status_code want 0 got %d", resp.StatusCode)
	}
	var stats service.ReferralStats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		t.Fatalf("unmarshal stats failed: %v", err)
	}
	if stats.TotalClicks != 1 || stats.TotalConversions != 1 {
		t.Fatalf("totals want 1/1 got %d/%d", stats.TotalClicks, stats.TotalConversions)
	}
	if stats.ConversionRate != 100 {
		t.Fatalf("conversion rate want 100 got %v", stats.ConversionRate)
	}
	if len(stats.TopPerformers) != 1 {
		t.Fatalf("top performers want 1 got %d", len(stats.TopPerformers))
	}
	if !stats.TopPerformers[0].EstimatedEarnings.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("estimated earnings want 5 got %s", stats.TopPerformers[0].EstimatedEarnings.String())
	}
}
