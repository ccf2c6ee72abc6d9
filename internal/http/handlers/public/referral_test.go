package public

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
	"gorm.io/gorm"
)

func setupPublicHandlerTest(t *testing.T) (*gin.Engine, *service.ReferralService) {
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
	r.GET("/api/v1/public/referrals", handler.ListReferrals)
	r.GET("/api/v1/public/referrals/:id", handler.GetReferral)
	r.POST("/api/v1/public/referrals/:id/click", handler.TrackClick)
	return r, referralService
}

func createPublicReferral(t *testing.T, svc *service.ReferralService, name string, active bool) *models.Referral {
	t.Helper()
	referral, err := svc.CreateReferral(service.CreateReferralInput{
		Name:        name,
		Category:    constants.ReferralCategoryTools,
		ReferralURL: "https://example.com/?ref=" + name,
		IsActive:    &active,
	})
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}
	return referral
}

type publicEnvelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, body []byte) publicEnvelope {
	t.Helper()
	var resp publicEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp
}

func TestListReferralsOnlyActive(t *testing.T) {
	r, svc := setupPublicHandlerTest(t)
	createPublicReferral(t, svc, "Visible", true)
	createPublicReferral(t, svc, "Hidden", false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/referrals", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	resp := decodeEnvelope(t, w.Body.Bytes())
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d", resp.StatusCode)
	}
	var rows []models.Referral
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		t.Fatalf("unmarshal rows failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Name != "Visible" {
		t.Fatalf("rows want [Visible] got %+v", rows)
	}
	if !strings.Contains(w.Body.String(), `"total":1`) {
		t.Fatalf("expected pagination total 1, got %s", w.Body.String())
	}
}

func TestGetReferralHidesInactive(t *testing.T) {
	r, svc := setupPublicHandlerTest(t)
	visible := createPublicReferral(t, svc, "Visible", true)
	hidden := createPublicReferral(t, svc, "Hidden", false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/referrals/"+visible.ID, nil)
	r.ServeHTTP(w, req)
	if resp := decodeEnvelope(t, w.Body.Bytes()); resp.StatusCode != 0 {
		t.Fatalf("visible referral status_code want 0 got %d", resp.StatusCode)
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/public/referrals/"+hidden.ID, nil)
	r.ServeHTTP(w2, req2)
	if resp := decodeEnvelope(t, w2.Body.Bytes()); resp.StatusCode != 404 {
		t.Fatalf("inactive referral status_code want 404 got %d", resp.StatusCode)
	}

	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodGet, "/api/v1/public/referrals/no-such-id", nil)
	r.ServeHTTP(w3, req3)
	if resp := decodeEnvelope(t, w3.Body.Bytes()); resp.StatusCode != 404 {
		t.Fatalf("missing referral status_code want 404 got %d", resp.StatusCode)
	}
}

func TestTrackClickEndpoint(t *testing.T) {
	r, svc := setupPublicHandlerTest(t)
	referral := createPublicReferral(t, svc, "Visible", true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/referrals/"+referral.ID+"/click",
		strings.NewReader(`{"session_id":"sess-1","referrer":"https://blog.example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	r.ServeHTTP(w, req)

	resp := decodeEnvelope(t, w.Body.Bytes())
	if resp.StatusCode != 0 {
		t.Fatalf("status_code want 0 got %d", resp.StatusCode)
	}
	var data struct {
		Tracked bool   `json:"tracked"`
		ClickID string `json:"click_id"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("unmarshal data failed: %v", err)
	}
	if !data.Tracked || data.ClickID == "" {
		t.Fatalf("unexpected track result: %+v", data)
	}

	got, err := svc.GetReferral(referral.ID)
	if err != nil {
		t.Fatalf("get referral: %v", err)
	}
	if got.ClickCount != 1 {
		t.Fatalf("click count want 1 got %d", got.ClickCount)
	}

	// 缺少 session_id 触发入参校验
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/public/referrals/"+referral.ID+"/click",
		strings.NewReader(`{}`))
	req2.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w2, req2)
	if resp := decodeEnvelope(t, w2.Body.Bytes()); resp.StatusCode != 400 {
		t.Fatalf("missing session status_code want 400 got %d", resp.StatusCode)
	}

	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodPost, "/api/v1/public/referrals/no-such-id/click",
		strings.NewReader(`{"session_id":"sess-1"}`))
	req3.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w3, req3)
	if resp := decodeEnvelope(t, w3.Body.Bytes()); resp.StatusCode != 404 {
		t.Fatalf("missing referral status_code want 404 got %d", resp.StatusCode)
	}
}
