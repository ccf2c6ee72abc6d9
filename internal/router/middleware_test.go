package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/refboard/internal/authz"
	"github.com/refboard/internal/config"
	"github.com/refboard/internal/models"
	"github.com/refboard/internal/repository"
	"github.com/refboard/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testJWTSecret = "router-test-secret-key-0123456789"

func TestResolveAllowedOrigin(t *testing.T) {
	got := resolveAllowedOrigin("https://example.com", []string{"*"}, false)
	if got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}

	got = resolveAllowedOrigin("https://example.com", []string{"*"}, true)
	if got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://a.example.com", []string{"https://a.example.com", "https://b.example.com"}, false)
	if got != "https://a.example.com" {
		t.Fatalf("allow-list should return matched origin, got %s", got)
	}

	got = resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false)
	if got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w2, req2)
	if strings.TrimSpace(w2.Header().Get(requestIDHeader)) == "" {
		t.Fatalf("generated request id should not be empty")
	}
}

func setupAuthMiddlewareTest(t *testing.T) (*service.AuthService, repository.AdminRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := &config.Config{}
	cfg.JWT.SecretKey = testJWTSecret
	cfg.JWT.ExpireHours = 1
	adminRepo := repository.NewAdminRepository(db)
	return service.NewAuthService(cfg, adminRepo), adminRepo
}

func newProtectedRouter(adminRepo repository.AdminRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuthMiddleware(testJWTSecret, adminRepo))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"admin_id": c.GetUint("admin_id")})
	})
	return r
}

func envelopeStatusCode(t *testing.T, body []byte) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(JWTAuthMiddleware("", nil))
	r.GET("/admin/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	if code := envelopeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestJWTAuthMiddlewareValidToken(t *testing.T) {
	authService, adminRepo := setupAuthMiddlewareTest(t)

	hash, err := authService.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := &models.Admin{Username: "admin", PasswordHash: hash}
	if err := adminRepo.Create(admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token, _, err := authService.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate jwt: %v", err)
	}

	r := newProtectedRouter(adminRepo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status want 200 got %d", w.Code)
	}
	var resp map[string]uint
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["admin_id"] != admin.ID {
		t.Fatalf("admin_id want %d got %d", admin.ID, resp["admin_id"])
	}

	// 缺头与坏头都应返回 401 业务码
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	r.ServeHTTP(w2, req2)
	if code := envelopeStatusCode(t, w2.Body.Bytes()); code != 401 {
		t.Fatalf("missing header status_code want 401 got %d", code)
	}

	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req3.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w3, req3)
	if code := envelopeStatusCode(t, w3.Body.Bytes()); code != 401 {
		t.Fatalf("bad token status_code want 401 got %d", code)
	}
}

func TestJWTAuthMiddlewareRejectsOldTokenVersion(t *testing.T) {
	authService, adminRepo := setupAuthMiddlewareTest(t)

	hash, err := authService.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := &models.Admin{Username: "admin", PasswordHash: hash}
	if err := adminRepo.Create(admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token, _, err := authService.GenerateJWT(admin)
	if err != nil {
		t.Fatalf("generate jwt: %v", err)
	}

	admin.TokenVersion++
	if err := adminRepo.Update(admin); err != nil {
		t.Fatalf("update admin: %v", err)
	}

	r := newProtectedRouter(adminRepo)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	if code := envelopeStatusCode(t, w.Body.Bytes()); code != 401 {
		t.Fatalf("stale token status_code want 401 got %d", code)
	}
}

func TestAdminRBACMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("new authz service: %v", err)
	}
	if err := authzService.GrantRolePolicy("viewer", "/admin/referrals", "GET"); err != nil {
		t.Fatalf("grant policy: %v", err)
	}
	if err := authzService.SetAdminRoles(2, []string{"viewer"}); err != nil {
		t.Fatalf("set admin roles: %v", err)
	}

	newRouter := func(adminID uint, isSuper bool) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set("admin_id", adminID)
			c.Set(adminIsSuperContextKey, isSuper)
		})
		r.Use(AdminRBACMiddleware(authzService))
		r.GET("/api/v1/admin/referrals", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		r.DELETE("/api/v1/admin/referrals", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		return r
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/referrals", nil)
	newRouter(2, false).ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("granted admin should pass, got %s", w.Body.String())
	}

	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/referrals", nil)
	newRouter(2, false).ServeHTTP(w2, req2)
	if code := envelopeStatusCode(t, w2.Body.Bytes()); code != 403 {
		t.Fatalf("denied action status_code want 403 got %d", code)
	}

	// 超级管理员跳过策略判定
	w3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/referrals", nil)
	newRouter(99, true).ServeHTTP(w3, req3)
	if !strings.Contains(w3.Body.String(), `"ok":true`) {
		t.Fatalf("super admin should pass, got %s", w3.Body.String())
	}
}
