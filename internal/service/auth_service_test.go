package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/refboard/internal/config"
	"github.com/refboard/internal/models"
	"github.com/refboard/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, repository.AdminRepository) {
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
	cfg.JWT.SecretKey = "test-secret-key-for-auth-service-tests"
	cfg.JWT.ExpireHours = 24
	adminRepo := repository.NewAdminRepository(db)
	return NewAuthService(cfg, adminRepo), adminRepo
}

func createTestAdmin(t *testing.T, svc *AuthService, adminRepo repository.AdminRepository, username, password string) *models.Admin {
	t.Helper()
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := &models.Admin{
		Username:     username,
		PasswordHash: hash,
	}
	if err := adminRepo.Create(admin); err != nil {
		t.Fatalf("create admin: %v", err)
	}
	return admin
}

func TestLoginSuccess(t *testing.T) {
	svc, adminRepo := setupAuthServiceTest(t)
	createTestAdmin(t, svc, adminRepo, "admin", "s3cret-pass")

	admin, token, expiresAt, err := svc.Login("admin", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	if expiresAt.IsZero() {
		t.Fatalf("expected expiry time")
	}
	if admin.LastLoginAt == nil {
		t.Fatalf("expected last_login_at to be set")
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt: %v", err)
	}
	if claims.AdminID != admin.ID {
		t.Fatalf("admin id want %d got %d", admin.ID, claims.AdminID)
	}
	if claims.Username != "admin" {
		t.Fatalf("username want admin got %s", claims.Username)
	}
	if claims.TokenVersion != admin.TokenVersion {
		t.Fatalf("token version want %d got %d", admin.TokenVersion, claims.TokenVersion)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, adminRepo := setupAuthServiceTest(t)
	createTestAdmin(t, svc, adminRepo, "admin", "s3cret-pass")

	if _, _, _, err := svc.Login("admin", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login("nobody", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user want ErrInvalidCredentials got %v", err)
	}
}

func TestParseJWTRejectsTampered(t *testing.T) {
	svc, adminRepo := setupAuthServiceTest(t)
	createTestAdmin(t, svc, adminRepo, "admin", "s3cret-pass")

	_, token, _, err := svc.Login("admin", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := svc.ParseJWT(token + "x"); err == nil {
		t.Fatalf("expected error for tampered token")
	}
	if _, err := svc.ParseJWT("not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestChangePassword(t *testing.T) {
	svc, adminRepo := setupAuthServiceTest(t)
	admin := createTestAdmin(t, svc, adminRepo, "admin", "old-pass-123")

	if err := svc.ChangePassword(admin.ID, "wrong-old", "new-pass-456"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong old password want ErrInvalidPassword got %v", err)
	}
	if err := svc.ChangePassword(9999, "old-pass-123", "new-pass-456"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing admin want ErrNotFound got %v", err)
	}

	if err := svc.ChangePassword(admin.ID, "old-pass-123", "new-pass-456"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	updated, err := adminRepo.GetByID(admin.ID)
	if err != nil {
		t.Fatalf("get admin: %v", err)
	}
	if err := svc.VerifyPassword(updated.PasswordHash, "new-pass-456"); err != nil {
		t.Fatalf("new password should verify: %v", err)
	}
	if err := svc.VerifyPassword(updated.PasswordHash, "old-pass-123"); err == nil {
		t.Fatalf("old password should no longer verify")
	}
	if updated.TokenVersion != admin.TokenVersion+1 {
		t.Fatalf("token version want %d got %d", admin.TokenVersion+1, updated.TokenVersion)
	}
	if updated.TokenInvalidBefore == nil {
		t.Fatalf("expected token_invalid_before to be set")
	}
}

func TestChangePasswordPolicy(t *testing.T) {
	svc, adminRepo := setupAuthServiceTest(t)
	svc.cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{
		MinLength:     10,
		RequireNumber: true,
	}
	admin := createTestAdmin(t, svc, adminRepo, "admin", "old-pass-123")

	if err := svc.ChangePassword(admin.ID, "old-pass-123", "short1"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("short password want ErrWeakPassword got %v", err)
	}
	if err := svc.ChangePassword(admin.ID, "old-pass-123", "no-digits-here"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("password without digit want ErrWeakPassword got %v", err)
	}
	if err := svc.ChangePassword(admin.ID, "old-pass-123", "long-enough-42"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
}

func TestValidatePasswordPolicyKeys(t *testing.T) {
	policy := config.PasswordPolicyConfig{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireNumber:  true,
		RequireSpecial: true,
	}

	err := validatePassword(policy, "abc")
	var perr passwordPolicyError
	if !errors.As(err, &perr) {
		t.Fatalf("want passwordPolicyError got %v", err)
	}
	if perr.Key() != "error.password_min_length" {
		t.Fatalf("key want error.password_min_length got %s", perr.Key())
	}
	if len(perr.Args()) != 1 || perr.Args()[0] != 8 {
		t.Fatalf("args want [8] got %v", perr.Args())
	}

	err = validatePassword(policy, "alllower1!aa")
	if !errors.As(err, &perr) || perr.Key() != "error.password_require_upper" {
		t.Fatalf("want error.password_require_upper got %v", err)
	}

	if err := validatePassword(policy, "Str0ng!Pass"); err != nil {
		t.Fatalf("strong password rejected: %v", err)
	}
	if err := validatePassword(config.PasswordPolicyConfig{}, "x"); err != nil {
		t.Fatalf("empty policy should accept anything: %v", err)
	}
}
