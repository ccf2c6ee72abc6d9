package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/refboard/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupReferralClickRepositoryTest(t *testing.T) (*GormReferralClickRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Referral{}, &models.ReferralClick{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewReferralClickRepository(db), db
}

func createTestClick(t *testing.T, repo *GormReferralClickRepository, mutate func(c *models.ReferralClick)) *models.ReferralClick {
	t.Helper()
	click := &models.ReferralClick{
		ReferralID: "ref-1",
		SessionID:  "sess-1",
		IPAddress:  "203.0.113.10",
	}
	if mutate != nil {
		mutate(click)
	}
	if err := repo.Create(click); err != nil {
		t.Fatalf("create click: %v", err)
	}
	return click
}

func TestReferralClickRepositoryCreateDefaults(t *testing.T) {
	repo, _ := setupReferralClickRepositoryTest(t)

	click := createTestClick(t, repo, nil)
	if click.ID == "" {
		t.Fatalf("expected generated id")
	}
	if click.ClickedAt.IsZero() {
		t.Fatalf("expected clicked_at to be set")
	}
	if click.Converted {
		t.Fatalf("new click should not be converted")
	}
}

func TestReferralClickRepositoryMarkConvertedIdempotent(t *testing.T) {
	repo, _ := setupReferralClickRepositoryTest(t)
	click := createTestClick(t, repo, nil)

	value := decimal.NewFromFloat(19.995)
	affected, err := repo.MarkConverted(click.ID, &value)
	if err != nil {
		t.Fatalf("mark converted: %v", err)
	}
	if affected != 1 {
		t.Fatalf("first mark affected want 1 got %d", affected)
	}

	got, err := repo.GetByID(click.ID)
	if err != nil {
		t.Fatalf("get click: %v", err)
	}
	if !got.Converted {
		t.Fatalf("expected converted=true")
	}
	if got.ConversionValue == nil || !got.ConversionValue.Equal(decimal.NewFromFloat(20.00)) {
		t.Fatalf("conversion value want 20.00 got %v", got.ConversionValue)
	}

	affected, err = repo.MarkConverted(click.ID, &value)
	if err != nil {
		t.Fatalf("mark converted again: %v", err)
	}
	if affected != 0 {
		t.Fatalf("second mark affected want 0 got %d", affected)
	}

	affected, err = repo.MarkConverted("no-such-id", nil)
	if err != nil {
		t.Fatalf("mark missing: %v", err)
	}
	if affected != 0 {
		t.Fatalf("missing mark affected want 0 got %d", affected)
	}
}

func TestReferralClickRepositoryListFilters(t *testing.T) {
	repo, _ := setupReferralClickRepositoryTest(t)

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	userID := "user-9"
	createTestClick(t, repo, func(c *models.ReferralClick) {
		c.SessionID = "sess-old"
		c.ClickedAt = base.Add(-2 * time.Hour)
	})
	createTestClick(t, repo, func(c *models.ReferralClick) {
		c.SessionID = "sess-new"
		c.UserID = &userID
		c.ClickedAt = base
		c.Converted = true
	})
	createTestClick(t, repo, func(c *models.ReferralClick) {
		c.ReferralID = "ref-2"
		c.SessionID = "sess-other"
		c.ClickedAt = base.Add(-1 * time.Hour)
	})

	rows, total, err := repo.List(ReferralClickListFilter{ReferralID: "ref-1", Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list by referral: %v", err)
	}
	if total != 2 {
		t.Fatalf("referral filter total want 2 got %d", total)
	}
	if rows[0].SessionID != "sess-new" || rows[1].SessionID != "sess-old" {
		t.Fatalf("unexpected ordering: %s, %s", rows[0].SessionID, rows[1].SessionID)
	}

	converted := true
	_, total, err = repo.List(ReferralClickListFilter{Converted: &converted, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list converted: %v", err)
	}
	if total != 1 {
		t.Fatalf("converted filter total want 1 got %d", total)
	}

	_, total, err = repo.List(ReferralClickListFilter{UserID: userID, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if total != 1 {
		t.Fatalf("user filter total want 1 got %d", total)
	}

	from := base.Add(-90 * time.Minute)
	to := base.Add(-30 * time.Minute)
	rows, total, err = repo.List(ReferralClickListFilter{ClickedFrom: &from, ClickedTo: &to, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list by time window: %v", err)
	}
	if total != 1 || rows[0].SessionID != "sess-other" {
		t.Fatalf("time window want sess-other got total=%d", total)
	}
}

func TestReferralClickRepositoryConversionStats(t *testing.T) {
	repo, _ := setupReferralClickRepositoryTest(t)

	v1 := decimal.NewFromFloat(10.50)
	v2 := decimal.NewFromFloat(4.25)
	createTestClick(t, repo, func(c *models.ReferralClick) {
		c.Converted = true
		c.ConversionValue = &v1
	})
	createTestClick(t, repo, func(c *models.ReferralClick) {
		c.Converted = true
		c.ConversionValue = &v2
	})
	createTestClick(t, repo, nil)
	createTestClick(t, repo, func(c *models.ReferralClick) {
		c.ReferralID = "ref-2"
		c.Converted = true
	})

	total, err := repo.CountByReferral("ref-1")
	if err != nil {
		t.Fatalf("count by referral: %v", err)
	}
	if total != 3 {
		t.Fatalf("click count want 3 got %d", total)
	}

	convertedTotal, err := repo.CountConvertedByReferral("ref-1")
	if err != nil {
		t.Fatalf("count converted: %v", err)
	}
	if convertedTotal != 2 {
		t.Fatalf("converted count want 2 got %d", convertedTotal)
	}

	sum, err := repo.SumConversionValue("ref-1")
	if err != nil {
		t.Fatalf("sum conversion value: %v", err)
	}
	if !sum.Equal(decimal.NewFromFloat(14.75)) {
		t.Fatalf("conversion sum want 14.75 got %s", sum.String())
	}
}
