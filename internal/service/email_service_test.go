package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/refboard/internal/config"
	"github.com/refboard/internal/i18n"

	"github.com/shopspring/decimal"
)

func TestBuildConversionAlertContent(t *testing.T) {
	value := decimal.NewFromFloat(29.9)
	input := ConversionAlertEmailInput{
		ReferralName:    "CloudBox VPS",
		ClickID:         "click-1",
		SessionID:       "sess-1",
		ConversionValue: &value,
		ConvertedAt:     time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
	}

	subject, body := buildConversionAlertContent(input, i18n.LocaleZH)
	if !strings.Contains(subject, "转化提醒") || !strings.Contains(subject, "CloudBox VPS") {
		t.Fatalf("unexpected zh subject: %q", subject)
	}
	if !strings.Contains(body, "29.90") || !strings.Contains(body, "click-1") {
		t.Fatalf("unexpected zh body: %q", body)
	}

	subject, body = buildConversionAlertContent(input, i18n.LocaleEN)
	if !strings.Contains(subject, "Conversion alert") {
		t.Fatalf("unexpected en subject: %q", subject)
	}
	if !strings.Contains(body, "Session: sess-1") {
		t.Fatalf("unexpected en body: %q", body)
	}

	input.ConversionValue = nil
	_, body = buildConversionAlertContent(input, i18n.LocaleEN)
	if !strings.Contains(body, "Conversion value: -") {
		t.Fatalf("nil value should render dash, got %q", body)
	}
}

func TestBuildStatsDigestContent(t *testing.T) {
	input := StatsDigestEmailInput{
		TotalReferrals:   4,
		ActiveReferrals:  3,
		TotalClicks:      120,
		TotalConversions: 18,
		ConversionRate:   15,
		GeneratedAt:      time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	subject, body := buildStatsDigestContent(input, i18n.LocaleEN)
	if !strings.Contains(subject, "2026-02-01") {
		t.Fatalf("subject should contain date, got %q", subject)
	}
	if !strings.Contains(body, "Total clicks: 120") || !strings.Contains(body, "15.00%") {
		t.Fatalf("unexpected en body: %q", body)
	}

	subject, _ = buildStatsDigestContent(input, i18n.LocaleTW)
	if !strings.Contains(subject, "推薦統計摘要") {
		t.Fatalf("unexpected tw subject: %q", subject)
	}
}

func TestNormalizeEmailLocale(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"", i18n.LocaleZH},
		{"zh-CN", i18n.LocaleZH},
		{"zh-TW", i18n.LocaleTW},
		{"zh-HK", i18n.LocaleTW},
		{"en", i18n.LocaleEN},
		{"en-GB", i18n.LocaleEN},
		{"fr", i18n.LocaleZH},
	}
	for _, tc := range cases {
		if got := normalizeLocale(tc.input); got != tc.want {
			t.Fatalf("normalizeLocale(%q) want %s got %s", tc.input, tc.want, got)
		}
	}
}

func TestSendTextEmailGuards(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	err := svc.SendCustomEmail("user@example.com", "subject", "body")
	if !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("disabled config want ErrEmailServiceDisabled got %v", err)
	}

	svc.SetConfig(&config.EmailConfig{Enabled: true})
	err = svc.SendCustomEmail("user@example.com", "subject", "body")
	if !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("missing host want ErrEmailServiceNotConfigured got %v", err)
	}

	svc.SetConfig(&config.EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "noreply@example.com",
	})
	err = svc.SendCustomEmail("not-an-email", "subject", "body")
	if !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad recipient want ErrInvalidEmail got %v", err)
	}
}

func TestBuildEmailMessage(t *testing.T) {
	from := buildFromAddress("noreply@example.com", "RefBoard 通知")
	if !strings.Contains(from, "noreply@example.com") {
		t.Fatalf("from should contain address, got %q", from)
	}
	if strings.Contains(from, "通知") {
		t.Fatalf("display name should be encoded, got %q", from)
	}

	msg := buildEmailMessage(from, "user@example.com", "测试主题", "正文内容")
	if !strings.Contains(msg, "To: user@example.com\r\n") {
		t.Fatalf("message missing To header: %q", msg)
	}
	if !strings.Contains(msg, "Content-Type: text/plain; charset=UTF-8\r\n") {
		t.Fatalf("message missing content type: %q", msg)
	}
	if !strings.HasSuffix(msg, "正文内容") {
		t.Fatalf("message should end with body: %q", msg)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	cases := []struct {
		message string
		want    bool
	}{
		{"550 5.1.1 no such recipient here", true},
		{"recipient address rejected: access denied", true},
		{"550 mailbox unavailable", true},
		{"450 try again later", false},
		{"connection refused", false},
		{"", false},
	}
	for _, tc := range cases {
		var err error
		if tc.message != "" {
			err = errors.New(tc.message)
		}
		if got := isEmailRecipientRejected(err); got != tc.want {
			t.Fatalf("isEmailRecipientRejected(%q) want %v got %v", tc.message, tc.want, got)
		}
	}
}
