package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/refboard/internal/config"
	"github.com/refboard/internal/i18n"

	"github.com/shopspring/decimal"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SetConfig 更新运行时邮件配置
func (s *EmailService) SetConfig(cfg *config.EmailConfig) {
	if cfg == nil {
		return
	}
	s.cfg = cfg
}

// ConversionAlertEmailInput 转化提醒邮件输入
type ConversionAlertEmailInput struct {
	ReferralName    string
	ClickID         string
	SessionID       string
	ConversionValue *decimal.Decimal
	ConvertedAt     time.Time
}

// SendConversionAlert 发送转化提醒邮件
func (s *EmailService) SendConversionAlert(toEmail string, input ConversionAlertEmailInput, locale string) error {
	subject, body := buildConversionAlertContent(input, locale)
	return s.sendTextEmail(toEmail, subject, body)
}

// StatsDigestEmailInput 统计摘要邮件输入
type StatsDigestEmailInput struct {
	TotalReferrals   int64
	ActiveReferrals  int64
	TotalClicks      int64
	TotalConversions int64
	ConversionRate   float64
	GeneratedAt      time.Time
}

// SendStatsDigest 发送统计摘要邮件
func (s *EmailService) SendStatsDigest(toEmail string, input StatsDigestEmailInput, locale string) error {
	subject, body := buildStatsDigestContent(input, locale)
	return s.sendTextEmail(toEmail, subject, body)
}

// SendCustomEmail 发送测试邮件或自定义邮件
func (s *EmailService) SendCustomEmail(toEmail, subject, body string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "SMTP 配置测试邮件"
	}
	body = strings.TrimSpace(body)
	if body == "" {
		body = "这是一封 SMTP 测试邮件，说明当前配置可正常发送。"
	}
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return normalizeEmailSendError(sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	if s.cfg.UseTLS {
		return normalizeEmailSendError(sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
	}
	return normalizeEmailSendError(sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg)))
}

func buildConversionAlertContent(input ConversionAlertEmailInput, locale string) (string, string) {
	normalized := normalizeLocale(locale)
	value := "-"
	if input.ConversionValue != nil {
		value = input.ConversionValue.StringFixed(2)
	}
	when := input.ConvertedAt.Format("2006-01-02 15:04:05")
	switch normalized {
	case i18n.LocaleTW:
		subject := fmt.Sprintf("轉化提醒：%s", input.ReferralName)
		body := fmt.Sprintf("推薦條目「%s」有一筆新的轉化。\n\n點擊ID：%s\n會話：%s\n轉化金額：%s\n轉化時間：%s",
			input.ReferralName, input.ClickID, input.SessionID, value, when)
		return subject, body
	case i18n.LocaleEN:
		subject := fmt.Sprintf("Conversion alert: %s", input.ReferralName)
		body := fmt.Sprintf("Referral %q just recorded a new conversion.\n\nClick ID: %s\nSession: %s\nConversion value: %s\nConverted at: %s",
			input.ReferralName, input.ClickID, input.SessionID, value, when)
		return subject, body
	default:
		subject := fmt.Sprintf("转化提醒：%s", input.ReferralName)
		body := fmt.Sprintf("推荐条目「%s」有一笔新的转化。\n\n点击ID：%s\n会话：%s\n转化金额：%s\n转化时间：%s",
			input.ReferralName, input.ClickID, input.SessionID, value, when)
		return subject, body
	}
}

func buildStatsDigestContent(input StatsDigestEmailInput, locale string) (string, string) {
	normalized := normalizeLocale(locale)
	date := input.GeneratedAt.Format("2006-01-02")
	switch normalized {
	case i18n.LocaleTW:
		subject := fmt.Sprintf("推薦統計摘要 %s", date)
		body := fmt.Sprintf("條目總數：%d\n啟用條目：%d\n累計點擊：%d\n累計轉化：%d\n轉化率：%.2f%%",
			input.TotalReferrals, input.ActiveReferrals, input.TotalClicks, input.TotalConversions, input.ConversionRate)
		return subject, body
	case i18n.LocaleEN:
		subject := fmt.Sprintf("Referral stats digest %s", date)
		body := fmt.Sprintf("Total referrals: %d\nActive referrals: %d\nTotal clicks: %d\nTotal conversions: %d\nConversion rate: %.2f%%",
			input.TotalReferrals, input.ActiveReferrals, input.TotalClicks, input.TotalConversions, input.ConversionRate)
		return subject, body
	default:
		subject := fmt.Sprintf("推荐统计摘要 %s", date)
		body := fmt.Sprintf("条目总数：%d\n启用条目：%d\n累计点击：%d\n累计转化：%d\n转化率：%.2f%%",
			input.TotalReferrals, input.ActiveReferrals, input.TotalClicks, input.TotalConversions, input.ConversionRate)
		return subject, body
	}
}

func normalizeLocale(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case strings.HasPrefix(l, "zh-tw"), strings.HasPrefix(l, "zh-hk"), strings.HasPrefix(l, "zh-mo"):
		return i18n.LocaleTW
	case strings.HasPrefix(l, "en"):
		return i18n.LocaleEN
	default:
		return i18n.LocaleZH
	}
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return ErrEmailRecipientRejected
	}
	return err
}

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	directKeywords := []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	for _, keyword := range directKeywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	if strings.Contains(message, "550") {
		hints := []string{"recipient", "user", "mailbox", "address", "rcpt"}
		for _, hint := range hints {
			if strings.Contains(message, hint) {
				return true
			}
		}
	}
	return false
}
