package service

import (
	"errors"
	"strings"
	"time"

	"github.com/refboard/internal/config"
	"github.com/refboard/internal/logger"
	"github.com/refboard/internal/queue"
	"github.com/refboard/internal/repository"
)

// NotificationService 转化提醒与统计摘要通知服务
type NotificationService struct {
	cfg             *config.Config
	emailService    *EmailService
	referralService *ReferralService
	referralRepo    repository.ReferralRepository
	clickRepo       repository.ReferralClickRepository
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	cfg *config.Config,
	emailService *EmailService,
	referralService *ReferralService,
	referralRepo repository.ReferralRepository,
	clickRepo repository.ReferralClickRepository,
) *NotificationService {
	return &NotificationService{
		cfg:             cfg,
		emailService:    emailService,
		referralService: referralService,
		referralRepo:    referralRepo,
		clickRepo:       clickRepo,
	}
}

// HandleConversionAlert 处理转化提醒任务
func (s *NotificationService) HandleConversionAlert(payload queue.ConversionAlertPayload) error {
	toEmail := strings.TrimSpace(s.cfg.Referral.AlertEmail)
	if toEmail == "" {
		return nil
	}

	click, err := s.clickRepo.GetByID(payload.ClickID)
	if err != nil {
		return err
	}
	if click == nil {
		// 点击已被删除，任务无需重试
		logger.Warnw("conversion_alert_click_missing", "click_id", payload.ClickID)
		return nil
	}
	referral, err := s.referralRepo.GetByID(click.ReferralID)
	if err != nil {
		return err
	}
	referralName := click.ReferralID
	if referral != nil {
		referralName = referral.Name
	}

	input := ConversionAlertEmailInput{
		ReferralName:    referralName,
		ClickID:         click.ID,
		SessionID:       click.SessionID,
		ConversionValue: click.ConversionValue,
		ConvertedAt:     time.Now(),
	}
	if err := s.emailService.SendConversionAlert(toEmail, input, ""); err != nil {
		if errors.Is(err, ErrEmailServiceDisabled) || errors.Is(err, ErrEmailServiceNotConfigured) {
			logger.Infow("conversion_alert_email_skipped", "reason", err.Error())
			return nil
		}
		return err
	}
	logger.Infow("conversion_alert_email_sent", "click_id", click.ID, "to", toEmail)
	return nil
}

// HandleStatsDigest 处理统计摘要任务
func (s *NotificationService) HandleStatsDigest(payload queue.StatsDigestPayload) error {
	toEmail := strings.TrimSpace(s.cfg.Referral.AlertEmail)
	if toEmail == "" {
		return nil
	}

	stats, err := s.referralService.GetStats()
	if err != nil {
		return err
	}
	input := StatsDigestEmailInput{
		TotalReferrals:   stats.TotalReferrals,
		ActiveReferrals:  stats.ActiveReferrals,
		TotalClicks:      stats.TotalClicks,
		TotalConversions: stats.TotalConversions,
		ConversionRate:   stats.ConversionRate,
		GeneratedAt:      time.Now(),
	}
	if err := s.emailService.SendStatsDigest(toEmail, input, payload.Locale); err != nil {
		if errors.Is(err, ErrEmailServiceDisabled) || errors.Is(err, ErrEmailServiceNotConfigured) {
			logger.Infow("stats_digest_email_skipped", "reason", err.Error())
			return nil
		}
		return err
	}
	logger.Infow("stats_digest_email_sent", "to", toEmail)
	return nil
}
