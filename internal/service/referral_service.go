package service

import (
	"context"
	"strings"
	"time"

	"github.com/refboard/internal/cache"
	"github.com/refboard/internal/config"
	"github.com/refboard/internal/constants"
	"github.com/refboard/internal/logger"
	"github.com/refboard/internal/models"
	"github.com/refboard/internal/queue"
	"github.com/refboard/internal/repository"

	"github.com/mssola/useragent"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PublicListCacheKey 公开推荐列表缓存键
const PublicListCacheKey = "referral:public_list"

var validCategories = map[string]bool{
	constants.ReferralCategoryHosting:   true,
	constants.ReferralCategoryTools:     true,
	constants.ReferralCategoryFinance:   true,
	constants.ReferralCategoryMarketing: true,
	constants.ReferralCategoryEducation: true,
	constants.ReferralCategoryOther:     true,
}

var validPriceRanges = map[string]bool{
	constants.ReferralPriceFree:     true,
	constants.ReferralPriceBudget:   true,
	constants.ReferralPriceMidRange: true,
	constants.ReferralPricePremium:  true,
}

// ReferralService 推荐业务服务
type ReferralService struct {
	cfg          *config.Config
	referralRepo repository.ReferralRepository
	clickRepo    repository.ReferralClickRepository
	queueClient  *queue.Client
}

// NewReferralService 创建推荐业务服务
func NewReferralService(
	cfg *config.Config,
	referralRepo repository.ReferralRepository,
	clickRepo repository.ReferralClickRepository,
	queueClient *queue.Client,
) *ReferralService {
	return &ReferralService{
		cfg:          cfg,
		referralRepo: referralRepo,
		clickRepo:    clickRepo,
		queueClient:  queueClient,
	}
}

// CreateReferralInput 创建推荐条目输入
type CreateReferralInput struct {
	Name               string
	Description        string
	Category           string
	Company            string
	PriceRange         string
	Rating             decimal.Decimal
	ReferralURL        string
	OriginalURL        string
	ImageURL           string
	LogoURL            string
	Discount           string
	Bonus              string
	Features           models.StringMap
	Pros               models.StringMap
	Cons               models.StringMap
	TargetAudience     models.BoolMap
	UseCase            string
	PersonalExperience string
	IsActive           *bool
	IsFeatured         bool
	Priority           int
}

// UpdateReferralInput 更新推荐条目输入，nil 字段不变
type UpdateReferralInput struct {
	Name               *string
	Description        *string
	Category           *string
	Company            *string
	PriceRange         *string
	Rating             *decimal.Decimal
	ReferralURL        *string
	OriginalURL        *string
	ImageURL           *string
	LogoURL            *string
	Discount           *string
	Bonus              *string
	Features           models.StringMap
	Pros               models.StringMap
	Cons               models.StringMap
	TargetAudience     models.BoolMap
	UseCase            *string
	PersonalExperience *string
	IsActive           *bool
	IsFeatured         *bool
	Priority           *int
}

// CreateReferral 创建推荐条目
func (s *ReferralService) CreateReferral(input CreateReferralInput) (*models.Referral, error) {
	name := strings.TrimSpace(input.Name)
	referralURL := strings.TrimSpace(input.ReferralURL)
	if name == "" || referralURL == "" {
		return nil, ErrInvalidInput
	}
	category := strings.ToLower(strings.TrimSpace(input.Category))
	if !validCategories[category] {
		return nil, ErrInvalidInput
	}
	if priceRange := strings.TrimSpace(input.PriceRange); priceRange != "" && !validPriceRanges[priceRange] {
		return nil, ErrInvalidInput
	}
	if err := validateRating(input.Rating); err != nil {
		return nil, err
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	referral := &models.Referral{
		Name:               name,
		Description:        strings.TrimSpace(input.Description),
		Category:           category,
		Company:            strings.TrimSpace(input.Company),
		PriceRange:         strings.TrimSpace(input.PriceRange),
		Rating:             input.Rating,
		ReferralURL:        referralURL,
		OriginalURL:        strings.TrimSpace(input.OriginalURL),
		ImageURL:           strings.TrimSpace(input.ImageURL),
		LogoURL:            strings.TrimSpace(input.LogoURL),
		Discount:           strings.TrimSpace(input.Discount),
		Bonus:              strings.TrimSpace(input.Bonus),
		FeaturesJSON:       input.Features,
		ProsJSON:           input.Pros,
		ConsJSON:           input.Cons,
		TargetAudienceJSON: input.TargetAudience,
		UseCase:            strings.TrimSpace(input.UseCase),
		PersonalExperience: strings.TrimSpace(input.PersonalExperience),
		IsActive:           isActive,
		IsFeatured:         input.IsFeatured,
		Priority:           input.Priority,
	}
	if err := s.referralRepo.Create(referral); err != nil {
		return nil, err
	}
	s.invalidatePublicList()
	return referral, nil
}

// GetReferral 获取推荐条目
func (s *ReferralService) GetReferral(id string) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrNotFound
	}
	return referral, nil
}

// ListReferrals 查询推荐条目列表
func (s *ReferralService) ListReferrals(filter repository.ReferralListFilter) ([]models.Referral, int64, error) {
	return s.referralRepo.List(filter)
}

// UpdateReferral 更新推荐条目
func (s *ReferralService) UpdateReferral(id string, input UpdateReferralInput) (*models.Referral, error) {
	referral, err := s.referralRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrNotFound
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrInvalidInput
		}
		referral.Name = name
	}
	if input.Category != nil {
		category := strings.ToLower(strings.TrimSpace(*input.Category))
		if !validCategories[category] {
			return nil, ErrInvalidInput
		}
		referral.Category = category
	}
	if input.PriceRange != nil {
		priceRange := strings.TrimSpace(*input.PriceRange)
		if priceRange != "" && !validPriceRanges[priceRange] {
			return nil, ErrInvalidInput
		}
		referral.PriceRange = priceRange
	}
	if input.Rating != nil {
		if err := validateRating(*input.Rating); err != nil {
			return nil, err
		}
		referral.Rating = *input.Rating
	}
	if input.ReferralURL != nil {
		referralURL := strings.TrimSpace(*input.ReferralURL)
		if referralURL == "" {
			return nil, ErrInvalidInput
		}
		referral.ReferralURL = referralURL
	}
	if input.Description != nil {
		referral.Description = strings.TrimSpace(*input.Description)
	}
	if input.Company != nil {
		referral.Company = strings.TrimSpace(*input.Company)
	}
	if input.OriginalURL != nil {
		referral.OriginalURL = strings.TrimSpace(*input.OriginalURL)
	}
	if input.ImageURL != nil {
		referral.ImageURL = strings.TrimSpace(*input.ImageURL)
	}
	if input.LogoURL != nil {
		referral.LogoURL = strings.TrimSpace(*input.LogoURL)
	}
	if input.Discount != nil {
		referral.Discount = strings.TrimSpace(*input.Discount)
	}
	if input.Bonus != nil {
		referral.Bonus = strings.TrimSpace(*input.Bonus)
	}
	if input.Features != nil {
		referral.FeaturesJSON = input.Features
	}
	if input.Pros != nil {
		referral.ProsJSON = input.Pros
	}
	if input.Cons != nil {
		referral.ConsJSON = input.Cons
	}
	if input.TargetAudience != nil {
		referral.TargetAudienceJSON = input.TargetAudience
	}
	if input.UseCase != nil {
		referral.UseCase = strings.TrimSpace(*input.UseCase)
	}
	if input.PersonalExperience != nil {
		referral.PersonalExperience = strings.TrimSpace(*input.PersonalExperience)
	}
	if input.IsActive != nil {
		referral.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		referral.IsFeatured = *input.IsFeatured
	}
	if input.Priority != nil {
		referral.Priority = *input.Priority
	}

	if err := s.referralRepo.Update(referral); err != nil {
		return nil, err
	}
	s.invalidatePublicList()
	return referral, nil
}

// DeleteReferral 删除推荐条目及其点击记录
func (s *ReferralService) DeleteReferral(id string) error {
	referral, err := s.referralRepo.GetByID(id)
	if err != nil {
		return err
	}
	if referral == nil {
		return ErrNotFound
	}
	if err := s.referralRepo.Delete(id); err != nil {
		return err
	}
	s.invalidatePublicList()
	return nil
}

// TrackClickInput 点击上报输入
type TrackClickInput struct {
	ReferralID string
	UserID     *string
	SessionID  string
	IPAddress  string
	UserAgent  string
	Referrer   string
}

// TrackClick 记录一次出站点击：在同一事务内累加条目点击数并写入点击记录。
// 条目不存在时返回 ErrNotFound，不会留下孤儿点击。
func (s *ReferralService) TrackClick(input TrackClickInput) (*models.ReferralClick, error) {
	referralID := strings.TrimSpace(input.ReferralID)
	sessionID := strings.TrimSpace(input.SessionID)
	if referralID == "" || sessionID == "" {
		return nil, ErrInvalidInput
	}

	click := &models.ReferralClick{
		ReferralID: referralID,
		UserID:     input.UserID,
		SessionID:  sessionID,
		IPAddress:  strings.TrimSpace(input.IPAddress),
		UserAgent:  input.UserAgent,
		Referrer:   strings.TrimSpace(input.Referrer),
		ClickedAt:  time.Now(),
	}
	applyUserAgent(click, input.UserAgent)

	err := s.referralRepo.Transaction(func(tx *gorm.DB) error {
		affected, err := s.referralRepo.WithTx(tx).IncrementClickCount(referralID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotFound
		}
		return s.clickRepo.WithTx(tx).Create(click)
	})
	if err != nil {
		return nil, err
	}
	return click, nil
}

// GetClick 获取点击记录
func (s *ReferralService) GetClick(id string) (*models.ReferralClick, error) {
	click, err := s.clickRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if click == nil {
		return nil, ErrNotFound
	}
	return click, nil
}

// ListClicks 查询点击记录列表
func (s *ReferralService) ListClicks(filter repository.ReferralClickListFilter) ([]models.ReferralClick, int64, error) {
	return s.clickRepo.List(filter)
}

// MarkClickConverted 将点击标记为已转化并累加条目转化数。
// 重复调用幂等：已转化的点击直接返回，不会二次累加。
func (s *ReferralService) MarkClickConverted(clickID string, value *decimal.Decimal) (*models.ReferralClick, error) {
	click, err := s.clickRepo.GetByID(clickID)
	if err != nil {
		return nil, err
	}
	if click == nil {
		return nil, ErrNotFound
	}
	if click.Converted {
		return click, nil
	}

	convertedNow := false
	err = s.clickRepo.Transaction(func(tx *gorm.DB) error {
		affected, err := s.clickRepo.WithTx(tx).MarkConverted(clickID, value)
		if err != nil {
			return err
		}
		if affected == 0 {
			// 并发下已被其他请求转化，保持幂等
			return nil
		}
		convertedNow = true
		incremented, err := s.referralRepo.WithTx(tx).IncrementConversionCount(click.ReferralID)
		if err != nil {
			return err
		}
		if incremented == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	click, err = s.clickRepo.GetByID(clickID)
	if err != nil {
		return nil, err
	}
	if click == nil {
		return nil, ErrNotFound
	}

	if convertedNow {
		if err := s.queueClient.EnqueueConversionAlert(queue.ConversionAlertPayload{ClickID: click.ID}); err != nil {
			logger.Warnw("conversion_alert_enqueue_failed", "click_id", click.ID, "error", err)
		}
	}
	return click, nil
}

// CategoryStat 分类统计
type CategoryStat struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// TopPerformer 转化表现最好的条目
type TopPerformer struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	ClickCount        int64           `json:"click_count"`
	ConversionCount   int64           `json:"conversion_count"`
	ConversionRate    float64         `json:"conversion_rate"`
	EstimatedEarnings decimal.Decimal `json:"estimated_earnings"`
}

// ReferralStats 推荐整体统计
type ReferralStats struct {
	TotalReferrals    int64          `json:"total_referrals"`
	ActiveReferrals   int64          `json:"active_referrals"`
	FeaturedReferrals int64          `json:"featured_referrals"`
	TotalClicks       int64          `json:"total_clicks"`
	TotalConversions  int64          `json:"total_conversions"`
	ConversionRate    float64        `json:"conversion_rate"`
	ByCategory        []CategoryStat `json:"by_category"`
	TopPerformers     []TopPerformer `json:"top_performers"`
}

const defaultTopPerformerLimit = 10

// GetStats 汇总推荐统计数据
func (s *ReferralService) GetStats() (*ReferralStats, error) {
	aggregate, err := s.referralRepo.Aggregate()
	if err != nil {
		return nil, err
	}
	categoryCounts, err := s.referralRepo.CountByCategory()
	if err != nil {
		return nil, err
	}
	limit := s.cfg.Referral.TopPerformerLimit
	if limit <= 0 {
		limit = defaultTopPerformerLimit
	}
	topRows, err := s.referralRepo.TopByConversions(limit)
	if err != nil {
		return nil, err
	}

	stats := &ReferralStats{
		TotalReferrals:    aggregate.TotalReferrals,
		ActiveReferrals:   aggregate.ActiveReferrals,
		FeaturedReferrals: aggregate.FeaturedReferrals,
		TotalClicks:       aggregate.TotalClicks,
		TotalConversions:  aggregate.TotalConversions,
		ConversionRate:    ConversionRate(aggregate.TotalClicks, aggregate.TotalConversions),
		ByCategory:        make([]CategoryStat, 0, len(categoryCounts)),
		TopPerformers:     make([]TopPerformer, 0, len(topRows)),
	}
	for _, row := range categoryCounts {
		stats.ByCategory = append(stats.ByCategory, CategoryStat{Category: row.Category, Count: row.Total})
	}

	earningsRate := decimal.NewFromFloat(s.cfg.Referral.EarningsPerConversion)
	for _, row := range topRows {
		stats.TopPerformers = append(stats.TopPerformers, TopPerformer{
			ID:                row.ID,
			Name:              row.Name,
			Category:          row.Category,
			ClickCount:        row.ClickCount,
			ConversionCount:   row.ConversionCount,
			ConversionRate:    ConversionRate(row.ClickCount, row.ConversionCount),
			EstimatedEarnings: earningsRate.Mul(decimal.NewFromInt(row.ConversionCount)).Round(2),
		})
	}
	return stats, nil
}

// ReferralDetailStats 单个推荐条目的统计
type ReferralDetailStats struct {
	ReferralID           string          `json:"referral_id"`
	Name                 string          `json:"name"`
	ClickCount           int64           `json:"click_count"`
	ConversionCount      int64           `json:"conversion_count"`
	ConversionRate       float64         `json:"conversion_rate"`
	TotalConversionValue decimal.Decimal `json:"total_conversion_value"`
	EstimatedEarnings    decimal.Decimal `json:"estimated_earnings"`
}

// GetReferralStats 汇总单个推荐条目的点击与转化统计
func (s *ReferralService) GetReferralStats(id string) (*ReferralDetailStats, error) {
	referral, err := s.referralRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if referral == nil {
		return nil, ErrNotFound
	}

	clicks, err := s.clickRepo.CountByReferral(referral.ID)
	if err != nil {
		return nil, err
	}
	conversions, err := s.clickRepo.CountConvertedByReferral(referral.ID)
	if err != nil {
		return nil, err
	}
	totalValue, err := s.clickRepo.SumConversionValue(referral.ID)
	if err != nil {
		return nil, err
	}

	earningsRate := decimal.NewFromFloat(s.cfg.Referral.EarningsPerConversion)
	return &ReferralDetailStats{
		ReferralID:           referral.ID,
		Name:                 referral.Name,
		ClickCount:           clicks,
		ConversionCount:      conversions,
		ConversionRate:       ConversionRate(clicks, conversions),
		TotalConversionValue: totalValue,
		EstimatedEarnings:    earningsRate.Mul(decimal.NewFromInt(conversions)).Round(2),
	}, nil
}

// ConversionRate 计算转化率百分比，保留两位小数，点击数为零时返回 0。
func ConversionRate(clicks, conversions int64) float64 {
	if clicks <= 0 {
		return 0
	}
	rate := decimal.NewFromInt(conversions).
		Div(decimal.NewFromInt(clicks)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	result, _ := rate.Float64()
	return result
}

func validateRating(rating decimal.Decimal) error {
	if rating.IsNegative() || rating.GreaterThan(decimal.NewFromInt(constants.ReferralRatingMax)) {
		return ErrInvalidInput
	}
	return nil
}

func applyUserAgent(click *models.ReferralClick, rawUA string) {
	if strings.TrimSpace(rawUA) == "" {
		return
	}
	ua := useragent.New(rawUA)
	browser, _ := ua.Browser()
	click.Browser = browser
	click.OS = ua.OS()
	click.IsMobile = ua.Mobile()
}

func (s *ReferralService) invalidatePublicList() {
	if err := cache.Del(context.Background(), PublicListCacheKey); err != nil {
		logger.Warnw("public_list_cache_invalidate_failed", "error", err)
	}
}
