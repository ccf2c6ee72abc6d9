package repository

import (
	"errors"
	"strings"

	"github.com/refboard/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// ReferralClickRepository 点击记录数据访问接口
type ReferralClickRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralClickRepository

	Create(click *models.ReferralClick) error
	GetByID(id string) (*models.ReferralClick, error)
	List(filter ReferralClickListFilter) ([]models.ReferralClick, int64, error)
	MarkConverted(id string, value *decimal.Decimal) (int64, error)
	CountByReferral(referralID string) (int64, error)
	CountConvertedByReferral(referralID string) (int64, error)
	SumConversionValue(referralID string) (decimal.Decimal, error)
}

// GormReferralClickRepository GORM 点击记录仓储
type GormReferralClickRepository struct {
	db *gorm.DB
}

// NewReferralClickRepository 创建点击记录仓储
func NewReferralClickRepository(db *gorm.DB) *GormReferralClickRepository {
	return &GormReferralClickRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralClickRepository) WithTx(tx *gorm.DB) ReferralClickRepository {
	if tx == nil {
		return r
	}
	return &GormReferralClickRepository{db: tx}
}

// Transaction 执行事务
func (r *GormReferralClickRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建点击记录
func (r *GormReferralClickRepository) Create(click *models.ReferralClick) error {
	return r.db.Create(click).Error
}

// GetByID 按ID获取点击记录
func (r *GormReferralClickRepository) GetByID(id string) (*models.ReferralClick, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var click models.ReferralClick
	if err := r.db.Where("id = ?", id).First(&click).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &click, nil
}

// List 查询点击记录列表，按点击时间降序排列
func (r *GormReferralClickRepository) List(filter ReferralClickListFilter) ([]models.ReferralClick, int64, error) {
	query := r.db.Model(&models.ReferralClick{})
	if referralID := strings.TrimSpace(filter.ReferralID); referralID != "" {
		query = query.Where("referral_id = ?", referralID)
	}
	if sessionID := strings.TrimSpace(filter.SessionID); sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	if userID := strings.TrimSpace(filter.UserID); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if filter.Converted != nil {
		query = query.Where("converted = ?", *filter.Converted)
	}
	if filter.ClickedFrom != nil {
		query = query.Where("clicked_at >= ?", *filter.ClickedFrom)
	}
	if filter.ClickedTo != nil {
		query = query.Where("clicked_at <= ?", *filter.ClickedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.ReferralClick
	if err := query.Order("clicked_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// MarkConverted 将未转化的点击标记为已转化，返回受影响行数。
// 已转化的记录不会被再次更新，调用方以此保证幂等。
func (r *GormReferralClickRepository) MarkConverted(id string, value *decimal.Decimal) (int64, error) {
	if strings.TrimSpace(id) == "" {
		return 0, nil
	}
	updates := map[string]interface{}{
		"converted": true,
	}
	if value != nil {
		updates["conversion_value"] = value.Round(2)
	}
	result := r.db.Model(&models.ReferralClick{}).
		Where("id = ? AND converted = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountByReferral 统计条目点击数
func (r *GormReferralClickRepository) CountByReferral(referralID string) (int64, error) {
	if strings.TrimSpace(referralID) == "" {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.ReferralClick{}).Where("referral_id = ?", referralID).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// CountConvertedByReferral 统计条目已转化点击数
func (r *GormReferralClickRepository) CountConvertedByReferral(referralID string) (int64, error) {
	if strings.TrimSpace(referralID) == "" {
		return 0, nil
	}
	var total int64
	err := r.db.Model(&models.ReferralClick{}).
		Where("referral_id = ? AND converted = ?", referralID, true).
		Count(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SumConversionValue 汇总条目转化金额
func (r *GormReferralClickRepository) SumConversionValue(referralID string) (decimal.Decimal, error) {
	if strings.TrimSpace(referralID) == "" {
		return decimal.Zero, nil
	}
	var row struct {
		Total decimal.Decimal `gorm:"column:total"`
	}
	err := r.db.Model(&models.ReferralClick{}).
		Where("referral_id = ? AND converted = ?", referralID, true).
		Select("COALESCE(SUM(conversion_value), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}
