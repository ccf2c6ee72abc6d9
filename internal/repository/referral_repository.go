package repository

import (
	"errors"
	"strings"

	"github.com/refboard/internal/models"

	"gorm.io/gorm"
)

// ReferralRepository 推荐条目数据访问接口
type ReferralRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) ReferralRepository

	Create(referral *models.Referral) error
	GetByID(id string) (*models.Referral, error)
	List(filter ReferralListFilter) ([]models.Referral, int64, error)
	Update(referral *models.Referral) error
	Delete(id string) error

	IncrementClickCount(id string) (int64, error)
	IncrementConversionCount(id string) (int64, error)

	Aggregate() (ReferralStatsAggregate, error)
	CountByCategory() ([]CategoryCount, error)
	TopByConversions(limit int) ([]models.Referral, error)
}

// GormReferralRepository GORM 推荐条目仓储
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐条目仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) ReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Transaction 执行事务
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建推荐条目
func (r *GormReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// GetByID 按ID获取推荐条目
func (r *GormReferralRepository) GetByID(id string) (*models.Referral, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Where("id = ?", id).First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// List 查询推荐条目列表，按 priority 升序、created_at 降序排列
func (r *GormReferralRepository) List(filter ReferralListFilter) ([]models.Referral, int64, error) {
	query := r.db.Model(&models.Referral{})
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	} else if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.IsFeatured != nil {
		query = query.Where("is_featured = ?", *filter.IsFeatured)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if priceRange := strings.TrimSpace(filter.PriceRange); priceRange != "" {
		query = query.Where("price_range = ?", priceRange)
	}
	if keyword := strings.TrimSpace(filter.Search); keyword != "" {
		like := "%" + keyword + "%"
		query = query.Where("(name LIKE ? OR company LIKE ? OR description LIKE ?)", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []models.Referral
	if err := query.Order("priority ASC, created_at DESC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update 更新推荐条目
func (r *GormReferralRepository) Update(referral *models.Referral) error {
	return r.db.Save(referral).Error
}

// Delete 删除推荐条目及其点击记录
func (r *GormReferralRepository) Delete(id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	// 显式先删点击再删条目，不依赖数据库级联（sqlite 默认不开启外键约束）
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("referral_id = ?", id).Delete(&models.ReferralClick{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Referral{}).Error
	})
}

// IncrementClickCount 点击数加一，返回受影响行数
func (r *GormReferralRepository) IncrementClickCount(id string) (int64, error) {
	if strings.TrimSpace(id) == "" {
		return 0, nil
	}
	result := r.db.Model(&models.Referral{}).
		Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// IncrementConversionCount 转化数加一，返回受影响行数
func (r *GormReferralRepository) IncrementConversionCount(id string) (int64, error) {
	if strings.TrimSpace(id) == "" {
		return 0, nil
	}
	result := r.db.Model(&models.Referral{}).
		Where("id = ?", id).
		UpdateColumn("conversion_count", gorm.Expr("conversion_count + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Aggregate 汇总整体统计数据
func (r *GormReferralRepository) Aggregate() (ReferralStatsAggregate, error) {
	var row struct {
		TotalReferrals    int64 `gorm:"column:total_referrals"`
		ActiveReferrals   int64 `gorm:"column:active_referrals"`
		FeaturedReferrals int64 `gorm:"column:featured_referrals"`
		TotalClicks       int64 `gorm:"column:total_clicks"`
		TotalConversions  int64 `gorm:"column:total_conversions"`
	}
	err := r.db.Model(&models.Referral{}).
		Select(
			"COUNT(*) AS total_referrals, " +
				"COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active_referrals, " +
				"COALESCE(SUM(CASE WHEN is_featured THEN 1 ELSE 0 END), 0) AS featured_referrals, " +
				"COALESCE(SUM(click_count), 0) AS total_clicks, " +
				"COALESCE(SUM(conversion_count), 0) AS total_conversions",
		).
		Scan(&row).Error
	if err != nil {
		return ReferralStatsAggregate{}, err
	}
	return ReferralStatsAggregate{
		TotalReferrals:    row.TotalReferrals,
		ActiveReferrals:   row.ActiveReferrals,
		FeaturedReferrals: row.FeaturedReferrals,
		TotalClicks:       row.TotalClicks,
		TotalConversions:  row.TotalConversions,
	}, nil
}

// CountByCategory 按分类统计条目数
func (r *GormReferralRepository) CountByCategory() ([]CategoryCount, error) {
	rows := make([]CategoryCount, 0)
	err := r.db.Model(&models.Referral{}).
		Select("category, COUNT(*) AS total").
		Group("category").
		Order("total DESC, category ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TopByConversions 按转化数取前 N 个条目
func (r *GormReferralRepository) TopByConversions(limit int) ([]models.Referral, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []models.Referral
	err := r.db.Model(&models.Referral{}).
		Order("conversion_count DESC, click_count DESC, created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
