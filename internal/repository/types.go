package repository

import "time"

// ReferralListFilter 查询推荐条目列表的过滤条件
type ReferralListFilter struct {
	Page       int
	PageSize   int
	Category   string
	PriceRange string
	Search     string
	IsActive   *bool
	IsFeatured *bool
	OnlyActive bool
}

// ReferralClickListFilter 查询点击记录列表的过滤条件
type ReferralClickListFilter struct {
	Page        int
	PageSize    int
	ReferralID  string
	SessionID   string
	UserID      string
	Converted   *bool
	ClickedFrom *time.Time
	ClickedTo   *time.Time
}

// ReferralStatsAggregate 推荐整体统计聚合结果
type ReferralStatsAggregate struct {
	TotalReferrals    int64
	ActiveReferrals   int64
	FeaturedReferrals int64
	TotalClicks       int64
	TotalConversions  int64
}

// CategoryCount 按分类统计的条目数
type CategoryCount struct {
	Category string `gorm:"column:category"`
	Total    int64  `gorm:"column:total"`
}
