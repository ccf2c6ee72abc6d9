package constants

// 推荐条目分类常量
const (
	ReferralCategoryHosting   = "hosting"
	ReferralCategoryTools     = "tools"
	ReferralCategoryFinance   = "finance"
	ReferralCategoryMarketing = "marketing"
	ReferralCategoryEducation = "education"
	ReferralCategoryOther     = "other"
)

// 价格区间常量
const (
	ReferralPriceFree     = "free"
	ReferralPriceBudget   = "budget"
	ReferralPriceMidRange = "mid-range"
	ReferralPricePremium  = "premium"
)

// 异步任务名称常量
const (
	TaskConversionAlert = "referral:conversion_alert"
	TaskStatsDigest     = "referral:stats_digest"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 内置管理角色常量
const (
	RoleReferralEditor = "referral_editor"
	RoleStatsViewer    = "stats_viewer"
)

// 推荐评分上限
const ReferralRatingMax = 5
