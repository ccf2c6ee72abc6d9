package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Referral 推荐返利条目
type Referral struct {
	ID                 string          `gorm:"type:varchar(36);primarykey" json:"id"`                 // 主键（UUID）
	Name               string          `gorm:"type:varchar(255);not null" json:"name"`                // 名称
	Description        string          `gorm:"type:text" json:"description"`                          // 描述
	Category           string          `gorm:"type:varchar(32);not null;index" json:"category"`       // 分类
	Company            string          `gorm:"type:varchar(255)" json:"company"`                      // 公司
	PriceRange         string          `gorm:"type:varchar(20)" json:"price_range"`                   // 价格区间
	Rating             decimal.Decimal `gorm:"type:decimal(3,1);default:0" json:"rating"`             // 评分（0-5）
	ReferralURL        string          `gorm:"type:varchar(1024);not null" json:"referral_url"`       // 推广出站链接
	OriginalURL        string          `gorm:"type:varchar(1024)" json:"original_url"`                // 官方页面链接
	ImageURL           string          `gorm:"type:varchar(1024)" json:"image_url"`                   // 配图
	LogoURL            string          `gorm:"type:varchar(1024)" json:"logo_url"`                    // Logo
	Discount           string          `gorm:"type:varchar(255)" json:"discount"`                     // 折扣文案
	Bonus              string          `gorm:"type:varchar(255)" json:"bonus"`                        // 奖励文案
	FeaturesJSON       StringMap       `gorm:"type:json" json:"features"`                             // 功能亮点
	ProsJSON           StringMap       `gorm:"type:json" json:"pros"`                                 // 优点
	ConsJSON           StringMap       `gorm:"type:json" json:"cons"`                                 // 缺点
	TargetAudienceJSON BoolMap         `gorm:"type:json" json:"target_audience"`                      // 目标受众开关
	UseCase            string          `gorm:"type:text" json:"use_case"`                             // 适用场景
	PersonalExperience string          `gorm:"type:text" json:"personal_experience"`                  // 个人使用心得
	IsActive           bool            `gorm:"not null;default:true;index" json:"is_active"`          // 是否展示
	IsFeatured         bool            `gorm:"not null;default:false;index" json:"is_featured"`       // 是否精选
	Priority           int             `gorm:"not null;default:0;index" json:"priority"`              // 排序权重（升序）
	ClickCount         int64           `gorm:"not null;default:0" json:"click_count"`                 // 累计点击数
	ConversionCount    int64           `gorm:"not null;default:0" json:"conversion_count"`            // 累计转化数
	CreatedAt          time.Time       `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间
	UpdatedAt          time.Time       `json:"updated_at"`                                            // 更新时间
}

// BeforeCreate 生成主键
func (r *Referral) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// TableName 指定表名
func (Referral) TableName() string {
	return "referrals"
}
