package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralClick 推荐出站点击记录
type ReferralClick struct {
	ID              string           `gorm:"type:varchar(36);primarykey" json:"id"`                 // 主键（UUID）
	ReferralID      string           `gorm:"type:varchar(36);not null;index" json:"referral_id"`    // 所属推荐条目
	UserID          *string          `gorm:"type:varchar(64);index" json:"user_id"`                 // 用户ID（匿名点击为空）
	SessionID       string           `gorm:"type:varchar(128);not null;index" json:"session_id"`    // 会话标识
	IPAddress       string           `gorm:"type:varchar(64)" json:"ip_address"`                    // 客户端IP
	UserAgent       string           `gorm:"type:varchar(1024)" json:"user_agent"`                  // 客户端UA
	Browser         string           `gorm:"type:varchar(64)" json:"browser"`                       // 浏览器（UA 解析）
	OS              string           `gorm:"type:varchar(64)" json:"os"`                            // 操作系统（UA 解析）
	IsMobile        bool             `gorm:"not null;default:false" json:"is_mobile"`               // 是否移动端
	Referrer        string           `gorm:"type:varchar(1024)" json:"referrer"`                    // 来源地址
	ClickedAt       time.Time        `gorm:"index;not null" json:"clicked_at"`                      // 点击时间（创建后不可变）
	Converted       bool             `gorm:"not null;default:false;index" json:"converted"`         // 是否已转化
	ConversionValue *decimal.Decimal `gorm:"type:decimal(12,2)" json:"conversion_value"`            // 转化金额

	Referral Referral `gorm:"foreignKey:ReferralID;constraint:OnDelete:CASCADE" json:"referral,omitempty"` // 推荐条目
}

// BeforeCreate 生成主键并补齐点击时间
func (c *ReferralClick) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.ClickedAt.IsZero() {
		c.ClickedAt = time.Now()
	}
	return nil
}

// TableName 指定表名
func (ReferralClick) TableName() string {
	return "referral_clicks"
}
