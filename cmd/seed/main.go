package main

import (
	"fmt"

	"github.com/refboard/internal/config"
	"github.com/refboard/internal/constants"
	"github.com/refboard/internal/logger"
	"github.com/refboard/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	referrals := []models.Referral{
		{
			Name:        "CloudBox VPS",
			Description: "性价比很高的海外 VPS，控制面板简单，开机速度快。",
			Category:    constants.ReferralCategoryHosting,
			Company:     "CloudBox",
			PriceRange:  constants.ReferralPriceBudget,
			Rating:      decimal.NewFromFloat(4.5),
			ReferralURL: "https://cloudbox.example.com/?ref=refboard",
			OriginalURL: "https://cloudbox.example.com/",
			Discount:    "首月 5 折",
			Bonus:       "注册送 10 美元余额",
			FeaturesJSON: models.StringMap{
				"zh-CN": "KVM 虚拟化，按小时计费，全球 8 个机房",
				"en-US": "KVM virtualization, hourly billing, 8 regions worldwide",
			},
			ProsJSON: models.StringMap{
				"zh-CN": "价格便宜，支持支付宝",
				"en-US": "Affordable, multiple payment options",
			},
			ConsJSON: models.StringMap{
				"zh-CN": "高峰期带宽一般",
				"en-US": "Bandwidth can dip at peak hours",
			},
			TargetAudienceJSON: models.BoolMap{
				"developer": true,
				"student":   true,
			},
			UseCase:            "个人博客和小型项目托管",
			PersonalExperience: "用了一年多，稳定性不错，工单响应在半天以内。",
			IsActive:           true,
			IsFeatured:         true,
			Priority:           10,
		},
		{
			Name:        "NoteFlow",
			Description: "团队协作笔记工具，支持双向链接和模板。",
			Category:    constants.ReferralCategoryTools,
			Company:     "NoteFlow Inc.",
			PriceRange:  constants.ReferralPriceFree,
			Rating:      decimal.NewFromFloat(4.2),
			ReferralURL: "https://noteflow.example.com/signup?via=refboard",
			OriginalURL: "https://noteflow.example.com/",
			Bonus:       "双方各得 1 个月 Pro",
			FeaturesJSON: models.StringMap{
				"zh-CN": "双向链接、看板、API 集成",
				"en-US": "Backlinks, kanban boards, API integrations",
			},
			TargetAudienceJSON: models.BoolMap{
				"team":     true,
				"writer":   true,
				"student":  true,
				"business": false,
			},
			UseCase:  "知识库和项目协作",
			IsActive: true,
			Priority: 20,
		},
		{
			Name:        "FinTrack Pro",
			Description: "个人记账与投资组合跟踪服务。",
			Category:    constants.ReferralCategoryFinance,
			Company:     "FinTrack",
			PriceRange:  constants.ReferralPriceMidRange,
			Rating:      decimal.NewFromFloat(3.8),
			ReferralURL: "https://fintrack.example.com/r/refboard",
			Discount:    "年付 8 折",
			IsActive:    true,
			Priority:    30,
		},
		{
			Name:        "LearnHub",
			Description: "在线课程平台，覆盖编程与设计方向。",
			Category:    constants.ReferralCategoryEducation,
			Company:     "LearnHub",
			PriceRange:  constants.ReferralPricePremium,
			Rating:      decimal.NewFromFloat(4.7),
			ReferralURL: "https://learnhub.example.com/?aff=refboard",
			Bonus:       "首单返 15%",
			IsActive:    false,
			Priority:    40,
		},
	}

	for _, item := range referrals {
		var existing models.Referral
		if err := models.DB.Where("name = ?", item.Name).First(&existing).Error; err != nil {
			if err := models.DB.Create(&item).Error; err != nil {
				stdLog.Printf("Failed to create referral %s: %v", item.Name, err)
			} else {
				stdLog.Printf("Created referral: %s", item.Name)
			}
		} else {
			stdLog.Printf("Referral already exists: %s", item.Name)
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Printf("- %d Referrals\n", len(referrals))
}
