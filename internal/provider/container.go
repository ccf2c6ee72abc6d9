package provider

import (
	"time"

	"github.com/refboard/internal/authz"
	"github.com/refboard/internal/cache"
	"github.com/refboard/internal/config"
	"github.com/refboard/internal/logger"
	"github.com/refboard/internal/models"
	"github.com/refboard/internal/queue"
	"github.com/refboard/internal/repository"
	"github.com/refboard/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo         repository.AdminRepository
	ReferralRepo      repository.ReferralRepository
	ReferralClickRepo repository.ReferralClickRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	EmailService        *service.EmailService
	ReferralService     *service.ReferralService
	NotificationService *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}
	if !cfg.Redis.Enabled {
		cache.InitLocal(cfg.Referral.LocalCacheSize, time.Duration(cfg.Referral.ListCacheTTLSeconds)*time.Second)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.ReferralClickRepo = repository.NewReferralClickRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.SeedBuiltinRoles(); err != nil {
		logger.Errorw("provider_seed_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.ReferralService = service.NewReferralService(c.Config, c.ReferralRepo, c.ReferralClickRepo, c.QueueClient)
	c.NotificationService = service.NewNotificationService(c.Config, c.EmailService, c.ReferralService, c.ReferralRepo, c.ReferralClickRepo)
}
