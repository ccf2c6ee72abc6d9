package router

import (
	"strings"
	"time"

	"github.com/refboard/internal/authz"
	"github.com/refboard/internal/cache"
	"github.com/refboard/internal/http/handlers/admin"
	"github.com/refboard/internal/http/handlers/public"
	"github.com/refboard/internal/http/response"
	"github.com/refboard/internal/logger"
	"github.com/refboard/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 构建 HTTP 路由
func SetupRouter(container *provider.Container) *gin.Engine {
	cfg := container.Config

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestIDMiddleware())
	engine.Use(LoggerMiddleware(logger.Z()))
	engine.Use(CORSMiddleware(cfg.CORS))

	publicHandler := public.New(container)
	adminHandler := admin.New(container)

	loginRule := RateLimitRule{
		Prefix:        "rl:login",
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		MessageKey:    "error.login_too_many",
	}
	clickRule := RateLimitRule{
		Prefix:        "rl:click",
		WindowSeconds: cfg.Security.ClickRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.ClickRateLimit.MaxRequests,
		MessageKey:    "error.rate_limited",
	}

	apiV1 := engine.Group("/api/v1")

	publicGroup := apiV1.Group("/public")
	{
		publicGroup.GET("/referrals", publicHandler.ListReferrals)
		publicGroup.GET("/referrals/:id", publicHandler.GetReferral)
		publicGroup.POST("/referrals/:id/click",
			RateLimitMiddleware(cache.Client(), clickRule, KeyByIPAndParam("id")),
			publicHandler.TrackClick,
		)
	}

	adminGroup := apiV1.Group("/admin")
	adminGroup.POST("/login",
		RateLimitMiddleware(cache.Client(), loginRule, KeyByIP),
		adminHandler.Login,
	)

	authorized := adminGroup.Group("")
	authorized.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, container.AdminRepo))
	authorized.Use(AdminRBACMiddleware(container.AuthzService))
	{
		authorized.PUT("/password", adminHandler.UpdatePassword)

		authorized.GET("/referrals", adminHandler.ListReferrals)
		authorized.POST("/referrals", adminHandler.CreateReferral)
		authorized.GET("/referrals/stats", adminHandler.GetReferralStats)
		authorized.GET("/referrals/:id", adminHandler.GetReferral)
		authorized.PUT("/referrals/:id", adminHandler.UpdateReferral)
		authorized.DELETE("/referrals/:id", adminHandler.DeleteReferral)
		authorized.GET("/referrals/:id/stats", adminHandler.GetReferralDetailStats)
		authorized.GET("/referrals/:id/clicks", adminHandler.ListReferralClicks)

		authorized.GET("/clicks", adminHandler.ListClicks)
		authorized.POST("/clicks/:id/convert", adminHandler.ConvertClick)

		authorized.GET("/authz/me", adminHandler.GetAuthzMe)
		authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
		authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
		authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
		authorized.POST("/authz/policies/revoke", adminHandler.RevokeAuthzPolicy)
		authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
		authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
		authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
		authorized.GET("/authz/permissions/catalog", func(c *gin.Context) {
			response.Success(c, buildAdminPermissionCatalog(engine))
		})
	}

	engine.GET("/health", func(c *gin.Context) {
		response.Success(c, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return engine
}

// buildAdminPermissionCatalog 汇总管理端可授权的资源与动作
func buildAdminPermissionCatalog(engine *gin.Engine) []authz.Policy {
	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	catalog := make([]authz.Policy, 0, len(routes))
	for _, route := range routes {
		if !strings.HasPrefix(route.Path, "/api/v1/admin/") {
			continue
		}
		if route.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(route.Path)
		action := authz.NormalizeAction(route.Method)
		key := object + "|" + action
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		catalog = append(catalog, authz.Policy{Object: object, Action: action})
	}
	return catalog
}
