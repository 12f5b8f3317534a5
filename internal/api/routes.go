package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"offshoreCV/internal/api/middleware"
	"offshoreCV/internal/auth"
	"offshoreCV/internal/cache"
	"offshoreCV/internal/config"
	"offshoreCV/internal/cv"
	"offshoreCV/internal/storage"
	"offshoreCV/internal/store"
)

// Dependencies 汇总路由需要的全部组件。
type Dependencies struct {
	Store       *store.Store
	Auth        *auth.AuthService
	Redis       redis.UniversalClient
	Storage     ObjectStorage
	Scanner     storage.Scanner
	Tasks       TaskEnqueuer
	PublicCache *cache.PublicCV
	Reporter    cv.AnomalyReporter
	Logger      *slog.Logger
}

// RegisterRoutes 注册公开 CV 路由与 /v1 所有者接口。
func RegisterRoutes(router *gin.Engine, cfg config.APIConfig, authCfg config.AuthConfig, deps Dependencies) {
	resolver := cv.NewResolver(deps.Store, deps.Logger, deps.Reporter)
	publicHandler := NewPublicHandler(resolver, deps.Store, deps.PublicCache, deps.Reporter, deps.Logger)
	authHandler := NewAuthHandler(deps.Store, deps.Auth, deps.Redis, deps.Logger,
		authCfg.LoginRateLimitPerHour, authCfg.LoginLockThreshold, authCfg.LoginLockTTL, cfg.CookieDomain)
	profileHandler := NewProfileHandler(deps.Store, deps.PublicCache, deps.Logger)
	experienceHandler := NewExperienceHandler(deps.Store, deps.PublicCache, deps.Logger)
	cvHandler := NewCVHandler(deps.Store, deps.PublicCache, deps.Logger)
	assetHandler := NewAssetHandler(deps.Store, deps.PublicCache, deps.Storage, deps.Scanner, deps.Tasks,
		deps.Logger, cfg.MaxUploadBytes, cfg.PublicBaseURL)
	internalHandler := NewInternalHandler(deps.Store, deps.PublicCache, deps.Logger)

	authMiddleware := middleware.AuthMiddleware(deps.Auth)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()

	router.GET("/cv/:username", publicHandler.GetDefault)
	router.GET("/cv/:username/:slug", publicHandler.GetBySlug)
	router.GET("/assets/avatars/:profileID", assetHandler.RedirectAvatar)

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		lookups := v1.Group("/lookups")
		lookups.Use(authMiddleware)
		{
			lookups.GET("/roles", profileHandler.ListLookupRoles)
			lookups.GET("/certs", profileHandler.ListLookupCerts)
		}

		profileGroup := v1.Group("/profile")
		profileGroup.Use(authMiddleware, passwordGate)
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("", profileHandler.UpdateProfile)
			profileGroup.POST("/avatar", assetHandler.UploadAvatar)

			profileGroup.GET("/roles", profileHandler.ListRoles)
			profileGroup.POST("/roles", profileHandler.AddRole)
			profileGroup.DELETE("/roles/:id", profileHandler.DeleteRole)

			profileGroup.GET("/seatime", experienceHandler.ListSeaTime)
			profileGroup.POST("/seatime", experienceHandler.CreateSeaTime)
			profileGroup.PUT("/seatime/:id", experienceHandler.UpdateSeaTime)
			profileGroup.DELETE("/seatime/:id", experienceHandler.DeleteSeaTime)

			profileGroup.GET("/rov", experienceHandler.ListRov)
			profileGroup.POST("/rov", experienceHandler.CreateRov)
			profileGroup.PUT("/rov/:id", experienceHandler.UpdateRov)
			profileGroup.DELETE("/rov/:id", experienceHandler.DeleteRov)

			profileGroup.GET("/certs", assetHandler.ListCertificates)
			profileGroup.POST("/certs", assetHandler.CreateCertificate)
			profileGroup.PUT("/certs/:id", assetHandler.UpdateCertificate)
			profileGroup.DELETE("/certs/:id", assetHandler.DeleteCertificate)
			profileGroup.POST("/certs/:id/document", assetHandler.UploadCertificateDocument)
			profileGroup.GET("/certs/:id/document-link", assetHandler.GetCertificateDocumentLink)
		}

		cvGroup := v1.Group("/cvs")
		cvGroup.Use(authMiddleware, passwordGate)
		{
			cvGroup.GET("", cvHandler.ListCVs)
			cvGroup.POST("", cvHandler.CreateCV)
			cvGroup.GET("/:id", cvHandler.GetCV)
			cvGroup.PUT("/:id", cvHandler.UpdateCV)
			cvGroup.DELETE("/:id", cvHandler.DeleteCV)
			cvGroup.GET("/:id/preview", cvHandler.PreviewCV)
		}

		internal := v1.Group("/internal")
		internal.Use(middleware.InternalSecretMiddleware(cfg.InternalSecret))
		{
			internal.GET("/audit/defaults", internalHandler.AuditDefaults)
			internal.POST("/audit/defaults/:profileID/repair", internalHandler.RepairDefaults)
		}
	}
}
