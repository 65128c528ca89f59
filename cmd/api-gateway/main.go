package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/filterhub/filterhub-api/api/swagger"
	"github.com/filterhub/filterhub-api/internal/handler"
	"github.com/filterhub/filterhub-api/internal/middleware"
	"github.com/filterhub/filterhub-api/internal/repository"
	"github.com/filterhub/filterhub-api/internal/service"
	"github.com/filterhub/filterhub-api/pkg/cache"
	"github.com/filterhub/filterhub-api/pkg/config"
	"github.com/filterhub/filterhub-api/pkg/database"
	"github.com/filterhub/filterhub-api/pkg/logger"
	corsmiddleware "github.com/filterhub/filterhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/filterhub/filterhub-api/pkg/middleware/requestid"
	"github.com/filterhub/filterhub-api/pkg/storage"
)

// @title FilterHub API
// @version 0.1.0
// @description Filter distribution and subscription service for content providers
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := database.Migrate(cfg.Database); err != nil {
		logr.Sugar().Fatalw("migrations failed", "error", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()

	providerRepo := repository.NewProviderRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	cidRepo := repository.NewCidRepository(db)
	providerFilterRepo := repository.NewProviderFilterRepository(db)
	dealRepo := repository.NewDealRepository(db)

	var cacheRepo *repository.CacheRepository
	if cfg.Search.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, search caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("exports storage init failed", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	authService := service.NewAuthService(providerRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "filterhub-api",
	})
	var filterService *service.FilterService
	var dashboardService *service.DashboardService
	if cacheRepo != nil {
		filterService = service.NewFilterService(filterRepo, providerFilterRepo, providerRepo, cacheRepo, validate, logr, cfg.Search.CacheTTL)
		dashboardService = service.NewDashboardService(filterRepo, cacheRepo, logr, cfg.Search.CacheTTL)
	} else {
		filterService = service.NewFilterService(filterRepo, providerFilterRepo, providerRepo, nil, validate, logr, cfg.Search.CacheTTL)
		dashboardService = service.NewDashboardService(filterRepo, nil, logr, cfg.Search.CacheTTL)
	}
	subscriptionService := service.NewSubscriptionService(providerFilterRepo, filterRepo, providerRepo, validate, logr)
	cidService := service.NewCidService(cidRepo, filterRepo, validate, logr)
	providerService := service.NewProviderService(providerRepo, validate, logr)
	dealService := service.NewDealService(dealRepo, logr)
	metricsService := service.NewMetricsService()

	exportService := service.NewExportService(filterRepo, cidRepo, providerFilterRepo, providerRepo, store, signer, logr, service.ExportServiceConfig{
		WorkerConcurrency: cfg.Exports.WorkerConcurrency,
		WorkerRetries:     cfg.Exports.WorkerRetries,
		CleanupInterval:   cfg.Exports.CleanupInterval,
		ArchiveTTL:        cfg.Exports.SignedURLTTL,
	})
	exportService.Start(context.Background())
	defer exportService.Stop()

	authHandler := handler.NewAuthHandler(authService)
	filterHandler := handler.NewFilterHandler(filterService, cidService)
	cidHandler := handler.NewCidHandler(cidService)
	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionService)
	providerHandler := handler.NewProviderHandler(providerService, exportService, dealService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))

	filters := protected.Group("/filters")
	filters.POST("", middleware.Audit(providerRepo, "CREATE", "filter"), filterHandler.Create)
	filters.GET("", filterHandler.List)
	filters.GET("/search", filterHandler.Search)
	filters.GET("/lookup", filterHandler.GetByName)
	filters.GET("/share/:shareId", filterHandler.GetByShareID)
	filters.GET("/:id", filterHandler.Get)
	filters.PUT("/:id", middleware.Audit(providerRepo, "UPDATE", "filter"), filterHandler.Update)
	filters.DELETE("/:id", middleware.Audit(providerRepo, "DELETE", "filter"), filterHandler.Delete)
	filters.POST("/:id/cids", cidHandler.Create)
	filters.GET("/:id/manifest", providerHandler.Manifest)

	cids := protected.Group("/cids")
	cids.GET("/conflict", cidHandler.Conflict)
	cids.PUT("/:id", cidHandler.Update)
	cids.POST("/:id/move/:filterId", cidHandler.Move)
	cids.DELETE("/:id", cidHandler.Delete)

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.Subscribe)
	subscriptions.PUT("/:filterId", subscriptionHandler.Update)
	subscriptions.PUT("/:filterId/enabled", subscriptionHandler.SetEnabledForAll)
	subscriptions.DELETE("/:filterId", subscriptionHandler.Unsubscribe)

	providers := protected.Group("/providers")
	providers.GET("/me", providerHandler.Me)
	providers.PUT("/me", providerHandler.Update)
	providers.GET("/me/config", providerHandler.GetConfig)
	providers.PUT("/me/config", providerHandler.UpdateConfig)
	providers.DELETE("/:wallet", middleware.Audit(providerRepo, "DELETE", "provider"), providerHandler.Delete)
	providers.POST("/:wallet/export", providerHandler.Export)

	exports := api.Group("/exports")
	exports.GET("/download", providerHandler.ExportDownload)
	exports.GET("/:jobId", middleware.JWT(authService), providerHandler.ExportStatus)

	deals := protected.Group("/deals")
	deals.POST("", providerHandler.Decide)
	deals.GET("", providerHandler.ListDeals)

	dashboard := protected.Group("/dashboard")
	dashboard.GET("/filters", dashboardHandler.Search)
	dashboard.GET("/stats", dashboardHandler.Stats)

	protected.GET("/metrics/snapshot", metricsHandler.Snapshot)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
