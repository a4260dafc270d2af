package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/campushub/club-portal-api/api/swagger"
	"github.com/campushub/club-portal-api/internal/handler"
	internalmiddleware "github.com/campushub/club-portal-api/internal/middleware"
	"github.com/campushub/club-portal-api/internal/repository"
	"github.com/campushub/club-portal-api/internal/service"
	"github.com/campushub/club-portal-api/pkg/cache"
	"github.com/campushub/club-portal-api/pkg/config"
	"github.com/campushub/club-portal-api/pkg/database"
	"github.com/campushub/club-portal-api/pkg/jobs"
	"github.com/campushub/club-portal-api/pkg/logger"
	corsmiddleware "github.com/campushub/club-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campushub/club-portal-api/pkg/middleware/requestid"
	"github.com/campushub/club-portal-api/pkg/storage"
)

// @title Campus Club Portal API
// @version 1.0.0
// @description Backend for campus club events, recruitment drives and rosters
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	recruitmentRepo := repository.NewRecruitmentRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	clubRepo := repository.NewClubRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	if err := clubRepo.EnsureDefaults(ctx); err != nil {
		logr.Sugar().Warnw("failed to seed club profiles", "error", err)
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Stats.CacheTTL, logr,
		cfg.Stats.CacheEnabled && redisClient != nil)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "club-portal-api",
	})
	statsSvc := service.NewStatsService(eventRepo, registrationRepo, recruitmentRepo, applicationRepo,
		cacheSvc, cfg.Stats.CacheTTL, logr)
	eventSvc := service.NewEventService(eventRepo, registrationRepo, nil, logr)
	registrationSvc := service.NewRegistrationService(eventRepo, registrationRepo,
		repository.IsUniqueViolation, statsSvc, nil, logr)
	recruitmentSvc := service.NewRecruitmentService(recruitmentRepo, nil, logr)
	applicationSvc := service.NewApplicationService(recruitmentRepo, applicationRepo, userRepo,
		repository.IsUniqueViolation, statsSvc, cfg.Applications.StrictStatusFlow, nil, logr)
	clubSvc := service.NewClubService(clubRepo, eventRepo, nil, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportJobRepo, eventRepo, registrationRepo,
			recruitmentRepo, applicationRepo, exportStorage, signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
			jobs.QueueConfig{Workers: cfg.Exports.WorkerConcurrency, MaxRetries: cfg.Exports.WorkerRetries},
			logr)
		exportSvc.Start(ctx)
		defer exportSvc.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.CleanupExpired(ctx)
				}
			}
		}()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	routeCfg := handler.RouteConfig{
		APIPrefix:    cfg.APIPrefix,
		Auth:         handler.NewAuthHandler(authSvc),
		Clubs:        handler.NewClubHandler(clubSvc),
		Events:       handler.NewEventHandler(eventSvc),
		Recruitments: handler.NewRecruitmentHandler(recruitmentSvc),
		Registration: handler.NewRegistrationHandler(registrationSvc, userRepo),
		Applications: handler.NewApplicationHandler(applicationSvc, userRepo),
		Admin:        handler.NewAdminHandler(statsSvc),
		Metrics:      metricsHandler,
		AuthService:  authSvc,
		Users:        userRepo,
	}
	if exportSvc != nil {
		routeCfg.Exports = handler.NewExportHandler(exportSvc)
	}
	handler.RegisterRoutes(r, routeCfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("forced shutdown", zap.Error(err))
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logr.Warn("failed to close redis", zap.Error(err))
		}
	}
}
