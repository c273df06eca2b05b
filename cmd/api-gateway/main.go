package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-events-api/api/swagger"
	"github.com/noah-isme/campus-events-api/internal/handler"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/models"
	"github.com/noah-isme/campus-events-api/internal/repository"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/migrations"
	"github.com/noah-isme/campus-events-api/pkg/cache"
	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/database"
	"github.com/noah-isme/campus-events-api/pkg/jobs"
	"github.com/noah-isme/campus-events-api/pkg/logger"
	"github.com/noah-isme/campus-events-api/pkg/messaging"
	corsmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
	"github.com/noah-isme/campus-events-api/pkg/storage"
	"github.com/noah-isme/campus-events-api/pkg/validation"
)

// @title Campus Events API
// @version 1.0.0
// @description Event publishing, student registration and admin reporting for a college campus.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, migrations.FS); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	checks := map[string]handler.Pinger{"postgres": db}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client)
			checks["redis"] = redisPinger{client: client}
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cacheRepo != nil)

	validate := validation.New()
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		BcryptCost:        cfg.Auth.BcryptCost,
		AllowAdminSignup:  cfg.Auth.AllowAdminSignup,
	})
	userSvc := service.NewUserService(userRepo, validate, cacheSvc, cfg.Auth.BcryptCost, logr)
	eventSvc := service.NewEventService(eventRepo, cacheSvc, validate, cfg.Cache.TTL, logr)
	statsSvc := service.NewStatsService(eventRepo, cacheSvc, metricsSvc, cfg.Cache.TTL, logr)

	var notifier service.RegistrationNotifier
	if cfg.Notifications.Enabled {
		notifications := service.NewNotificationService(newPublisher(cfg.Notifications, logr), metricsSvc, jobs.QueueConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.Retries,
			RetryDelay: cfg.Notifications.RetryDelay,
		}, logr)
		notifications.Start(ctx)
		defer notifications.Stop()
		notifier = notifications
	}
	registrationSvc := service.NewRegistrationService(eventRepo, cacheSvc, metricsSvc, notifier, logr)

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(userSvc, eventSvc, files, signer, service.ExportConfig{APIPrefix: cfg.APIPrefix}, logr)
	go exportSvc.RunJanitor(ctx, cfg.Exports.CleanupInterval, signer.TTL())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	handler.Routes{
		Auth:        handler.NewAuthHandler(authSvc),
		Events:      handler.NewEventHandler(eventSvc, registrationSvc, exportSvc),
		Users:       handler.NewUserHandler(userSvc, exportSvc),
		Stats:       handler.NewStatsHandler(statsSvc),
		Exports:     handler.NewExportHandler(exportSvc),
		Metrics:     handler.NewMetricsHandler(metricsSvc, checks),
		Tokens:      authSvc,
		Versions:    eventSvc,
		AuthLimiter: middleware.NewRateLimiter(cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst),
	}.Register(r, cfg.APIPrefix)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newPublisher(cfg config.NotificationsConfig, logr *zap.Logger) messaging.Publisher {
	if cfg.AMQPURL == "" {
		return messaging.NewLogPublisher(logr)
	}
	publisher, err := messaging.NewRabbitPublisher(cfg.AMQPURL, cfg.Exchange, cfg.Queue, []string{models.NotificationRegistrationConfirmed}, logr)
	if err != nil {
		logr.Warn("rabbitmq unavailable, logging notifications instead", zap.Error(err))
		return messaging.NewLogPublisher(logr)
	}
	return publisher
}
