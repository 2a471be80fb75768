package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/vinceyvincey/google-calendar-sync/api/swagger"
	"github.com/vinceyvincey/google-calendar-sync/internal/handler"
	"github.com/vinceyvincey/google-calendar-sync/internal/middleware"
	"github.com/vinceyvincey/google-calendar-sync/internal/notion"
	"github.com/vinceyvincey/google-calendar-sync/internal/repository"
	"github.com/vinceyvincey/google-calendar-sync/internal/service"
	"github.com/vinceyvincey/google-calendar-sync/pkg/cache"
	"github.com/vinceyvincey/google-calendar-sync/pkg/config"
	"github.com/vinceyvincey/google-calendar-sync/pkg/database"
	appErrors "github.com/vinceyvincey/google-calendar-sync/pkg/errors"
	"github.com/vinceyvincey/google-calendar-sync/pkg/logger"
	corsmiddleware "github.com/vinceyvincey/google-calendar-sync/pkg/middleware/cors"
	reqidmiddleware "github.com/vinceyvincey/google-calendar-sync/pkg/middleware/requestid"
	"github.com/vinceyvincey/google-calendar-sync/pkg/signature"
)

// @title Google Calendar Sync
// @version 1.0.0
// @description One-way sync of calendar events from Postgres into a Notion database
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	runState := repository.NewRunStateRepository(nil, cfg.RunState.LockTTL)
	if cfg.RunState.Enabled {
		redisClient, rErr := cache.NewRedis(cfg.Redis)
		if rErr != nil {
			logr.Warn("redis unavailable, run state persistence disabled", zap.Error(rErr))
		} else {
			runState = repository.NewRunStateRepository(redisClient, cfg.RunState.LockTTL)
		}
	}
	defer runState.Close()

	notionClient := notion.NewClient(notion.ClientOptions{
		BaseURL:    cfg.Notion.BaseURL,
		APIKey:     cfg.Notion.APIKey,
		APIVersion: cfg.Notion.Version,
		DatabaseID: cfg.Notion.DatabaseID,
		HTTPClient: &http.Client{Timeout: cfg.Notion.Timeout},
		MaxRetries: cfg.Notion.MaxRetries,
	})

	events := repository.NewEventRepository(db)
	metrics := service.NewMetricsService()
	guard := service.NewRunGuard(runState, logr)
	syncSvc := service.NewSyncService(events, notionClient, guard, runState, metrics, cfg.Sync, logr)

	verifier := signature.NewVerifier(cfg.Webhook.Secret)
	if !verifier.Configured() {
		logr.Warn("webhook secret not configured, all trigger requests will be rejected")
	}

	syncHandler := handler.NewSyncHandler(syncSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", metricsHandler.Health)
	r.GET("/status", syncHandler.Status)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.POST("/webhook/calendar-sync", middleware.WebhookSignature(verifier), syncHandler.Trigger)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	if cfg.Sync.Schedule != "" {
		scheduler := cron.New()
		if _, cronErr := scheduler.AddFunc(cfg.Sync.Schedule, func() {
			if _, runErr := syncSvc.Run(context.Background()); runErr != nil {
				if errors.Is(runErr, appErrors.ErrRunInProgress) {
					logr.Info("scheduled sync skipped, a run is already in progress")
					return
				}
				logr.Error("scheduled sync failed", zap.Error(runErr))
			}
		}); cronErr != nil {
			logr.Fatal("invalid sync schedule", zap.String("schedule", cfg.Sync.Schedule), zap.Error(cronErr))
		}
		scheduler.Start()
		defer scheduler.Stop()
		logr.Info("sync scheduler started", zap.String("schedule", cfg.Sync.Schedule))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
