package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/vinceyvincey/google-calendar-sync/internal/notion"
	"github.com/vinceyvincey/google-calendar-sync/internal/repository"
	"github.com/vinceyvincey/google-calendar-sync/internal/service"
	"github.com/vinceyvincey/google-calendar-sync/pkg/cache"
	"github.com/vinceyvincey/google-calendar-sync/pkg/config"
	"github.com/vinceyvincey/google-calendar-sync/pkg/database"
	"github.com/vinceyvincey/google-calendar-sync/pkg/logger"
)

// Runs a single reconciliation pass and exits. Intended for cron jobs and
// manual backfills where the HTTP server is not needed.
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
	guard := service.NewRunGuard(runState, logr)
	syncSvc := service.NewSyncService(events, notionClient, guard, runState, nil, cfg.Sync, logr)

	summary, err := syncSvc.Run(context.Background())
	if err != nil {
		logr.Fatal("sync run failed", zap.Error(err))
	}

	logr.Info("sync completed",
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted),
		zap.Int("errors", summary.Errors),
	)
}
