package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"jobscout/internal/config"
	"jobscout/internal/database"
	"jobscout/internal/database/migration"
	dbpostgres "jobscout/internal/database/postgres"
	"jobscout/internal/infrastructure/cache"
	gateway "jobscout/internal/infrastructure/embedding"
	"jobscout/internal/infrastructure/notification"
	"jobscout/internal/pipeline"
	"jobscout/internal/repository"
	"jobscout/internal/usecase"
	"jobscout/internal/ws"
)

// Options adjust how the container is assembled.
type Options struct {
	// Notifier replaces the redis hand-off, e.g. with a log notifier for
	// local runs.
	Notifier usecase.Notifier
	// SkipMigrations leaves the schema untouched at startup.
	SkipMigrations bool
}

// Container owns every long-lived dependency of the process.
type Container struct {
	Config config.Config
	Logger *zap.Logger

	DB    database.DB
	Cache *cache.Redis
	Hub   *ws.Hub

	Embeddings    *usecase.EmbeddingUsecase
	Matching      *usecase.MatchingUsecase
	Notifications *usecase.NotificationUsecase
	Resumes       *usecase.ResumeUsecase
	Pipeline      *pipeline.RefreshPipeline
}

func NewContainer(ctx context.Context, cfg config.Config, log *zap.Logger, opts Options) (*Container, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(connectCtx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	if !opts.SkipMigrations {
		if err := (migration.Runner{Logger: log}).Run(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	gw, err := gateway.NewGateway(cfg.Embedding, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	redisCache := cache.NewRedis(ctx, cfg.Redis, log)
	hub := ws.NewHub(log)

	embeddingRepo := repository.NewPostgresEmbeddingRepository(db)
	matchRepo := repository.NewPostgresMatchRepository(db)
	sourceRepo := repository.NewPostgresSourceRepository(db)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = newRedisNotifier(redisCache, hub, cfg.Notification, log)
	}

	embeddings := usecase.NewEmbeddingUsecase(embeddingRepo, matchRepo, gw, redisCache, cfg.Embedding.Timeout, log)
	matching := usecase.NewMatchingUsecase(embeddingRepo, matchRepo, redisCache, cfg.Matching.CacheTTL, log)
	notifications := usecase.NewNotificationUsecase(matchRepo, notifier, sourceRepo, redisCache, cfg.Notification.Channel, cfg.Notification.ClaimTTL, log)
	resumes := usecase.NewResumeUsecase(sourceRepo, cfg.Resume.ParseCacheSize, cfg.Resume.ParseCacheTTL, log)

	return &Container{
		Config:        cfg,
		Logger:        log,
		DB:            db,
		Cache:         redisCache,
		Hub:           hub,
		Embeddings:    embeddings,
		Matching:      matching,
		Notifications: notifications,
		Resumes:       resumes,
		Pipeline:      pipeline.NewRefreshPipeline(embeddings, matching, notifications, sourceRepo, sourceRepo, log),
	}, nil
}

// newRedisNotifier leaves the queue unset when redis is down, so every
// hand-off fails and the pairs stay pending for the sweep.
func newRedisNotifier(c *cache.Redis, hub *ws.Hub, cfg config.NotificationConfig, log *zap.Logger) *notification.RedisNotifier {
	var queue notification.Queue
	if client := c.Client(); client != nil {
		queue = client
	}
	return notification.NewRedisNotifier(queue, hub, cfg, log)
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Cache != nil {
		errs = append(errs, c.Cache.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
