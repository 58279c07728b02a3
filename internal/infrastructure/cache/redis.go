package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobscout/internal/config"
	"jobscout/internal/pkg/logger"
)

var ErrUnavailable = errors.New("redis unavailable")

const (
	defaultTTL  = 10 * time.Minute
	unlinkBatch = 100
)

// Redis backs the match-list cache and hands its client to the notifier.
// When the server cannot be reached at startup it runs degraded: every read
// misses and every write is dropped.
type Redis struct {
	client *redis.Client
	log    *zap.Logger
	ttl    time.Duration

	degradedLogged atomic.Bool
}

func NewRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *Redis {
	r := &Redis{log: logger.Component(log, "cache"), ttl: orDefault(cfg.TTL)}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		r.log.Warn("redis unavailable, running without cache",
			zap.String(logger.FieldStatus, "degraded"), zap.String("addr", cfg.Addr()), zap.Error(err))
		return r
	}

	r.client = client
	r.log.Info("redis connected", zap.String(logger.FieldStatus, "ok"), zap.String("addr", cfg.Addr()))
	return r
}

// NewRedisFromClient wraps an existing client; a nil client yields a degraded cache.
func NewRedisFromClient(client *redis.Client, ttl time.Duration, log *zap.Logger) *Redis {
	return &Redis{client: client, log: logger.Component(log, "cache"), ttl: orDefault(ttl)}
}

func orDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultTTL
	}
	return ttl
}

// Client is nil when redis is unavailable.
func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

func (r *Redis) degraded() bool { return r == nil || r.client == nil }

func (r *Redis) Ping(ctx context.Context) error {
	if r.degraded() {
		return ErrUnavailable
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r.degraded() {
		return nil
	}
	return r.client.Close()
}

// failed logs the first runtime error only; later ones are returned silently.
func (r *Redis) failed(op string, err error) error {
	if r.degradedLogged.CompareAndSwap(false, true) {
		r.log.Warn("redis command failed", zap.String(logger.FieldStatus, "degraded"), zap.String("op", op), zap.Error(err))
	}
	return err
}

func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.degraded() {
		return false, nil
	}
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, r.failed("get", err)
	case len(raw) == 0:
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.degraded() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return r.failed("set", err)
	}
	return nil
}

// DeleteByPattern scans for keys matching pattern and unlinks them in batches.
func (r *Redis) DeleteByPattern(ctx context.Context, pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if r.degraded() || pattern == "" {
		return nil
	}

	batch := make([]string, 0, unlinkBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := r.client.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	iter := r.client.Scan(ctx, 0, pattern, unlinkBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == unlinkBatch {
			if err := flush(); err != nil {
				return r.failed("unlink", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return r.failed("scan", err)
	}
	if err := flush(); err != nil {
		return r.failed("unlink", err)
	}
	return nil
}
