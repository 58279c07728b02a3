package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"jobscout/internal/config"
	domain "jobscout/internal/domain/notification"
	"jobscout/internal/pkg/logger"
)

var ErrQueueUnavailable = errors.New("notification queue unavailable")

// Queue is the subset of the redis client the notifier writes to.
type Queue interface {
	LPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Realtime pushes a payload to connected clients; the websocket hub
// implements it.
type Realtime interface {
	Publish(p domain.Payload) bool
}

// RedisNotifier hands payloads to the delivery workers through a redis list
// and announces them on a pub/sub channel. The list push is the hand-off;
// the announcement and the websocket push are best effort.
type RedisNotifier struct {
	queue    Queue
	realtime Realtime
	queueKey string
	channel  string
	logger   *zap.Logger
}

func NewRedisNotifier(queue Queue, realtime Realtime, cfg config.NotificationConfig, log *zap.Logger) *RedisNotifier {
	queueKey := cfg.QueueKey
	if queueKey == "" {
		queueKey = "notifications:queue"
	}
	channel := cfg.RealtimeChannel
	if channel == "" {
		channel = "realtime:notifications"
	}
	return &RedisNotifier{
		queue:    queue,
		realtime: realtime,
		queueKey: queueKey,
		channel:  channel,
		logger:   logger.Component(log, "notifier"),
	}
}

func (n *RedisNotifier) Notify(ctx context.Context, p domain.Payload) error {
	if n == nil || n.queue == nil {
		return ErrQueueUnavailable
	}

	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.queue.LPush(ctx, n.queueKey, b).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}

	if err := n.queue.Publish(ctx, n.channel, b).Err(); err != nil {
		n.logger.Warn("realtime publish failed",
			zap.String(logger.FieldStatus, "degraded"),
			zap.String("recipient_id", p.RecipientID.String()),
			zap.Error(err),
		)
	}
	if n.realtime != nil {
		n.realtime.Publish(p)
	}

	n.logger.Debug("notification queued",
		zap.String(logger.FieldStatus, "ok"),
		zap.String("recipient_id", p.RecipientID.String()),
		zap.String("channel", p.Channel),
	)
	return nil
}

// LogNotifier writes payloads to the log. It backs the CLI and local runs
// without redis.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Component(log, "notifier")}
}

func (n *LogNotifier) Notify(_ context.Context, p domain.Payload) error {
	n.logger.Info("notification",
		zap.String("recipient_id", p.RecipientID.String()),
		zap.String("type", p.Type),
		zap.String("channel", p.Channel),
		zap.String("message", p.Message),
	)
	return nil
}
