package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	rediscommon "github.com/rasheedharab/PayGuestMarketplace/internal/common/redis"
)

// RedisStreamPublisher 将事件写入 Redis Stream（字段：type / data / timestamp）
type RedisStreamPublisher struct {
	client rediscommon.StreamAdder
	stream string
	logger *zap.Logger
}

func NewRedisStreamPublisher(client rediscommon.StreamAdder, stream string, logger *zap.Logger) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, logger: logger}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, e Event) error {
	id, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, e.Type, e)
	if err != nil {
		return fmt.Errorf("publish %s to stream %s: %w", e.Type, p.stream, err)
	}
	p.logger.Debug("Event published to stream",
		zap.String("stream", p.stream),
		zap.String("message_id", id),
		zap.String("event_type", e.Type),
	)
	return nil
}
