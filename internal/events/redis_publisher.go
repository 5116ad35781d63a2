package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher forwards committed domain events onto a Redis pub/sub
// channel for the external realtime notifier. Delivery, fan-out and client
// reconnection are entirely that subsystem's concern.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher builds the publisher.
func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// RegisterHandlers subscribes the publisher to every event type.
func (p *RedisPublisher) RegisterHandlers(dispatcher Dispatcher) {
	if dispatcher == nil || p.client == nil {
		return
	}
	for _, eventType := range AllTypes() {
		dispatcher.Subscribe(eventType, p.handle)
	}
}

func (p *RedisPublisher) handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("marshal event", zap.Error(err), zap.String("event_type", string(event.Type)))
		return nil
	}
	// A failed publish must not affect the committed transition; the
	// notification subsystem owns retries.
	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		p.logger.Warn("publish event to redis",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("request_id", event.RequestID))
	}
	return nil
}
