// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Publisher appends domain events to their derived stream. Delivery is
// at-least-once: callers get an acknowledgement of the append, not of
// downstream consumption.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// RedisPublisher writes each event as a single XADD entry. Consumers
// subscribe by the derived stream name; append order within one stream
// follows the log's total order.
type RedisPublisher struct {
	client       *redis.Client
	streamPrefix string
	namespace    string
}

func NewRedisPublisher(client *redis.Client, streamPrefix, namespace string) *RedisPublisher {
	return &RedisPublisher{
		client:       client,
		streamPrefix: streamPrefix,
		namespace:    namespace,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}

	stream := p.streamName(event.Type)

	logrus.WithFields(logrus.Fields{
		"event_type": event.Type,
		"event_id":   event.ID,
		"stream":     stream,
	}).Debug("Publishing event")

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"event": payload},
	}).Err(); err != nil {
		return fmt.Errorf("failed to append event to %s: %w", stream, err)
	}

	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

func (p *RedisPublisher) streamName(eventType string) string {
	return fmt.Sprintf("%s:%s:%s", p.streamPrefix, p.namespace, eventType)
}
