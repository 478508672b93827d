package publisher

import (
	"context"
	"encoding/base64"

	"github.com/redis/go-redis/v9"

	"minhng/pricewatch/logger"
)

// RedisPublisher implements Publisher using a Redis stream
type RedisPublisher struct {
	client    *redis.Client
	ctx       context.Context
	stream    string
	maxLength int
	log       *logger.Logger
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, addr string, db int, stream string, maxLength int) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisPublisher{
		client:    client,
		ctx:       ctx,
		stream:    stream,
		maxLength: maxLength,
		log:       logger.ForPublisher(),
	}
}

// Publish publishes one event to the stream.
// The message is base64 encoded before publishing.
func (p *RedisPublisher) Publish(sku string, message []byte) error {
	encodedMessage := base64.StdEncoding.EncodeToString(message)
	p.log.Debug().Str("sku", sku).Str("stream", p.stream).Msg("Publishing event")

	return p.client.XAdd(p.ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			sku: encodedMessage,
		},
	}).Err()
}

// TrimStream trims the stream to the configured maximum length
func (p *RedisPublisher) TrimStream() error {
	return p.client.XTrimMaxLen(p.ctx, p.stream, int64(p.maxLength)).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
