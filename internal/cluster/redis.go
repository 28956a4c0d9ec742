package cluster

import (
	"context"
	"fmt"
	"sync"

	redis "github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisTransport 基于 Redis pub/sub 的广播
type RedisTransport struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisTransport(rdb *redis.Client, logger *zap.Logger) *RedisTransport {
	return &RedisTransport{rdb: rdb, logger: logger}
}

func (t *RedisTransport) Publish(ctx context.Context, topic string, data []byte) error {
	return t.rdb.Publish(ctx, topic, data).Err()
}

func (t *RedisTransport) Subscribe(ctx context.Context, topic string, handler func([]byte)) (func(), error) {
	pubsub := t.rdb.Subscribe(ctx, topic)
	// 等待订阅确认，之后发布的消息才能保证收到
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range pubsub.Channel() {
			handler([]byte(msg.Payload))
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := pubsub.Close(); err != nil {
				t.logger.Warn("close redis subscription", zap.String("topic", topic), zap.Error(err))
			}
			wg.Wait()
		})
	}, nil
}

func (t *RedisTransport) Close() error {
	return t.rdb.Close()
}
