package cluster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSTransport 基于 NATS 主题的广播，断线后自动重连
type NATSTransport struct {
	conn *nats.Conn
}

func NewNATSTransport(url string, opts ...nats.Option) (*NATSTransport, error) {
	defaults := []nats.Option{
		nats.Name("eventhub-cluster"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSTransport{conn: nc}, nil
}

func (t *NATSTransport) Publish(_ context.Context, topic string, data []byte) error {
	return t.conn.Publish(topic, data)
}

func (t *NATSTransport) Subscribe(_ context.Context, topic string, handler func([]byte)) (func(), error) {
	sub, err := t.conn.Subscribe(topic, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	// 确保订阅已在服务端注册
	if err := t.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}

	var once sync.Once
	return func() {
		once.Do(func() { _ = sub.Unsubscribe() })
	}, nil
}

// Flush 等待已发布的消息全部写到服务端
func (t *NATSTransport) Flush() error {
	return t.conn.Flush()
}

func (t *NATSTransport) Close() error {
	t.conn.Close()
	return nil
}
