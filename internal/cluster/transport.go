package cluster

import (
	"context"
	"sync"
)

// Transport 集群广播通道。同一发送方发布到同一 topic 的消息按发布顺序送达。
type Transport interface {
	Publish(ctx context.Context, topic string, data []byte) error
	// Subscribe 注册处理函数，返回的 cancel 用于取消订阅
	Subscribe(ctx context.Context, topic string, handler func([]byte)) (cancel func(), err error)
	Close() error
}

// LocalTransport 进程内回环实现，单进程部署和测试使用。Publish 在调用方协程上同步投递。
type LocalTransport struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func([]byte)
}

func NewLocalTransport() *LocalTransport {
	return &LocalTransport{subs: make(map[string]map[int]func([]byte))}
}

func (t *LocalTransport) Publish(_ context.Context, topic string, data []byte) error {
	t.mu.RLock()
	handlers := make([]func([]byte), 0, len(t.subs[topic]))
	for _, h := range t.subs[topic] {
		handlers = append(handlers, h)
	}
	t.mu.RUnlock()

	for _, h := range handlers {
		h(append([]byte(nil), data...))
	}
	return nil
}

func (t *LocalTransport) Subscribe(_ context.Context, topic string, handler func([]byte)) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	if t.subs[topic] == nil {
		t.subs[topic] = make(map[int]func([]byte))
	}
	t.subs[topic][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.subs[topic], id)
			t.mu.Unlock()
		})
	}, nil
}

func (t *LocalTransport) Close() error {
	t.mu.Lock()
	t.subs = make(map[string]map[int]func([]byte))
	t.mu.Unlock()
	return nil
}
