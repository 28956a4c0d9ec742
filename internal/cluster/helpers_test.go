package cluster

import (
	"context"
	"errors"
	"sync"

	"github.com/jobs/eventhub/pkg/config"
)

type spyTransport struct {
	mu        sync.Mutex
	published [][]byte
	err       error
}

func (t *spyTransport) Publish(_ context.Context, _ string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.published = append(t.published, data)
	return nil
}

func (t *spyTransport) Subscribe(context.Context, string, func([]byte)) (func(), error) {
	return nil, errors.New("not supported")
}

func (t *spyTransport) Close() error { return nil }

type call struct {
	verb string
	id   uint64
}

type recordingReloader struct {
	mu    sync.Mutex
	calls []call
	err   error
}

func (r *recordingReloader) Reload(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{"reload", id})
	return r.err
}

func (r *recordingReloader) Remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{"remove", id})
	return true
}

func testConfig(enabled bool) config.Config {
	var cfg config.Config
	cfg.Cluster.Enabled = enabled
	cfg.Cluster.Topic = "eventhub.cluster.test"
	cfg.Scheduler.InstanceID = "node-a"
	return cfg
}

type counter struct {
	mu sync.Mutex
	n  int64
}

func (c *counter) next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return c.n
}

func (c *counter) value() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
