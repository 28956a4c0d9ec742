// Package listener 把持久化的监听器配置注册到事件总线，外部注册ID即配置行ID
package listener

import (
	"context"
	"fmt"

	domain "github.com/jobs/eventhub/internal/biz/listener"
	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/pkg/keylock"
	"go.uber.org/zap"
)

type Loader struct {
	bus    *event.Bus
	repo   domain.Repo
	logger *zap.Logger
	locks  *keylock.KeyedMutex[uint64]
}

func NewLoader(bus *event.Bus, repo domain.Repo, logger *zap.Logger) *Loader {
	return &Loader{
		bus:    bus,
		repo:   repo,
		logger: logger,
		locks:  keylock.New[uint64](),
	}
}

// Reload 按 id 重新读取配置：先注销旧注册，记录存在且启用时重新注册。
// 重复执行只会留下一个注册。
func (l *Loader) Reload(ctx context.Context, id uint64) error {
	unlock := l.locks.Lock(id)
	defer unlock()

	def, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load listener %d: %w", id, err)
	}
	l.unregisterAll(id)
	if def == nil || !def.Enabled {
		return nil
	}
	return l.register(def)
}

// Remove 注销 id 对应的注册
func (l *Loader) Remove(id uint64) bool {
	unlock := l.locks.Lock(id)
	defer unlock()

	return l.unregisterAll(id)
}

// LoadAll 启动时注册所有启用的监听器。单个配置无法解析时跳过并继续。
func (l *Loader) LoadAll(ctx context.Context) (int, error) {
	defs, err := l.repo.ListEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load listeners: %w", err)
	}

	count := 0
	for _, def := range defs {
		if err := l.register(def); err != nil {
			l.logger.Warn("skip listener", zap.Uint64("listener_id", def.ID), zap.Error(err))
			continue
		}
		count++
	}
	l.logger.Info("loaded listeners",
		zap.Int("total", len(defs)),
		zap.Int("registered", count))
	return count, nil
}

func (l *Loader) register(def *domain.Definition) error {
	d, ok := l.bus.Catalogue().Lookup(def.EventName)
	if !ok {
		return fmt.Errorf("%w: %q", event.ErrUnknownEvent, def.EventName)
	}
	if !l.bus.RegisterNamed(d, def.HandlerName, def.Params(), event.ExternalID(def.ID)) {
		return fmt.Errorf("%w: %q for %s", event.ErrHandlerNotFound, def.HandlerName, def.EventName)
	}
	return nil
}

func (l *Loader) unregisterAll(id uint64) bool {
	removed := false
	for l.bus.Unregister(id) {
		removed = true
	}
	return removed
}
