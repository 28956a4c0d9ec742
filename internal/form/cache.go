// Package form 缓存动态表单定义，集群通知到达时按 id 刷新
package form

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/jobs/eventhub/internal/biz/form"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type Cache struct {
	repo   domain.Repo
	logger *zap.Logger

	mu     sync.RWMutex
	byID   map[uint64]*domain.Definition
	byName map[string]uint64
}

func NewCache(repo domain.Repo, logger *zap.Logger) *Cache {
	return &Cache{
		repo:   repo,
		logger: logger,
		byID:   make(map[uint64]*domain.Definition),
		byName: make(map[string]uint64),
	}
}

// Reload 按 id 重新读取；记录不存在或已禁用时从缓存中移除
func (c *Cache) Reload(ctx context.Context, id uint64) error {
	def, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load form %d: %w", id, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(id)
	if def != nil && def.Enabled {
		c.putLocked(def)
	}
	return nil
}

func (c *Cache) Remove(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

func (c *Cache) Get(id uint64) (*domain.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.byID[id]
	return def, ok
}

func (c *Cache) GetByName(name string) (*domain.Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return c.byID[id], true
}

// All 按 id 升序返回
func (c *Cache) All() []*domain.Definition {
	c.mu.RLock()
	defs := lo.Values(c.byID)
	c.mu.RUnlock()

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}

// LoadAll 用存储中所有启用的表单替换缓存
func (c *Cache) LoadAll(ctx context.Context) (int, error) {
	defs, err := c.repo.ListEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load forms: %w", err)
	}

	c.mu.Lock()
	c.byID = make(map[uint64]*domain.Definition, len(defs))
	c.byName = make(map[string]uint64, len(defs))
	for _, def := range defs {
		c.putLocked(def)
	}
	c.mu.Unlock()

	c.logger.Info("loaded forms", zap.Int("count", len(defs)))
	return len(defs), nil
}

func (c *Cache) putLocked(def *domain.Definition) {
	c.byID[def.ID] = def
	if def.Name != "" {
		c.byName[def.Name] = def.ID
	}
}

func (c *Cache) removeLocked(id uint64) bool {
	def, ok := c.byID[id]
	if !ok {
		return false
	}
	delete(c.byID, id)
	if c.byName[def.Name] == id {
		delete(c.byName, def.Name)
	}
	return true
}
