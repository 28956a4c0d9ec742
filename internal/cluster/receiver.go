package cluster

import (
	"context"
	"fmt"
	"sync"

	"github.com/jobs/eventhub/pkg/config"
	"github.com/jobs/eventhub/pkg/logger"
	"go.uber.org/zap"
)

// 接收结果
const (
	OutcomeApplied = "applied"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
	OutcomeInvalid = "invalid"
)

// Reloader 某个配置域的本地重建操作，重复执行结果不变
type Reloader interface {
	// Reload 按 id 从存储重新加载并替换本地状态
	Reload(ctx context.Context, id uint64) error
	// Remove 移除本地状态，不存在时返回 false
	Remove(id uint64) bool
}

type schedulerTarget interface {
	RemoveAndLoad(ctx context.Context, id uint64) error
	Remove(id uint64) bool
}

type schedulerReloader struct {
	s schedulerTarget
}

// ForScheduler 把调度器适配为 Reloader
func ForScheduler(s schedulerTarget) Reloader {
	return schedulerReloader{s: s}
}

func (r schedulerReloader) Reload(ctx context.Context, id uint64) error {
	return r.s.RemoveAndLoad(ctx, id)
}

func (r schedulerReloader) Remove(id uint64) bool {
	return r.s.Remove(id)
}

// Receiver 每个成员上处理集群通知
type Receiver struct {
	transport Transport
	topic     string
	logger    *zap.Logger
	observer  Observer
	targets   map[Domain]Reloader

	mu   sync.Mutex
	seen map[seenKey]int64 // 已处理的最大 seq

	cancel func()
}

func NewReceiver(
	cfg config.Config,
	transport Transport,
	logger *zap.Logger,
	schedules Reloader,
	listeners Reloader,
	forms Reloader,
) *Receiver {
	return &Receiver{
		transport: transport,
		topic:     cfg.Cluster.Topic,
		logger:    logger,
		observer:  nopObserver{},
		targets: map[Domain]Reloader{
			DomainScheduler: schedules,
			DomainListener:  listeners,
			DomainForm:      forms,
		},
		seen: make(map[seenKey]int64),
	}
}

func (r *Receiver) SetObserver(o Observer) {
	if o != nil {
		r.observer = o
	}
}

// Start 订阅集群 topic
func (r *Receiver) Start(ctx context.Context) error {
	cancel, err := r.transport.Subscribe(ctx, r.topic, func(data []byte) {
		r.Handle(context.Background(), data)
	})
	if err != nil {
		return err
	}
	r.cancel = cancel
	r.logger.Info("cluster receiver subscribed", zap.String("topic", r.topic))
	return nil
}

func (r *Receiver) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

// Handle 处理一条原始消息。所有错误只记录日志。
func (r *Receiver) Handle(ctx context.Context, data []byte) {
	n, err := Decode(data)
	if err != nil {
		r.observer.NotificationReceived("", OutcomeInvalid)
		r.logger.Warn("dropping undecodable notification", zap.Error(err))
		return
	}
	if err := r.HandleNotification(ctx, n); err != nil {
		logger.FromContext(ctx, r.logger).Warn("notification reload failed, dropped",
			zap.String("type", string(n.Type)),
			zap.Uint64("id", n.ID),
			zap.String("source", n.Source),
			zap.Error(err))
	}
}

// HandleNotification 把通知分发到对应配置域。同一 source 针对同一条配置的 seq 不大于已处理值时直接丢弃；
// 不同配置之间互不影响。没有 source 的通知（本地直接应用）不参与去重。
func (r *Receiver) HandleNotification(ctx context.Context, n Notification) error {
	if !n.Type.Valid() {
		r.observer.NotificationReceived(n.Type, OutcomeInvalid)
		return fmt.Errorf("%w: %q", ErrUnknownType, n.Type)
	}
	if !r.advance(n) {
		r.observer.NotificationReceived(n.Type, OutcomeStale)
		r.logger.Debug("discarding stale notification",
			zap.String("type", string(n.Type)),
			zap.Uint64("id", n.ID),
			zap.String("source", n.Source),
			zap.Int64("seq", n.Seq))
		return nil
	}

	target := r.targets[n.Type.Domain()]
	if target == nil {
		r.observer.NotificationReceived(n.Type, OutcomeFailed)
		return fmt.Errorf("no reloader for %s", n.Type.Domain())
	}

	var err error
	switch n.Type.Verb() {
	case VerbAdd, VerbReload:
		err = target.Reload(ctx, n.ID)
	case VerbRemove:
		target.Remove(n.ID)
	}
	if err != nil {
		r.observer.NotificationReceived(n.Type, OutcomeFailed)
		return err
	}

	r.observer.NotificationReceived(n.Type, OutcomeApplied)
	r.logger.Debug("notification applied",
		zap.String("type", string(n.Type)),
		zap.Uint64("id", n.ID))
	return nil
}

type seenKey struct {
	source string
	domain Domain
	id     uint64
}

func (r *Receiver) advance(n Notification) bool {
	if n.Source == "" || n.Seq == 0 {
		return true
	}
	key := seenKey{source: n.Source, domain: n.Type.Domain(), id: n.ID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if last, ok := r.seen[key]; ok && n.Seq <= last {
		return false
	}
	r.seen[key] = n.Seq
	return true
}
