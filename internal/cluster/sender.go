package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jobs/eventhub/pkg/config"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

// BroadcastError 传输层发布失败。调用方的本地写入已经提交，不会因此回滚。
type BroadcastError struct {
	Type Type
	ID   uint64
	Err  error
}

func (e *BroadcastError) Error() string {
	return fmt.Sprintf("broadcast %s %d: %v", e.Type, e.ID, e.Err)
}

func (e *BroadcastError) Unwrap() error { return e.Err }

// Sender 广播配置变更。必须在持久化写入提交之后调用，接收方按 id 重新读取时才能看到变更。
type Sender struct {
	enabled   bool
	transport Transport
	topic     string
	source    string
	seq       func() int64
	now       func() time.Time
	logger    *zap.Logger
	observer  Observer
}

// NewSender 创建发送方。集群模式关闭时所有通知直接返回 false。
// source 每个进程随机生成，不取自配置，多个节点即使 instance_id 相同也不会共用去重水位。
func NewSender(cfg config.Config, transport Transport, logger *zap.Logger) *Sender {
	source := uuid.NewString()
	logger.Debug("cluster sender created",
		zap.String("instance_id", cfg.Scheduler.InstanceID),
		zap.String("source", source))
	return &Sender{
		enabled:   cfg.Cluster.Enabled,
		transport: transport,
		topic:     cfg.Cluster.Topic,
		source:    source,
		seq:       idgen.NextId,
		now:       time.Now,
		logger:    logger,
		observer:  nopObserver{},
	}
}

// Source 本进程发出通知使用的来源标识
func (s *Sender) Source() string { return s.source }

func (s *Sender) SetObserver(o Observer) {
	if o != nil {
		s.observer = o
	}
}

func (s *Sender) Enabled() bool { return s.enabled }

// Notify 广播一条通知，返回是否已发出
func (s *Sender) Notify(ctx context.Context, t Type, id uint64) (bool, error) {
	if !s.enabled {
		return false, nil
	}

	n := Notification{
		Version:   CurrentVersion,
		Type:      t,
		ID:        id,
		Source:    s.source,
		Seq:       s.seq(),
		Timestamp: s.now().UnixMilli(),
	}
	data, err := n.Encode()
	if err != nil {
		return false, err
	}
	if err := s.transport.Publish(ctx, s.topic, data); err != nil {
		s.observer.NotificationSent(t, false)
		s.logger.Error("failed to broadcast notification",
			zap.String("type", string(t)),
			zap.Uint64("id", id),
			zap.Error(err))
		return false, &BroadcastError{Type: t, ID: id, Err: err}
	}

	s.observer.NotificationSent(t, true)
	s.logger.Debug("notification sent",
		zap.String("type", string(t)),
		zap.Uint64("id", id),
		zap.Int64("seq", n.Seq))
	return true, nil
}

func (s *Sender) NotifyAddScheduler(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, SchedulerAdd, id)
}

func (s *Sender) NotifyRemoveScheduler(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, SchedulerRemove, id)
}

func (s *Sender) NotifyReloadScheduler(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, SchedulerReload, id)
}

func (s *Sender) NotifyAddListener(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, ListenerAdd, id)
}

func (s *Sender) NotifyRemoveListener(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, ListenerRemove, id)
}

func (s *Sender) NotifyReloadListener(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, ListenerReload, id)
}

func (s *Sender) NotifyAddForm(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, FormAdd, id)
}

func (s *Sender) NotifyRemoveForm(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, FormRemove, id)
}

func (s *Sender) NotifyReloadForm(ctx context.Context, id uint64) (bool, error) {
	return s.Notify(ctx, FormReload, id)
}
