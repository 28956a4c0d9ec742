// Package service 运行时可修改配置（定时任务、监听器、表单）的管理入口。
// 所有写操作先提交到存储，再通过集群通知让每个成员按 id 重新加载。
package service

import (
	"context"
	"errors"

	"github.com/google/wire"
	"github.com/jobs/eventhub/internal/cluster"
	"github.com/jobs/eventhub/internal/scheduler"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(
	NewPropagator,
	NewScheduleService,
	NewListenerService,
	NewFormService,
	wire.Bind(new(Notifier), new(*cluster.Sender)),
	wire.Bind(new(LocalApplier), new(*cluster.Receiver)),
	wire.Bind(new(Trigger), new(*scheduler.Scheduler)),
)

var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Notifier 广播配置变更，由 cluster.Sender 实现
type Notifier interface {
	Notify(ctx context.Context, t cluster.Type, id uint64) (bool, error)
}

// LocalApplier 在本进程直接应用一条通知，由 cluster.Receiver 实现
type LocalApplier interface {
	HandleNotification(ctx context.Context, n cluster.Notification) error
}

// Propagator 把已提交的变更传播到集群。
// 通知没有发出（集群关闭或广播失败）时在本地直接应用，保证本进程与存储一致。
type Propagator struct {
	sender Notifier
	local  LocalApplier
	logger *zap.Logger
}

func NewPropagator(sender Notifier, local LocalApplier, logger *zap.Logger) *Propagator {
	return &Propagator{sender: sender, local: local, logger: logger}
}

// Propagate 必须在存储写入提交之后调用
func (p *Propagator) Propagate(ctx context.Context, t cluster.Type, id uint64) error {
	sent, err := p.sender.Notify(ctx, t, id)
	if sent {
		return nil
	}
	if err != nil {
		// 其他成员要等下一次变更或重启才能看到这次修改
		p.logger.Warn("broadcast failed, applying locally only",
			zap.String("type", string(t)),
			zap.Uint64("id", id),
			zap.Error(err))
	}
	return p.local.HandleNotification(ctx, cluster.Notification{Type: t, ID: id})
}
