package scheduler

import (
	"context"

	"github.com/google/wire"
	"github.com/jobs/eventhub/internal/event"
)

var Provider = wire.NewSet(
	New,
	NewElector,
	wire.Bind(new(MasterOracle), new(*Elector)),
	wire.Bind(new(Publisher), new(*event.Bus)),
)

// Publisher 定时器触发后发布事件的出口，由事件总线实现
type Publisher interface {
	Publish(ctx context.Context, d *event.Descriptor, payload any) error
	PublishAsync(ctx context.Context, d *event.Descriptor, payload any)
}

// MasterOracle 查询本进程当前是否为 master
type MasterOracle interface {
	IsMaster() bool
}

// StaticOracle 固定结果的 master 判定，单机部署和测试使用
type StaticOracle bool

func (o StaticOracle) IsMaster() bool { return bool(o) }

// Observer 调度指标回调
type Observer interface {
	ScheduleFired(outcome string)
	ActiveTimers(n int)
}

type nopObserver struct{}

func (nopObserver) ScheduleFired(string) {}
func (nopObserver) ActiveTimers(int)     {}

// 触发结果
const (
	OutcomePublished = "published"
	OutcomeAsync     = "async"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)
