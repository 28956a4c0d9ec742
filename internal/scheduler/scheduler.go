package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jobs/eventhub/internal/biz/schedule"
	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/pkg/keylock"
	"github.com/jobs/eventhub/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// 支持 5 段和 6 段（带秒）表达式，以及 @every / @daily 等描述符
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ParseCron 校验 cron 表达式
func ParseCron(expr string) (cron.Schedule, error) {
	s, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidCron, expr, err)
	}
	return s, nil
}

// timer 一个活动定时器。entry 是调度时的快照，之后对存储的修改需要通过 Reschedule 或 RemoveAndLoad 生效。
type timer struct {
	cronID cron.EntryID
	entry  schedule.Entry
}

// Scheduler 把持久化的定时配置转换为 cron 定时器，触发时在事件总线上发布 SchedulerFired
type Scheduler struct {
	cron     *cron.Cron
	bus      Publisher
	fired    *event.Descriptor
	failed   *event.Descriptor
	oracle   MasterOracle
	repo     schedule.Repo
	logger   *zap.Logger
	observer Observer
	now      func() time.Time

	// 同一 id 的 schedule/remove/reschedule 严格串行，不同 id 互不影响
	locks  *keylock.KeyedMutex[uint64]
	timers sync.Map // uint64 -> *timer
}

// New 创建调度器
func New(
	bus Publisher,
	kinds event.Kinds,
	oracle MasterOracle,
	repo schedule.Repo,
	logger *zap.Logger,
) *Scheduler {
	cl := newCronLogger(logger)
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithChain(cron.Recover(cl)),
			cron.WithLogger(cl),
		),
		bus:      bus,
		fired:    kinds.SchedulerFired,
		failed:   kinds.ListenerFailed,
		oracle:   oracle,
		repo:     repo,
		logger:   logger,
		observer: nopObserver{},
		now:      time.Now,
		locks:    keylock.New[uint64](),
	}
}

// SetObserver 设置指标回调，需在 Start 之前调用
func (s *Scheduler) SetObserver(o Observer) {
	if o != nil {
		s.observer = o
	}
}

// Start 启动 cron
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Int("active", len(s.Active())))
	s.cron.Start()
}

// Stop 停止 cron，等待正在执行的触发结束
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule 为 entry 创建定时器。同一 id 已有定时器时先取消再替换。
// entry 为空或 cron 表达式无效时返回 false。
func (s *Scheduler) Schedule(entry *schedule.Entry) bool {
	if entry == nil {
		s.logger.Warn("schedule rejected", zap.Error(ErrNilEntry))
		return false
	}
	cs, err := ParseCron(entry.CronExpression)
	if err != nil {
		s.logger.Warn("schedule rejected", zap.Uint64("schedule_id", entry.ID), zap.Error(err))
		return false
	}

	unlock := s.locks.Lock(entry.ID)
	defer unlock()

	s.replaceLocked(entry, cs)
	return true
}

// Remove 取消定时器。正在执行的触发会继续完成，只阻止之后的触发。
func (s *Scheduler) Remove(id uint64) bool {
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.removeLocked(id)
}

// Reschedule 用 entry 替换 id 的定时器，取消和重建在同一个临界区内完成。
// 新表达式无效时保留原定时器并返回 false。
func (s *Scheduler) Reschedule(id uint64, entry *schedule.Entry) bool {
	if entry == nil {
		s.logger.Warn("reschedule rejected", zap.Uint64("schedule_id", id), zap.Error(ErrNilEntry))
		return false
	}
	cs, err := ParseCron(entry.CronExpression)
	if err != nil {
		s.logger.Warn("reschedule rejected, keeping current timer",
			zap.Uint64("schedule_id", id), zap.Error(err))
		return false
	}

	if entry.ID == id {
		unlock := s.locks.Lock(id)
		defer unlock()
		s.replaceLocked(entry, cs)
		return true
	}

	// id 变更：旧 id 与新 id 各自在自己的锁内处理
	s.Remove(id)
	unlock := s.locks.Lock(entry.ID)
	defer unlock()
	s.replaceLocked(entry, cs)
	return true
}

// RemoveAndLoad 从存储重新加载 id 并重建定时器；记录不存在或已禁用时移除定时器。
// 重复调用结果相同，集群重放的通知据此保持幂等。
func (s *Scheduler) RemoveAndLoad(ctx context.Context, id uint64) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load schedule %d: %w", id, err)
	}
	if entry == nil || !entry.Enabled {
		if s.removeLocked(id) {
			logger.FromContext(ctx, s.logger).Info("schedule removed on reload",
				zap.Uint64("schedule_id", id),
				zap.Bool("found", entry != nil))
		}
		return nil
	}

	cs, err := ParseCron(entry.CronExpression)
	if err != nil {
		// 存储里的表达式已经失效，旧定时器不再代表当前配置
		s.removeLocked(id)
		return err
	}
	s.replaceLocked(entry, cs)
	return nil
}

// LoadAll 启动时加载所有启用的定时配置，返回成功调度的数量
func (s *Scheduler) LoadAll(ctx context.Context) (int, error) {
	entries, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load schedules: %w", err)
	}

	count := 0
	for _, e := range entries {
		if s.Schedule(e) {
			count++
		}
	}
	s.logger.Info("loaded schedules",
		zap.Int("total", len(entries)),
		zap.Int("scheduled", count))
	return count, nil
}

// Active 返回当前有定时器的 id，升序
func (s *Scheduler) Active() []uint64 {
	var ids []uint64
	s.timers.Range(func(key, _ any) bool {
		ids = append(ids, key.(uint64))
		return true
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Scheduler) IsScheduled(id uint64) bool {
	_, ok := s.timers.Load(id)
	return ok
}

// Next 返回下一次触发时间。cron 未启动时根据表达式从当前时间推算。
func (s *Scheduler) Next(id uint64) (time.Time, bool) {
	v, ok := s.timers.Load(id)
	if !ok {
		return time.Time{}, false
	}
	t := v.(*timer)
	if next := s.cron.Entry(t.cronID).Next; !next.IsZero() {
		return next, true
	}
	cs, err := ParseCron(t.entry.CronExpression)
	if err != nil {
		return time.Time{}, false
	}
	return cs.Next(s.now()), true
}

// Trigger 立即在调用方协程上执行一次触发，不影响定时计划
func (s *Scheduler) Trigger(id uint64) error {
	v, ok := s.timers.Load(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotScheduled, id)
	}
	entry := v.(*timer).entry
	s.fire(entry)
	return nil
}

func (s *Scheduler) replaceLocked(entry *schedule.Entry, cs cron.Schedule) {
	if v, ok := s.timers.Load(entry.ID); ok {
		s.cron.Remove(v.(*timer).cronID)
	}

	snapshot := *entry
	cronID := s.cron.Schedule(cs, cron.FuncJob(func() { s.fire(snapshot) }))
	s.timers.Store(entry.ID, &timer{cronID: cronID, entry: snapshot})
	s.observer.ActiveTimers(s.count())

	s.logger.Info("scheduled",
		zap.Uint64("schedule_id", entry.ID),
		zap.String("cron", entry.CronExpression),
		zap.Bool("master_only", entry.OnMasterOnly),
		zap.Bool("async", entry.IsAsync))
}

func (s *Scheduler) removeLocked(id uint64) bool {
	v, ok := s.timers.LoadAndDelete(id)
	if !ok {
		return false
	}
	s.cron.Remove(v.(*timer).cronID)
	s.observer.ActiveTimers(s.count())

	s.logger.Info("unscheduled", zap.Uint64("schedule_id", id))
	return true
}

func (s *Scheduler) count() int {
	n := 0
	s.timers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// fire 一次触发：生成关联ID，检查 master，按配置同步或异步发布
func (s *Scheduler) fire(entry schedule.Entry) {
	ctx := logger.WithCorrelationID(context.Background(), logger.NewCorrelationID())
	log := logger.FromContext(ctx, s.logger).With(zap.Uint64("schedule_id", entry.ID))

	if entry.OnMasterOnly && !s.oracle.IsMaster() {
		log.Debug("skip firing, not master")
		s.observer.ScheduleFired(OutcomeSkipped)
		return
	}

	payload := event.SchedulerFired{
		ScheduleID:     entry.ID,
		CronExpression: entry.CronExpression,
		EventData:      entry.EventData,
		OrganizationID: entry.OrganizationID,
		OnMasterOnly:   entry.OnMasterOnly,
		IsAsync:        entry.IsAsync,
		FiredAt:        s.now(),
	}

	if entry.IsAsync {
		s.bus.PublishAsync(ctx, s.fired, payload)
		s.observer.ScheduleFired(OutcomeAsync)
		log.Debug("schedule fired", zap.String("mode", "async"))
		return
	}

	if err := s.bus.Publish(ctx, s.fired, payload); err != nil {
		s.observer.ScheduleFired(OutcomeFailed)
		log.Error("schedule listener failed", zap.Error(err))
		if s.failed != nil {
			s.bus.PublishAsync(ctx, s.failed, event.NewListenerFailed(err, event.ModeSync, s.now()))
		}
		return
	}
	s.observer.ScheduleFired(OutcomePublished)
	log.Debug("schedule fired", zap.String("mode", "sync"))
}
