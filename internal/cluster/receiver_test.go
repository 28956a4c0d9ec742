package cluster

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jobs/eventhub/internal/biz/schedule"
	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryScheduleRepo struct {
	mu      sync.Mutex
	entries map[uint64]*schedule.Entry
}

func (r *memoryScheduleRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *memoryScheduleRepo) Create(_ context.Context, e *schedule.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = e
	return nil
}

func (r *memoryScheduleRepo) GetByID(_ context.Context, id uint64) (*schedule.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (r *memoryScheduleRepo) Update(context.Context, uint64, *schedule.EntryPatch) error { return nil }

func (r *memoryScheduleRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

func (r *memoryScheduleRepo) List(context.Context, *schedule.Filter) ([]*schedule.Entry, error) {
	return nil, nil
}

func (r *memoryScheduleRepo) ListEnabled(context.Context) ([]*schedule.Entry, error) {
	return nil, nil
}

func newSchedulerFixture(t *testing.T) (*scheduler.Scheduler, *memoryScheduleRepo) {
	t.Helper()
	catalogue, kinds := event.NewBuiltinCatalogue()
	catalogue.Seal()
	bus := event.NewBus(catalogue, nil, zap.NewNop())
	t.Cleanup(func() { _ = bus.Close(context.Background()) })

	repo := &memoryScheduleRepo{entries: map[uint64]*schedule.Entry{
		42: {ID: 42, CronExpression: "@hourly", Enabled: true},
	}}
	return scheduler.New(bus, kinds, scheduler.StaticOracle(true), repo, zap.NewNop()), repo
}

func TestReceiverSchedulerAddTwiceIsIdempotent(t *testing.T) {
	sched, _ := newSchedulerFixture(t)
	r := NewReceiver(testConfig(true), nil, zap.NewNop(), ForScheduler(sched), &recordingReloader{}, &recordingReloader{})

	data, err := Notification{Type: SchedulerAdd, ID: 42}.Encode()
	require.NoError(t, err)

	r.Handle(context.Background(), data)
	r.Handle(context.Background(), data)

	assert.Equal(t, []uint64{42}, sched.Active())
}

func TestReceiverDuplicateSeqDiscarded(t *testing.T) {
	sched, _ := newSchedulerFixture(t)
	listeners := &recordingReloader{}
	r := NewReceiver(testConfig(true), nil, zap.NewNop(), ForScheduler(sched), listeners, &recordingReloader{})

	n := Notification{Type: ListenerReload, ID: 3, Source: "node-b", Seq: 10}
	require.NoError(t, r.HandleNotification(context.Background(), n))
	require.NoError(t, r.HandleNotification(context.Background(), n))

	older := n
	older.Seq = 9
	require.NoError(t, r.HandleNotification(context.Background(), older))

	// 其他来源的 seq 各自独立
	other := Notification{Type: ListenerReload, ID: 3, Source: "node-c", Seq: 1}
	require.NoError(t, r.HandleNotification(context.Background(), other))

	assert.Equal(t, []call{{"reload", 3}, {"reload", 3}}, listeners.calls)
}

func TestReceiverSeqTrackedPerEntry(t *testing.T) {
	schedules, listeners := &recordingReloader{}, &recordingReloader{}
	r := NewReceiver(testConfig(true), nil, zap.NewNop(), schedules, listeners, &recordingReloader{})
	ctx := context.Background()

	// 同一来源，较晚分配的 seq 先到达，不影响其他 id 或其他配置域
	require.NoError(t, r.HandleNotification(ctx, Notification{Type: SchedulerAdd, ID: 20, Source: "node-b", Seq: 2}))
	require.NoError(t, r.HandleNotification(ctx, Notification{Type: SchedulerAdd, ID: 10, Source: "node-b", Seq: 1}))
	require.NoError(t, r.HandleNotification(ctx, Notification{Type: ListenerAdd, ID: 20, Source: "node-b", Seq: 1}))

	// 同一条配置上的旧通知仍然丢弃
	require.NoError(t, r.HandleNotification(ctx, Notification{Type: SchedulerRemove, ID: 20, Source: "node-b", Seq: 1}))

	assert.Equal(t, []call{{"reload", 20}, {"reload", 10}}, schedules.calls)
	assert.Equal(t, []call{{"reload", 20}}, listeners.calls)
}

func TestReceiverRoutesByType(t *testing.T) {
	schedules, listeners, forms := &recordingReloader{}, &recordingReloader{}, &recordingReloader{}
	r := NewReceiver(testConfig(true), nil, zap.NewNop(), schedules, listeners, forms)

	for i, typ := range Types() {
		require.NoError(t, r.HandleNotification(context.Background(), Notification{Type: typ, ID: uint64(i)}))
	}

	assert.Equal(t, []call{{"reload", 0}, {"remove", 1}, {"reload", 2}}, schedules.calls)
	assert.Equal(t, []call{{"reload", 3}, {"remove", 4}, {"reload", 5}}, listeners.calls)
	assert.Equal(t, []call{{"reload", 6}, {"remove", 7}, {"reload", 8}}, forms.calls)
}

func TestReceiverSchedulerRemove(t *testing.T) {
	sched, repo := newSchedulerFixture(t)
	r := NewReceiver(testConfig(true), nil, zap.NewNop(), ForScheduler(sched), &recordingReloader{}, &recordingReloader{})

	require.NoError(t, r.HandleNotification(context.Background(), Notification{Type: SchedulerAdd, ID: 42}))
	require.Equal(t, []uint64{42}, sched.Active())

	require.NoError(t, repo.Delete(context.Background(), 42))
	require.NoError(t, r.HandleNotification(context.Background(), Notification{Type: SchedulerRemove, ID: 42}))
	require.NoError(t, r.HandleNotification(context.Background(), Notification{Type: SchedulerRemove, ID: 42}))
	assert.Empty(t, sched.Active())
}

func TestReceiverReloadFailureDropped(t *testing.T) {
	forms := &recordingReloader{err: errors.New("row vanished")}
	r := NewReceiver(testConfig(true), nil, zap.NewNop(), &recordingReloader{}, &recordingReloader{}, forms)

	err := r.HandleNotification(context.Background(), Notification{Type: FormReload, ID: 8})
	assert.Error(t, err)

	data, _ := Notification{Type: FormAdd, ID: 8}.Encode()
	assert.NotPanics(t, func() { r.Handle(context.Background(), data) })
	assert.NotPanics(t, func() { r.Handle(context.Background(), []byte("{")) })
	assert.Len(t, forms.calls, 2)
}

func TestReceiverRejectsUnknownType(t *testing.T) {
	r := NewReceiver(testConfig(true), nil, zap.NewNop(), &recordingReloader{}, &recordingReloader{}, &recordingReloader{})
	assert.ErrorIs(t, r.HandleNotification(context.Background(), Notification{Type: "X"}), ErrUnknownType)
}

func TestLocalTransportEndToEnd(t *testing.T) {
	tr := NewLocalTransport()
	cfg := testConfig(true)

	listeners := &recordingReloader{}
	r := NewReceiver(cfg, tr, zap.NewNop(), &recordingReloader{}, listeners, &recordingReloader{})
	require.NoError(t, r.Start(context.Background()))

	s := NewSender(cfg, tr, zap.NewNop())
	sent, err := s.NotifyAddListener(context.Background(), 11)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, []call{{"reload", 11}}, listeners.calls)

	r.Stop()
	_, err = s.NotifyRemoveListener(context.Background(), 11)
	require.NoError(t, err)
	assert.Len(t, listeners.calls, 1)
}
