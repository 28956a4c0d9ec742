package event

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jobs/eventhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingObserver struct {
	mu        sync.Mutex
	published map[string]int
	failed    map[string]int
	dropped   int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{published: map[string]int{}, failed: map[string]int{}}
}

func (o *countingObserver) EventPublished(event, mode string) {
	o.mu.Lock()
	o.published[event+"/"+mode]++
	o.mu.Unlock()
}

func (o *countingObserver) ListenerFailed(event, mode string) {
	o.mu.Lock()
	o.failed[event+"/"+mode]++
	o.mu.Unlock()
}

func (o *countingObserver) AsyncDropped(string) {
	o.mu.Lock()
	o.dropped++
	o.mu.Unlock()
}

func newTestBus(t *testing.T, opts ...BusOption) (*Bus, *Descriptor) {
	t.Helper()
	c := NewCatalogue()
	x := Define[int](c, "X")
	c.Seal()
	b := NewBus(c, NewHandlerRegistry(), zap.NewNop(), opts...)
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b, x
}

func TestPublishInvokesInRegistrationOrder(t *testing.T) {
	b, x := newTestBus(t)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		require.True(t, b.RegisterFunc(x, Func(func(ctx context.Context, payload any) error {
			order = append(order, i)
			return nil
		})))
	}

	require.NoError(t, b.Publish(context.Background(), x, 1))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestPublishEndToEndCountingListener(t *testing.T) {
	b, x := newTestBus(t)

	var seen []int
	b.RegisterFunc(x, On(func(ctx context.Context, v int) error {
		seen = append(seen, v)
		return nil
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, b.PublishByName(context.Background(), "X", 7))
	}
	// 同步发布：Publish 返回时监听器已经在调用方协程上执行完毕
	assert.Equal(t, []int{7, 7, 7}, seen)
}

func TestPublishWithoutListeners(t *testing.T) {
	b, x := newTestBus(t)
	assert.NoError(t, b.Publish(context.Background(), x, 1))
	b.PublishAsync(context.Background(), x, 1)
	require.NoError(t, b.Close(context.Background()))
}

func TestPublishFailFast(t *testing.T) {
	b, x := newTestBus(t)

	boom := errors.New("boom")
	var l1, l3 bool
	b.RegisterFunc(x, Func(func(context.Context, any) error { l1 = true; return nil }))
	b.Register(x, Registration{
		Consumer:   Func(func(context.Context, any) error { return boom }),
		ExternalID: ExternalID(9),
	})
	b.RegisterFunc(x, Func(func(context.Context, any) error { l3 = true; return nil }))

	err := b.Publish(context.Background(), x, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var de *DispatchError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, 1, de.Index)
	assert.Equal(t, "X", de.Event)
	require.NotNil(t, de.ExternalID)
	assert.Equal(t, uint64(9), *de.ExternalID)

	assert.True(t, l1)
	assert.False(t, l3)
}

func TestPublishRecoversListenerPanic(t *testing.T) {
	b, x := newTestBus(t)
	b.RegisterFunc(x, Func(func(context.Context, any) error { panic("kaput") }))

	err := b.Publish(context.Background(), x, 1)
	assert.ErrorIs(t, err, ErrListenerPanic)
}

func TestPublishNilDescriptor(t *testing.T) {
	b, _ := newTestBus(t)
	assert.ErrorIs(t, b.Publish(context.Background(), nil, 1), ErrNilDescriptor)
	assert.False(t, b.Register(nil, Registration{Consumer: Func(func(context.Context, any) error { return nil })}))
}

func TestPublishByNameUnknown(t *testing.T) {
	b, _ := newTestBus(t)
	assert.ErrorIs(t, b.PublishByName(context.Background(), "nope", 1), ErrUnknownEvent)
}

func TestPublishAsyncReturnsBeforeListenerRuns(t *testing.T) {
	b, x := newTestBus(t)

	release := make(chan struct{})
	done := make(chan int, 1)
	b.RegisterFunc(x, On(func(ctx context.Context, v int) error {
		<-release
		done <- v
		return nil
	}))

	b.PublishAsync(context.Background(), x, 42)

	select {
	case <-done:
		t.Fatal("listener completed before the latch was released")
	default:
	}

	close(release)
	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("async listener never ran")
	}
}

func TestPublishAsyncSwallowsErrors(t *testing.T) {
	obs := newCountingObserver()
	b, x := newTestBus(t, WithObserver(obs))

	var wg sync.WaitGroup
	wg.Add(1)
	b.RegisterFunc(x, Func(func(context.Context, any) error {
		defer wg.Done()
		return errors.New("webhook down")
	}))

	b.PublishAsync(context.Background(), x, 1)
	wg.Wait()
	require.NoError(t, b.Close(context.Background()))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.failed["X/async"])
	assert.Equal(t, 1, obs.published["X/async"])
}

func TestPublishAsyncKeepsCorrelationID(t *testing.T) {
	b, x := newTestBus(t)

	got := make(chan string, 1)
	b.RegisterFunc(x, Func(func(ctx context.Context, _ any) error {
		got <- logger.CorrelationID(ctx)
		return nil
	}))

	ctx, cancel := context.WithCancel(logger.WithCorrelationID(context.Background(), "corr-1"))
	b.PublishAsync(ctx, x, 1)
	cancel()

	select {
	case id := <-got:
		assert.Equal(t, "corr-1", id)
	case <-time.After(2 * time.Second):
		t.Fatal("async listener never ran")
	}
}

func TestPublishAsyncDropsWhenQueueFull(t *testing.T) {
	obs := newCountingObserver()
	pool := NewPool(1, 1, zap.NewNop())
	b, x := newTestBus(t, WithObserver(obs), WithPool(pool))

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	b.RegisterFunc(x, Func(func(context.Context, any) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}))

	b.PublishAsync(context.Background(), x, 1) // 被 worker 取走并阻塞
	<-started
	b.PublishAsync(context.Background(), x, 2) // 占满队列
	b.PublishAsync(context.Background(), x, 3) // 丢弃

	close(release)
	require.NoError(t, b.Close(context.Background()))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.dropped)
}

func TestUnregister(t *testing.T) {
	b, x := newTestBus(t)

	var calls []string
	mk := func(name string) Consumer {
		return Func(func(context.Context, any) error {
			calls = append(calls, name)
			return nil
		})
	}
	b.RegisterFunc(x, mk("code"))
	b.Register(x, Registration{Consumer: mk("a"), ExternalID: ExternalID(1)})
	b.Register(x, Registration{Consumer: mk("b"), ExternalID: ExternalID(2)})

	assert.True(t, b.Unregister(1))
	assert.False(t, b.Unregister(1))
	assert.False(t, b.Unregister(99))

	require.NoError(t, b.Publish(context.Background(), x, 0))
	assert.Equal(t, []string{"code", "b"}, calls)
	assert.Len(t, b.Registrations(x), 2)
}

func TestRegisterCopiesParams(t *testing.T) {
	b, x := newTestBus(t)

	params := []string{"a", "b"}
	var got []string
	b.Register(x, Registration{
		Consumer: ParamFunc(func(_ context.Context, _ any, p []string) error {
			got = p
			return nil
		}),
		Params: params,
	})
	params[0] = "mutated"

	require.NoError(t, b.Publish(context.Background(), x, 0))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestRegisterRejectsTooManyParams(t *testing.T) {
	b, x := newTestBus(t)
	ok := b.Register(x, Registration{
		Consumer: ParamFunc(func(context.Context, any, []string) error { return nil }),
		Params:   []string{"1", "2", "3", "4", "5"},
	})
	assert.False(t, ok)
}

func TestRegisterNamed(t *testing.T) {
	b, x := newTestBus(t)

	var got []string
	require.NoError(t, RegisterHandler(b.Handlers(), "mail", 2, func(ctx context.Context, v int, params []string) error {
		got = append([]string{fmt.Sprint(v)}, params...)
		return nil
	}))

	assert.True(t, b.RegisterNamed(x, "mail", []string{"welcome", "en"}, ExternalID(5)))
	// 参数个数不匹配：解析失败，返回 false 而不是 panic
	assert.False(t, b.RegisterNamed(x, "mail", []string{"welcome"}, ExternalID(6)))
	assert.False(t, b.RegisterNamed(x, "missing", nil, ExternalID(7)))
	assert.False(t, b.RegisterNamed(nil, "mail", nil, nil))

	require.NoError(t, b.Publish(context.Background(), x, 3))
	assert.Equal(t, []string{"3", "welcome", "en"}, got)
	assert.Len(t, b.Registrations(x), 1)
}

func TestConcurrentRegisterAndPublish(t *testing.T) {
	b, x := newTestBus(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		id := uint64(i)
		go func() {
			defer wg.Done()
			b.Register(x, Registration{
				Consumer:   Func(func(context.Context, any) error { return nil }),
				ExternalID: ExternalID(id),
			})
		}()
		go func() {
			defer wg.Done()
			_ = b.Publish(context.Background(), x, 1)
		}()
	}
	wg.Wait()
	assert.Len(t, b.Registrations(x), 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		id := uint64(i)
		go func() {
			defer wg.Done()
			assert.True(t, b.Unregister(id))
		}()
	}
	wg.Wait()
	assert.Empty(t, b.Registrations(x))
}

type animal interface{ Sound() string }

type dog struct{}

func (dog) Sound() string { return "woof" }

func TestFindConsumersByPayloadType(t *testing.T) {
	b, _ := newTestBus(t)

	forAnimal := On(func(context.Context, animal) error { return nil })
	forDog := On(func(context.Context, dog) error { return nil })
	forInt := On(func(context.Context, int) error { return nil })

	b.RegisterTypeConsumer(TypeOf[animal](), forAnimal)
	b.RegisterTypeConsumer(TypeOf[dog](), forDog)
	b.RegisterTypeConsumer(TypeOf[int](), forInt)

	got := b.FindConsumersByPayloadType(reflect.TypeOf(dog{}))
	assert.Len(t, got, 2)
	assert.Contains(t, got, forAnimal)
	assert.Contains(t, got, forDog)

	assert.Len(t, b.FindConsumersByPayloadType(TypeOf[animal]()), 1)
	assert.Empty(t, b.FindConsumersByPayloadType(TypeOf[string]()))
	assert.Nil(t, b.FindConsumersByPayloadType(nil))
}

func TestPoolSubmitErrors(t *testing.T) {
	p := NewPool(1, 1, zap.NewNop())

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, p.Submit(func() {}))
	assert.ErrorIs(t, p.Submit(func() {}), ErrQueueFull)

	close(release)
	require.NoError(t, p.Close(context.Background()))
	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
}

func TestAsyncFailurePublishesListenerFailed(t *testing.T) {
	c, k := NewBuiltinCatalogue()
	c.Seal()
	b := NewBus(c, nil, zap.NewNop())

	failures := make(chan ListenerFailed, 2)
	b.RegisterFunc(k.ListenerFailed, On(func(_ context.Context, f ListenerFailed) error {
		failures <- f
		return errors.New("listener.failed consumer broken")
	}))
	b.Register(k.UserRegistered, Registration{
		Consumer:   Func(func(context.Context, any) error { return errors.New("smtp down") }),
		ExternalID: ExternalID(7),
	})

	b.PublishAsync(context.Background(), k.UserRegistered, UserRegistered{UserID: 1})
	require.NoError(t, b.Close(context.Background()))

	require.Len(t, failures, 1)
	f := <-failures
	assert.Equal(t, NameUserRegistered, f.Event)
	assert.Equal(t, ModeAsync, f.Mode)
	assert.Equal(t, 0, f.Index)
	require.NotNil(t, f.ListenerID)
	assert.Equal(t, uint64(7), *f.ListenerID)
	assert.Equal(t, "smtp down", f.Error)
	assert.False(t, f.FailedAt.IsZero())
}

func TestSyncFailureNotReported(t *testing.T) {
	c, k := NewBuiltinCatalogue()
	c.Seal()
	b := NewBus(c, nil, zap.NewNop())
	t.Cleanup(func() { _ = b.Close(context.Background()) })

	reported := 0
	b.RegisterFunc(k.ListenerFailed, Func(func(context.Context, any) error {
		reported++
		return nil
	}))
	b.RegisterFunc(k.UserRegistered, Func(func(context.Context, any) error { return errors.New("boom") }))

	var de *DispatchError
	require.ErrorAs(t, b.Publish(context.Background(), k.UserRegistered, UserRegistered{}), &de)
	assert.Equal(t, 0, reported)
}

func TestNewListenerFailedPlainError(t *testing.T) {
	f := NewListenerFailed(errors.New("x"), ModeSync, time.Unix(0, 0))
	assert.Equal(t, -1, f.Index)
	assert.Equal(t, "x", f.Error)
	assert.Empty(t, f.Event)
}
