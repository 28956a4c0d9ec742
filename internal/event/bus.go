package event

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jobs/eventhub/pkg/logger"
	"go.uber.org/zap"
)

// 分发方式
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// Observer 分发过程的指标回调
type Observer interface {
	EventPublished(event, mode string)
	ListenerFailed(event, mode string)
	AsyncDropped(event string)
}

type nopObserver struct{}

func (nopObserver) EventPublished(string, string) {}
func (nopObserver) ListenerFailed(string, string) {}
func (nopObserver) AsyncDropped(string)           {}

// registrationList 单个事件种类的注册列表。
// 读路径无锁：items 指向不可变切片，写入方在 mu 下复制后整体替换。
type registrationList struct {
	mu    sync.Mutex
	items atomic.Pointer[[]Registration]
}

func (l *registrationList) load() []Registration {
	if p := l.items.Load(); p != nil {
		return *p
	}
	return nil
}

type typedConsumer struct {
	typ      reflect.Type
	consumer Consumer
}

// Bus 进程内事件总线
type Bus struct {
	logger    *zap.Logger
	catalogue *Catalogue
	handlers  *HandlerRegistry
	pool      *Pool
	observer  Observer

	lists sync.Map // *Descriptor -> *registrationList

	typedMu sync.RWMutex
	typed   []typedConsumer
}

type BusOption func(*Bus)

// WithObserver 设置指标回调
func WithObserver(o Observer) BusOption {
	return func(b *Bus) {
		if o != nil {
			b.observer = o
		}
	}
}

// WithPool 使用外部创建的异步协程池
func WithPool(p *Pool) BusOption {
	return func(b *Bus) { b.pool = p }
}

// NewBus 创建事件总线。未指定协程池时使用 4 个 worker、256 长度队列。
func NewBus(catalogue *Catalogue, handlers *HandlerRegistry, logger *zap.Logger, opts ...BusOption) *Bus {
	if handlers == nil {
		handlers = NewHandlerRegistry()
	}
	b := &Bus{
		logger:    logger,
		catalogue: catalogue,
		handlers:  handlers,
		observer:  nopObserver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.pool == nil {
		b.pool = NewPool(4, 256, logger)
	}
	return b
}

func (b *Bus) Catalogue() *Catalogue { return b.catalogue }

func (b *Bus) Handlers() *HandlerRegistry { return b.handlers }

func (b *Bus) list(d *Descriptor) *registrationList {
	if l, ok := b.lists.Load(d); ok {
		return l.(*registrationList)
	}
	l, _ := b.lists.LoadOrStore(d, &registrationList{})
	return l.(*registrationList)
}

// Register 追加一个订阅。descriptor 或 consumer 为空时返回 false。
func (b *Bus) Register(d *Descriptor, reg Registration) bool {
	if d == nil {
		b.logger.Warn("register rejected", zap.Error(ErrNilDescriptor))
		return false
	}
	if reg.Consumer == nil {
		b.logger.Warn("register rejected", zap.String("event", d.Name()), zap.Error(ErrNilConsumer))
		return false
	}
	if len(reg.Params) > MaxParams {
		b.logger.Warn("register rejected",
			zap.String("event", d.Name()),
			zap.Int("params", len(reg.Params)),
			zap.Error(ErrTooManyParams))
		return false
	}
	if reg.Params != nil {
		reg.Params = append([]string(nil), reg.Params...)
	}

	l := b.list(d)
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := l.load()
	next := make([]Registration, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, reg)
	l.items.Store(&next)

	fields := []zap.Field{
		zap.String("event", d.Name()),
		zap.Stringer("kind", reg.Consumer.Kind()),
		zap.Int("params", len(reg.Params)),
	}
	if reg.ExternalID != nil {
		fields = append(fields, zap.Uint64("listener_id", *reg.ExternalID))
	}
	b.logger.Debug("listener registered", fields...)
	return true
}

// RegisterFunc 注册代码内的单参数监听器
func (b *Bus) RegisterFunc(d *Descriptor, c Consumer) bool {
	return b.Register(d, Registration{Consumer: c})
}

// RegisterNamed 通过处理器表解析具名监听器并注册。解析失败只返回 false 并记录日志，
// 这样批量加载时一个无法解析的配置不会中断其余的加载。
func (b *Bus) RegisterNamed(d *Descriptor, handlerName string, params []string, externalID *uint64) bool {
	if d == nil {
		b.logger.Warn("register rejected", zap.String("handler", handlerName), zap.Error(ErrNilDescriptor))
		return false
	}
	c, err := b.handlers.Resolve(handlerName, d.PayloadType(), len(params))
	if err != nil {
		fields := []zap.Field{
			zap.String("event", d.Name()),
			zap.String("handler", handlerName),
			zap.Error(err),
		}
		if externalID != nil {
			fields = append(fields, zap.Uint64("listener_id", *externalID))
		}
		b.logger.Warn("failed to resolve listener", fields...)
		return false
	}
	return b.Register(d, Registration{Consumer: c, Params: params, ExternalID: externalID})
}

// Unregister 移除第一个外部ID匹配的订阅
func (b *Bus) Unregister(externalID uint64) bool {
	removed := false
	b.lists.Range(func(key, value any) bool {
		l := value.(*registrationList)
		l.mu.Lock()
		defer l.mu.Unlock()

		cur := l.load()
		for i, r := range cur {
			if r.ExternalID == nil || *r.ExternalID != externalID {
				continue
			}
			next := make([]Registration, 0, len(cur)-1)
			next = append(next, cur[:i]...)
			next = append(next, cur[i+1:]...)
			l.items.Store(&next)
			removed = true
			b.logger.Debug("listener unregistered",
				zap.String("event", key.(*Descriptor).Name()),
				zap.Uint64("listener_id", externalID))
			return false
		}
		return true
	})
	return removed
}

// Registrations 返回事件当前的订阅快照
func (b *Bus) Registrations(d *Descriptor) []Registration {
	if d == nil {
		return nil
	}
	l, ok := b.lists.Load(d)
	if !ok {
		return nil
	}
	return l.(*registrationList).load()
}

// Publish 在调用方协程上按注册顺序同步分发。第一个失败的监听器会中止本次分发，
// 错误以 *DispatchError 返回。监听器内的阻塞会直接拖慢发布方。
func (b *Bus) Publish(ctx context.Context, d *Descriptor, payload any) error {
	if d == nil {
		return ErrNilDescriptor
	}
	return b.dispatch(ctx, d, payload, ModeSync)
}

// PublishByName 按事件名称同步发布
func (b *Bus) PublishByName(ctx context.Context, name string, payload any) error {
	d, ok := b.catalogue.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return b.Publish(ctx, d, payload)
}

// PublishAsync 把同步分发提交到后台协程池后立即返回。监听器错误只记录日志，不会回传给发布方。
func (b *Bus) PublishAsync(ctx context.Context, d *Descriptor, payload any) {
	if d == nil {
		b.logger.Warn("async publish rejected", zap.Error(ErrNilDescriptor))
		return
	}
	// 发布方的请求结束不应取消后台分发，但保留 context 里的关联ID
	detached := context.WithoutCancel(ctx)
	err := b.pool.Submit(func() {
		if err := b.dispatch(detached, d, payload, ModeAsync); err != nil {
			logger.FromContext(detached, b.logger).Error("async listener failed",
				zap.String("event", d.Name()),
				zap.Error(err))
			b.reportFailure(detached, d, err)
		}
	})
	if err != nil {
		b.observer.AsyncDropped(d.Name())
		logger.FromContext(ctx, b.logger).Warn("async event dropped",
			zap.String("event", d.Name()),
			zap.Error(err))
	}
}

// reportFailure 在当前 worker 上分发 listener.failed。目录里没有该事件时不上报，
// listener.failed 自身的监听器失败只记录日志。
func (b *Bus) reportFailure(ctx context.Context, d *Descriptor, cause error) {
	if d.Name() == NameListenerFailed || b.catalogue == nil {
		return
	}
	fd, ok := b.catalogue.Lookup(NameListenerFailed)
	if !ok {
		return
	}
	if err := b.dispatch(ctx, fd, NewListenerFailed(cause, ModeAsync, time.Now()), ModeAsync); err != nil {
		logger.FromContext(ctx, b.logger).Warn("listener.failed listener failed", zap.Error(err))
	}
}

func (b *Bus) dispatch(ctx context.Context, d *Descriptor, payload any, mode string) error {
	b.observer.EventPublished(d.Name(), mode)
	for i, r := range b.Registrations(d) {
		if err := invoke(ctx, r, payload); err != nil {
			b.observer.ListenerFailed(d.Name(), mode)
			return &DispatchError{Event: d.Name(), Index: i, ExternalID: r.ExternalID, Err: err}
		}
	}
	return nil
}

func invoke(ctx context.Context, r Registration, payload any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrListenerPanic, p)
		}
	}()
	return r.Consumer.Invoke(ctx, payload, r.Params)
}

// RegisterTypeConsumer 按载荷类型登记监听器，供发现工具使用，不参与分发
func (b *Bus) RegisterTypeConsumer(t reflect.Type, c Consumer) bool {
	if t == nil || c == nil {
		return false
	}
	b.typedMu.Lock()
	b.typed = append(b.typed, typedConsumer{typ: t, consumer: c})
	b.typedMu.Unlock()
	return true
}

// FindConsumersByPayloadType 返回声明类型与 t 相同或是 t 的超类型（t 可赋值给它）的监听器
func (b *Bus) FindConsumersByPayloadType(t reflect.Type) []Consumer {
	if t == nil {
		return nil
	}
	b.typedMu.RLock()
	defer b.typedMu.RUnlock()

	var out []Consumer
	for _, tc := range b.typed {
		if t.AssignableTo(tc.typ) {
			out = append(out, tc.consumer)
		}
	}
	return out
}

// Close 排空异步队列
func (b *Bus) Close(ctx context.Context) error {
	return b.pool.Close(ctx)
}
