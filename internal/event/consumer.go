package event

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ConsumerKind 监听器的三种形态
type ConsumerKind int

const (
	KindFunc      ConsumerKind = iota + 1 // func(ctx, payload)
	KindParamFunc                         // func(ctx, payload, params)
	KindNamed                             // 通过 HandlerRegistry 按名称解析
)

func (k ConsumerKind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindParamFunc:
		return "param_func"
	case KindNamed:
		return "named"
	default:
		return "unknown"
	}
}

// Consumer 监听器。构造后只会路由到唯一一种形态，调用期不做回退。
// 只能通过本包的构造函数创建。
type Consumer interface {
	Invoke(ctx context.Context, payload any, params []string) error
	Kind() ConsumerKind
	// PayloadType 声明的载荷类型，接受任意载荷时为 nil
	PayloadType() reflect.Type
	sealed()
}

type funcConsumer struct {
	typ reflect.Type
	fn  func(ctx context.Context, payload any) error
}

func (c *funcConsumer) Invoke(ctx context.Context, payload any, _ []string) error {
	return c.fn(ctx, payload)
}
func (c *funcConsumer) Kind() ConsumerKind        { return KindFunc }
func (c *funcConsumer) PayloadType() reflect.Type { return c.typ }
func (c *funcConsumer) sealed()                   {}

type paramConsumer struct {
	typ reflect.Type
	fn  func(ctx context.Context, payload any, params []string) error
}

func (c *paramConsumer) Invoke(ctx context.Context, payload any, params []string) error {
	return c.fn(ctx, payload, params)
}
func (c *paramConsumer) Kind() ConsumerKind        { return KindParamFunc }
func (c *paramConsumer) PayloadType() reflect.Type { return c.typ }
func (c *paramConsumer) sealed()                   {}

type namedConsumer struct {
	name    string
	handler *handlerSpec
}

func (c *namedConsumer) Invoke(ctx context.Context, payload any, params []string) error {
	if len(params) != c.handler.arity {
		return fmt.Errorf("handler %q expects %d params, got %d", c.name, c.handler.arity, len(params))
	}
	return c.handler.fn(ctx, payload, params)
}
func (c *namedConsumer) Kind() ConsumerKind        { return KindNamed }
func (c *namedConsumer) PayloadType() reflect.Type { return c.handler.payloadType }
func (c *namedConsumer) sealed()                   {}

// Name 解析时使用的处理器名称
func (c *namedConsumer) Name() string { return c.name }

// Func 单参数监听器，接受任意载荷
func Func(fn func(ctx context.Context, payload any) error) Consumer {
	if fn == nil {
		return nil
	}
	return &funcConsumer{fn: fn}
}

// ParamFunc 带静态参数的监听器，接受任意载荷
func ParamFunc(fn func(ctx context.Context, payload any, params []string) error) Consumer {
	if fn == nil {
		return nil
	}
	return &paramConsumer{fn: fn}
}

// On 类型化的单参数监听器
func On[T any](fn func(ctx context.Context, payload T) error) Consumer {
	if fn == nil {
		return nil
	}
	return &funcConsumer{
		typ: TypeOf[T](),
		fn: func(ctx context.Context, payload any) error {
			v, err := assertPayload[T](payload)
			if err != nil {
				return err
			}
			return fn(ctx, v)
		},
	}
}

// OnWithParams 类型化的带参监听器
func OnWithParams[T any](fn func(ctx context.Context, payload T, params []string) error) Consumer {
	if fn == nil {
		return nil
	}
	return &paramConsumer{
		typ: TypeOf[T](),
		fn: func(ctx context.Context, payload any, params []string) error {
			v, err := assertPayload[T](payload)
			if err != nil {
				return err
			}
			return fn(ctx, v, params)
		},
	}
}

func assertPayload[T any](payload any) (T, error) {
	var zero T
	if payload == nil {
		return zero, nil
	}
	v, ok := payload.(T)
	if !ok {
		return zero, fmt.Errorf("%w: want %s, got %T", ErrPayloadType, TypeOf[T](), payload)
	}
	return v, nil
}

// Handler 具名处理器的函数形态
type Handler func(ctx context.Context, payload any, params []string) error

type handlerSpec struct {
	payloadType reflect.Type
	arity       int
	fn          Handler
}

// HandlerRegistry 启动时建立的具名处理器表，持久化的监听器配置按 (名称, 载荷类型, 参数个数) 解析到这里
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string][]*handlerSpec
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string][]*handlerSpec)}
}

// Register 注册处理器。同名处理器可按参数个数重载，但 (名称, 参数个数, 载荷类型) 必须唯一。
func (r *HandlerRegistry) Register(name string, payloadType reflect.Type, arity int, fn Handler) error {
	if name == "" || fn == nil {
		return fmt.Errorf("event: handler name and func are required")
	}
	if arity < 0 || arity > MaxParams {
		return fmt.Errorf("%w: handler %q arity %d", ErrTooManyParams, name, arity)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.handlers[name] {
		if h.arity == arity && h.payloadType == payloadType {
			return fmt.Errorf("event: handler %q/%d for %v already registered", name, arity, payloadType)
		}
	}
	r.handlers[name] = append(r.handlers[name], &handlerSpec{payloadType: payloadType, arity: arity, fn: fn})
	return nil
}

// RegisterHandler 类型化注册
func RegisterHandler[T any](r *HandlerRegistry, name string, arity int, fn func(ctx context.Context, payload T, params []string) error) error {
	if fn == nil {
		return fmt.Errorf("event: handler name and func are required")
	}
	return r.Register(name, TypeOf[T](), arity, func(ctx context.Context, payload any, params []string) error {
		v, err := assertPayload[T](payload)
		if err != nil {
			return err
		}
		return fn(ctx, v, params)
	})
}

// Resolve 查找签名匹配的处理器：名称相同、参数个数相同、事件载荷类型可赋值给处理器声明的类型。
func (r *HandlerRegistry) Resolve(name string, payloadType reflect.Type, arity int) (Consumer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.handlers[name] {
		if h.arity != arity {
			continue
		}
		if h.payloadType == nil || payloadType == nil || payloadType.AssignableTo(h.payloadType) {
			return &namedConsumer{name: name, handler: h}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s(%v, string×%d)", ErrHandlerNotFound, name, payloadType, arity)
}

// Names 已注册的处理器名称
func (r *HandlerRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
