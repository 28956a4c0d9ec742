// Package event 进程内事件总线：事件描述符目录、监听器注册与同步/异步分发。
package event

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Descriptor 事件种类，绑定唯一名称与载荷类型。创建后不可变，指针本身即注册表的 key。
type Descriptor struct {
	name        string
	payloadType reflect.Type
}

func (d *Descriptor) Name() string { return d.name }

func (d *Descriptor) PayloadType() reflect.Type { return d.payloadType }

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.name, d.payloadType)
}

// Catalogue 事件描述符目录，进程启动时建立，Seal 之后只读
type Catalogue struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
	sealed bool
}

func NewCatalogue() *Catalogue {
	return &Catalogue{byName: make(map[string]*Descriptor)}
}

// Define 注册一个载荷类型为 T 的事件种类。重复名称或目录已封存时 panic，
// 这两种情况都只会出现在启动阶段的编程错误里。
func Define[T any](c *Catalogue, name string) *Descriptor {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sealed {
		panic(fmt.Sprintf("event: catalogue sealed, cannot define %q", name))
	}
	if name == "" {
		panic("event: empty event name")
	}
	if _, exists := c.byName[name]; exists {
		panic(fmt.Sprintf("event: duplicate event name %q", name))
	}
	d := &Descriptor{name: name, payloadType: TypeOf[T]()}
	c.byName[name] = d
	return d
}

// Lookup 按名称查找事件种类
func (c *Catalogue) Lookup(name string) (*Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byName[name]
	return d, ok
}

// All 按名称排序返回全部事件种类
func (c *Catalogue) All() []*Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Descriptor, 0, len(c.byName))
	for _, d := range c.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Seal 封存目录
func (c *Catalogue) Seal() {
	c.mu.Lock()
	c.sealed = true
	c.mu.Unlock()
}

// TypeOf 返回 T 的类型标签，接口类型同样适用
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
