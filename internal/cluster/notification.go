// Package cluster 在集群成员之间广播配置变更通知，每个成员（包括发送方）收到后按 id 从共享存储重新加载。
package cluster

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentVersion 当前消息格式版本。没有版本字段的旧消息按版本 1 处理。
const CurrentVersion = 1

var (
	ErrUnknownType        = errors.New("unknown notification type")
	ErrUnsupportedVersion = errors.New("unsupported notification version")
)

type Domain string

const (
	DomainScheduler Domain = "SCHEDULER"
	DomainListener  Domain = "LISTENER"
	DomainForm      Domain = "FORM"
)

type Verb string

const (
	VerbAdd    Verb = "ADD"
	VerbRemove Verb = "REMOVE"
	VerbReload Verb = "RELOAD"
)

// Type 通知类型：三个配置域 × 三个生命周期动作
type Type string

const (
	SchedulerAdd    Type = "SCHEDULER_ADD"
	SchedulerRemove Type = "SCHEDULER_REMOVE"
	SchedulerReload Type = "SCHEDULER_RELOAD"
	ListenerAdd     Type = "LISTENER_ADD"
	ListenerRemove  Type = "LISTENER_REMOVE"
	ListenerReload  Type = "LISTENER_RELOAD"
	FormAdd         Type = "FORM_ADD"
	FormRemove      Type = "FORM_REMOVE"
	FormReload      Type = "FORM_RELOAD"
)

type typeInfo struct {
	domain Domain
	verb   Verb
}

var types = map[Type]typeInfo{
	SchedulerAdd:    {DomainScheduler, VerbAdd},
	SchedulerRemove: {DomainScheduler, VerbRemove},
	SchedulerReload: {DomainScheduler, VerbReload},
	ListenerAdd:     {DomainListener, VerbAdd},
	ListenerRemove:  {DomainListener, VerbRemove},
	ListenerReload:  {DomainListener, VerbReload},
	FormAdd:         {DomainForm, VerbAdd},
	FormRemove:      {DomainForm, VerbRemove},
	FormReload:      {DomainForm, VerbReload},
}

// Types 全部九种通知类型
func Types() []Type {
	return []Type{
		SchedulerAdd, SchedulerRemove, SchedulerReload,
		ListenerAdd, ListenerRemove, ListenerReload,
		FormAdd, FormRemove, FormReload,
	}
}

func (t Type) Valid() bool {
	_, ok := types[t]
	return ok
}

func (t Type) Domain() Domain { return types[t].domain }

func (t Type) Verb() Verb { return types[t].verb }

// Notification 集群线上消息。接收方按 (Source, 配置域, ID) 比较 Seq，丢弃重复和过期的通知。
type Notification struct {
	Version   int    `json:"v"`
	Type      Type   `json:"type"`
	ID        uint64 `json:"id"`
	Source    string `json:"source,omitempty"`
	Seq       int64  `json:"seq,omitempty"`
	Timestamp int64  `json:"ts,omitempty"` // 发送时间，Unix 毫秒
}

func (n Notification) Encode() ([]byte, error) {
	if !n.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, n.Type)
	}
	if n.Version == 0 {
		n.Version = CurrentVersion
	}
	return json.Marshal(n)
}

// Decode 解析通知。更高版本或未知类型返回错误，调用方记录日志后丢弃。
func Decode(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if n.Version == 0 {
		n.Version = 1
	}
	if n.Version > CurrentVersion {
		return Notification{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, n.Version)
	}
	if !n.Type.Valid() {
		return Notification{}, fmt.Errorf("%w: %q", ErrUnknownType, n.Type)
	}
	return n, nil
}
