package event

import (
	"errors"
	"time"
)

// 内置事件名称
const (
	NameSchedulerFired = "scheduler.fired"
	NameUserRegistered = "user.registered"
	NamePasswordReset  = "user.password_reset"
	NameFormSubmitted  = "form.submitted"
	NameListenerFailed = "listener.failed"
)

// SchedulerFired 定时任务触发时发布的载荷
type SchedulerFired struct {
	ScheduleID     uint64    `json:"schedule_id"`
	CronExpression string    `json:"cron_expression"`
	EventData      string    `json:"event_data"`
	OrganizationID *uint64   `json:"organization_id,omitempty"`
	OnMasterOnly   bool      `json:"on_master_only"`
	IsAsync        bool      `json:"is_async"`
	FiredAt        time.Time `json:"fired_at"`
}

type UserRegistered struct {
	UserID         uint64  `json:"user_id"`
	Email          string  `json:"email"`
	OrganizationID *uint64 `json:"organization_id,omitempty"`
}

type PasswordReset struct {
	UserID uint64 `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type FormSubmitted struct {
	FormID uint64            `json:"form_id"`
	Values map[string]string `json:"values"`
}

// ListenerFailed 监听器失败且错误无法回传给发布方时发布：异步分发，以及定时触发的同步分发
type ListenerFailed struct {
	Event      string    `json:"event"`
	Mode       string    `json:"mode"`
	Index      int       `json:"index"`
	ListenerID *uint64   `json:"listener_id,omitempty"`
	Error      string    `json:"error"`
	FailedAt   time.Time `json:"failed_at"`
}

// NewListenerFailed 由分发错误构造失败事件。err 不是 *DispatchError 时 Index 为 -1。
func NewListenerFailed(err error, mode string, at time.Time) ListenerFailed {
	out := ListenerFailed{Mode: mode, Index: -1, Error: err.Error(), FailedAt: at}
	var de *DispatchError
	if errors.As(err, &de) {
		out.Event = de.Event
		out.Index = de.Index
		out.ListenerID = de.ExternalID
		out.Error = de.Err.Error()
	}
	return out
}

// Kinds 内置事件描述符
type Kinds struct {
	SchedulerFired *Descriptor
	UserRegistered *Descriptor
	PasswordReset  *Descriptor
	FormSubmitted  *Descriptor
	ListenerFailed *Descriptor
}

// NewBuiltinCatalogue 创建包含内置事件的目录。调用方可在 Seal 之前继续 Define 自己的事件。
func NewBuiltinCatalogue() (*Catalogue, Kinds) {
	c := NewCatalogue()
	k := Kinds{
		SchedulerFired: Define[SchedulerFired](c, NameSchedulerFired),
		UserRegistered: Define[UserRegistered](c, NameUserRegistered),
		PasswordReset:  Define[PasswordReset](c, NamePasswordReset),
		FormSubmitted:  Define[FormSubmitted](c, NameFormSubmitted),
		ListenerFailed: Define[ListenerFailed](c, NameListenerFailed),
	}
	return c, k
}
