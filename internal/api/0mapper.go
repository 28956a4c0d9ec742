package api

import (
	"encoding/json"
	"time"

	"github.com/jobs/eventhub/internal/biz/form"
	"github.com/jobs/eventhub/internal/biz/listener"
	"github.com/jobs/eventhub/internal/biz/schedule"
	"github.com/jobs/eventhub/internal/service"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type ListSchedulesReq struct {
	Enabled        *bool   `form:"enabled"`
	OrganizationID *uint64 `form:"organization_id"`
}

type CreateScheduleReq struct {
	Name           string  `json:"name"`
	CronExpression string  `json:"cron_expression" binding:"required"`
	EventData      string  `json:"event_data"`
	OrganizationID *uint64 `json:"organization_id"`
	OnMasterOnly   bool    `json:"on_master_only"`
	IsAsync        bool    `json:"is_async"`
	Enabled        *bool   `json:"enabled"`
}

type UpdateScheduleReq struct {
	Name           *string `json:"name"`
	CronExpression *string `json:"cron_expression"`
	EventData      *string `json:"event_data"`
	OrganizationID *uint64 `json:"organization_id"`
	// ClearOrganization 为 true 时把租户范围置空
	ClearOrganization bool  `json:"clear_organization"`
	OnMasterOnly      *bool `json:"on_master_only"`
	IsAsync           *bool `json:"is_async"`
	Enabled           *bool `json:"enabled"`
}

type ScheduleResp struct {
	ID             uint64     `json:"id"`
	Name           string     `json:"name"`
	CronExpression string     `json:"cron_expression"`
	EventData      string     `json:"event_data"`
	OrganizationID *uint64    `json:"organization_id,omitempty"`
	OnMasterOnly   bool       `json:"on_master_only"`
	IsAsync        bool       `json:"is_async"`
	Enabled        bool       `json:"enabled"`
	NextRun        *time.Time `json:"next_run,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ListListenersReq struct {
	EventName string `form:"event_name"`
	Enabled   *bool  `form:"enabled"`
}

type CreateListenerReq struct {
	Name        string   `json:"name"`
	EventName   string   `json:"event_name" binding:"required"`
	HandlerName string   `json:"handler_name" binding:"required"`
	Params      []string `json:"params"`
	Enabled     *bool    `json:"enabled"`
}

type UpdateListenerReq struct {
	Name        *string   `json:"name"`
	EventName   *string   `json:"event_name"`
	HandlerName *string   `json:"handler_name"`
	Params      *[]string `json:"params"`
	Enabled     *bool     `json:"enabled"`
}

type ListenerResp struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	EventName   string    `json:"event_name"`
	HandlerName string    `json:"handler_name"`
	Params      []string  `json:"params"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateFormReq struct {
	Name    string         `json:"name" binding:"required"`
	Title   string         `json:"title"`
	Schema  map[string]any `json:"schema"`
	Enabled *bool          `json:"enabled"`
}

type UpdateFormReq struct {
	Name    *string         `json:"name"`
	Title   *string         `json:"title"`
	Schema  *map[string]any `json:"schema"`
	Enabled *bool           `json:"enabled"`
}

type FormResp struct {
	ID        uint64         `json:"id"`
	Name      string         `json:"name"`
	Title     string         `json:"title"`
	Schema    map[string]any `json:"schema"`
	Enabled   bool           `json:"enabled"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type EventResp struct {
	Name        string `json:"name"`
	PayloadType string `json:"payload_type"`
	Listeners   int    `json:"listeners"`
}

type PublishEventReq struct {
	Payload json.RawMessage `json:"payload"`
	Async   bool            `json:"async"`
}

type HealthResp struct {
	Status       string    `json:"status"`
	Instance     string    `json:"instance"`
	Master       bool      `json:"master"`
	ActiveTimers int       `json:"active_timers"`
	Time         time.Time `json:"time"`
}

func (r ListSchedulesReq) toFilter() *schedule.Filter {
	return &schedule.Filter{
		Enabled:        mo.PointerToOption(r.Enabled),
		OrganizationID: mo.PointerToOption(r.OrganizationID),
	}
}

func (r CreateScheduleReq) toRequest() *service.CreateScheduleRequest {
	return &service.CreateScheduleRequest{
		Name:           r.Name,
		CronExpression: r.CronExpression,
		EventData:      r.EventData,
		OrganizationID: r.OrganizationID,
		OnMasterOnly:   r.OnMasterOnly,
		IsAsync:        r.IsAsync,
		Enabled:        lo.FromPtrOr(r.Enabled, true),
	}
}

func (r UpdateScheduleReq) toRequest() *service.UpdateScheduleRequest {
	req := &service.UpdateScheduleRequest{
		Name:           mo.PointerToOption(r.Name),
		CronExpression: mo.PointerToOption(r.CronExpression),
		EventData:      mo.PointerToOption(r.EventData),
		OnMasterOnly:   mo.PointerToOption(r.OnMasterOnly),
		IsAsync:        mo.PointerToOption(r.IsAsync),
		Enabled:        mo.PointerToOption(r.Enabled),
	}
	switch {
	case r.ClearOrganization:
		req.OrganizationID = mo.Some[*uint64](nil)
	case r.OrganizationID != nil:
		req.OrganizationID = mo.Some(r.OrganizationID)
	}
	return req
}

func toScheduleResp(e *schedule.Entry, next mo.Option[time.Time]) ScheduleResp {
	return ScheduleResp{
		ID:             e.ID,
		Name:           e.Name,
		CronExpression: e.CronExpression,
		EventData:      e.EventData,
		OrganizationID: e.OrganizationID,
		OnMasterOnly:   e.OnMasterOnly,
		IsAsync:        e.IsAsync,
		Enabled:        e.Enabled,
		NextRun:        next.ToPointer(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (r ListListenersReq) toFilter() *listener.Filter {
	return &listener.Filter{
		EventName: mo.EmptyableToOption(r.EventName),
		Enabled:   mo.PointerToOption(r.Enabled),
	}
}

func (r CreateListenerReq) toRequest() *service.CreateListenerRequest {
	return &service.CreateListenerRequest{
		Name:        r.Name,
		EventName:   r.EventName,
		HandlerName: r.HandlerName,
		Params:      r.Params,
		Enabled:     lo.FromPtrOr(r.Enabled, true),
	}
}

func (r UpdateListenerReq) toRequest() *service.UpdateListenerRequest {
	return &service.UpdateListenerRequest{
		Name:        mo.PointerToOption(r.Name),
		EventName:   mo.PointerToOption(r.EventName),
		HandlerName: mo.PointerToOption(r.HandlerName),
		Params:      mo.PointerToOption(r.Params),
		Enabled:     mo.PointerToOption(r.Enabled),
	}
}

func toListenerResp(d *listener.Definition) ListenerResp {
	return ListenerResp{
		ID:          d.ID,
		Name:        d.Name,
		EventName:   d.EventName,
		HandlerName: d.HandlerName,
		Params:      lo.Ternary(d.Params() == nil, []string{}, d.Params()),
		Enabled:     d.Enabled,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r CreateFormReq) toRequest() *service.CreateFormRequest {
	return &service.CreateFormRequest{
		Name:    r.Name,
		Title:   r.Title,
		Schema:  r.Schema,
		Enabled: lo.FromPtrOr(r.Enabled, true),
	}
}

func (r UpdateFormReq) toRequest() *service.UpdateFormRequest {
	return &service.UpdateFormRequest{
		Name:    mo.PointerToOption(r.Name),
		Title:   mo.PointerToOption(r.Title),
		Schema:  mo.PointerToOption(r.Schema),
		Enabled: mo.PointerToOption(r.Enabled),
	}
}

func toFormResp(d *form.Definition) FormResp {
	return FormResp{
		ID:        d.ID,
		Name:      d.Name,
		Title:     d.Title,
		Schema:    d.Schema,
		Enabled:   d.Enabled,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
