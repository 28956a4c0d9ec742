package service

import (
	"context"
	"sort"
	"sync"

	"github.com/jobs/eventhub/internal/biz/form"
	"github.com/jobs/eventhub/internal/biz/listener"
	"github.com/jobs/eventhub/internal/biz/schedule"
	"github.com/samber/lo"
)

type memScheduleRepo struct {
	mu      sync.Mutex
	nextID  uint64
	entries map[uint64]schedule.Entry
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{entries: map[uint64]schedule.Entry{}}
}

func (r *memScheduleRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *memScheduleRepo) Create(_ context.Context, e *schedule.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.ID = r.nextID
	r.entries[e.ID] = *e
	return nil
}

func (r *memScheduleRepo) GetByID(_ context.Context, id uint64) (*schedule.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *memScheduleRepo) Update(_ context.Context, id uint64, p *schedule.EntryPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		return nil
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.CronExpression != nil {
		e.CronExpression = *p.CronExpression
	}
	if p.EventData != nil {
		e.EventData = *p.EventData
	}
	if p.OrganizationID != nil {
		e.OrganizationID = *p.OrganizationID
	}
	if p.OnMasterOnly != nil {
		e.OnMasterOnly = *p.OnMasterOnly
	}
	if p.IsAsync != nil {
		e.IsAsync = *p.IsAsync
	}
	if p.Enabled != nil {
		e.Enabled = *p.Enabled
	}
	r.entries[id] = e
	return nil
}

func (r *memScheduleRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

func (r *memScheduleRepo) List(context.Context, *schedule.Filter) ([]*schedule.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := lo.MapToSlice(r.entries, func(_ uint64, e schedule.Entry) *schedule.Entry { return &e })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memScheduleRepo) ListEnabled(ctx context.Context) ([]*schedule.Entry, error) {
	all, _ := r.List(ctx, nil)
	return lo.Filter(all, func(e *schedule.Entry, _ int) bool { return e.Enabled }), nil
}

type memListenerRepo struct {
	mu     sync.Mutex
	nextID uint64
	defs   map[uint64]listener.Definition
}

func newMemListenerRepo() *memListenerRepo {
	return &memListenerRepo{defs: map[uint64]listener.Definition{}}
}

func (r *memListenerRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *memListenerRepo) Create(_ context.Context, d *listener.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	d.ID = r.nextID
	r.defs[d.ID] = *d
	return nil
}

func (r *memListenerRepo) GetByID(_ context.Context, id uint64) (*listener.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memListenerRepo) Update(_ context.Context, id uint64, p *listener.DefinitionPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[id]
	if !ok {
		return nil
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.EventName != nil {
		d.EventName = *p.EventName
	}
	if p.HandlerName != nil {
		d.HandlerName = *p.HandlerName
	}
	if p.Params != nil {
		d.SetParams(*p.Params)
	}
	if p.Enabled != nil {
		d.Enabled = *p.Enabled
	}
	r.defs[id] = d
	return nil
}

func (r *memListenerRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, id)
	return nil
}

func (r *memListenerRepo) List(context.Context, *listener.Filter) ([]*listener.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := lo.MapToSlice(r.defs, func(_ uint64, d listener.Definition) *listener.Definition { return &d })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memListenerRepo) ListEnabled(ctx context.Context) ([]*listener.Definition, error) {
	all, _ := r.List(ctx, nil)
	return lo.Filter(all, func(d *listener.Definition, _ int) bool { return d.Enabled }), nil
}

type memFormRepo struct {
	mu     sync.Mutex
	nextID uint64
	defs   map[uint64]form.Definition
}

func newMemFormRepo() *memFormRepo {
	return &memFormRepo{defs: map[uint64]form.Definition{}}
}

func (r *memFormRepo) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *memFormRepo) Create(_ context.Context, d *form.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	d.ID = r.nextID
	r.defs[d.ID] = *d
	return nil
}

func (r *memFormRepo) GetByID(_ context.Context, id uint64) (*form.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (r *memFormRepo) Update(_ context.Context, id uint64, p *form.DefinitionPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[id]
	if !ok {
		return nil
	}
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Schema != nil {
		d.Schema = *p.Schema
	}
	if p.Enabled != nil {
		d.Enabled = *p.Enabled
	}
	r.defs[id] = d
	return nil
}

func (r *memFormRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, id)
	return nil
}

func (r *memFormRepo) List(context.Context) ([]*form.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := lo.MapToSlice(r.defs, func(_ uint64, d form.Definition) *form.Definition { return &d })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memFormRepo) ListEnabled(ctx context.Context) ([]*form.Definition, error) {
	all, _ := r.List(ctx)
	return lo.Filter(all, func(d *form.Definition, _ int) bool { return d.Enabled }), nil
}
