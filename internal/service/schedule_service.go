package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jobs/eventhub/internal/biz/schedule"
	"github.com/jobs/eventhub/internal/cluster"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// Trigger 立即触发一次本地定时器，由 scheduler.Scheduler 实现
type Trigger interface {
	Trigger(id uint64) error
	Next(id uint64) (time.Time, bool)
}

type ScheduleService struct {
	repo       schedule.Repo
	propagator *Propagator
	trigger    Trigger
	logger     *zap.Logger
}

func NewScheduleService(repo schedule.Repo, propagator *Propagator, trigger Trigger, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		repo:       repo,
		propagator: propagator,
		trigger:    trigger,
		logger:     logger,
	}
}

type CreateScheduleRequest struct {
	Name           string
	CronExpression string
	EventData      string
	OrganizationID *uint64
	OnMasterOnly   bool
	IsAsync        bool
	Enabled        bool
}

type UpdateScheduleRequest struct {
	Name           mo.Option[string]
	CronExpression mo.Option[string]
	EventData      mo.Option[string]
	OrganizationID mo.Option[*uint64]
	OnMasterOnly   mo.Option[bool]
	IsAsync        mo.Option[bool]
	Enabled        mo.Option[bool]
}

func (s *ScheduleService) Create(ctx context.Context, req *CreateScheduleRequest) (*schedule.Entry, error) {
	if _, err := scheduler.ParseCron(req.CronExpression); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	entry := &schedule.Entry{
		Name:           req.Name,
		CronExpression: req.CronExpression,
		EventData:      req.EventData,
		OrganizationID: req.OrganizationID,
		OnMasterOnly:   req.OnMasterOnly,
		IsAsync:        req.IsAsync,
		Enabled:        req.Enabled,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}

	if err := s.propagator.Propagate(ctx, cluster.SchedulerAdd, entry.ID); err != nil {
		return entry, err
	}
	s.logger.Info("schedule created", zap.Uint64("schedule_id", entry.ID))
	return entry, nil
}

func (s *ScheduleService) Get(ctx context.Context, id uint64) (*schedule.Entry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	} else if entry == nil {
		return nil, fmt.Errorf("%w: schedule %d", ErrNotFound, id)
	}
	return entry, nil
}

func (s *ScheduleService) List(ctx context.Context, filter *schedule.Filter) ([]*schedule.Entry, error) {
	return s.repo.List(ctx, filter)
}

func (s *ScheduleService) Update(ctx context.Context, id uint64, req *UpdateScheduleRequest) (*schedule.Entry, error) {
	if expr, ok := req.CronExpression.Get(); ok {
		if _, err := scheduler.ParseCron(expr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}

	patch := schedule.NewEntryPatch()
	patch.Name = req.Name.ToPointer()
	patch.CronExpression = req.CronExpression.ToPointer()
	patch.EventData = req.EventData.ToPointer()
	patch.OrganizationID = req.OrganizationID.ToPointer()
	patch.OnMasterOnly = req.OnMasterOnly.ToPointer()
	patch.IsAsync = req.IsAsync.ToPointer()
	patch.Enabled = req.Enabled.ToPointer()

	var entry *schedule.Entry
	err := s.repo.Execute(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		} else if current == nil {
			return fmt.Errorf("%w: schedule %d", ErrNotFound, id)
		}
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return err
		}
		entry, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.propagator.Propagate(ctx, cluster.SchedulerReload, id); err != nil {
		return entry, err
	}
	return entry, nil
}

func (s *ScheduleService) Delete(ctx context.Context, id uint64) error {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	} else if entry == nil {
		return fmt.Errorf("%w: schedule %d", ErrNotFound, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.propagator.Propagate(ctx, cluster.SchedulerRemove, id)
}

// TriggerNow 立即触发本进程上的定时器一次
func (s *ScheduleService) TriggerNow(ctx context.Context, id uint64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.trigger.Trigger(id)
}

// NextRun 下一次触发时间，没有活动定时器时为空
func (s *ScheduleService) NextRun(id uint64) mo.Option[time.Time] {
	next, ok := s.trigger.Next(id)
	if !ok {
		return mo.None[time.Time]()
	}
	return mo.Some(next)
}
