package service

import (
	"context"
	"fmt"

	"github.com/jobs/eventhub/internal/biz/listener"
	"github.com/jobs/eventhub/internal/cluster"
	"github.com/jobs/eventhub/internal/event"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

type ListenerService struct {
	repo       listener.Repo
	bus        *event.Bus
	propagator *Propagator
	logger     *zap.Logger
}

func NewListenerService(repo listener.Repo, bus *event.Bus, propagator *Propagator, logger *zap.Logger) *ListenerService {
	return &ListenerService{
		repo:       repo,
		bus:        bus,
		propagator: propagator,
		logger:     logger,
	}
}

type CreateListenerRequest struct {
	Name        string
	EventName   string
	HandlerName string
	Params      []string
	Enabled     bool
}

type UpdateListenerRequest struct {
	Name        mo.Option[string]
	EventName   mo.Option[string]
	HandlerName mo.Option[string]
	Params      mo.Option[[]string]
	Enabled     mo.Option[bool]
}

// validate 事件名必须在目录中，处理器必须能以该事件的载荷类型和参数个数解析
func (s *ListenerService) validate(eventName, handlerName string, params []string) error {
	if len(params) > event.MaxParams {
		return fmt.Errorf("%w: at most %d params, got %d", ErrInvalidArgument, event.MaxParams, len(params))
	}
	for i, p := range params {
		if p == "" {
			return fmt.Errorf("%w: param %d is empty", ErrInvalidArgument, i+1)
		}
	}
	d, ok := s.bus.Catalogue().Lookup(eventName)
	if !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidArgument, event.ErrUnknownEvent, eventName)
	}
	if _, err := s.bus.Handlers().Resolve(handlerName, d.PayloadType(), len(params)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

func (s *ListenerService) Create(ctx context.Context, req *CreateListenerRequest) (*listener.Definition, error) {
	if err := s.validate(req.EventName, req.HandlerName, req.Params); err != nil {
		return nil, err
	}

	def := &listener.Definition{
		Name:        req.Name,
		EventName:   req.EventName,
		HandlerName: req.HandlerName,
		Enabled:     req.Enabled,
	}
	def.SetParams(req.Params)
	if err := s.repo.Create(ctx, def); err != nil {
		return nil, err
	}

	if err := s.propagator.Propagate(ctx, cluster.ListenerAdd, def.ID); err != nil {
		return def, err
	}
	s.logger.Info("listener created",
		zap.Uint64("listener_id", def.ID),
		zap.String("event", def.EventName),
		zap.String("handler", def.HandlerName))
	return def, nil
}

func (s *ListenerService) Get(ctx context.Context, id uint64) (*listener.Definition, error) {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	} else if def == nil {
		return nil, fmt.Errorf("%w: listener %d", ErrNotFound, id)
	}
	return def, nil
}

func (s *ListenerService) List(ctx context.Context, filter *listener.Filter) ([]*listener.Definition, error) {
	return s.repo.List(ctx, filter)
}

func (s *ListenerService) Update(ctx context.Context, id uint64, req *UpdateListenerRequest) (*listener.Definition, error) {
	var def *listener.Definition
	err := s.repo.Execute(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		} else if current == nil {
			return fmt.Errorf("%w: listener %d", ErrNotFound, id)
		}

		// 按合并后的结果校验，只改处理器或只改参数都可能让组合失效
		err = s.validate(
			req.EventName.OrElse(current.EventName),
			req.HandlerName.OrElse(current.HandlerName),
			req.Params.OrElse(current.Params()),
		)
		if err != nil {
			return err
		}

		patch := listener.NewDefinitionPatch()
		patch.Name = req.Name.ToPointer()
		patch.EventName = req.EventName.ToPointer()
		patch.HandlerName = req.HandlerName.ToPointer()
		patch.Params = req.Params.ToPointer()
		patch.Enabled = req.Enabled.ToPointer()
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return err
		}
		def, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.propagator.Propagate(ctx, cluster.ListenerReload, id); err != nil {
		return def, err
	}
	return def, nil
}

func (s *ListenerService) Delete(ctx context.Context, id uint64) error {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	} else if def == nil {
		return fmt.Errorf("%w: listener %d", ErrNotFound, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.propagator.Propagate(ctx, cluster.ListenerRemove, id)
}

// Handlers 可供配置使用的具名处理器
func (s *ListenerService) Handlers() []string {
	return s.bus.Handlers().Names()
}
