package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jobs/eventhub/internal/biz/form"
	"github.com/jobs/eventhub/internal/cluster"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

type FormService struct {
	repo       form.Repo
	propagator *Propagator
	logger     *zap.Logger
}

func NewFormService(repo form.Repo, propagator *Propagator, logger *zap.Logger) *FormService {
	return &FormService{
		repo:       repo,
		propagator: propagator,
		logger:     logger,
	}
}

type CreateFormRequest struct {
	Name    string
	Title   string
	Schema  map[string]any
	Enabled bool
}

type UpdateFormRequest struct {
	Name    mo.Option[string]
	Title   mo.Option[string]
	Schema  mo.Option[map[string]any]
	Enabled mo.Option[bool]
}

func (s *FormService) Create(ctx context.Context, req *CreateFormRequest) (*form.Definition, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: form name is required", ErrInvalidArgument)
	}

	def := &form.Definition{
		Name:    req.Name,
		Title:   req.Title,
		Schema:  req.Schema,
		Enabled: req.Enabled,
	}
	if err := s.repo.Create(ctx, def); err != nil {
		return nil, err
	}

	if err := s.propagator.Propagate(ctx, cluster.FormAdd, def.ID); err != nil {
		return def, err
	}
	s.logger.Info("form created", zap.Uint64("form_id", def.ID), zap.String("name", def.Name))
	return def, nil
}

func (s *FormService) Get(ctx context.Context, id uint64) (*form.Definition, error) {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	} else if def == nil {
		return nil, fmt.Errorf("%w: form %d", ErrNotFound, id)
	}
	return def, nil
}

func (s *FormService) List(ctx context.Context) ([]*form.Definition, error) {
	return s.repo.List(ctx)
}

func (s *FormService) Update(ctx context.Context, id uint64, req *UpdateFormRequest) (*form.Definition, error) {
	if name, ok := req.Name.Get(); ok && strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: form name is required", ErrInvalidArgument)
	}

	patch := form.NewDefinitionPatch()
	patch.Name = req.Name.ToPointer()
	patch.Title = req.Title.ToPointer()
	patch.Schema = req.Schema.ToPointer()
	patch.Enabled = req.Enabled.ToPointer()

	var def *form.Definition
	err := s.repo.Execute(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		} else if current == nil {
			return fmt.Errorf("%w: form %d", ErrNotFound, id)
		}
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return err
		}
		def, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.propagator.Propagate(ctx, cluster.FormReload, id); err != nil {
		return def, err
	}
	return def, nil
}

func (s *FormService) Delete(ctx context.Context, id uint64) error {
	def, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	} else if def == nil {
		return fmt.Errorf("%w: form %d", ErrNotFound, id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.propagator.Propagate(ctx, cluster.FormRemove, id)
}
