package listener

import (
	"context"

	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
	"github.com/samber/mo"
)

type Repo interface {
	commonrepo.Transaction

	Create(ctx context.Context, def *Definition) error
	// GetByID 不存在时返回 nil, nil
	GetByID(ctx context.Context, id uint64) (*Definition, error)
	Update(ctx context.Context, id uint64, patch *DefinitionPatch) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, filter *Filter) ([]*Definition, error)
	ListEnabled(ctx context.Context) ([]*Definition, error)
}

type Filter struct {
	EventName mo.Option[string]
	Enabled   mo.Option[bool]
}
