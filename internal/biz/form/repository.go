package form

import (
	"context"

	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
)

type Repo interface {
	commonrepo.Transaction

	Create(ctx context.Context, def *Definition) error
	// GetByID 不存在时返回 nil, nil
	GetByID(ctx context.Context, id uint64) (*Definition, error)
	Update(ctx context.Context, id uint64, patch *DefinitionPatch) error
	Delete(ctx context.Context, id uint64) error
	// List 全部表单，包括已禁用的
	List(ctx context.Context) ([]*Definition, error)
	ListEnabled(ctx context.Context) ([]*Definition, error)
}
