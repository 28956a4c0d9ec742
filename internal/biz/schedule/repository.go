package schedule

import (
	"context"

	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
	"github.com/samber/mo"
)

type Repo interface {
	commonrepo.Transaction

	Create(ctx context.Context, entry *Entry) error
	// GetByID 不存在时返回 nil, nil
	GetByID(ctx context.Context, id uint64) (*Entry, error)
	Update(ctx context.Context, id uint64, patch *EntryPatch) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, filter *Filter) ([]*Entry, error)

	// ListEnabled 启动时全量加载
	ListEnabled(ctx context.Context) ([]*Entry, error)
}

type Filter struct {
	Enabled        mo.Option[bool]
	OrganizationID mo.Option[uint64]
}
