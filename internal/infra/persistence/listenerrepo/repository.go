package listenerrepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	domain "github.com/jobs/eventhub/internal/biz/listener"
	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &MysqlRepositoryImpl{DefaultRepo: commonrepo.NewDefaultRepo(db)}
}

func (r *MysqlRepositoryImpl) Create(ctx context.Context, def *domain.Definition) error {
	po := new(ListenerPo).FromDomain(def)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	def.ID = po.ID
	def.CreatedAt = po.CreatedAt
	def.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.Definition, error) {
	var po ListenerPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Update(ctx context.Context, id uint64, patch *domain.DefinitionPatch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return r.Db(ctx).Model(&ListenerPo{}).Where("id = ?", id).Updates(values).Error
}

func (r *MysqlRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.Db(ctx).Where("id = ?", id).Delete(&ListenerPo{}).Error
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter *domain.Filter) ([]*domain.Definition, error) {
	var pos []ListenerPo
	query := r.Db(ctx).Model(&ListenerPo{})
	if filter != nil {
		if filter.EventName.IsPresent() {
			query = query.Where("event_name = ?", filter.EventName.MustGet())
		}
		if filter.Enabled.IsPresent() {
			query = query.Where("enabled = ?", filter.Enabled.MustGet())
		}
	}
	if err := query.Order("id").Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po ListenerPo, _ int) *domain.Definition {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) ListEnabled(ctx context.Context) ([]*domain.Definition, error) {
	var pos []ListenerPo
	if err := r.Db(ctx).Where("enabled = ?", true).Order("id").Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po ListenerPo, _ int) *domain.Definition {
		return po.ToDomain()
	}), nil
}
