package schedulerepo

import (
	"context"
	"errors"

	"github.com/google/wire"
	domain "github.com/jobs/eventhub/internal/biz/schedule"
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

func (r *MysqlRepositoryImpl) Create(ctx context.Context, entry *domain.Entry) error {
	po := new(ScheduleEntryPo).FromDomain(entry)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return err
	}
	entry.ID = po.ID
	entry.CreatedAt = po.CreatedAt
	entry.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.Entry, error) {
	var po ScheduleEntryPo
	if err := r.Db(ctx).Where("id = ?", id).First(&po).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) Update(ctx context.Context, id uint64, patch *domain.EntryPatch) error {
	values := patchToMap(patch)
	if len(values) == 0 {
		return nil
	}
	return r.Db(ctx).Model(&ScheduleEntryPo{}).Where("id = ?", id).Updates(values).Error
}

func (r *MysqlRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	return r.Db(ctx).Where("id = ?", id).Delete(&ScheduleEntryPo{}).Error
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter *domain.Filter) ([]*domain.Entry, error) {
	var pos []ScheduleEntryPo
	query := r.Db(ctx).Model(&ScheduleEntryPo{})
	if filter != nil {
		if filter.Enabled.IsPresent() {
			query = query.Where("enabled = ?", filter.Enabled.MustGet())
		}
		if filter.OrganizationID.IsPresent() {
			query = query.Where("organization_id = ?", filter.OrganizationID.MustGet())
		}
	}
	if err := query.Order("id").Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po ScheduleEntryPo, _ int) *domain.Entry {
		return po.ToDomain()
	}), nil
}

func (r *MysqlRepositoryImpl) ListEnabled(ctx context.Context) ([]*domain.Entry, error) {
	var pos []ScheduleEntryPo
	if err := r.Db(ctx).Where("enabled = ?", true).Order("id").Find(&pos).Error; err != nil {
		return nil, err
	}
	return lo.Map(pos, func(po ScheduleEntryPo, _ int) *domain.Entry {
		return po.ToDomain()
	}), nil
}
