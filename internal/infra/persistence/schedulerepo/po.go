package schedulerepo

import (
	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
)

type ScheduleEntryPo struct {
	commonrepo.Mode
	Name           string  `gorm:"column:name;size:128;index"`
	CronExpression string  `gorm:"column:cron_expression;size:128;not null"`
	EventData      string  `gorm:"column:event_data;type:text"`
	OrganizationID *uint64 `gorm:"column:organization_id;index"`
	OnMasterOnly   bool    `gorm:"column:on_master_only;default:false"`
	IsAsync        bool    `gorm:"column:is_async;default:false"`
	Enabled        bool    `gorm:"column:enabled;default:true;index"`
}

func (ScheduleEntryPo) TableName() string {
	return "schedule_entries"
}
