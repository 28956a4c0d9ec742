package schedule

import (
	"time"
)

// Entry 持久化的定时配置。调度器内存中的定时器只是它的派生缓存。
type Entry struct {
	ID             uint64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Name           string
	CronExpression string
	EventData      string  // 原样转发到 SchedulerFired.EventData，监听器据此区分任务
	OrganizationID *uint64 // 租户范围，可为空
	OnMasterOnly   bool
	IsAsync        bool
	Enabled        bool
}

type EntryPatch struct {
	Name           *string
	CronExpression *string
	EventData      *string
	OrganizationID **uint64
	OnMasterOnly   *bool
	IsAsync        *bool
	Enabled        *bool
}

func NewEntryPatch() *EntryPatch {
	return &EntryPatch{}
}

func (p *EntryPatch) WithName(name string) *EntryPatch {
	p.Name = &name
	return p
}

func (p *EntryPatch) WithCronExpression(expr string) *EntryPatch {
	p.CronExpression = &expr
	return p
}

func (p *EntryPatch) WithEventData(data string) *EntryPatch {
	p.EventData = &data
	return p
}

func (p *EntryPatch) WithOrganizationID(id *uint64) *EntryPatch {
	p.OrganizationID = &id
	return p
}

func (p *EntryPatch) WithOnMasterOnly(v bool) *EntryPatch {
	p.OnMasterOnly = &v
	return p
}

func (p *EntryPatch) WithIsAsync(v bool) *EntryPatch {
	p.IsAsync = &v
	return p
}

func (p *EntryPatch) WithEnabled(v bool) *EntryPatch {
	p.Enabled = &v
	return p
}

// IsEmpty 没有任何字段需要更新
func (p *EntryPatch) IsEmpty() bool {
	return p.Name == nil && p.CronExpression == nil && p.EventData == nil &&
		p.OrganizationID == nil && p.OnMasterOnly == nil && p.IsAsync == nil && p.Enabled == nil
}
