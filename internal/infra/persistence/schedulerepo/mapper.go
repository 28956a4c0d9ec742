package schedulerepo

import (
	domain "github.com/jobs/eventhub/internal/biz/schedule"
	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
)

func (po *ScheduleEntryPo) FromDomain(in *domain.Entry) *ScheduleEntryPo {
	return &ScheduleEntryPo{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		Name:           in.Name,
		CronExpression: in.CronExpression,
		EventData:      in.EventData,
		OrganizationID: in.OrganizationID,
		OnMasterOnly:   in.OnMasterOnly,
		IsAsync:        in.IsAsync,
		Enabled:        in.Enabled,
	}
}

func (po *ScheduleEntryPo) ToDomain() *domain.Entry {
	return &domain.Entry{
		ID:             po.ID,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
		Name:           po.Name,
		CronExpression: po.CronExpression,
		EventData:      po.EventData,
		OrganizationID: po.OrganizationID,
		OnMasterOnly:   po.OnMasterOnly,
		IsAsync:        po.IsAsync,
		Enabled:        po.Enabled,
	}
}

func patchToMap(input *domain.EntryPatch) map[string]any {
	var values = make(map[string]any)

	if input.Name != nil {
		values["name"] = *input.Name
	}
	if input.CronExpression != nil {
		values["cron_expression"] = *input.CronExpression
	}
	if input.EventData != nil {
		values["event_data"] = *input.EventData
	}
	if input.OrganizationID != nil {
		values["organization_id"] = *input.OrganizationID
	}
	if input.OnMasterOnly != nil {
		values["on_master_only"] = *input.OnMasterOnly
	}
	if input.IsAsync != nil {
		values["is_async"] = *input.IsAsync
	}
	if input.Enabled != nil {
		values["enabled"] = *input.Enabled
	}

	return values
}
