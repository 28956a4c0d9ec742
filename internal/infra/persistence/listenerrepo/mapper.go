package listenerrepo

import (
	domain "github.com/jobs/eventhub/internal/biz/listener"
	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
)

func (po *ListenerPo) FromDomain(in *domain.Definition) *ListenerPo {
	return &ListenerPo{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		Name:        in.Name,
		EventName:   in.EventName,
		HandlerName: in.HandlerName,
		Param1:      in.Param1,
		Param2:      in.Param2,
		Param3:      in.Param3,
		Param4:      in.Param4,
		Enabled:     in.Enabled,
	}
}

func (po *ListenerPo) ToDomain() *domain.Definition {
	return &domain.Definition{
		ID:          po.ID,
		CreatedAt:   po.CreatedAt,
		UpdatedAt:   po.UpdatedAt,
		Name:        po.Name,
		EventName:   po.EventName,
		HandlerName: po.HandlerName,
		Param1:      po.Param1,
		Param2:      po.Param2,
		Param3:      po.Param3,
		Param4:      po.Param4,
		Enabled:     po.Enabled,
	}
}

func patchToMap(input *domain.DefinitionPatch) map[string]any {
	var values = make(map[string]any)

	if input.Name != nil {
		values["name"] = *input.Name
	}
	if input.EventName != nil {
		values["event_name"] = *input.EventName
	}
	if input.HandlerName != nil {
		values["handler_name"] = *input.HandlerName
	}
	if input.Params != nil {
		var d domain.Definition
		d.SetParams(*input.Params)
		values["param1"] = d.Param1
		values["param2"] = d.Param2
		values["param3"] = d.Param3
		values["param4"] = d.Param4
	}
	if input.Enabled != nil {
		values["enabled"] = *input.Enabled
	}

	return values
}
