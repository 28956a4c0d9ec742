package formrepo

import (
	domain "github.com/jobs/eventhub/internal/biz/form"
	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

func (po *FormPo) FromDomain(in *domain.Definition) *FormPo {
	return &FormPo{
		Mode: commonrepo.Mode{
			ID:        in.ID,
			CreatedAt: in.CreatedAt,
			UpdatedAt: in.UpdatedAt,
		},
		Name:    in.Name,
		Title:   in.Title,
		Schema:  datatypes.JSONMap(in.Schema),
		Enabled: in.Enabled,
	}
}

func (po *FormPo) ToDomain() *domain.Definition {
	return &domain.Definition{
		ID:        po.ID,
		CreatedAt: po.CreatedAt,
		UpdatedAt: po.UpdatedAt,
		Name:      po.Name,
		Title:     po.Title,
		Schema:    map[string]any(po.Schema),
		Enabled:   po.Enabled,
	}
}

func patchToMap(input *domain.DefinitionPatch) map[string]any {
	var values = make(map[string]any)

	if input.Name != nil {
		values["name"] = *input.Name
	}
	if input.Title != nil {
		values["title"] = *input.Title
	}
	if input.Schema != nil {
		values["schema"] = datatypes.JSONMap(*input.Schema)
	}
	if input.Enabled != nil {
		values["enabled"] = *input.Enabled
	}

	return values
}
