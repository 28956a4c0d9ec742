package form

import "time"

// Definition 动态表单定义，Schema 为任意 JSON 结构
type Definition struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	Title     string
	Schema    map[string]any
	Enabled   bool
}

type DefinitionPatch struct {
	Name    *string
	Title   *string
	Schema  *map[string]any
	Enabled *bool
}

func NewDefinitionPatch() *DefinitionPatch {
	return &DefinitionPatch{}
}

func (p *DefinitionPatch) WithName(name string) *DefinitionPatch {
	p.Name = &name
	return p
}

func (p *DefinitionPatch) WithTitle(title string) *DefinitionPatch {
	p.Title = &title
	return p
}

func (p *DefinitionPatch) WithSchema(schema map[string]any) *DefinitionPatch {
	p.Schema = &schema
	return p
}

func (p *DefinitionPatch) WithEnabled(v bool) *DefinitionPatch {
	p.Enabled = &v
	return p
}
