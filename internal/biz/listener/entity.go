package listener

import "time"

// Definition 持久化的监听器配置：事件名 + 具名处理器 + 最多四个静态参数
type Definition struct {
	ID          uint64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string
	EventName   string
	HandlerName string
	Param1      string
	Param2      string
	Param3      string
	Param4      string
	Enabled     bool
}

// Params 第一个空参数之后的值被忽略
func (d *Definition) Params() []string {
	var out []string
	for _, p := range [...]string{d.Param1, d.Param2, d.Param3, d.Param4} {
		if p == "" {
			break
		}
		out = append(out, p)
	}
	return out
}

// SetParams 按顺序写入参数，多余的被丢弃
func (d *Definition) SetParams(params []string) {
	slots := [...]*string{&d.Param1, &d.Param2, &d.Param3, &d.Param4}
	for i, slot := range slots {
		if i < len(params) {
			*slot = params[i]
		} else {
			*slot = ""
		}
	}
}

type DefinitionPatch struct {
	Name        *string
	EventName   *string
	HandlerName *string
	Params      *[]string
	Enabled     *bool
}

func NewDefinitionPatch() *DefinitionPatch {
	return &DefinitionPatch{}
}

func (p *DefinitionPatch) WithName(name string) *DefinitionPatch {
	p.Name = &name
	return p
}

func (p *DefinitionPatch) WithEventName(name string) *DefinitionPatch {
	p.EventName = &name
	return p
}

func (p *DefinitionPatch) WithHandlerName(name string) *DefinitionPatch {
	p.HandlerName = &name
	return p
}

func (p *DefinitionPatch) WithParams(params []string) *DefinitionPatch {
	p.Params = &params
	return p
}

func (p *DefinitionPatch) WithEnabled(v bool) *DefinitionPatch {
	p.Enabled = &v
	return p
}
