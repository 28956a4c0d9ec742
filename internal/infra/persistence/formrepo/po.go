package formrepo

import (
	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type FormPo struct {
	commonrepo.Mode
	Name    string            `gorm:"column:name;size:128;uniqueIndex"`
	Title   string            `gorm:"column:title;size:255"`
	Schema  datatypes.JSONMap `gorm:"column:schema;type:json"`
	Enabled bool              `gorm:"column:enabled;default:true;index"`
}

func (FormPo) TableName() string {
	return "forms"
}
