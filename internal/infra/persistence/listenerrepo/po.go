package listenerrepo

import (
	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
)

type ListenerPo struct {
	commonrepo.Mode
	Name        string `gorm:"column:name;size:128"`
	EventName   string `gorm:"column:event_name;size:128;not null;index"`
	HandlerName string `gorm:"column:handler_name;size:128;not null"`
	Param1      string `gorm:"column:param1;size:512"`
	Param2      string `gorm:"column:param2;size:512"`
	Param3      string `gorm:"column:param3;size:512"`
	Param4      string `gorm:"column:param4;size:512"`
	Enabled     bool   `gorm:"column:enabled;default:true;index"`
}

func (ListenerPo) TableName() string {
	return "listeners"
}
