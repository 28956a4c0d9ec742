package cluster

import "github.com/google/wire"

var Provider = wire.NewSet(NewSender)

// Observer 集群通知指标回调
type Observer interface {
	NotificationSent(t Type, ok bool)
	NotificationReceived(t Type, outcome string)
}

type nopObserver struct{}

func (nopObserver) NotificationSent(Type, bool)       {}
func (nopObserver) NotificationReceived(Type, string) {}
