package scheduler

import "errors"

var (
	ErrNilEntry    = errors.New("schedule entry is nil")
	ErrInvalidCron = errors.New("invalid cron expression")
	// ErrNotScheduled 该 id 当前没有活动定时器
	ErrNotScheduled = errors.New("schedule not active")
)
