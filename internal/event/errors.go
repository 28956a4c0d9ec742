package event

import (
	"errors"
	"fmt"
)

var (
	ErrNilDescriptor   = errors.New("event: nil descriptor")
	ErrNilConsumer     = errors.New("event: nil consumer")
	ErrUnknownEvent    = errors.New("event: unknown event")
	ErrHandlerNotFound = errors.New("event: no handler matches")
	ErrPayloadType     = errors.New("event: payload type mismatch")
	ErrTooManyParams   = errors.New("event: too many static params")
	ErrListenerPanic   = errors.New("event: listener panicked")
	ErrPoolClosed      = errors.New("event: async pool closed")
	ErrQueueFull       = errors.New("event: async queue full")
)

// DispatchError 同步发布时某个监听器失败，后续监听器不再执行
type DispatchError struct {
	Event      string
	Index      int
	ExternalID *uint64
	Err        error
}

func (e *DispatchError) Error() string {
	if e.ExternalID != nil {
		return fmt.Sprintf("dispatch %s: listener #%d (id=%d): %v", e.Event, e.Index, *e.ExternalID, e.Err)
	}
	return fmt.Sprintf("dispatch %s: listener #%d: %v", e.Event, e.Index, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }
