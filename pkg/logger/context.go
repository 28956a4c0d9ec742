package logger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type correlationKey struct{}

// NewCorrelationID 生成新的关联ID
func NewCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID 将关联ID写入 context，下游日志据此串联同一次触发
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID 读取 context 中的关联ID，不存在时返回空串
func CorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// FromContext 返回携带 correlation_id 字段的子日志器
func FromContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if id := CorrelationID(ctx); id != "" {
		return base.With(zap.String("correlation_id", id))
	}
	return base
}
