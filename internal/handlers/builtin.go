// Package handlers 内置的具名处理器，监听器配置通过名称引用它们
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/pkg/config"
	"github.com/jobs/eventhub/pkg/logger"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const (
	NameLog     = "log"
	NameWebhook = "webhook"

	HeaderCorrelationID = "X-Correlation-ID"
	HeaderToken         = "X-Eventhub-Token"
)

// anyPayload 匹配任意事件载荷
var anyPayload reflect.Type

type Builtin struct {
	logger     *zap.Logger
	httpClient *http.Client
}

func New(cfg config.Config, logger *zap.Logger) *Builtin {
	return &Builtin{
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Handlers.WebhookTimeout,
		},
	}
}

// Register 把内置处理器登记到 r:
//
//	log()                      记录载荷
//	log(label)                 记录载荷并带上标签
//	webhook(url)               POST 载荷 JSON，要求 2xx
//	webhook(url, status)       要求返回指定状态码
//	webhook(url, status, token) 同上并附带 X-Eventhub-Token
func (b *Builtin) Register(r *event.HandlerRegistry) error {
	regs := []struct {
		name  string
		arity int
		fn    event.Handler
	}{
		{NameLog, 0, b.log},
		{NameLog, 1, b.log},
		{NameWebhook, 1, b.webhook},
		{NameWebhook, 2, b.webhook},
		{NameWebhook, 3, b.webhook},
	}
	for _, reg := range regs {
		if err := r.Register(reg.name, anyPayload, reg.arity, reg.fn); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builtin) log(ctx context.Context, payload any, params []string) error {
	fields := []zap.Field{
		zap.String("payload_type", fmt.Sprintf("%T", payload)),
		zap.Any("payload", payload),
	}
	if len(params) > 0 {
		fields = append(fields, zap.String("label", params[0]))
	}
	logger.FromContext(ctx, b.logger).Info("event received", fields...)
	return nil
}

func (b *Builtin) webhook(ctx context.Context, payload any, params []string) error {
	url := params[0]
	wantStatus := 0
	if len(params) > 1 {
		s, err := cast.ToIntE(params[1])
		if err != nil {
			return fmt.Errorf("webhook: bad expected status %q: %w", params[1], err)
		}
		wantStatus = s
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("webhook: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := logger.CorrelationID(ctx); id != "" {
		req.Header.Set(HeaderCorrelationID, id)
	}
	if len(params) > 2 {
		req.Header.Set(HeaderToken, params[2])
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: %s: %w", url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if wantStatus != 0 {
		ok = resp.StatusCode == wantStatus
	}
	if !ok {
		return fmt.Errorf("webhook: %s returned %d", url, resp.StatusCode)
	}

	logger.FromContext(ctx, b.logger).Debug("webhook delivered",
		zap.String("url", url),
		zap.Int("status_code", resp.StatusCode))
	return nil
}
