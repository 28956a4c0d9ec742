package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/pkg/config"
	"github.com/jobs/eventhub/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRegistry(t *testing.T) *event.HandlerRegistry {
	t.Helper()
	var cfg config.Config
	cfg.Handlers.WebhookTimeout = time.Second
	r := event.NewHandlerRegistry()
	require.NoError(t, New(cfg, zap.NewNop()).Register(r))
	return r
}

func TestRegisterResolvesForAnyPayload(t *testing.T) {
	r := newRegistry(t)

	for _, typ := range []any{event.UserRegistered{}, event.FormSubmitted{}} {
		_, err := r.Resolve(NameLog, reflect.TypeOf(typ), 0)
		assert.NoError(t, err)
		_, err = r.Resolve(NameWebhook, reflect.TypeOf(typ), 3)
		assert.NoError(t, err)
	}

	_, err := r.Resolve(NameWebhook, event.TypeOf[event.UserRegistered](), 0)
	assert.ErrorIs(t, err, event.ErrHandlerNotFound)
	assert.Equal(t, []string{NameLog, NameWebhook}, r.Names())
}

func TestWebhookPostsPayload(t *testing.T) {
	var (
		got    event.UserRegistered
		corrID string
		token  string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		corrID = req.Header.Get(HeaderCorrelationID)
		token = req.Header.Get(HeaderToken)
		_ = json.NewDecoder(req.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	r := newRegistry(t)
	c, err := r.Resolve(NameWebhook, event.TypeOf[event.UserRegistered](), 3)
	require.NoError(t, err)

	ctx := logger.WithCorrelationID(context.Background(), "corr-1")
	err = c.Invoke(ctx, event.UserRegistered{UserID: 3, Email: "a@b.c"}, []string{srv.URL, "202", "secret"})
	require.NoError(t, err)

	assert.Equal(t, uint64(3), got.UserID)
	assert.Equal(t, "corr-1", corrID)
	assert.Equal(t, "secret", token)
}

func TestWebhookStatusMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := newRegistry(t)
	c, err := r.Resolve(NameWebhook, event.TypeOf[event.FormSubmitted](), 1)
	require.NoError(t, err)
	assert.ErrorContains(t, c.Invoke(context.Background(), event.FormSubmitted{FormID: 1}, []string{srv.URL}), "returned 500")

	c, err = r.Resolve(NameWebhook, event.TypeOf[event.FormSubmitted](), 2)
	require.NoError(t, err)
	assert.ErrorContains(t, c.Invoke(context.Background(), event.FormSubmitted{}, []string{srv.URL, "abc"}), "bad expected status")
}

func TestLogNeverFails(t *testing.T) {
	r := newRegistry(t)
	c, err := r.Resolve(NameLog, event.TypeOf[event.PasswordReset](), 1)
	require.NoError(t, err)
	assert.NoError(t, c.Invoke(context.Background(), event.PasswordReset{UserID: 1}, []string{"audit"}))
}
