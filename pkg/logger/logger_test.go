package logger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("debug", "console", "stdout")
	require.NoError(t, err)
	assert.NotNil(t, l)

	l, err = New("info", "json", filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	l.Info("hello")
	assert.NoError(t, l.Sync())

	_, err = New("loud", "json", "stdout")
	assert.Error(t, err)
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))

	id := NewCorrelationID()
	ctx = WithCorrelationID(ctx, id)
	assert.Equal(t, id, CorrelationID(ctx))
	assert.NotEqual(t, id, NewCorrelationID())
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	base := zap.New(core)

	FromContext(context.Background(), base).Info("plain")
	FromContext(WithCorrelationID(context.Background(), "abc"), base).Info("tagged")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].ContextMap())
	assert.Equal(t, "abc", entries[1].ContextMap()["correlation_id"])
}
