package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  database: eventhub\n"))
	require.NoError(t, err)

	assert.Equal(t, "eventhub-001", cfg.Scheduler.InstanceID)
	assert.Equal(t, 10*time.Second, cfg.Scheduler.HeartbeatInterval)
	assert.Equal(t, 4, cfg.EventBus.AsyncWorkers)
	assert.Equal(t, 256, cfg.EventBus.AsyncQueueSize)
	assert.False(t, cfg.Cluster.Enabled)
	assert.Equal(t, "eventhub.cluster", cfg.Cluster.Topic)
	assert.Equal(t, "eventhub", cfg.Database.Database)
	assert.Equal(t, time.Hour, cfg.Database.ConnectionMaxLifetime)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
scheduler:
  instance_id: node-b
event_bus:
  async_workers: 8
cluster:
  enabled: true
  transport: nats
nats:
  url: nats://nats:4222
`))
	require.NoError(t, err)

	assert.Equal(t, "node-b", cfg.Scheduler.InstanceID)
	assert.Equal(t, 8, cfg.EventBus.AsyncWorkers)
	assert.True(t, cfg.Cluster.Enabled)
	assert.Equal(t, "nats", cfg.Cluster.Transport)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	_, err := Load(writeConfig(t, "cluster:\n  enabled: true\n  transport: carrier-pigeon\n"))
	assert.ErrorContains(t, err, "cluster.transport")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
