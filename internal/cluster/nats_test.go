package cluster

import (
	"context"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNATSTransportRoundTrip(t *testing.T) {
	url := startTestNATS(t)
	cfg := testConfig(true)

	subTr, err := NewNATSTransport(url)
	require.NoError(t, err)
	defer subTr.Close()

	pubTr, err := NewNATSTransport(url)
	require.NoError(t, err)
	defer pubTr.Close()

	got := make(chan Notification, 4)
	cancel, err := subTr.Subscribe(context.Background(), cfg.Cluster.Topic, func(data []byte) {
		n, err := Decode(data)
		if err == nil {
			got <- n
		}
	})
	require.NoError(t, err)
	defer cancel()

	s := NewSender(cfg, pubTr, zap.NewNop())
	sent, err := s.NotifyReloadScheduler(context.Background(), 42)
	require.NoError(t, err)
	require.True(t, sent)
	require.NoError(t, pubTr.Flush())

	select {
	case n := <-got:
		assert.Equal(t, SchedulerReload, n.Type)
		assert.Equal(t, uint64(42), n.ID)
		assert.Equal(t, s.Source(), n.Source)
	case <-time.After(5 * time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestNATSTransportBadURL(t *testing.T) {
	_, err := NewNATSTransport("nats://127.0.0.1:1")
	assert.Error(t, err)
}
