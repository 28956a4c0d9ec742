package main

import (
	"fmt"

	redis "github.com/go-redis/redis/v8"
	"github.com/jobs/eventhub/internal/cluster"
	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/internal/form"
	"github.com/jobs/eventhub/internal/handlers"
	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
	"github.com/jobs/eventhub/internal/listener"
	"github.com/jobs/eventhub/internal/metrics"
	"github.com/jobs/eventhub/internal/orm"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/jobs/eventhub/pkg/config"
	"go.uber.org/zap"
)

// builtinEvents 内置事件目录及其描述符，二者必须来自同一个目录
type builtinEvents struct {
	catalogue *event.Catalogue
	kinds     event.Kinds
}

func ProvideBuiltinEvents() builtinEvents {
	c, k := event.NewBuiltinCatalogue()
	c.Seal()
	return builtinEvents{catalogue: c, kinds: k}
}

func ProvideCatalogue(e builtinEvents) *event.Catalogue { return e.catalogue }

func ProvideKinds(e builtinEvents) event.Kinds { return e.kinds }

func ProvideDB(s *orm.Storage) commonrepo.DB { return s.DB() }

// ProvideHandlerRegistry 启动时登记所有内置具名处理器
func ProvideHandlerRegistry(b *handlers.Builtin) (*event.HandlerRegistry, error) {
	r := event.NewHandlerRegistry()
	if err := b.Register(r); err != nil {
		return nil, fmt.Errorf("failed to register handlers: %w", err)
	}
	return r, nil
}

func ProvideBus(
	cfg config.Config,
	catalogue *event.Catalogue,
	registry *event.HandlerRegistry,
	recorder *metrics.Recorder,
	logger *zap.Logger,
) *event.Bus {
	pool := event.NewPool(cfg.EventBus.AsyncWorkers, cfg.EventBus.AsyncQueueSize, logger)
	return event.NewBus(catalogue, registry, logger,
		event.WithPool(pool),
		event.WithObserver(recorder),
	)
}

// ProvideRedisClient builds a redis client from typed config.
// Returns nil unless the cluster runs over redis.
func ProvideRedisClient(cfg config.Config) *redis.Client {
	if !cfg.Cluster.Enabled || cfg.Cluster.Transport != "redis" {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideTransport 按 cluster.transport 选择广播通道。集群关闭时返回进程内回环。
func ProvideTransport(cfg config.Config, rdb *redis.Client, logger *zap.Logger) (cluster.Transport, func(), error) {
	var (
		t   cluster.Transport
		err error
	)
	switch {
	case !cfg.Cluster.Enabled, cfg.Cluster.Transport == "local":
		t = cluster.NewLocalTransport()
	case cfg.Cluster.Transport == "redis":
		t = cluster.NewRedisTransport(rdb, logger)
	case cfg.Cluster.Transport == "nats":
		t, err = cluster.NewNATSTransport(cfg.NATS.URL)
	default:
		err = fmt.Errorf("unsupported cluster.transport %q", cfg.Cluster.Transport)
	}
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := t.Close(); err != nil {
			logger.Warn("failed to close cluster transport", zap.Error(err))
		}
	}
	return t, cleanup, nil
}

func ProvideReceiver(
	cfg config.Config,
	transport cluster.Transport,
	logger *zap.Logger,
	sched *scheduler.Scheduler,
	loader *listener.Loader,
	cache *form.Cache,
) *cluster.Receiver {
	return cluster.NewReceiver(cfg, transport, logger, cluster.ForScheduler(sched), loader, cache)
}
