package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/jobs/eventhub/internal/api"
	"github.com/jobs/eventhub/internal/cluster"
	"github.com/jobs/eventhub/internal/form"
	"github.com/jobs/eventhub/internal/handlers"
	"github.com/jobs/eventhub/internal/infra/persistence/formrepo"
	"github.com/jobs/eventhub/internal/infra/persistence/listenerrepo"
	"github.com/jobs/eventhub/internal/infra/persistence/schedulerepo"
	"github.com/jobs/eventhub/internal/listener"
	"github.com/jobs/eventhub/internal/metrics"
	"github.com/jobs/eventhub/internal/orm"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/jobs/eventhub/internal/service"
	"github.com/jobs/eventhub/pkg/config"
	"github.com/jobs/eventhub/pkg/logger"
	"github.com/yitter/idgenerator-go/idgen"
	"go.uber.org/zap"
)

func main() {
	// 解析命令行参数
	var (
		configPath string
		workerID   uint
		migrate    bool
	)
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.UintVar(&workerID, "worker-id", 1, "snowflake worker id, unique per instance (0-63)")
	flag.BoolVar(&migrate, "migrate", false, "run auto migration before starting")
	flag.Parse()

	// 集群通知序号和实体主键都来自雪花ID
	var options = idgen.NewIdGeneratorOptions(uint16(workerID))
	options.BaseTime = 1755937966000
	options.WorkerIdBitLength = 6
	idgen.SetIdGenerator(options)

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 创建日志器
	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting eventhub",
		zap.String("instance_id", cfg.Scheduler.InstanceID),
		zap.Bool("cluster", cfg.Cluster.Enabled),
		zap.String("transport", cfg.Cluster.Transport))

	// 创建存储
	storage, err := orm.New(*cfg)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer storage.Close()

	if migrate {
		if err := storage.Migrate(); err != nil {
			zapLogger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app, cleanup, err := buildApp(*cfg, zapLogger, storage)
	if err != nil {
		zapLogger.Fatal("Failed to build app", zap.Error(err))
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		zapLogger.Error("eventhub exited with error", zap.Error(err))
	}
}

// buildApp 与 wire.go 中的 InitializeApp 依赖图一致
func buildApp(cfg config.Config, zapLogger *zap.Logger, storage *orm.Storage) (*App, func(), error) {
	db := ProvideDB(storage)
	recorder := metrics.New()

	// 创建repositories
	scheduleRepo := schedulerepo.NewMysqlRepositoryImpl(db)
	listenerRepo := listenerrepo.NewMysqlRepositoryImpl(db)
	formRepo := formrepo.NewMysqlRepositoryImpl(db)

	// 事件总线
	events := ProvideBuiltinEvents()
	registry, err := ProvideHandlerRegistry(handlers.New(cfg, zapLogger))
	if err != nil {
		return nil, nil, err
	}
	bus := ProvideBus(cfg, ProvideCatalogue(events), registry, recorder, zapLogger)

	// 调度器
	elector, err := scheduler.NewElector(db, cfg, zapLogger)
	if err != nil {
		return nil, nil, err
	}
	sched := scheduler.New(bus, ProvideKinds(events), elector, scheduleRepo, zapLogger)
	loader := listener.NewLoader(bus, listenerRepo, zapLogger)
	formCache := form.NewCache(formRepo, zapLogger)

	// 集群同步
	transport, cleanup, err := ProvideTransport(cfg, ProvideRedisClient(cfg), zapLogger)
	if err != nil {
		return nil, nil, err
	}
	sender := cluster.NewSender(cfg, transport, zapLogger)
	receiver := ProvideReceiver(cfg, transport, zapLogger, sched, loader, formCache)

	// 管理服务与 HTTP 接口
	propagator := service.NewPropagator(sender, receiver, zapLogger)
	server := api.NewServer(cfg, recorder,
		api.NewScheduleAPI(service.NewScheduleService(scheduleRepo, propagator, sched, zapLogger)),
		api.NewListenerAPI(service.NewListenerService(listenerRepo, bus, propagator, zapLogger)),
		api.NewFormAPI(service.NewFormService(formRepo, propagator, zapLogger)),
		api.NewCommonAPI(cfg, bus, elector, sched, storage),
		zapLogger,
	)

	app := NewApp(cfg, zapLogger, bus, elector, sched, loader, formCache, sender, receiver, recorder, server)
	return app, cleanup, nil
}
