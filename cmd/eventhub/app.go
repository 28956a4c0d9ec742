package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jobs/eventhub/internal/api"
	"github.com/jobs/eventhub/internal/cluster"
	"github.com/jobs/eventhub/internal/event"
	"github.com/jobs/eventhub/internal/form"
	"github.com/jobs/eventhub/internal/listener"
	"github.com/jobs/eventhub/internal/metrics"
	"github.com/jobs/eventhub/internal/scheduler"
	"github.com/jobs/eventhub/pkg/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// App 进程内所有长生命周期组件
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	bus      *event.Bus
	elector  *scheduler.Elector
	sched    *scheduler.Scheduler
	loader   *listener.Loader
	forms    *form.Cache
	sender   *cluster.Sender
	receiver *cluster.Receiver
	recorder *metrics.Recorder
	server   *api.Server
}

func NewApp(
	cfg config.Config,
	logger *zap.Logger,
	bus *event.Bus,
	elector *scheduler.Elector,
	sched *scheduler.Scheduler,
	loader *listener.Loader,
	forms *form.Cache,
	sender *cluster.Sender,
	receiver *cluster.Receiver,
	recorder *metrics.Recorder,
	server *api.Server,
) *App {
	sched.SetObserver(recorder)
	sender.SetObserver(recorder)
	receiver.SetObserver(recorder)
	elector.OnChange(recorder.MasterChanged)

	return &App{
		cfg:      cfg,
		logger:   logger,
		bus:      bus,
		elector:  elector,
		sched:    sched,
		loader:   loader,
		forms:    forms,
		sender:   sender,
		receiver: receiver,
		recorder: recorder,
		server:   server,
	}
}

// Run 加载配置并启动调度，阻塞到 ctx 结束后优雅关闭
func (a *App) Run(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		return err
	}
	a.sched.Start()
	a.elector.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Run()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down...")
	case runErr = <-errCh:
		if runErr != nil {
			a.logger.Error("API server stopped", zap.Error(runErr))
		}
	}

	a.shutdown()
	return runErr
}

// start 先订阅集群通知再批量加载。加载期间到达的通知与批量加载重叠，重建操作幂等。
func (a *App) start(ctx context.Context) error {
	if a.sender.Enabled() {
		if err := a.receiver.Start(ctx); err != nil {
			return fmt.Errorf("failed to subscribe cluster topic: %w", err)
		}
	}
	if err := a.load(ctx); err != nil {
		a.receiver.Stop()
		return err
	}
	return nil
}

func (a *App) load(ctx context.Context) error {
	n, err := a.loader.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load listeners: %w", err)
	}
	a.logger.Info("listeners loaded", zap.Int("count", n))

	if n, err = a.forms.LoadAll(ctx); err != nil {
		return fmt.Errorf("failed to load forms: %w", err)
	}
	a.logger.Info("forms loaded", zap.Int("count", n))

	if n, err = a.sched.LoadAll(ctx); err != nil {
		return fmt.Errorf("failed to load schedules: %w", err)
	}
	a.logger.Info("schedules loaded", zap.Int("count", n))
	return nil
}

// shutdown 先停入口，再停调度，最后排空异步队列
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to shutdown API server", zap.Error(err))
	}
	a.receiver.Stop()
	if err := a.sched.Stop(ctx); err != nil {
		a.logger.Error("Failed to stop scheduler", zap.Error(err))
	}
	if err := a.elector.Stop(ctx); err != nil {
		a.logger.Error("Failed to release master lock", zap.Error(err))
	}
	if err := a.bus.Close(ctx); err != nil {
		a.logger.Error("Failed to drain async queue", zap.Error(err))
	}
	a.logger.Info("Shutdown complete")
}
