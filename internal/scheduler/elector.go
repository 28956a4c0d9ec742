package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jobs/eventhub/internal/infra/persistence/commonrepo"
	"github.com/jobs/eventhub/pkg/config"
	"go.uber.org/zap"
)

var errLockLost = errors.New("master lock lost")

// Elector 基于 MySQL GET_LOCK 的 master 选举。
// GET_LOCK 是会话级别的锁，因此持有期间固定占用连接池中的一个连接。
type Elector struct {
	db       *sql.DB
	lockName string
	timeout  time.Duration
	interval time.Duration
	enabled  bool
	logger   *zap.Logger

	master   atomic.Bool
	onChange func(bool)

	// conn 只在选举协程和 Stop 中访问
	conn *sql.Conn

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewElector 创建选举器。cfg.Scheduler.ElectMaster 为 false 时不参与选举。
func NewElector(db commonrepo.DB, cfg config.Config, logger *zap.Logger) (*Elector, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return newElector(sqlDB, cfg.Scheduler, logger), nil
}

func newElector(db *sql.DB, cfg config.SchedulerConfig, logger *zap.Logger) *Elector {
	return &Elector{
		db:       db,
		lockName: cfg.LockKey,
		timeout:  cfg.LockTimeout,
		interval: cfg.HeartbeatInterval,
		enabled:  cfg.ElectMaster,
		logger:   logger.With(zap.String("lock_name", cfg.LockKey)),
		onChange: func(bool) {},
		stopCh:   make(chan struct{}),
	}
}

// OnChange 注册 master 状态变化回调，需在 Start 之前调用
func (e *Elector) OnChange(fn func(isMaster bool)) {
	if fn != nil {
		e.onChange = fn
	}
}

func (e *Elector) IsMaster() bool {
	return e.master.Load()
}

// Start 启动选举循环，先立即尝试一次
func (e *Elector) Start() {
	if !e.enabled {
		e.logger.Info("master election disabled")
		return
	}
	e.wg.Add(1)
	go e.loop()
}

// Stop 停止选举并释放锁
func (e *Elector) Stop(ctx context.Context) error {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
	return e.release(ctx)
}

func (e *Elector) loop() {
	defer e.wg.Done()

	e.tick()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.tick()
		case <-e.stopCh:
			return
		}
	}
}

func (e *Elector) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout+time.Second)
	defer cancel()

	if !e.master.Load() {
		ok, err := e.acquire(ctx)
		if err != nil {
			e.logger.Error("failed to acquire master lock", zap.Error(err))
			return
		}
		if ok {
			e.setMaster(true)
		}
		return
	}

	if err := e.renew(ctx); err != nil {
		e.logger.Error("failed to renew master lock", zap.Error(err))
		e.closeConn()
		e.setMaster(false)
	}
}

func (e *Elector) setMaster(v bool) {
	if e.master.Swap(v) == v {
		return
	}
	if v {
		e.logger.Info("became master")
	} else {
		e.logger.Warn("lost master")
	}
	e.onChange(v)
}

// acquire 返回值: GET_LOCK 1-成功, 0-超时, NULL-错误
func (e *Elector) acquire(ctx context.Context) (bool, error) {
	if e.conn == nil {
		conn, err := e.db.Conn(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to get connection: %w", err)
		}
		e.conn = conn
	}

	var result sql.NullInt64
	err := e.conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", e.lockName, int(e.timeout.Seconds())).Scan(&result)
	if err != nil {
		e.closeConn()
		return false, err
	}
	if !result.Valid {
		return false, errors.New("GET_LOCK returned NULL")
	}
	return result.Int64 == 1, nil
}

// renew 确认锁仍由当前连接持有
func (e *Elector) renew(ctx context.Context) error {
	if e.conn == nil {
		return errLockLost
	}
	var result sql.NullInt64
	err := e.conn.QueryRowContext(ctx, "SELECT IS_USED_LOCK(?) = CONNECTION_ID()", e.lockName).Scan(&result)
	if err != nil {
		return err
	}
	if !result.Valid || result.Int64 != 1 {
		return errLockLost
	}
	return nil
}

func (e *Elector) release(ctx context.Context) error {
	if e.conn == nil {
		return nil
	}
	defer e.closeConn()

	wasMaster := e.master.Load()
	e.setMaster(false)
	if !wasMaster {
		return nil
	}

	var result sql.NullInt64
	if err := e.conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", e.lockName).Scan(&result); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if !result.Valid || result.Int64 != 1 {
		return errors.New("failed to release lock: not owner or lock does not exist")
	}
	e.logger.Info("released master lock")
	return nil
}

func (e *Elector) closeConn() {
	if e.conn == nil {
		return
	}
	if err := e.conn.Close(); err != nil {
		e.logger.Debug("close lock connection", zap.Error(err))
	}
	e.conn = nil
}
