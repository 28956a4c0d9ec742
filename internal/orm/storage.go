package orm

import (
	"fmt"

	"github.com/google/wire"
	"github.com/jobs/eventhub/internal/infra/persistence/formrepo"
	"github.com/jobs/eventhub/internal/infra/persistence/listenerrepo"
	"github.com/jobs/eventhub/internal/infra/persistence/schedulerepo"
	"github.com/jobs/eventhub/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Provider = wire.NewSet(New)

// Models 需要迁移的表
func Models() []any {
	return []any{
		&schedulerepo.ScheduleEntryPo{},
		&listenerrepo.ListenerPo{},
		&formrepo.FormPo{},
	}
}

type Storage struct {
	db *gorm.DB
}

// New 打开 MySQL 连接池，不做迁移
func New(cfg config.Config) (*Storage, error) {
	dbCfg := cfg.Database
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbCfg.User, dbCfg.Password, dbCfg.Host, dbCfg.Port, dbCfg.Database)

	logLevel := logger.Warn
	if cfg.Log.Level == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(dbCfg.MaxConnections)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnectionMaxLifetime)

	return &Storage{db: db}, nil
}

// Migrate 自动迁移 schedule/listener/form 三张表
func (s *Storage) Migrate() error {
	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Storage) DB() *gorm.DB {
	return s.db
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
