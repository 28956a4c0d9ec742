package main

import (
	"flag"
	"log"

	"github.com/jobs/eventhub/internal/orm"
	"github.com/jobs/eventhub/pkg/config"
	"github.com/jobs/eventhub/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := orm.New(*cfg)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		zapLogger.Fatal("Migration failed", zap.Error(err))
	}
	zapLogger.Info("Migration completed",
		zap.String("database", cfg.Database.Database),
		zap.Int("tables", len(orm.Models())))
}
