package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	EventBus  EventBusConfig  `mapstructure:"event_bus"`
	Cluster   ClusterConfig   `mapstructure:"cluster"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Handlers  HandlersConfig  `mapstructure:"handlers"`
}

type SchedulerConfig struct {
	InstanceID        string        `mapstructure:"instance_id"`
	LockKey           string        `mapstructure:"lock_key"`
	LockTimeout       time.Duration `mapstructure:"lock_timeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	// ElectMaster 为 false 时不参与选主，本实例永远不是 master
	ElectMaster bool `mapstructure:"elect_master"`
}

type EventBusConfig struct {
	AsyncWorkers   int `mapstructure:"async_workers"`
	AsyncQueueSize int `mapstructure:"async_queue_size"`
}

// ClusterConfig 集群同步配置
type ClusterConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Transport string `mapstructure:"transport"` // redis | nats | local
	Topic     string `mapstructure:"topic"`
}

type DatabaseConfig struct {
	Host                  string        `mapstructure:"host"`
	Port                  int           `mapstructure:"port"`
	Database              string        `mapstructure:"database"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
}

type ServerConfig struct {
	IP             string        `mapstructure:"ip"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HandlersConfig 内置具名处理器的参数
type HandlersConfig struct {
	WebhookTimeout time.Duration `mapstructure:"webhook_timeout"`
}

// SetDefaults 注册所有默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scheduler.instance_id", "eventhub-001")
	v.SetDefault("scheduler.lock_key", "eventhub_master_lock")
	v.SetDefault("scheduler.lock_timeout", "5s")
	v.SetDefault("scheduler.heartbeat_interval", "10s")
	v.SetDefault("scheduler.elect_master", true)

	v.SetDefault("event_bus.async_workers", 4)
	v.SetDefault("event_bus.async_queue_size", 256)

	v.SetDefault("cluster.enabled", false)
	v.SetDefault("cluster.transport", "redis")
	v.SetDefault("cluster.topic", "eventhub.cluster")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_idle_connections", 10)
	v.SetDefault("database.connection_max_lifetime", "1h")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.max_header_bytes", 1048576)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("nats.url", "nats://127.0.0.1:4222")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("handlers.webhook_timeout", "10s")
}

// Load 从 yaml 文件加载配置，环境变量 EVENTHUB_* 覆盖文件值
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("eventhub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Scheduler.InstanceID == "" {
		return fmt.Errorf("scheduler.instance_id is required")
	}
	if c.EventBus.AsyncWorkers <= 0 {
		return fmt.Errorf("event_bus.async_workers must be positive, got %d", c.EventBus.AsyncWorkers)
	}
	if c.EventBus.AsyncQueueSize <= 0 {
		return fmt.Errorf("event_bus.async_queue_size must be positive, got %d", c.EventBus.AsyncQueueSize)
	}
	if c.Cluster.Enabled {
		switch c.Cluster.Transport {
		case "redis", "nats", "local":
		default:
			return fmt.Errorf("unsupported cluster.transport %q", c.Cluster.Transport)
		}
		if c.Cluster.Topic == "" {
			return fmt.Errorf("cluster.topic is required when cluster is enabled")
		}
	}
	return nil
}
