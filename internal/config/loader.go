package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/paytrust/pkg/logger"
)

// EnvPrefix is the prefix of environment overrides, e.g. PAYTRUST_SERVER_PORT.
const EnvPrefix = "PAYTRUST"

// Loader reads the configuration and keeps the last valid snapshot for hot reload.
type Loader struct {
	v   *viper.Viper
	log logger.Logger

	mu      sync.RWMutex
	current *Config
}

// NewLoader creates a loader with defaults and environment overrides applied.
func NewLoader(log logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNoopLogger()
	}
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, log: log.WithComponent("config")}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("server.enable_pprof", false)
	v.SetDefault("server.cors_allow_origins", []string{"*"})

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_conn_lifetime", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.key_prefix", "paytrust")

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.path_prefix", "paytrust/clients")

	v.SetDefault("kafka.audit_topic", "paytrust.audit")
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", 200)
	v.SetDefault("kafka.consumer_group", "paytrust-audit-archivers")

	v.SetDefault("signing.credential_source", "config")
	v.SetDefault("signing.timestamp_skew", "5m")
	v.SetDefault("signing.utilities_enabled", false)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.sink", "log")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "paytrust")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// Load reads the configuration. An empty path searches the default locations and
// tolerates a missing file; an explicit path must exist.
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath("/etc/paytrust/")
		l.v.AddConfigPath(".")
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()
	return cfg, nil
}

// Current returns the last valid configuration snapshot.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Watch reloads the file on change. onChange receives each new valid snapshot;
// an invalid file is logged and the previous snapshot stays in effect.
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.decode()
		if err != nil {
			l.log.Error(context.Background(), "config reload rejected", err, logger.Fields{"file": e.Name})
			return
		}
		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()

		l.log.Info(context.Background(), "config reloaded", logger.Fields{"file": e.Name, "op": e.Op.String()})
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadConfig loads the configuration from file, environment variables and defaults.
func LoadConfig(log logger.Logger) (*Config, error) {
	return NewLoader(log).Load("")
}

// LoadFromFile loads the configuration from an explicit file.
func LoadFromFile(path string, log logger.Logger) (*Config, error) {
	return NewLoader(log).Load(path)
}

//Personal.AI order the ending
