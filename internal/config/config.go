package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Signing  SigningConfig  `mapstructure:"signing"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host             string   `mapstructure:"host"`
	Port             int      `mapstructure:"port"`
	Mode             string   `mapstructure:"mode"`          // gin mode: debug, release, test
	ReadTimeout      int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout     int      `mapstructure:"write_timeout"` // in seconds
	EnablePprof      bool     `mapstructure:"enable_pprof"`
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Driver          string `mapstructure:"driver"` // postgres or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"` // in minutes
}

func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

type VaultConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`  // KV v2 mount, e.g. "secret"
	PathPrefix string `mapstructure:"path_prefix"` // e.g. "paytrust/clients"
}

type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	AuditTopic   string   `mapstructure:"audit_topic"`
	BatchSize    int      `mapstructure:"batch_size"`
	BatchTimeout int      `mapstructure:"batch_timeout"` // in milliseconds

	// ConsumerGroup is shared by every audit archiver instance
	ConsumerGroup string `mapstructure:"consumer_group"`
}

// ClientCredential is the key material registered for one partner.
// Either field may be empty when the partner only uses one scheme.
type ClientCredential struct {
	ClientKey    string `mapstructure:"client_key"`
	ClientSecret string `mapstructure:"client_secret"`
	PublicKeyPEM string `mapstructure:"public_key_pem"`
}

type SigningConfig struct {
	// CredentialSource selects where client credentials are read: config or vault
	CredentialSource string             `mapstructure:"credential_source"`
	Clients          []ClientCredential `mapstructure:"clients"`

	// PrivateKeyPEM or PrivateKeyPath hold the gateway's own PKCS#8 signing key
	PrivateKeyPEM  string `mapstructure:"private_key_pem"`
	PrivateKeyPath string `mapstructure:"private_key_path"`

	TimestampSkew    time.Duration `mapstructure:"timestamp_skew"` // 0 disables the skew window
	UtilitiesEnabled bool          `mapstructure:"utilities_enabled"`
}

// Client returns the credential registered for clientKey.
func (c *SigningConfig) Client(clientKey string) (ClientCredential, bool) {
	for _, cred := range c.Clients {
		if cred.ClientKey == clientKey {
			return cred, true
		}
	}
	return ClientCredential{}, false
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sink    string `mapstructure:"sink"` // log, kafka or database
	SealKey string `mapstructure:"seal_key"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode %q is not one of debug, release, test", c.Server.Mode)
	}

	switch c.Signing.CredentialSource {
	case "config":
		seen := make(map[string]struct{}, len(c.Signing.Clients))
		for i, cred := range c.Signing.Clients {
			if strings.TrimSpace(cred.ClientKey) == "" {
				return fmt.Errorf("signing.clients[%d]: client_key is required", i)
			}
			if cred.ClientSecret == "" && cred.PublicKeyPEM == "" {
				return fmt.Errorf("signing.clients[%d]: client_secret or public_key_pem is required", i)
			}
			if _, dup := seen[cred.ClientKey]; dup {
				return fmt.Errorf("signing.clients[%d]: duplicate client_key %q", i, cred.ClientKey)
			}
			seen[cred.ClientKey] = struct{}{}
		}
	case "vault":
		if !c.Vault.Enabled || c.Vault.Address == "" {
			return fmt.Errorf("signing.credential_source=vault requires vault.enabled and vault.address")
		}
	default:
		return fmt.Errorf("signing.credential_source %q is not supported", c.Signing.CredentialSource)
	}

	if c.Signing.TimestampSkew < 0 {
		return fmt.Errorf("signing.timestamp_skew must not be negative")
	}

	if c.Audit.Enabled {
		if c.Audit.SealKey == "" {
			return fmt.Errorf("audit.seal_key is required when audit is enabled")
		}
		switch c.Audit.Sink {
		case "log":
		case "kafka":
			if len(c.Kafka.Brokers) == 0 || c.Kafka.AuditTopic == "" {
				return fmt.Errorf("audit.sink=kafka requires kafka.brokers and kafka.audit_topic")
			}
		case "database":
			if !c.Database.Enabled {
				return fmt.Errorf("audit.sink=database requires database.enabled")
			}
		default:
			return fmt.Errorf("audit.sink %q is not supported", c.Audit.Sink)
		}
	}

	if c.Database.Enabled && c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}

	return nil
}

//Personal.AI order the ending
