package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	vault "github.com/hashicorp/vault/api"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	appservice "github.com/turtacn/paytrust/internal/application/service"
	"github.com/turtacn/paytrust/internal/config"
	"github.com/turtacn/paytrust/internal/domain/service"
	"github.com/turtacn/paytrust/internal/infrastructure/audit"
	"github.com/turtacn/paytrust/internal/infrastructure/crypto"
	"github.com/turtacn/paytrust/internal/infrastructure/kms"
	"github.com/turtacn/paytrust/internal/infrastructure/monitoring"
	"github.com/turtacn/paytrust/internal/infrastructure/persistence"
	"github.com/turtacn/paytrust/internal/infrastructure/redis"
	"github.com/turtacn/paytrust/internal/interfaces/http"
	"github.com/turtacn/paytrust/internal/interfaces/http/handlers"
	"github.com/turtacn/paytrust/pkg/logger"
)

// gatewayKeyName is the Vault secret holding the gateway's own signing key.
const gatewayKeyName = "gateway"

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	// Logger for startup
	startupLogger, _ := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})

	// Load config
	loader := config.NewLoader(startupLogger)
	cfg, err := loader.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	logger.SetGlobalLogger(appLogger)
	ctx := context.Background()

	// Initialize tracing
	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracer", err)
	}
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	checks := map[string]handlers.HealthCheck{}

	// Credential source
	var (
		source      kms.CredentialSource
		vaultSource *kms.VaultSource
	)
	configSource := kms.NewConfigSource(cfg.Signing)
	switch cfg.Signing.CredentialSource {
	case "vault":
		var client *vault.Client
		client, err = kms.NewVaultClient(cfg.Vault)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to create Vault client", err)
		}
		vaultSource = kms.NewVaultSource(cfg.Vault, client, appLogger)
		source = vaultSource
		checks["vault"] = func(ctx context.Context) error {
			health, err := client.Sys().HealthWithContext(ctx)
			if err != nil {
				return err
			}
			if health.Sealed {
				return fmt.Errorf("vault is sealed")
			}
			return nil
		}
	default:
		source = configSource
	}
	keyring := kms.NewKeyring(source, 0, appLogger)

	loader.Watch(func(next *config.Config) {
		configSource.Replace(next.Signing)
		keyring.Flush()
	})

	// Redis external id guard
	var externalIDs service.ExternalIDGuard
	if cfg.Redis.Enabled {
		var rdb *goredis.Client
		rdb, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", err)
		}
		defer rdb.Close()
		externalIDs = redis.NewExternalIDStore(rdb, cfg.Redis.KeyPrefix)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// Database
	var db *gorm.DB
	if cfg.Database.Enabled {
		db, err = persistence.OpenDatabase(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to connect to database", err)
		}
		defer persistence.CloseDatabase(db)
		checks["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}

	// Audit
	auditSvc, closeAudit, err := audit.NewAuditService(cfg, db, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to create audit sink", err)
	}
	defer func() { _ = closeAudit() }()

	// Gateway signing key
	signer, err := loadSigner(ctx, cfg.Signing, vaultSource)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to load gateway signing key", err)
	}
	if signer == nil {
		appLogger.Warn(ctx, "No gateway signing key configured, asymmetric signing is disabled")
	}

	signatures := appservice.NewSignatureAppService(keyring, auditSvc, metrics, appservice.SignatureAppServiceConfig{
		Signer:        signer,
		TimestampSkew: cfg.Signing.TimestampSkew,
	}, appLogger)

	router := http.NewRouter(cfg, appLogger, http.RouterDeps{
		Signatures:       signatures,
		ExternalIDs:      externalIDs,
		Metrics:          metrics,
		HTTPMetrics:      metrics,
		Gatherer:         prometheus.DefaultGatherer,
		Tracer:           tracing.Tracer(),
		HealthHandler:    handlers.NewHealthHandler(checks, appLogger),
		SignatureHandler: handlers.NewSignatureHandler(signatures),
	})

	if err := router.Start(); err != nil {
		appLogger.Error(ctx, "HTTP server failed", err)
		os.Exit(1)
	}
}

// loadSigner returns the gateway signer from inline PEM, a key file or Vault,
// in that order. It returns nil when none is configured.
func loadSigner(ctx context.Context, cfg config.SigningConfig, vaultSource *kms.VaultSource) (*crypto.RSASigner, error) {
	switch {
	case cfg.PrivateKeyPEM != "":
		return crypto.NewRSASigner(cfg.PrivateKeyPEM)
	case cfg.PrivateKeyPath != "":
		raw, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		return crypto.NewRSASigner(string(raw))
	case vaultSource != nil:
		pemText, err := vaultSource.GetPrivateKeyPEM(ctx, gatewayKeyName)
		if err != nil {
			return nil, err
		}
		return crypto.NewRSASigner(pemText)
	}
	return nil, nil
}

//Personal.AI order the ending
