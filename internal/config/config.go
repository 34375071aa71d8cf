// Package config loads Kestrel configuration from tier defaults, an
// optional YAML file, and environment variable overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// DefaultPath is the config file read when no explicit path is given.
const DefaultPath = "kestrel.yaml"

// Load builds the configuration. The KESTREL_TIER environment variable
// selects the baseline defaults (community or pro); the YAML file overlays
// them; individual KESTREL_* variables win over both.
func Load(path string) (*domain.Config, error) {
	cfg := domain.DefaultConfig()
	if tier := os.Getenv("KESTREL_TIER"); tier == string(domain.TierPro) {
		cfg = domain.ProConfig()
	}

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides individual settings from KESTREL_* variables.
func applyEnv(cfg *domain.Config) {
	setString(&cfg.Server.Host, "KESTREL_HOST")
	setInt(&cfg.Server.Port, "KESTREL_PORT")

	setString(&cfg.Repository.Driver, "KESTREL_DB_DRIVER")
	setString(&cfg.Repository.SQLitePath, "KESTREL_SQLITE_PATH")
	setString(&cfg.Repository.PostgresHost, "KESTREL_PG_HOST")
	setInt(&cfg.Repository.PostgresPort, "KESTREL_PG_PORT")
	setString(&cfg.Repository.PostgresUser, "KESTREL_PG_USER")
	setString(&cfg.Repository.PostgresPassword, "KESTREL_PG_PASSWORD")
	setString(&cfg.Repository.PostgresDB, "KESTREL_PG_DB")
	setString(&cfg.Repository.PostgresSSLMode, "KESTREL_PG_SSLMODE")

	setString(&cfg.Cache.Type, "KESTREL_CACHE_TYPE")
	setString(&cfg.Cache.RedisAddr, "KESTREL_REDIS_ADDR")
	setString(&cfg.Cache.RedisPassword, "KESTREL_REDIS_PASSWORD")
	setInt(&cfg.Cache.RedisDB, "KESTREL_REDIS_DB")

	setString(&cfg.EventBus.Type, "KESTREL_BUS_TYPE")
	setString(&cfg.EventBus.NATSUrl, "KESTREL_NATS_URL")
	setString(&cfg.EventBus.NATSToken, "KESTREL_NATS_TOKEN")

	setInt(&cfg.Engine.InquiryWindowDays, "KESTREL_INQUIRY_WINDOW_DAYS")
	setInt(&cfg.Engine.InquiryThreshold, "KESTREL_INQUIRY_THRESHOLD")
	setBool(&cfg.Engine.SeedCatalog, "KESTREL_SEED_CATALOG")

	setString(&cfg.Logging.Level, "KESTREL_LOG_LEVEL")
	setString(&cfg.Logging.Format, "KESTREL_LOG_FORMAT")

	setBool(&cfg.Tracing.Enabled, "KESTREL_TRACING_ENABLED")
	setString(&cfg.Tracing.Endpoint, "KESTREL_TRACING_ENDPOINT")
}

func validate(cfg *domain.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	switch cfg.Repository.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported repository driver: %s", cfg.Repository.Driver)
	}

	switch cfg.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported cache type: %s", cfg.Cache.Type)
	}

	switch cfg.EventBus.Type {
	case "channel", "nats":
	default:
		return fmt.Errorf("unsupported event bus type: %s", cfg.EventBus.Type)
	}

	if cfg.Engine.InquiryWindowDays <= 0 {
		return fmt.Errorf("inquiry window must be positive: %d", cfg.Engine.InquiryWindowDays)
	}

	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
