package api

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
	"gopkg.in/yaml.v3"
)

// Config carries settings for the API process. Values come from an optional YAML
// file named by CONFIG_FILE, overridden by environment variables.
type Config struct {
	Port                  string `yaml:"port"`
	PostgresDSN           string `yaml:"postgres_dsn"`
	PostgresAutoMigrate   bool   `yaml:"postgres_auto_migrate"`
	RedisAddr             string `yaml:"redis_addr"`
	KafkaBrokers          string `yaml:"kafka_brokers"`
	KafkaTopic            string `yaml:"kafka_topic"`
	TemporalAddress       string `yaml:"temporal_address"`
	TemporalNamespace     string `yaml:"temporal_namespace"`
	TemporalDisabled      bool   `yaml:"temporal_disabled"`
	IdempotencyTTLHours   int    `yaml:"idempotency_ttl_hours"`
	ItemUpdateConcurrency int    `yaml:"item_update_concurrency"`
	DefaultPageLimit      int    `yaml:"default_page_limit"`
}

func defaultConfig() Config {
	return Config{
		Port:                  "8080",
		KafkaTopic:            "orders.events",
		TemporalAddress:       client.DefaultHostPort,
		TemporalNamespace:     client.DefaultNamespace,
		IdempotencyTTLHours:   24,
		ItemUpdateConcurrency: 1,
		DefaultPageLimit:      15,
	}
}

// LoadConfig reads the optional config file and environment variables, applies defaults,
// and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Port = envDefault("PORT", cfg.Port)
	cfg.PostgresDSN = envDefault("POSTGRES_DSN", cfg.PostgresDSN)
	cfg.RedisAddr = envDefault("REDIS_ADDR", cfg.RedisAddr)
	cfg.KafkaBrokers = envDefault("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envDefault("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.TemporalAddress = envDefault("TEMPORAL_ADDRESS", cfg.TemporalAddress)
	cfg.TemporalNamespace = envDefault("TEMPORAL_NAMESPACE", cfg.TemporalNamespace)
	if raw, ok := lookupEnv("POSTGRES_AUTO_MIGRATE"); ok {
		cfg.PostgresAutoMigrate = isTruthy(raw)
	}
	if raw, ok := lookupEnv("TEMPORAL_DISABLED"); ok {
		cfg.TemporalDisabled = isTruthy(raw)
	}

	var err error
	if cfg.IdempotencyTTLHours, err = envPositiveInt("IDEMPOTENCY_TTL_HOURS", cfg.IdempotencyTTLHours); err != nil {
		return Config{}, err
	}
	if cfg.ItemUpdateConcurrency, err = envPositiveInt("ITEM_UPDATE_CONCURRENCY", cfg.ItemUpdateConcurrency); err != nil {
		return Config{}, err
	}
	if cfg.DefaultPageLimit, err = envPositiveInt("DEFAULT_PAGE_LIMIT", cfg.DefaultPageLimit); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that may have come from the config file.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("port must not be empty"))
	}
	if c.IdempotencyTTLHours <= 0 {
		errs = append(errs, errors.New("idempotency_ttl_hours must be a positive integer"))
	}
	if c.ItemUpdateConcurrency <= 0 {
		errs = append(errs, errors.New("item_update_concurrency must be a positive integer"))
	}
	if c.DefaultPageLimit <= 0 || c.DefaultPageLimit > 100 {
		errs = append(errs, errors.New("default_page_limit must be between 1 and 100"))
	}
	return errors.Join(errs...)
}

// IdempotencyTTL is the replay window for create requests.
func (c Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLHours) * time.Hour
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func envPositiveInt(key string, fallback int) (int, error) {
	raw, ok := lookupEnv(key)
	if !ok {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return value, nil
}

func lookupEnv(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

func envDefault(key, fallback string) string {
	if val, ok := lookupEnv(key); ok {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
