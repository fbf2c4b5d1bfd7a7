// Package config assembles process configuration: compiled defaults, an
// optional YAML file with ${ENV} expansion, then environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"custodia/internal/risk/engine"
)

// Lock backends for per-record remediation locks.
const (
	LockBackendLocal    = "local"
	LockBackendRedis    = "redis"
	LockBackendPostgres = "postgres"
)

// Config is the full configuration of cmd/server.
type Config struct {
	Server    Server          `yaml:"server"`
	LogLevel  string          `yaml:"log_level"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Safeguard SafeguardConfig `yaml:"safeguard"`
	Locks     LockConfig      `yaml:"locks"`
	Engine    engine.Config   `yaml:"engine"`

	// WeightsPath points at a weight table override; empty uses compiled defaults.
	WeightsPath string `yaml:"weights_path"`
	// RulesPath points at additional declarative consistency rules.
	RulesPath string `yaml:"rules_path"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	Environment     string        `yaml:"environment"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LoadTimeout     time.Duration `yaml:"load_timeout"`
}

// DatabaseConfig selects PostgreSQL stores. An empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	Migrate         bool          `yaml:"migrate"`
}

// RedisConfig enables the safeguard cache and Redis locks. Empty URL disables Redis.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// KafkaConfig enables the Kafka notification sink. Empty Brokers keeps
// notifications in memory.
type KafkaConfig struct {
	Brokers    string `yaml:"brokers"`
	Topic      string `yaml:"topic"`
	Acks       string `yaml:"acks"`
	Partitions int32  `yaml:"partitions"`
}

// SafeguardConfig configures certification lookups for USA transfers.
type SafeguardConfig struct {
	// RegistryURL is the partner certification registry; empty uses Certified only.
	RegistryURL string        `yaml:"registry_url"`
	APIKey      string        `yaml:"api_key"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`

	// Certified lists providers treated as certified without a registry call.
	Certified       []string      `yaml:"certified"`
	BreakerFailures int           `yaml:"breaker_failures"`
	BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
}

// LockConfig selects the remediation lock backend.
type LockConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			Environment:     "development",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			RequestTimeout:  20 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			LoadTimeout:     3 * time.Second,
		},
		LogLevel: "info",
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			Migrate:         true,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:      "custodia.compliance-review",
			Acks:       "all",
			Partitions: 3,
		},
		Safeguard: SafeguardConfig{
			CacheTTL:        time.Hour,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Locks: LockConfig{
			Backend: LockBackendLocal,
			TTL:     30 * time.Second,
		},
		Engine: engine.DefaultConfig(),
	}
}

// LoadDotEnv loads .env files into the process environment when present.
// Variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load reads the YAML file at path (optional) over the defaults, then
// applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		// #nosec G304 -- path is operator-provided config path.
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := Parse(raw, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Parse expands ${VAR} references in raw and decodes it over cfg.
func Parse(raw []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(raw))
	expanded = strings.ReplaceAll(expanded, "\r\n", "\n")
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// FromEnv builds the configuration from defaults and environment variables only.
func FromEnv() (Config, error) {
	return Load("")
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Addr, "CUSTODIA_ADDR")
	setString(&cfg.Server.Environment, "CUSTODIA_ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.Database.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Kafka.Topic, "KAFKA_NOTIFICATION_TOPIC")
	setString(&cfg.Safeguard.RegistryURL, "SAFEGUARD_REGISTRY_URL")
	setString(&cfg.Safeguard.APIKey, "SAFEGUARD_REGISTRY_API_KEY")
	setString(&cfg.Locks.Backend, "REMEDIATION_LOCK_BACKEND")
	setString(&cfg.WeightsPath, "RISK_WEIGHTS_PATH")
	setString(&cfg.RulesPath, "RISK_RULES_PATH")

	if v := os.Getenv("SAFEGUARD_CERTIFIED_PROVIDERS"); v != "" {
		cfg.Safeguard.Certified = splitList(v)
	}
	if err := setDuration(&cfg.Engine.SafeguardTimeout, "SAFEGUARD_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Safeguard.CacheTTL, "SAFEGUARD_CACHE_TTL"); err != nil {
		return err
	}
	if err := setBool(&cfg.Engine.DuplicateCheckEnabled, "DUPLICATE_CHECK_ENABLED"); err != nil {
		return err
	}
	if err := setBool(&cfg.Engine.ReuseEnabled, "EIPD_REUSE_ENABLED"); err != nil {
		return err
	}
	return setBool(&cfg.Database.Migrate, "DATABASE_MIGRATE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	switch c.Locks.Backend {
	case LockBackendLocal:
	case LockBackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("redis.url is required when locks.backend=redis")
		}
	case LockBackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required when locks.backend=postgres")
		}
	default:
		return fmt.Errorf("locks.backend must be one of local, redis, postgres")
	}
	if c.Engine.ReuseThreshold < 0 || c.Engine.ReuseThreshold > 1 {
		return fmt.Errorf("engine.reuse_threshold must be within [0,1]")
	}
	if c.Engine.SafeguardTimeout <= 0 {
		return fmt.Errorf("engine.safeguard_timeout must be positive")
	}
	return nil
}
