// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig toggles the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// BackendConfig selects where curve history is shipped.
type BackendConfig struct {
	Type         string        `yaml:"type"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// KafkaProducerConfig tunes the shared writer.
type KafkaProducerConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	Linger       time.Duration `yaml:"linger"`
	BatchBytes   int           `yaml:"batch_bytes"`
	BatchSize    int           `yaml:"batch_size"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	Async        bool          `yaml:"async"`
}

// KafkaConsumerConfig tunes the curve history consumer.
type KafkaConsumerConfig struct {
	GroupID    string        `yaml:"group_id"`
	Workers    int           `yaml:"workers"`
	BufferSize int           `yaml:"buffer_size"`
	RetryMax   int           `yaml:"retry_max"`
	BackoffMin time.Duration `yaml:"backoff_min"`
	BackoffMax time.Duration `yaml:"backoff_max"`
	DLQTopic   string        `yaml:"dlq_topic"`
	MinBytes   int           `yaml:"min_bytes"`
	MaxBytes   int           `yaml:"max_bytes"`
}

// KafkaConfig holds broker, topic, and tuning settings.
type KafkaConfig struct {
	Brokers      []string            `yaml:"brokers"`
	Topic        string              `yaml:"topic"`
	LogTopic     string              `yaml:"log_topic"`
	RequiredAcks int                 `yaml:"required_acks"`
	Compression  string              `yaml:"compression"`
	Producer     KafkaProducerConfig `yaml:"producer"`
	Consumer     KafkaConsumerConfig `yaml:"consumer"`
}

// ClickHouseConfig holds the history store connection settings.
type ClickHouseConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	Database         string        `yaml:"database"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time"`
}

// RateLimitConfig bounds the upstream request rate.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// MOEXConfig points at the exchange endpoints.
type MOEXConfig struct {
	BondsURL        string          `yaml:"bonds_url"`
	CurveURL        string          `yaml:"curve_url"`
	Timeout         time.Duration   `yaml:"timeout"`
	RefreshInterval time.Duration   `yaml:"refresh_interval"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// CacheTTLConfig sets per-dataset cache lifetimes.
type CacheTTLConfig struct {
	BondsTTL time.Duration `yaml:"bonds_ttl"`
	CurveTTL time.Duration `yaml:"curve_ttl"`
}

// RedisConfig holds the optional Redis connection.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ScreenerConfig groups screener-specific settings.
type ScreenerConfig struct {
	HistoryDays int            `yaml:"history_days"`
	Cache       CacheTTLConfig `yaml:"cache"`
	Redis       RedisConfig    `yaml:"redis"`
}

// Config is the root configuration document.
type Config struct {
	Environment string           `yaml:"environment"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Backend     BackendConfig    `yaml:"backend"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	MOEX        MOEXConfig       `yaml:"moex"`
	Screener    ScreenerConfig   `yaml:"screener"`
}

// Load reads, parses, and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads the file and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	overrides := []struct {
		env   string
		apply func(string)
	}{
		{"MOEX_BONDS_URL", func(v string) { c.MOEX.BondsURL = v }},
		{"MOEX_CURVE_URL", func(v string) { c.MOEX.CurveURL = v }},
		{"BACKEND", func(v string) { c.Backend.Type = v }},
		{"KAFKA_BROKERS", func(v string) { c.Kafka.Brokers = strings.Split(v, ",") }},
		{"KAFKA_TOPIC", func(v string) { c.Kafka.Topic = v }},
		{"REDIS_ADDR", func(v string) { c.Screener.Redis.Addr = v }},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			o.apply(v)
		}
	}
	return c, nil
}

// Validate checks the required fields.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse":
	case "":
		return fmt.Errorf("backend.type is required")
	default:
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.MOEX.BondsURL == "" {
		return fmt.Errorf("moex.bonds_url is required")
	}
	if c.MOEX.CurveURL == "" {
		return fmt.Errorf("moex.curve_url is required")
	}
	return nil
}
