// Package config loads service settings from an optional YAML file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nikolayk812/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Service   string          `yaml:"service"`
	Env       string          `yaml:"env"`
	LogLevel  string          `yaml:"log_level"`
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Audit     AuditConfig     `yaml:"audit"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StoreConfig struct {
	Driver      string `yaml:"driver"`
	DatabaseURL string `yaml:"database_url"`
}

// RedisConfig enables Idempotency-Key replay when Addr is set.
type RedisConfig struct {
	Addr           string        `yaml:"addr"`
	IdempotencyTTL time.Duration `yaml:"idempotency_ttl"`
}

// KafkaConfig enables the outbox relay when Brokers is not empty.
type KafkaConfig struct {
	Brokers       []string      `yaml:"brokers"`
	Topic         string        `yaml:"topic"`
	RelayInterval time.Duration `yaml:"relay_interval"`
	BatchSize     int           `yaml:"batch_size"`
}

// AuditConfig enables the status change audit log when SQLitePath is set.
type AuditConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type PricingConfig struct {
	Currency   string       `yaml:"currency"`
	DefaultFee string       `yaml:"default_fee"`
	Zones      []ZoneConfig `yaml:"zones"`
}

type ZoneConfig struct {
	Name      string   `yaml:"name"`
	Fee       string   `yaml:"fee"`
	Provinces []string `yaml:"provinces"`
}

type CatalogConfig struct {
	NewArrivalsWindow    time.Duration `yaml:"new_arrivals_window"`
	NewArrivalsThreshold int           `yaml:"new_arrivals_threshold"`
	NewArrivalsLimit     int           `yaml:"new_arrivals_limit"`
}

type TelemetryConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

func Default() Config {
	return Config{
		Service:  "storefront",
		Env:      "local",
		LogLevel: "info",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverPostgres,
		},
		Redis: RedisConfig{
			IdempotencyTTL: 24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Topic:         "storefront.orders",
			RelayInterval: time.Second,
			BatchSize:     100,
		},
		RateLimit: RateLimitConfig{
			RPS:   20,
			Burst: 40,
		},
		Pricing: PricingConfig{
			Currency: "VND",
		},
		Catalog: CatalogConfig{
			NewArrivalsWindow:    30 * 24 * time.Hour,
			NewArrivalsThreshold: 8,
			NewArrivalsLimit:     20,
		},
		Telemetry: TelemetryConfig{
			SampleRatio: 1,
		},
	}
}

// Load reads the YAML file at path on top of Default, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("os.ReadFile[%s]: %w", path, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("yaml.Unmarshal[%s]: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("applyEnv: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("cfg.Validate: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	getenv := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := getenv("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := getenv("HTTP_ADDR"); ok {
		c.HTTP.Addr = v
	}
	if v, ok := getenv("STORE_DRIVER"); ok {
		c.Store.Driver = v
	}
	if v, ok := getenv("DATABASE_URL"); ok {
		c.Store.DatabaseURL = v
	}
	if v, ok := getenv("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getenv("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitCSV(v)
	}
	if v, ok := getenv("KAFKA_TOPIC"); ok {
		c.Kafka.Topic = v
	}
	if v, ok := getenv("AUDIT_SQLITE_PATH"); ok {
		c.Audit.SQLitePath = v
	}
	if v, ok := getenv("JWT_SECRET"); ok {
		c.Auth.JWTSecret = v
	}
	if v, ok := getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ok {
		c.Telemetry.OTLPEndpoint = v
	}
	if v, ok := getenv("RATE_LIMIT_RPS"); ok {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_RPS[%s]: %w", v, err)
		}
		c.RateLimit.RPS = rps
	}

	return nil
}

func (c Config) Validate() error {
	var errs []error

	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is empty"))
	}

	switch c.Store.Driver {
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("store.driver[%s] is not supported", c.Store.Driver))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is empty"))
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("rate_limit.rps and rate_limit.burst must be positive"))
	}

	if len(c.Kafka.Brokers) > 0 && (c.Kafka.Topic == "" || c.Kafka.BatchSize <= 0 || c.Kafka.RelayInterval <= 0) {
		errs = append(errs, errors.New("kafka.topic, kafka.batch_size and kafka.relay_interval are required with brokers"))
	}

	if c.Catalog.NewArrivalsWindow <= 0 || c.Catalog.NewArrivalsThreshold < 0 || c.Catalog.NewArrivalsLimit <= 0 {
		errs = append(errs, errors.New("catalog settings must be positive"))
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, errors.New("telemetry.sample_ratio must be within [0, 1]"))
	}

	if _, err := c.Currency(); err != nil {
		errs = append(errs, err)
	}

	if _, _, err := c.ShippingZones(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (c Config) Currency() (currency.Unit, error) {
	cur, err := currency.ParseISO(c.Pricing.Currency)
	if err != nil {
		return cur, fmt.Errorf("pricing.currency[%s]: %w", c.Pricing.Currency, err)
	}
	return cur, nil
}

// ShippingZones converts the configured zones into the pricing representation.
func (c Config) ShippingZones() ([]pricing.Zone, *decimal.Decimal, error) {
	if len(c.Pricing.Zones) == 0 && c.Pricing.DefaultFee == "" {
		return nil, nil, errors.New("pricing.zones is empty and pricing.default_fee is not set")
	}

	zones := make([]pricing.Zone, 0, len(c.Pricing.Zones))
	for _, z := range c.Pricing.Zones {
		fee, err := decimal.NewFromString(z.Fee)
		if err != nil {
			return nil, nil, fmt.Errorf("pricing.zones[%s].fee[%s]: %w", z.Name, z.Fee, err)
		}
		zones = append(zones, pricing.Zone{Name: z.Name, Fee: fee, Provinces: z.Provinces})
	}

	var defaultFee *decimal.Decimal
	if c.Pricing.DefaultFee != "" {
		fee, err := decimal.NewFromString(c.Pricing.DefaultFee)
		if err != nil {
			return nil, nil, fmt.Errorf("pricing.default_fee[%s]: %w", c.Pricing.DefaultFee, err)
		}
		defaultFee = &fee
	}

	return zones, defaultFee, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
