package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/nikolayk812/ordercore/internal/app"
	"github.com/nikolayk812/ordercore/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file when -config is not given.
const EnvConfigPath = "ORDERCORE_CONFIG"

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Payments PaymentsConfig `yaml:"payments"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	// BatchSize is the number of outbox rows the relay publishes per transaction.
	BatchSize int `yaml:"batchSize"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`

	// PushGateway receives the relay's metrics after each run. Empty disables pushing.
	PushGateway string `yaml:"pushGateway"`
}

// CheckoutConfig keeps amounts as strings so YAML floats never touch them.
type CheckoutConfig struct {
	Currency              string `yaml:"currency"`
	TaxRate               string `yaml:"taxRate"`
	FlatShipping          string `yaml:"flatShipping"`
	FreeShippingThreshold string `yaml:"freeShippingThreshold"`
}

type PaymentsConfig struct {
	WebhookSecret    string `yaml:"webhookSecret"`
	WebhookCacheSize int    `yaml:"webhookCacheSize"`
}

func Default() Config {
	return Config{
		Kafka: KafkaConfig{
			BatchSize: 100,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Checkout: CheckoutConfig{
			Currency:              "USD",
			TaxRate:               "0",
			FlatShipping:          "0",
			FreeShippingThreshold: "0",
		},
		Payments: PaymentsConfig{
			WebhookCacheSize: 10_000,
		},
	}
}

// Load reads the YAML file at path on top of Default, applies environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("os.ReadFile[%s]: %w", path, err)
		}

		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("yaml.Unmarshal[%s]: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, fmt.Errorf("applyEnv: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DATABASE_URL"); ok {
		c.Database.URL = strings.TrimSpace(v)
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = splitCSV(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		c.Log.Level = strings.TrimSpace(v)
	}
	if v, ok := lookup("METRICS_ADDR"); ok {
		c.Metrics.Addr = strings.TrimSpace(v)
	}
	if v, ok := lookup("PUSHGATEWAY_URL"); ok {
		c.Metrics.PushGateway = strings.TrimSpace(v)
	}
	if v, ok := lookup("WEBHOOK_SECRET"); ok {
		c.Payments.WebhookSecret = v
	}
	if v, ok := lookup("WEBHOOK_CACHE_SIZE"); ok {
		size, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("WEBHOOK_CACHE_SIZE: %w", err)
		}
		c.Payments.WebhookCacheSize = size
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if c.Kafka.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("kafka.batchSize must be positive: %d", c.Kafka.BatchSize))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Metrics.PushGateway != "" {
		if u, err := url.Parse(c.Metrics.PushGateway); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("metrics.pushGateway must be an http(s) URL: %q", c.Metrics.PushGateway))
		}
	}
	if _, err := c.Checkout.Policy(); err != nil {
		errs = append(errs, fmt.Errorf("checkout: %w", err))
	}
	if c.Payments.WebhookCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("payments.webhookCacheSize must be positive: %d", c.Payments.WebhookCacheSize))
	}

	return errors.Join(errs...)
}

// Policy converts the checkout section into the pricing rules used at order
// placement. Amounts must fit the currency's minor unit.
func (c CheckoutConfig) Policy() (app.CheckoutPolicy, error) {
	var errs []error

	taxRate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		errs = append(errs, fmt.Errorf("taxRate: %w", err))
	} else if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		errs = append(errs, fmt.Errorf("taxRate must be in [0, 1): %s", taxRate))
	}

	flat, err := c.money("flatShipping", c.FlatShipping)
	if err != nil {
		errs = append(errs, err)
	}

	threshold, err := c.money("freeShippingThreshold", c.FreeShippingThreshold)
	if err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return app.CheckoutPolicy{}, err
	}

	return app.CheckoutPolicy{
		TaxRate:               taxRate,
		FlatShipping:          flat,
		FreeShippingThreshold: threshold,
	}, nil
}

func (c CheckoutConfig) money(field, amount string) (domain.Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Money{}, fmt.Errorf("%s: %w", field, err)
	}
	if d.IsNegative() {
		return domain.Money{}, fmt.Errorf("%s must not be negative: %s", field, d)
	}

	m, err := domain.NewMoney(d, c.Currency)
	if err != nil {
		return domain.Money{}, fmt.Errorf("%s: %w", field, err)
	}
	return m, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
