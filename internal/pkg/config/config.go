package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/deadline-assistant/deadline-assistant/internal/pkg/env"
)

const DefaultVersion = "0.1.0"

// Config is the typed runtime configuration of the service. It is built once in
// the wiring root and handed to the components that need it.
type Config struct {
	AppHost    string `validate:"required"`
	AppPort    string `validate:"required,numeric"`
	AppEnv     string `validate:"oneof=dev test prod"`
	AppVersion string `validate:"required"`
	AppURL     string `validate:"required,url"`

	DB       DatabaseConfig
	Cache    CacheConfig
	OpenAI   OpenAIConfig
	Stripe   StripeConfig
	Features FeatureFlags
	Limits   RateLimits
	Monitor  MonitorConfig
	Proofs   ProofStorageConfig
}

type DatabaseConfig struct {
	User        string
	Password    string
	Host        string `validate:"required"`
	Port        string `validate:"required,numeric"`
	Name        string
	AutoMigrate bool
}

// DSN returns the go-sql-driver/mysql data source name.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// MigrateURL returns the golang-migrate connection URL.
func (d DatabaseConfig) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type CacheConfig struct {
	Host     string `validate:"required"`
	Port     int    `validate:"min=1,max=65535"`
	Password string
}

func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type OpenAIConfig struct {
	APIKey  string
	Model   string        `validate:"required"`
	BaseURL string        `validate:"omitempty,url"`
	Timeout time.Duration `validate:"min=1s"`
}

type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	PriceID        string
	PaymentLinkURL string `validate:"omitempty,url"`
}

type FeatureFlags struct {
	BillingLink       bool
	TelemetryFeedback bool
}

type RateLimits struct {
	APIPerMinute     int `validate:"min=1"`
	AIDraftPerMinute int `validate:"min=1"`
}

type MonitorConfig struct {
	User     string
	Password string
}

// ProofStorageConfig points at the S3 compatible bucket that stores payment
// proofs. Uploads are disabled unless Enabled is set.
type ProofStorageConfig struct {
	Enabled         bool
	AccessKeyID     string `validate:"required_if=Enabled true"`
	SecretAccessKey string `validate:"required_if=Enabled true"`
	Region          string
	BucketName      string `validate:"required_if=Enabled true"`
	EndpointURL     string `validate:"omitempty,url"`
	PublicBaseURL   string `validate:"omitempty,url"`
}

var validate = validator.New()

// Load reads configuration from the loaded .env map and the process environment.
func Load() (*Config, error) {
	cfg := &Config{
		AppHost:    env.GetEnv("APP_HOST", "localhost"),
		AppPort:    env.GetEnv("APP_PORT", "4000"),
		AppEnv:     env.GetEnv("APP_ENV", "prod"),
		AppVersion: env.GetEnv("APP_VERSION", DefaultVersion),
		AppURL:     strings.TrimRight(env.GetEnv("APP_URL", "http://localhost:4000"), "/"),
		DB: DatabaseConfig{
			User:        env.GetEnv("DB_USER", "assistant"),
			Password:    env.GetEnv("DB_PASSWORD", ""),
			Host:        env.GetEnv("DB_HOST", "127.0.0.1"),
			Port:        env.GetEnv("DB_PORT", "3306"),
			Name:        env.GetEnv("DB_NAME", "assistant"),
			AutoMigrate: env.GetBool("DB_AUTO_MIGRATE", false),
		},
		Cache: CacheConfig{
			Host:     env.GetEnv("CACHE_HOST", "localhost"),
			Port:     env.GetInt("CACHE_PORT", 6379),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:  env.GetEnv("OPENAI_API_KEY", ""),
			Model:   env.GetEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			BaseURL: env.GetEnv("OPENAI_BASE_URL", ""),
			Timeout: env.GetDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		Stripe: StripeConfig{
			SecretKey:      env.GetEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:  env.GetEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceID:        env.GetEnv("STRIPE_PRICE_ID", ""),
			PaymentLinkURL: env.GetEnv("STRIPE_PAYMENT_LINK_URL", ""),
		},
		Features: FeatureFlags{
			BillingLink:       env.GetBool("FEATURE_BILLING_LINK", false),
			TelemetryFeedback: env.GetBool("FEATURE_TELEMETRY_FEEDBACK", false),
		},
		Limits: RateLimits{
			APIPerMinute:     env.GetInt("RATE_LIMIT_API_PER_MINUTE", 120),
			AIDraftPerMinute: env.GetInt("RATE_LIMIT_AI_PER_MINUTE", 10),
		},
		Monitor: MonitorConfig{
			User:     env.GetEnv("MONITOR_USER", "admin"),
			Password: env.GetEnv("MONITOR_PASSWORD", ""),
		},
		Proofs: ProofStorageConfig{
			Enabled:         env.GetBool("S3_PROOFS_ENABLED", false),
			AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
			Region:          env.GetEnv("S3_REGION", "us-east-1"),
			BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
			EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
			PublicBaseURL:   strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/"),
		},
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.AppHost, c.AppPort)
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "dev"
}
