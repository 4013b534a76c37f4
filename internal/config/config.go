package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/innovatehub/campaign-mailer/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Sender    SenderConfig    `yaml:"sender"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	SES       SESConfig       `yaml:"ses"`
	Mailgun   MailgunConfig   `yaml:"mailgun"`
	Resend    ResendConfig    `yaml:"resend"`
	Links     LinksConfig     `yaml:"links"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// Addr returns host:port for http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SMTPConfig holds transport credentials for the SMTP delivery client.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// SSL forces implicit TLS; otherwise STARTTLS is used when offered.
	SSL bool `yaml:"ssl"`
}

// SenderConfig is the identity used when a campaign names none.
type SenderConfig struct {
	Name    string `yaml:"name"`
	Email   string `yaml:"email"`
	ReplyTo string `yaml:"reply_to"`
}

// Delivery providers.
const (
	ProviderSMTP    = "smtp"
	ProviderSES     = "ses"
	ProviderMailgun = "mailgun"
	ProviderResend  = "resend"
	ProviderLog     = "log"
)

// DeliveryConfig controls how the dispatcher drives the delivery client.
type DeliveryConfig struct {
	Provider           string `yaml:"provider"`
	Concurrency        int    `yaml:"concurrency"`
	SendTimeoutSeconds int    `yaml:"send_timeout_seconds"`

	// Provider quotas shared across instances through Redis. Zero means
	// unlimited; all zero disables the quota check.
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	DailyLimit   int `yaml:"daily_limit"`
}

// QuotaEnabled reports whether any provider quota is set.
func (c DeliveryConfig) QuotaEnabled() bool {
	return c.MaxPerSecond > 0 || c.MaxPerMinute > 0 || c.DailyLimit > 0
}

// SendTimeout returns the per-recipient send timeout as a duration
func (c DeliveryConfig) SendTimeout() time.Duration {
	return time.Duration(c.SendTimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// MailgunConfig holds Mailgun API configuration
type MailgunConfig struct {
	APIKey  string `yaml:"api_key"`
	Domain  string `yaml:"domain"`
	BaseURL string `yaml:"base_url"`
}

// ResendConfig holds Resend API configuration
type ResendConfig struct {
	APIKey string `yaml:"api_key"`
}

// LinksConfig holds the public URLs embedded in rendered emails.
type LinksConfig struct {
	UnsubscribeURL string `yaml:"unsubscribe_url"`
}

// RedisConfig locates the Redis instance backing suppression, tracking and
// rate limiting. An empty URL and Addr disables those features.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled reports whether a Redis location is configured.
func (c RedisConfig) Enabled() bool {
	return c.URL != "" || c.Addr != ""
}

// Options converts the config into go-redis client options. URL wins over Addr.
func (c RedisConfig) Options() (*redis.Options, error) {
	if c.URL != "" {
		opts, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opts, nil
	}
	if c.Addr == "" {
		return nil, errors.New("redis is not configured")
	}
	return &redis.Options{Addr: c.Addr, Password: c.Password, DB: c.DB}, nil
}

// RateLimitConfig holds the per-IP limit for the campaign endpoint.
type RateLimitConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"window_seconds"`
}

// Window returns the rate limit window as a duration
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// TrackingConfig holds settings for the tracking service.
type TrackingConfig struct {
	Port        int    `yaml:"port"`
	SQSQueueURL string `yaml:"sqs_queue_url"`
	SQSRegion   string `yaml:"sqs_region"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.Sender.Name == "" {
		cfg.Sender.Name = domain.DefaultSenderName
	}
	if cfg.Sender.Email == "" {
		cfg.Sender.Email = domain.DefaultSenderEmail
	}
	if cfg.Sender.ReplyTo == "" {
		cfg.Sender.ReplyTo = domain.DefaultReplyTo
	}
	if cfg.Delivery.Provider == "" {
		cfg.Delivery.Provider = ProviderSMTP
	}
	if cfg.Delivery.Concurrency <= 0 {
		cfg.Delivery.Concurrency = 1
	}
	if cfg.Delivery.SendTimeoutSeconds == 0 {
		cfg.Delivery.SendTimeoutSeconds = 60
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "ap-southeast-1"
	}
	if cfg.Links.UnsubscribeURL == "" {
		cfg.Links.UnsubscribeURL = "https://innovatehub.ph/unsubscribe"
	}
	if cfg.RateLimit.WindowSeconds == 0 {
		cfg.RateLimit.WindowSeconds = 60
	}
	if cfg.Tracking.Port == 0 {
		cfg.Tracking.Port = 8081
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars.
// An empty path starts from defaults instead of a file.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	var errs []error
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
	setBool := func(key string, dst *bool) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}

	setInt("PORT", &cfg.Server.Port)
	setString("HOST", &cfg.Server.Host)

	setString("SMTP_HOST", &cfg.SMTP.Host)
	setInt("SMTP_PORT", &cfg.SMTP.Port)
	setString("SMTP_USER", &cfg.SMTP.Username)
	setString("SMTP_USERNAME", &cfg.SMTP.Username)
	setString("SMTP_PASSWORD", &cfg.SMTP.Password)
	setBool("SMTP_SSL", &cfg.SMTP.SSL)

	setString("DELIVERY_PROVIDER", &cfg.Delivery.Provider)
	setInt("DELIVERY_CONCURRENCY", &cfg.Delivery.Concurrency)
	setInt("DELIVERY_MAX_PER_SECOND", &cfg.Delivery.MaxPerSecond)
	setInt("DELIVERY_MAX_PER_MINUTE", &cfg.Delivery.MaxPerMinute)
	setInt("DELIVERY_DAILY_LIMIT", &cfg.Delivery.DailyLimit)
	setString("SENDER_NAME", &cfg.Sender.Name)
	setString("SENDER_EMAIL", &cfg.Sender.Email)
	setString("REPLY_TO", &cfg.Sender.ReplyTo)

	setString("AWS_SES_ACCESS_KEY", &cfg.SES.AccessKey)
	setString("AWS_SES_SECRET_KEY", &cfg.SES.SecretKey)
	setString("AWS_SES_REGION", &cfg.SES.Region)
	setString("MAILGUN_API_KEY", &cfg.Mailgun.APIKey)
	setString("MAILGUN_DOMAIN", &cfg.Mailgun.Domain)
	setString("MAILGUN_BASE_URL", &cfg.Mailgun.BaseURL)
	setString("RESEND_API_KEY", &cfg.Resend.APIKey)

	setString("UNSUBSCRIBE_URL", &cfg.Links.UnsubscribeURL)
	setString("REDIS_URL", &cfg.Redis.URL)
	setInt("RATE_LIMIT_REQUESTS", &cfg.RateLimit.Requests)
	setString("SQS_TRACKING_QUEUE_URL", &cfg.Tracking.SQSQueueURL)
	setInt("TRACKING_PORT", &cfg.Tracking.Port)
	setString("LOG_LEVEL", &cfg.Logging.Level)

	cfg.Delivery.Provider = strings.ToLower(strings.TrimSpace(cfg.Delivery.Provider))
	return errors.Join(errs...)
}

// Validate checks that the selected delivery provider has what it needs.
func (cfg *Config) Validate() error {
	var errs []error
	switch cfg.Delivery.Provider {
	case ProviderSMTP:
		if cfg.SMTP.Host == "" {
			errs = append(errs, errors.New("smtp.host is required for the smtp provider"))
		}
	case ProviderSES:
		if (cfg.SES.AccessKey == "") != (cfg.SES.SecretKey == "") {
			errs = append(errs, errors.New("ses.access_key and ses.secret_key must be set together"))
		}
	case ProviderMailgun:
		if cfg.Mailgun.APIKey == "" || cfg.Mailgun.Domain == "" {
			errs = append(errs, errors.New("mailgun.api_key and mailgun.domain are required for the mailgun provider"))
		}
	case ProviderResend:
		if cfg.Resend.APIKey == "" {
			errs = append(errs, errors.New("resend.api_key is required for the resend provider"))
		}
	case ProviderLog:
	default:
		errs = append(errs, fmt.Errorf("unknown delivery provider %q", cfg.Delivery.Provider))
	}
	if cfg.Sender.Email == "" {
		errs = append(errs, errors.New("sender.email is required"))
	}
	return errors.Join(errs...)
}
