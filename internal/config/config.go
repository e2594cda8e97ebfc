package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const envPrefix = "ADMISSIONS"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Email     EmailConfig     `mapstructure:"email"`
	Site      SiteConfig      `mapstructure:"site"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	Retention RetentionConfig `mapstructure:"retention"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	TimeoutSeconds int      `mapstructure:"timeoutSeconds"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EmailConfig selects the outbound provider. Provider is one of resend,
// sendgrid, smtp or log.
type EmailConfig struct {
	Provider string     `mapstructure:"provider"`
	APIKey   string     `mapstructure:"api_key"`
	From     string     `mapstructure:"from"`
	SMTP     SMTPConfig `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type SiteConfig struct {
	URL string `mapstructure:"url"`
}

type DispatchConfig struct {
	BatchSize int `mapstructure:"batch_size"`
	// WorkspaceTTL expires idle selection workspaces.
	WorkspaceTTL time.Duration `mapstructure:"workspace_ttl"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type RetentionConfig struct {
	MessageSends    time.Duration `mapstructure:"message_sends"`
	ProcessedEvents time.Duration `mapstructure:"processed_events"`
	Interval        time.Duration `mapstructure:"interval"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// secrets are read from the process environment after the file is loaded, so
// they never need to live in config.yaml.
type secrets struct {
	DBPassword    string `envconfig:"DB_PASSWORD"`
	JWTSecret     string `envconfig:"JWT_SECRET"`
	EmailAPIKey   string `envconfig:"EMAIL_API_KEY"`
	SMTPPassword  string `envconfig:"SMTP_PASSWORD"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeoutSeconds", 30)
	v.SetDefault("server.allowed_origins", []string{"https://admin.ufn.edu.mx"})
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("jwt.expiry_hours", 12)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("email.provider", "log")
	v.SetDefault("email.from", "Universidad Frontera Norte <admisiones@ufn.edu.mx>")
	v.SetDefault("email.smtp.port", 587)
	v.SetDefault("site.url", "https://ufn.edu.mx")
	v.SetDefault("dispatch.batch_size", 50)
	v.SetDefault("dispatch.workspace_ttl", 2*time.Hour)
	v.SetDefault("rate_limit.requests_per_minute", 10)
	v.SetDefault("rate_limit.burst", 5)
	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.poll_interval", 5*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", time.Second)
	// Send history is append-only unless an operator opts into pruning.
	v.SetDefault("retention.message_sends", 0)
	v.SetDefault("retention.processed_events", 7*24*time.Hour)
	v.SetDefault("retention.interval", 24*time.Hour)
	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from the working directory or ./config, lets
// ADMISSIONS_* variables override any key and finally applies secrets. A
// missing file is not an error.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var s secrets
	if err := envconfig.Process(envPrefix, &s); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	cfg.applySecrets(s)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applySecrets(s secrets) {
	if s.DBPassword != "" {
		c.Database.Password = s.DBPassword
	}
	if s.JWTSecret != "" {
		c.JWT.Secret = s.JWTSecret
	}
	if s.EmailAPIKey != "" {
		c.Email.APIKey = s.EmailAPIKey
	}
	if s.SMTPPassword != "" {
		c.Email.SMTP.Password = s.SMTPPassword
	}
	if s.RedisPassword != "" {
		c.Redis.Password = s.RedisPassword
	}
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.Dispatch.BatchSize <= 0 || c.Dispatch.BatchSize > 100 {
		return fmt.Errorf("dispatch batch size must be between 1 and 100, got %d", c.Dispatch.BatchSize)
	}
	switch c.Email.Provider {
	case "log":
	case "resend", "sendgrid":
		if c.Email.APIKey == "" {
			return fmt.Errorf("email api key is required for provider %q", c.Email.Provider)
		}
	case "smtp":
		if c.Email.SMTP.Host == "" {
			return fmt.Errorf("smtp host is required")
		}
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}
	return nil
}
