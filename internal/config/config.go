package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/careloop/booking-api/internal/email"
	"github.com/careloop/booking-api/pkg/auth"
	"github.com/careloop/booking-api/pkg/messaging/redis"
	"github.com/careloop/booking-api/pkg/validator"
	"github.com/careloop/booking-api/pkg/worker"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Outbox    OutboxConfig    `mapstructure:"outbox"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port" envconfig:"SERVER_PORT" validate:"required,min=1,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" envconfig:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" envconfig:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST" validate:"required"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT" validate:"required"`
	User     string `mapstructure:"user" envconfig:"DB_USER" validate:"required"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME" validate:"required"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

type JWTConfig struct {
	Secret             string `mapstructure:"secret" envconfig:"JWT_SECRET" validate:"required"`
	RefreshSecret      string `mapstructure:"refresh_secret" envconfig:"JWT_REFRESH_SECRET" validate:"required"`
	ExpiryHours        int    `mapstructure:"expiry_hours" envconfig:"JWT_EXPIRY_HOURS"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours" envconfig:"JWT_REFRESH_EXPIRY_HOURS"`
}

type SMTPConfig struct {
	Host        string `mapstructure:"host" envconfig:"SMTP_HOST"`
	Port        int    `mapstructure:"port" envconfig:"SMTP_PORT"`
	Username    string `mapstructure:"username" envconfig:"SMTP_USERNAME"`
	Password    string `mapstructure:"password" envconfig:"SMTP_PASSWORD"`
	From        string `mapstructure:"from" envconfig:"SMTP_FROM"`
	FrontendURL string `mapstructure:"frontend_url" envconfig:"FRONTEND_URL"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type AuthConfig struct {
	GoogleClientID string `mapstructure:"google_client_id" envconfig:"GOOGLE_CLIENT_ID"`
}

// LoadConfig reads config.yml from the usual locations, then applies
// environment variable overrides.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to apply env overrides: %w", err)
	}

	if err := validator.New().Validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func (c *JWTConfig) ToAuthConfig() auth.Config {
	return auth.Config{
		Secret:        c.Secret,
		RefreshSecret: c.RefreshSecret,
		Expiry:        time.Duration(c.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(c.RefreshExpiryHours) * time.Hour,
	}
}

func (c *SMTPConfig) ToEmailConfig() email.SMTPConfig {
	return email.SMTPConfig{
		Host:        c.Host,
		Port:        c.Port,
		Username:    c.Username,
		Password:    c.Password,
		From:        c.From,
		FrontendURL: c.FrontendURL,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}

func (c *OutboxConfig) ToWorkerConfig() worker.OutboxProcessorConfig {
	return worker.OutboxProcessorConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		RetryAttempts: c.RetryAttempts,
		RetryDelay:    c.RetryDelay,
	}
}
