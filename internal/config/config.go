package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/academypay/academypay/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Stripe     StripeConfig
	Billing    BillingConfig `validate:"required"`
	Queue      QueueConfig   `validate:"required"`
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type StripeConfig struct {
	SecretKey string
}

// BillingConfig tunes the two periodic sweeps. Lookahead windows keep
// renewals slightly ahead of expiry so no entitlement gap opens.
type BillingConfig struct {
	RenewalLookahead time.Duration `mapstructure:"renewal_lookahead"`
	ChargeLookahead  time.Duration `mapstructure:"charge_lookahead"`
	SweepBatchSize   int           `mapstructure:"sweep_batch_size"`
	SweepWorkers     int           `mapstructure:"sweep_workers"`
}

// QueueConfig is the retry policy for job execution. Only infrastructure
// errors are retried; business aborts never re-enter the queue.
type QueueConfig struct {
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/academypay")

	v.SetEnvPrefix("ACADEMYPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("billing.renewal_lookahead", time.Hour)
	v.SetDefault("billing.charge_lookahead", time.Hour)
	v.SetDefault("billing.sweep_batch_size", 100)
	v.SetDefault("billing.sweep_workers", 8)
	v.SetDefault("queue.max_retries", 5)
	v.SetDefault("queue.initial_interval", time.Second)
	v.SetDefault("queue.max_interval", time.Minute)
	v.SetDefault("queue.multiplier", 2.0)
	v.SetDefault("queue.max_elapsed_time", 10*time.Minute)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests. Useful for scripts and other non-web entrypoints.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelInfo},
		Postgres:   PostgresConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		Billing: BillingConfig{
			RenewalLookahead: time.Hour,
			ChargeLookahead:  time.Hour,
			SweepBatchSize:   100,
			SweepWorkers:     8,
		},
		Queue: QueueConfig{
			MaxRetries:      5,
			InitialInterval: time.Second,
			MaxInterval:     time.Minute,
			Multiplier:      2.0,
			MaxElapsedTime:  10 * time.Minute,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
