/**
 * @description
 * This file handles configuration management for the recurring donation
 * service. It uses the 'viper' library to load configuration from environment
 * variables, providing a centralized and consistent way to manage settings.
 */
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	ServerPort     string `mapstructure:"SERVER_PORT"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	RabbitMQURL    string `mapstructure:"RABBITMQ_URL"`
	InternalAPIKey string `mapstructure:"INTERNAL_API_KEY"`

	// CronEnabled turns on the embedded trigger; deployments using an
	// external scheduler hitting the HTTP trigger leave it off.
	CronEnabled  bool   `mapstructure:"CRON_ENABLED"`
	CronSchedule string `mapstructure:"CRON_SCHEDULE"`

	WorkerCount          int    `mapstructure:"WORKER_COUNT"`
	SettleTimeoutSeconds int    `mapstructure:"SETTLE_TIMEOUT_SECONDS"`
	MigrationsPath       string `mapstructure:"MIGRATIONS_PATH"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("CRON_ENABLED", false)
	viper.SetDefault("CRON_SCHEDULE", "* * * * *") // Once per minute, the platform convention.
	viper.SetDefault("WORKER_COUNT", 4)
	viper.SetDefault("SETTLE_TIMEOUT_SECONDS", 10)
	viper.SetDefault("MIGRATIONS_PATH", "migrations")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("CRON_ENABLED")
	_ = viper.BindEnv("CRON_SCHEDULE")
	_ = viper.BindEnv("WORKER_COUNT")
	_ = viper.BindEnv("SETTLE_TIMEOUT_SECONDS")
	_ = viper.BindEnv("MIGRATIONS_PATH")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return &config, nil
}
