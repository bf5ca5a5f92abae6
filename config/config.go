package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppEnv          string
	AppPort         string
	ShutdownTimeout time.Duration

	// MongoDB
	MongoURI string
	MongoDB  string

	// Redis
	RedisAddr   string
	RedisPwd    string
	RedisDB     int
	RedisPrefix string

	// Kafka relay (optional; empty broker list disables cross-instance fan-out)
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// JWT
	JWTSecret string
}

// Load reads configuration from config.yaml, overridable by environment
// variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("SHUTDOWN_TIMEOUT", 10)
	viper.SetDefault("MONGO_DB", "automatehub")
	viper.SetDefault("REDIS_PREFIX", "messaging")
	viper.SetDefault("KAFKA_TOPIC", "messaging_events")
	viper.SetDefault("KAFKA_GROUP_ID", "messaging-relay")

	// A missing config file is fine; env vars alone may carry everything.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		AppEnv:          viper.GetString("APP_ENV"),
		AppPort:         viper.GetString("APP_PORT"),
		ShutdownTimeout: viper.GetDuration("SHUTDOWN_TIMEOUT") * time.Second,
		MongoURI:        viper.GetString("MONGO_URI"),
		MongoDB:         viper.GetString("MONGO_DB"),
		RedisAddr:       viper.GetString("REDIS_ADDR"),
		RedisPwd:        viper.GetString("REDIS_PASSWORD"),
		RedisDB:         viper.GetInt("REDIS_DB"),
		RedisPrefix:     viper.GetString("REDIS_PREFIX"),
		KafkaBrokers:    viper.GetStringSlice("KAFKA_BROKERS"),
		KafkaTopic:      viper.GetString("KAFKA_TOPIC"),
		KafkaGroupID:    viper.GetString("KAFKA_GROUP_ID"),
		JWTSecret:       viper.GetString("JWT_SECRET"),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

// Development reports whether the service runs with a development logger.
func (c *Config) Development() bool {
	return c.AppEnv != "production"
}

// RelayEnabled reports whether the Kafka cross-instance relay is configured.
func (c *Config) RelayEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// PresenceEnabled reports whether the Redis presence store is configured.
// An empty address runs the service without online-status tracking.
func (c *Config) PresenceEnabled() bool {
	return c.RedisAddr != ""
}
