package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Booking  BookingConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// AvailabilityTTL bounds how stale a cached availability read may be.
	// Zero disables the cache.
	AvailabilityTTL time.Duration
}

type RabbitMQConfig struct {
	URL string
}

type BookingConfig struct {
	// HoldTTL is how long a seat hold survives before the sweeper releases
	// it. Zero disables timed holds.
	HoldTTL time.Duration

	// SweepInterval is how often expired holds are swept.
	SweepInterval time.Duration

	// ReleaseRetryBase is the initial backoff of the compensating release
	// path; each retry doubles it.
	ReleaseRetryBase time.Duration
	ReleaseRetryMax  int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("AVAILABILITY_CACHE_TTL_SECONDS", 5)
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("HOLD_TTL_MINUTES", 0)
	viper.SetDefault("HOLD_SWEEP_INTERVAL_SECONDS", 30)
	viper.SetDefault("RELEASE_RETRY_BASE_MS", 100)
	viper.SetDefault("RELEASE_RETRY_MAX", 5)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:            viper.GetString("REDIS_ADDR"),
			Password:        viper.GetString("REDIS_PASSWORD"),
			DB:              viper.GetInt("REDIS_DB"),
			AvailabilityTTL: time.Duration(viper.GetInt("AVAILABILITY_CACHE_TTL_SECONDS")) * time.Second,
		},
		RabbitMQ: RabbitMQConfig{
			URL: viper.GetString("RABBITMQ_URL"),
		},
		Booking: BookingConfig{
			HoldTTL:          time.Duration(viper.GetInt("HOLD_TTL_MINUTES")) * time.Minute,
			SweepInterval:    time.Duration(viper.GetInt("HOLD_SWEEP_INTERVAL_SECONDS")) * time.Second,
			ReleaseRetryBase: time.Duration(viper.GetInt("RELEASE_RETRY_BASE_MS")) * time.Millisecond,
			ReleaseRetryMax:  viper.GetInt("RELEASE_RETRY_MAX"),
		},
	}

	return config, nil
}
