package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds everything cmd/server needs. Values come from the
// environment, optionally seeded from a local .env file.
type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	MySQLDSN          string        `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/commerce?parseTime=true"`
	MySQLMaxOpenConns int           `envconfig:"MYSQL_MAX_OPEN_CONNS" default:"50"`
	MySQLMaxIdleConns int           `envconfig:"MYSQL_MAX_IDLE_CONNS" default:"25"`
	MySQLConnLifetime time.Duration `envconfig:"MYSQL_CONN_LIFETIME" default:"5m"`

	RedisAddr     string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPoolSize int           `envconfig:"REDIS_POOL_SIZE" default:"100"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"3s"`

	Migrate  bool   `envconfig:"MIGRATE" default:"true"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	// Missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
