// Package config loads process configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Skufu/glucorisk/internal/database"
)

const (
	productionAddr  = "0.0.0.0:6969"
	developmentAddr = "127.0.0.1:5000"
)

// ErrProduction is returned when PRODUCTION is neither TRUE nor FALSE.
var ErrProduction = errors.New("config: PRODUCTION must be TRUE or FALSE")

type Config struct {
	Production     bool
	BindAddr       string
	LogLevel       string
	DatasetPath    string
	Database       database.Config
	WorkerPoolSize int
	DatasetWatch   string
	OTelEnabled    bool
}

// GinMode returns the gin mode matching the deployment.
func (c *Config) GinMode() string {
	if c.Production {
		return "release"
	}
	return "debug"
}

// Load reads .env files (when present) and the process environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var production bool
	switch raw := v.GetString("PRODUCTION"); raw {
	case "TRUE":
		production = true
	case "FALSE":
		production = false
	default:
		return nil, fmt.Errorf("%w, got %q", ErrProduction, raw)
	}

	cfg := &Config{
		Production:  production,
		BindAddr:    strings.TrimSpace(v.GetString("BIND_ADDR")),
		LogLevel:    v.GetString("LOG_LEVEL"),
		DatasetPath: v.GetString("DATASET_PATH"),
		Database: database.Config{
			Driver: v.GetString("DB_DRIVER"),
			Path:   v.GetString("DB_PATH"),
			URL:    v.GetString("DATABASE_URL"),
		},
		WorkerPoolSize: v.GetInt("WORKER_POOL_SIZE"),
		DatasetWatch:   strings.TrimSpace(v.GetString("DATASET_WATCH")),
		OTelEnabled:    v.GetBool("OTEL_ENABLED"),
	}

	if cfg.BindAddr == "" {
		cfg.BindAddr = developmentAddr
		if production {
			cfg.BindAddr = productionAddr
		}
	}

	if strings.EqualFold(cfg.Database.Driver, database.DriverPostgres) && cfg.Database.URL == "" {
		return nil, fmt.Errorf("config: DATABASE_URL is required when DB_DRIVER=postgres")
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATASET_PATH", "assets/datasets.csv")
	v.SetDefault("DB_DRIVER", database.DriverSQLite)
	v.SetDefault("DB_PATH", "cached.sqlite")
	v.SetDefault("WORKER_POOL_SIZE", 0)
	v.SetDefault("DATASET_WATCH", "@every 1m")
	v.SetDefault("OTEL_ENABLED", false)
}
