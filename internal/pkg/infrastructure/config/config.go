// Package config provides configuration management for the tag data service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//Config holds all settings needed to run the service
type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Log      LogConfig
	CORS     CORSConfig
}

//ServiceConfig holds the http listener settings
type ServiceConfig struct {
	Port int
}

//DatabaseConfig selects and configures the relational store
type DatabaseConfig struct {
	Driver       string
	Host         string
	User         string
	Name         string
	Password     string
	SSLMode      string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
}

//AuthConfig holds the bearer token verification settings
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

//LogConfig controls the logrus output
type LogConfig struct {
	Level  string
	Format string
}

//CORSConfig lists the origins allowed to call the api from a browser
type CORSConfig struct {
	AllowedOrigins []string
}

const envPrefix = "TAGDATA"

// legacyEnv keeps the environment variable names used by the device registry deployments working
var legacyEnv = map[string]string{
	"service.port": "SERVICE_PORT",
	"db.host":      "DEVREG_DB_HOST",
	"db.user":      "DEVREG_DB_USER",
	"db.name":      "DEVREG_DB_NAME",
	"db.password":  "DEVREG_DB_PASSWORD",
	"db.sslmode":   "DEVREG_DB_SSLMODE",
}

//Load reads configuration with defaults < config file < environment precedence.
//CLI flags are applied by the caller on the returned Config.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("service.port", 8880)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.sslmode", "require")
	v.SetDefault("db.max_open_conns", 16)
	v.SetDefault("db.max_idle_conns", 4)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy); err != nil {
			return nil, err
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if v.InConfig("auth.secret") {
			return nil, fmt.Errorf("auth secret not allowed in config files (use %s_AUTH_SECRET environment variable)", envPrefix)
		}
	}

	cfg := &Config{
		Service: ServiceConfig{
			Port: v.GetInt("service.port"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(v.GetString("db.driver")),
			Host:         v.GetString("db.host"),
			User:         v.GetString("db.user"),
			Name:         v.GetString("db.name"),
			Password:     v.GetString("db.password"),
			SSLMode:      v.GetString("db.sslmode"),
			Path:         v.GetString("db.path"),
			MaxOpenConns: v.GetInt("db.max_open_conns"),
			MaxIdleConns: v.GetInt("db.max_idle_conns"),
		},
		Auth: AuthConfig{
			Secret:   v.GetString("auth.secret"),
			TokenTTL: v.GetDuration("auth.token_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		},
	}

	return cfg, nil
}

//Validate checks the settings that the service cannot start without
func (cfg *Config) Validate() error {
	if cfg.Service.Port <= 0 || cfg.Service.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Service.Port)
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" {
			return fmt.Errorf("db.host is required for the postgres driver")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s (expected postgres or sqlite)", cfg.Database.Driver)
	}

	if cfg.Auth.Secret == "" {
		return fmt.Errorf("no auth secret configured (set %s_AUTH_SECRET environment variable)", envPrefix)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive, got %v", cfg.Auth.TokenTTL)
	}

	return nil
}
