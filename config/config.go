package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Environment          string `mapstructure:"ENVIRONMENT"`
	ServerPort           int    `mapstructure:"SERVER_PORT"`
	DatabaseDbPath       string `mapstructure:"DATABASE_DB_PATH"`
	DatabaseCacheAddress string `mapstructure:"DATABASE_CACHE_ADDRESS"`
	DatabaseCachePort    int    `mapstructure:"DATABASE_CACHE_PORT"`
	CorsAllowedOrigins   string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	PublicBaseURL        string `mapstructure:"PUBLIC_BASE_URL"`
	APIBaseURL           string `mapstructure:"API_BASE_URL"`
}

var keys = []string{
	"ENVIRONMENT",
	"SERVER_PORT",
	"DATABASE_DB_PATH",
	"DATABASE_CACHE_ADDRESS",
	"DATABASE_CACHE_PORT",
	"CORS_ALLOWED_ORIGINS",
	"PUBLIC_BASE_URL",
	"API_BASE_URL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SERVER_PORT", 8288)
	v.SetDefault("DATABASE_DB_PATH", "data/customers.db")
	v.SetDefault("DATABASE_CACHE_ADDRESS", "")
	v.SetDefault("DATABASE_CACHE_PORT", 6379)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5173")
	v.SetDefault("API_BASE_URL", "http://localhost:8288")
}

// InitConfig reads an optional .env file, then the process environment.
func InitConfig() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees keys viper knows about, AutomaticEnv alone is not enough.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("failed to bind env %s: %w", key, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server port: %d", c.ServerPort)
	}
	if c.DatabaseDbPath == "" {
		return fmt.Errorf("database path is empty")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) CacheEnabled() bool {
	return c.DatabaseCacheAddress != ""
}

func (c Config) CacheAddress() string {
	return fmt.Sprintf("%s:%d", c.DatabaseCacheAddress, c.DatabaseCachePort)
}
