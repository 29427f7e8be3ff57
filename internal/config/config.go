package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the client configuration
type Config struct {
	API     APIConfig
	Storage StorageConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type StorageConfig struct {
	Path       string
	Passphrase string
}

type LogConfig struct {
	Level string
}

// Load loads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("HEALTH_API_BASE_URL", "http://localhost:8000/api/v1")
	viper.SetDefault("HEALTH_API_TIMEOUT", 30)
	viper.SetDefault("HEALTH_STORAGE_PATH", ".healthadmin/session.json")
	viper.SetDefault("HEALTH_LOG_LEVEL", "info")

	cfg := &Config{
		API: APIConfig{
			BaseURL:        viper.GetString("HEALTH_API_BASE_URL"),
			RequestTimeout: time.Duration(viper.GetInt("HEALTH_API_TIMEOUT")) * time.Second,
		},
		Storage: StorageConfig{
			Path:       viper.GetString("HEALTH_STORAGE_PATH"),
			Passphrase: viper.GetString("HEALTH_STORAGE_PASSPHRASE"),
		},
		Log: LogConfig{
			Level: viper.GetString("HEALTH_LOG_LEVEL"),
		},
	}

	return cfg, nil
}
