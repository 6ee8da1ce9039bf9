package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	AI      AIConfig      `mapstructure:"ai"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// AppConfig holds application settings
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	RequestTimeout  string `mapstructure:"request_timeout"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout"`
}

// MongoConfig holds document store settings. The store is read-only for this
// service; the URI should carry a read-scoped user.
type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
	Timeout  string `mapstructure:"timeout"`
}

// AIConfig holds generation backend settings
type AIConfig struct {
	APIKey string `mapstructure:"api_key"`
	// Models is the prioritized list tried by the planner: primary first,
	// then faster/cheaper fallbacks.
	Models         []string `mapstructure:"models"`
	MaxTokens      int      `mapstructure:"max_tokens"`
	RetryAttempts  int      `mapstructure:"retry_attempts"`
	InitialBackoff string   `mapstructure:"initial_backoff"`
	CallTimeout    string   `mapstructure:"call_timeout"`
	// EnrichAnswers enables the best-effort phrasing and role-classification
	// calls; the heuristic paths run regardless.
	EnrichAnswers bool `mapstructure:"enrich_answers"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level     string `mapstructure:"level"`
	EnableLog bool   `mapstructure:"enable_log"`
	LogDir    string `mapstructure:"log_dir"`
}

// Load loads configuration from environment and files
func Load() (*Config, error) {
	viper.SetDefault("app.name", "fabriq AI Query")
	viper.SetDefault("app.version", "1.0.0")

	viper.SetDefault("server.addr", ":8085")
	viper.SetDefault("server.request_timeout", "90s")
	viper.SetDefault("server.shutdown_timeout", "10s")

	viper.SetDefault("mongo.database", "fabriq")
	viper.SetDefault("mongo.timeout", "15s")

	viper.SetDefault("ai.models", []string{"gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo"})
	viper.SetDefault("ai.max_tokens", 1024)
	viper.SetDefault("ai.retry_attempts", 4)
	viper.SetDefault("ai.initial_backoff", "250ms")
	viper.SetDefault("ai.call_timeout", "30s")
	viper.SetDefault("ai.enrich_answers", true)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.enable_log", true)
	viper.SetDefault("logging.log_dir", "./logs")

	// Bind environment variables
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from environment
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		viper.Set("ai.api_key", apiKey)
	}
	if uri := os.Getenv("MONGO_CONNECTION_STRING"); uri != "" {
		viper.Set("mongo.uri", uri)
	}

	// Try to read config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Duration parses a duration string with a fallback.
func Duration(s string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return fallback
}
