// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables, a .env file and
// config.yaml using Viper.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/hpn/hpn-chat-adapter/internal/adapter"
	"github.com/hpn/hpn-chat-adapter/internal/domain"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Model configuration
	Model ModelConfig `json:"model" mapstructure:"model"`

	// Tools registered on the adapter at startup, in order.
	Tools []domain.Tool `json:"tools" mapstructure:"tools"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeout is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// ModelConfig holds the remote model settings.
type ModelConfig struct {
	// Name is the model identifier (e.g. gpt-4o-mini).
	Name string `json:"name" mapstructure:"name"`

	// Temperature is forwarded unchanged to the remote API.
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// APIKey is the credential. It is never serialized back out.
	APIKey string `json:"-" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint (empty for the default).
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds bounds a single remote call.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
// Only the first call decides the path.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// Load reads a fresh Configuration without touching the singleton.
func Load(configPath string) (*Configuration, error) {
	return loadConfig(configPath)
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if required fields are missing.
// The credential is not checked here; adapter.New reports it.
func (c *Configuration) Validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	if c.Model.Name == "" {
		validationErrors = append(validationErrors, "model.name is required")
	}

	if c.Model.TimeoutSeconds < 0 {
		validationErrors = append(validationErrors, "model.timeout_seconds cannot be negative")
	}

	seen := make(map[string]int, len(c.Tools))
	for i, tool := range c.Tools {
		if tool.Name == "" {
			validationErrors = append(validationErrors, fmt.Sprintf("tools[%d].name is required", i))
			continue
		}
		if j, dup := seen[tool.Name]; dup {
			validationErrors = append(validationErrors, fmt.Sprintf(
				"tools[%d].name '%s' duplicates tools[%d]", i, tool.Name, j,
			))
		}
		seen[tool.Name] = i
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}

	if c.Logging.Format != "" && !isValidLogFormat(c.Logging.Format) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format '%s' is invalid, must be one of: json, text",
			c.Logging.Format,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidLogFormat(format string) bool {
	return format == "json" || format == "text"
}

// AdapterConfig converts the model and tools sections into adapter settings.
func (c *Configuration) AdapterConfig() adapter.Config {
	return adapter.Config{
		Model:       c.Model.Name,
		Temperature: c.Model.Temperature,
		APIKey:      c.Model.APIKey,
		BaseURL:     c.Model.BaseURL,
		Timeout:     time.Duration(c.Model.TimeoutSeconds) * time.Second,
		Tools:       c.Tools,
	}
}

// Addr returns the host:port the server listens on.
func (c *Configuration) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
