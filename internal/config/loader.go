package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hpn/hpn-chat-adapter/internal/domain"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "HPN_ADAPTER"

	// EnvAPIKey is the conventional credential variable, read without prefix.
	EnvAPIKey = "OPENAI_API_KEY"

	// DotEnvFile is loaded from the working directory before anything else.
	DotEnvFile = ".env"
)

// loadConfig loads the configuration from environment variables and files.
// Priority order (highest to lowest):
// 1. Environment variables (prefixed with HPN_ADAPTER_, plus OPENAI_API_KEY)
// 2. .env in the working directory (exported into the process environment)
// 3. config.yaml
// 4. Default values
func loadConfig(configPath string) (*Configuration, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, &ConfigError{Op: "dotenv", Err: err}
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/hpn-chat-adapter")
		v.AddConfigPath("$HOME/.hpn-chat-adapter")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Prefixed override first, then the conventional unprefixed name.
	if err := v.BindEnv("model.api_key", envPrefix+"_MODEL_API_KEY", EnvAPIKey); err != nil {
		return nil, &ConfigError{Op: "bind_env", Err: err}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	if file := v.ConfigFileUsed(); file != "" {
		tools, err := loadTools(file)
		if err != nil {
			return nil, &ConfigError{Op: "tools", Err: err}
		}
		if tools != nil {
			cfg.Tools = *tools
		}
	}

	cfg.Model.Name = strings.TrimSpace(cfg.Model.Name)
	cfg.Model.APIKey = strings.TrimSpace(cfg.Model.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// loadTools re-reads the tools section of a YAML or JSON config file.
// Viper lowercases nested map keys, which corrupts JSON Schema keywords
// such as additionalProperties and camelCase property names. It returns nil
// when the file has no tools section or is in another format.
func loadTools(path string) (*[]domain.Tool, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc struct {
		Tools *[]domain.Tool `yaml:"tools"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode tools in %s: %w", path, err)
	}
	return doc.Tools, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 120)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Model defaults
	v.SetDefault("model.name", "gpt-4o-mini")
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.timeout_seconds", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// loadDotEnv exports the variables of a dotenv file into the process
// environment, overriding existing values. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Viper lowercases keys; environment names are conventionally upper case.
	for _, key := range v.AllKeys() {
		if err := os.Setenv(strings.ToUpper(key), v.GetString(key)); err != nil {
			return fmt.Errorf("failed to export %s: %w", strings.ToUpper(key), err)
		}
	}
	return nil
}
