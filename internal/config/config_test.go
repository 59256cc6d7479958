package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hpn/hpn-chat-adapter/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Model.Name != "gpt-4o-mini" {
		t.Errorf("Model.Name = %q, want gpt-4o-mini", cfg.Model.Name)
	}
	if cfg.Model.Temperature != 0 {
		t.Errorf("Model.Temperature = %v, want 0", cfg.Model.Temperature)
	}
	if cfg.Model.TimeoutSeconds != 60 {
		t.Errorf("Model.TimeoutSeconds = %d, want 60", cfg.Model.TimeoutSeconds)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
	if cfg.Model.APIKey != "" {
		t.Errorf("Model.APIKey = %q, want empty", cfg.Model.APIKey)
	}
}

func TestLoad_FileValues(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	path := writeFile(t, "config.yaml", `
model:
  name: gpt-4o
  temperature: 0.7
  base_url: http://localhost:4000/v1
  timeout_seconds: 5
tools:
  - name: get_weather
    description: Current weather for a city
    parameters:
      type: object
      properties:
        city:
          type: string
  - name: get_time
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Model.Name != "gpt-4o" || cfg.Model.Temperature != 0.7 {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if len(cfg.Tools) != 2 {
		t.Fatalf("len(Tools) = %d, want 2", len(cfg.Tools))
	}
	if cfg.Tools[0].Name != "get_weather" || cfg.Tools[1].Name != "get_time" {
		t.Errorf("tool order = %s, %s", cfg.Tools[0].Name, cfg.Tools[1].Name)
	}
	if cfg.Tools[0].Parameters["type"] != "object" {
		t.Errorf("Tools[0].Parameters = %v", cfg.Tools[0].Parameters)
	}

	ac := cfg.AdapterConfig()
	if ac.Model != "gpt-4o" || ac.BaseURL != "http://localhost:4000/v1" {
		t.Errorf("AdapterConfig() = %+v", ac)
	}
	if ac.Timeout != 5*time.Second {
		t.Errorf("AdapterConfig().Timeout = %v, want 5s", ac.Timeout)
	}
	if len(ac.Tools) != 2 {
		t.Errorf("AdapterConfig().Tools len = %d, want 2", len(ac.Tools))
	}
}

func TestLoad_ToolSchemaKeepsCase(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	path := writeFile(t, "config.yaml", `
tools:
  - name: get_weather
    description: Current weather for a city
    parameters:
      type: object
      additionalProperties: false
      properties:
        cityName:
          type: string
      required: [cityName]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Tools) != 1 {
		t.Fatalf("len(Tools) = %d, want 1", len(cfg.Tools))
	}

	params := cfg.Tools[0].Parameters
	if v, ok := params["additionalProperties"]; !ok || v != false {
		t.Errorf("additionalProperties = %v (present %v), want false", v, ok)
	}
	props, ok := params["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties = %T, want map[string]any", params["properties"])
	}
	if _, ok := props["cityName"]; !ok {
		t.Errorf("properties = %v, want key cityName", props)
	}
	if req, ok := params["required"].([]any); !ok || len(req) != 1 || req[0] != "cityName" {
		t.Errorf("required = %v, want [cityName]", params["required"])
	}

	payload, err := json.Marshal(cfg.Tools[0])
	if err != nil {
		t.Fatalf("marshal tool: %v", err)
	}
	if !strings.Contains(string(payload), `"additionalProperties":false`) {
		t.Errorf("tool payload = %s", payload)
	}
}

func TestLoad_JSONToolSchemaKeepsCase(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	path := writeFile(t, "config.json", `{
  "tools": [{"name": "lookup", "parameters": {"type": "object", "properties": {"userId": {"type": "string"}}}}]
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Tools) != 1 {
		t.Fatalf("len(Tools) = %d, want 1", len(cfg.Tools))
	}
	props, _ := cfg.Tools[0].Parameters["properties"].(map[string]any)
	if _, ok := props["userId"]; !ok {
		t.Errorf("properties = %v, want key userId", props)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "model:\n  name: gpt-4o\n  api_key: from-file\n")

	t.Run("conventional credential variable", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "sk-from-env")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Model.APIKey != "sk-from-env" {
			t.Errorf("Model.APIKey = %q, want sk-from-env", cfg.Model.APIKey)
		}
	})

	t.Run("prefixed variables", func(t *testing.T) {
		t.Setenv(EnvAPIKey, "")
		t.Setenv("HPN_ADAPTER_MODEL_NAME", "gpt-4.1-mini")
		t.Setenv("HPN_ADAPTER_SERVER_PORT", "7070")
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Model.Name != "gpt-4.1-mini" {
			t.Errorf("Model.Name = %q, want gpt-4.1-mini", cfg.Model.Name)
		}
		if cfg.Server.Port != 7070 {
			t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
		}
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvAPIKey, "")

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if !IsConfigError(err) {
			t.Errorf("expected ConfigError, got %T: %v", err, err)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "server: [port\n")
		_, err := Load(path)
		if !IsConfigError(err) {
			t.Errorf("expected ConfigError, got %T: %v", err, err)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		path := writeFile(t, "config.yaml", "server:\n  port: 0\nlogging:\n  level: verbose\n")
		_, err := Load(path)
		if !IsValidationError(err) {
			t.Fatalf("expected ValidationError, got %T: %v", err, err)
		}
		ve := err.(*ValidationError)
		if !ve.HasError("server.port") || !ve.HasError("logging.level") {
			t.Errorf("errors = %v", ve.Errors)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() Configuration {
		return Configuration{
			Server:  ServerConfig{Port: 8080},
			Model:   ModelConfig{Name: "gpt-4o-mini"},
			Logging: LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Configuration)
		field   string
		wantErr bool
	}{
		{"valid", func(*Configuration) {}, "", false},
		{"no credential is fine", func(c *Configuration) { c.Model.APIKey = "" }, "", false},
		{"any temperature is fine", func(c *Configuration) { c.Model.Temperature = 7 }, "", false},
		{"port out of range", func(c *Configuration) { c.Server.Port = 70000 }, "server.port", true},
		{"empty model", func(c *Configuration) { c.Model.Name = "" }, "model.name", true},
		{"negative timeout", func(c *Configuration) { c.Model.TimeoutSeconds = -1 }, "model.timeout_seconds", true},
		{"bad format", func(c *Configuration) { c.Logging.Format = "xml" }, "logging.format", true},
		{"unnamed tool", func(c *Configuration) {
			c.Tools = append(c.Tools, toolNamed(""))
		}, "tools[0].name", true},
		{"duplicate tool", func(c *Configuration) {
			c.Tools = append(c.Tools, toolNamed("a"), toolNamed("a"))
		}, "tools[1].name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !err.(*ValidationError).HasError(tt.field) {
				t.Errorf("Validate() = %v, want error on %s", err, tt.field)
			}
		})
	}
}

func TestSingleton(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	ResetConfig()
	t.Cleanup(ResetConfig)

	first := writeFile(t, "config.yaml", "server:\n  port: 8181\n")
	second := writeFile(t, "config.yaml", "server:\n  port: 8282\n")

	a, err := GetConfigWithPath(first)
	if err != nil {
		t.Fatalf("GetConfigWithPath() error = %v", err)
	}
	b, _ := GetConfigWithPath(second)
	if a != b || b.Server.Port != 8181 {
		t.Errorf("singleton reloaded: port %d", b.Server.Port)
	}

	ResetConfig()
	c, _ := GetConfigWithPath(second)
	if c.Server.Port != 8282 {
		t.Errorf("after reset port = %d, want 8282", c.Server.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("HPN_DOTENV_SAMPLE", "before")
	t.Setenv(EnvAPIKey, "old")

	path := writeFile(t, ".env", "OPENAI_API_KEY=sk-dotenv\nHPN_DOTENV_SAMPLE=after\n")
	if err := loadDotEnv(path); err != nil {
		t.Fatalf("loadDotEnv() error = %v", err)
	}

	if got := os.Getenv(EnvAPIKey); got != "sk-dotenv" {
		t.Errorf("%s = %q, want sk-dotenv (override)", EnvAPIKey, got)
	}
	if got := os.Getenv("HPN_DOTENV_SAMPLE"); got != "after" {
		t.Errorf("HPN_DOTENV_SAMPLE = %q, want after", got)
	}

	if err := loadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should be ignored, got %v", err)
	}
}

func toolNamed(name string) domain.Tool {
	return domain.Tool{Name: name}
}
