// Package config holds the steward service configuration: defaults, the
// optional YAML config file, and environment overrides.
package config

import (
	"fmt"
	"time"
)

// --- Enums ---

// Backend selects the artifact store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

var validBackends = map[Backend]bool{
	BackendFile:   true,
	BackendSQLite: true,
	BackendRedis:  true,
}

// ValidateBackend checks if a backend name is one we can construct.
func ValidateBackend(b Backend) error {
	if !validBackends[b] {
		return fmt.Errorf("invalid artifact backend: %q (valid: file, sqlite, redis)", b)
	}
	return nil
}

// Provider selects the generation collaborator implementation.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderStatic Provider = "static"
)

var validProviders = map[Provider]bool{
	ProviderOpenAI: true,
	ProviderStatic: true,
}

// ValidateProvider checks if a provider name is one we can construct.
func ValidateProvider(p Provider) error {
	if !validProviders[p] {
		return fmt.Errorf("invalid model provider: %q (valid: openai, static)", p)
	}
	return nil
}

// --- Config types ---

// Config is the root service configuration.
type Config struct {
	Log       Logging   `yaml:"log"`
	Model     Model     `yaml:"model"`
	Artifacts Artifacts `yaml:"artifacts"`
	Workflow  Workflow  `yaml:"workflow"`
	Watchdog  Watchdog  `yaml:"watchdog"`
}

// Logging configures the zerolog setup. Output is stderr or a file;
// stdout is never an option because it carries the MCP protocol stream.
type Logging struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // console | json
	Output   string `yaml:"output"` // stderr | file
	FilePath string `yaml:"file_path"`
}

// Model configures the generation collaborator. The API key is only ever
// read from the environment, never from the config file.
type Model struct {
	Provider    Provider `yaml:"provider"`
	APIKeyEnv   string   `yaml:"api_key_env"`
	APIKey      string   `yaml:"-"`
	BaseURL     string   `yaml:"base_url"`
	Name        string   `yaml:"name"`
	MaxTokens   int      `yaml:"max_tokens"`
	Temperature float32  `yaml:"temperature"`
}

// Artifacts configures the persistence collaborator.
type Artifacts struct {
	Backend    Backend `yaml:"backend"`
	Dir        string  `yaml:"dir"`         // file backend
	SQLitePath string  `yaml:"sqlite_path"` // sqlite backend
	RedisURL   string  `yaml:"redis_url"`   // redis backend
	TTLSeconds int     `yaml:"ttl_seconds"` // redis backend; 0 keeps forever
}

// TTL returns the redis expiry as a duration.
func (a Artifacts) TTL() time.Duration {
	return time.Duration(a.TTLSeconds) * time.Second
}

// Workflow configures pipeline defaults.
type Workflow struct {
	DefaultKind string `yaml:"default_kind"`
	LoopCap     int    `yaml:"loop_cap"`
}

// Watchdog configures the stagnation monitor. All values are seconds in
// the config file.
type Watchdog struct {
	CheckIntervalSeconds int `yaml:"check_interval_seconds"`
	StagnationSeconds    int `yaml:"stagnation_seconds"`
	AlertBackoffSeconds  int `yaml:"alert_backoff_seconds"`
}

func (w Watchdog) CheckInterval() time.Duration {
	return time.Duration(w.CheckIntervalSeconds) * time.Second
}

func (w Watchdog) StagnationAfter() time.Duration {
	return time.Duration(w.StagnationSeconds) * time.Second
}

func (w Watchdog) AlertBackoff() time.Duration {
	return time.Duration(w.AlertBackoffSeconds) * time.Second
}

// --- Defaults ---

// Default returns the configuration used when no file and no overrides
// are present. The service must be runnable with exactly these values.
func Default() *Config {
	return &Config{
		Log: Logging{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
		Model: Model{
			Provider:    ProviderOpenAI,
			APIKeyEnv:   "OPENAI_API_KEY",
			BaseURL:     "https://api.openai.com/v1",
			Name:        "gpt-4o-mini",
			MaxTokens:   2000,
			Temperature: 0.2,
		},
		Artifacts: Artifacts{
			Backend:    BackendFile,
			Dir:        "data/artifacts",
			SQLitePath: "data/steward.db",
			RedisURL:   "redis://localhost:6379/0",
			TTLSeconds: 0,
		},
		Workflow: Workflow{
			DefaultKind: "research",
			LoopCap:     2,
		},
		Watchdog: Watchdog{
			CheckIntervalSeconds: 10,
			StagnationSeconds:    300,
			AlertBackoffSeconds:  60,
		},
	}
}

// --- Validation ---

// Validate checks the whole configuration tree.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if err := c.Artifacts.Validate(); err != nil {
		return err
	}
	if err := c.Workflow.Validate(); err != nil {
		return err
	}
	return c.Watchdog.Validate()
}

func (l Logging) Validate() error {
	switch l.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format: %q (valid: console, json)", l.Format)
	}
	switch l.Output {
	case "stderr":
	case "file":
		if l.FilePath == "" {
			return fmt.Errorf("log output is file but file_path is empty")
		}
	default:
		return fmt.Errorf("invalid log output: %q (valid: stderr, file)", l.Output)
	}
	return nil
}

func (m Model) Validate() error {
	if err := ValidateProvider(m.Provider); err != nil {
		return err
	}
	if m.Provider == ProviderOpenAI {
		if m.APIKey == "" {
			return fmt.Errorf("model provider is openai but %s is not set", m.APIKeyEnv)
		}
		if m.Name == "" {
			return fmt.Errorf("model name must not be empty")
		}
	}
	if m.MaxTokens < 0 {
		return fmt.Errorf("model max_tokens must not be negative, got %d", m.MaxTokens)
	}
	return nil
}

func (a Artifacts) Validate() error {
	if err := ValidateBackend(a.Backend); err != nil {
		return err
	}
	switch a.Backend {
	case BackendFile:
		if a.Dir == "" {
			return fmt.Errorf("artifact backend is file but dir is empty")
		}
	case BackendSQLite:
		if a.SQLitePath == "" {
			return fmt.Errorf("artifact backend is sqlite but sqlite_path is empty")
		}
	case BackendRedis:
		if a.RedisURL == "" {
			return fmt.Errorf("artifact backend is redis but redis_url is empty")
		}
	}
	if a.TTLSeconds < 0 {
		return fmt.Errorf("artifact ttl_seconds must not be negative, got %d", a.TTLSeconds)
	}
	return nil
}

func (w Workflow) Validate() error {
	if w.DefaultKind == "" {
		return fmt.Errorf("workflow default_kind must not be empty")
	}
	if w.LoopCap < 0 {
		return fmt.Errorf("workflow loop_cap must not be negative, got %d", w.LoopCap)
	}
	return nil
}

func (w Watchdog) Validate() error {
	if w.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("watchdog check_interval_seconds must be positive, got %d", w.CheckIntervalSeconds)
	}
	if w.StagnationSeconds <= 0 {
		return fmt.Errorf("watchdog stagnation_seconds must be positive, got %d", w.StagnationSeconds)
	}
	if w.AlertBackoffSeconds < 0 {
		return fmt.Errorf("watchdog alert_backoff_seconds must not be negative, got %d", w.AlertBackoffSeconds)
	}
	return nil
}
