package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is picked up automatically when no explicit config path is
// given and the file exists in the working directory.
const DefaultPath = "steward.yaml"

// Load builds the effective configuration: defaults first, then the YAML
// file at path (optional), then environment overrides. Validation is the
// caller's job so that .env loading can happen in between.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv layers environment overrides on top of file values. The model
// API key has no file counterpart and only exists here.
func applyEnv(cfg *Config) {
	if v := os.Getenv("STEWARD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STEWARD_ARTIFACT_BACKEND"); v != "" {
		cfg.Artifacts.Backend = Backend(v)
	}
	if v := os.Getenv("STEWARD_REDIS_URL"); v != "" {
		cfg.Artifacts.RedisURL = v
	}
	if v := os.Getenv("STEWARD_MODEL_PROVIDER"); v != "" {
		cfg.Model.Provider = Provider(v)
	}
	if v := os.Getenv("STEWARD_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Model.BaseURL = v
	}

	if cfg.Model.APIKeyEnv == "" {
		cfg.Model.APIKeyEnv = "OPENAI_API_KEY"
	}
	cfg.Model.APIKey = os.Getenv(cfg.Model.APIKeyEnv)
}
