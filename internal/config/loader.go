package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables. An empty
// path selects the default location; a missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	loadFromEnv(cfg)

	return cfg, nil
}

// DefaultPath returns the path to the user config file.
func DefaultPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "appforge", "config.yaml")
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "appforge", "config.yaml")
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv applies environment overrides on top of the file values.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.API.GeminiKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.API.OllamaBaseURL = v
	}
	if v := os.Getenv("APPFORGE_PROVIDER"); v != "" {
		cfg.API.Provider = v
	}
	if v := os.Getenv("APPFORGE_MODEL"); v != "" {
		cfg.API.Model = v
	}
	if v := os.Getenv("APPFORGE_BASE_DIR"); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := os.Getenv("APPFORGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
