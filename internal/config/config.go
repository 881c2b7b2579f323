package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Input  string `yaml:"input"`  // root directory of model files
	Output string `yaml:"output"` // directory for rendered .md files
	DB     string `yaml:"db"`     // render store (SQLite)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Input:  ".",
		Output: "docs",
		DB:     "doxdoc.db",
	}
}

// LoadConfig reads path on top of the defaults. A missing file is not an
// error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	}

	// 3. Override with Environment Variables if present
	if v := os.Getenv("DOXDOC_INPUT"); v != "" {
		cfg.Input = v
	}
	if v := os.Getenv("DOXDOC_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("DOXDOC_DB"); v != "" {
		cfg.DB = v
	}

	return cfg, nil
}
