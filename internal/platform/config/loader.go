package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from a yaml file layered over the built-in
// defaults, with environment variables taking final precedence.
type Loader struct {
	useDotEnv bool
	path      string
}

// NewLoader creates a loader for the default search path.
func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath overrides the config file path (useful for tests).
func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// Path reports the file the last Load read from, or "defaults" when no
// file was found.
func (l *Loader) Path() string {
	if l.path == "" {
		return "defaults"
	}
	return l.path
}

// Load builds the effective configuration.
func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		// no .env file is fine, the system environment still applies
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()

	path := l.path
	if path == "" {
		if env := os.Getenv("PRINTPRESS_CONFIG"); env != "" {
			path = env
		} else {
			for _, candidate := range []string{"config.yaml", ".config.yaml"} {
				if _, err := os.Stat(candidate); err == nil {
					path = candidate
					break
				}
			}
		}
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		l.path = path
	}

	applyEnvOverrides(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("UPLOAD_MAX_FILE_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil && size > 0 {
			cfg.Upload.MaxFileSize = size
		}
	}
	if v := os.Getenv("PIPELINE_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Pipeline.MaxConcurrent = n
		}
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", cfg.Server.Port)
	}
	if cfg.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("upload max_file_size must be positive, got %d", cfg.Upload.MaxFileSize)
	}
	if cfg.Pipeline.SafePixelCeiling <= 0 {
		return fmt.Errorf("pipeline safe_pixel_ceiling must be positive, got %d", cfg.Pipeline.SafePixelCeiling)
	}
	if cfg.Pipeline.MaxTargetEdge <= 0 {
		return fmt.Errorf("pipeline max_target_edge must be positive, got %d", cfg.Pipeline.MaxTargetEdge)
	}
	if cfg.Pipeline.JPEGQuality < 1 || cfg.Pipeline.JPEGQuality > 100 {
		return fmt.Errorf("pipeline jpeg_quality %d out of range", cfg.Pipeline.JPEGQuality)
	}
	if cfg.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("pipeline max_concurrent must be positive, got %d", cfg.Pipeline.MaxConcurrent)
	}
	return nil
}
