package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 9090
log:
  log_level: "DEBUG"
  log_dir: "/tmp/logs"
  log_file: "test.log"
upload:
  max_file_size: 1048576
pipeline:
  safe_pixel_ceiling: 1000000
  max_concurrent: 2
`

	err := os.WriteFile(configFile, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	loader := NewLoader().WithDotEnv(false).WithPath(configFile)
	cfg, err := loader.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "DEBUG" {
		t.Errorf("expected log level DEBUG, got %s", cfg.Log.Level)
	}
	if cfg.Upload.MaxFileSize != 1048576 {
		t.Errorf("expected upload ceiling 1048576, got %d", cfg.Upload.MaxFileSize)
	}
	if cfg.Pipeline.SafePixelCeiling != 1000000 {
		t.Errorf("expected pixel ceiling 1000000, got %d", cfg.Pipeline.SafePixelCeiling)
	}
	// values absent from the file keep their defaults
	if cfg.Pipeline.DefaultWidth != 7200 {
		t.Errorf("expected default width 7200, got %d", cfg.Pipeline.DefaultWidth)
	}
}

func TestLoader_Defaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Pipeline.SafePixelCeiling != 100_000_000 {
		t.Errorf("expected safe pixel ceiling 100000000, got %d", cfg.Pipeline.SafePixelCeiling)
	}
	if cfg.Pipeline.DefaultWidth != 7200 || cfg.Pipeline.DefaultHeight != 10800 {
		t.Errorf("expected default target 7200x10800, got %dx%d",
			cfg.Pipeline.DefaultWidth, cfg.Pipeline.DefaultHeight)
	}
	if cfg.Pipeline.DefaultDPI != 300 {
		t.Errorf("expected default DPI 300, got %d", cfg.Pipeline.DefaultDPI)
	}
	if cfg.Pipeline.MaxConcurrent != 1 {
		t.Errorf("expected max concurrent 1, got %d", cfg.Pipeline.MaxConcurrent)
	}
}

func TestLoader_Validate(t *testing.T) {
	loader := NewLoader()

	valid := DefaultConfig()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "invalid server port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero upload ceiling",
			mutate:  func(c *Config) { c.Upload.MaxFileSize = 0 },
			wantErr: true,
		},
		{
			name:    "negative pixel ceiling",
			mutate:  func(c *Config) { c.Pipeline.SafePixelCeiling = -1 },
			wantErr: true,
		},
		{
			name:    "jpeg quality out of range",
			mutate:  func(c *Config) { c.Pipeline.JPEGQuality = 101 },
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Pipeline.MaxConcurrent = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			err := loader.validate(&cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
