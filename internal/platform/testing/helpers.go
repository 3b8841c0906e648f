package testing

import (
	"testing"

	"printpress-server-go/internal/platform/config"
	"printpress-server-go/internal/platform/logging"
)

func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.IP = "127.0.0.1"
	cfg.Log.Dir = t.TempDir()
	cfg.Log.Level = "DEBUG"

	// Small geometry so tests never allocate print-size buffers.
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Pipeline.SafePixelCeiling = 10_000
	cfg.Pipeline.MaxTargetEdge = 256
	cfg.Pipeline.DefaultWidth = 64
	cfg.Pipeline.DefaultHeight = 96
	cfg.Pipeline.DefaultDPI = 300

	cfg.Storage.Enabled = false
	return cfg
}

func SetupTestLogger(t *testing.T) *logging.Logger {
	t.Helper()

	cfg := SetupTestConfig(t)
	logger, err := logging.New(logging.Config{
		Level:    cfg.Log.Level,
		Dir:      cfg.Log.Dir,
		Filename: cfg.Log.File,
	})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}

	return logger
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error but got nil")
	}
}

func AssertEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected %v, got %v", expected, actual)
	}
}
