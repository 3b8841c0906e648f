package logging

import (
	"fmt"
	"log/slog"

	"printpress-server-go/internal/utils"
)

// Config captures logging configuration options.
type Config struct {
	Level    string
	Dir      string
	Filename string
}

// Logger provides access to both slog and the tagged logging API.
type Logger struct {
	tagged *utils.Logger
}

// New creates a new Logger instance backed by the dual-output logger.
func New(cfg Config) (*Logger, error) {
	logCfg := &utils.LogCfg{
		LogLevel: cfg.Level,
		LogDir:   cfg.Dir,
		LogFile:  cfg.Filename,
	}
	tagged, err := utils.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("initialise logging: %w", err)
	}
	return &Logger{tagged: tagged}, nil
}

// Tagged exposes the underlying tagged logger.
func (l *Logger) Tagged() *utils.Logger {
	return l.tagged
}

// Slog exposes the structured logger for new integrations.
func (l *Logger) Slog() *slog.Logger {
	return l.tagged.Slog()
}
