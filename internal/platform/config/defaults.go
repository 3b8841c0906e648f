package config

// DefaultConfig returns the built-in configuration. Values mirror the
// observed production deployment: one concurrent heavy resample, 50 MB
// upload ceiling, 24"x36" @ 300 DPI default target.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8080,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Web: WebConfig{
			Enabled:   true,
			StaticDir: "./web",
		},
		Upload: UploadConfig{
			MaxFileSize:    50 * 1024 * 1024,
			AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif", "bmp", "tiff"},
		},
		Pipeline: PipelineConfig{
			SafePixelCeiling: 100_000_000,
			MaxTargetEdge:    10000,
			DefaultWidth:     7200,
			DefaultHeight:    10800,
			DefaultDPI:       300,
			JPEGQuality:      92,
			MaxConcurrent:    1,
		},
		Storage: StorageConfig{
			Enabled:         true,
			DSN:             "data/printpress.db",
			JobHistoryLimit: 100,
		},
	}
}
