package config

// Config is the immutable configuration tree for the resize server.
// It is assembled once at bootstrap and passed by pointer into every
// component; nothing mutates it after startup.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Web      WebConfig      `yaml:"web"`
	Upload   UploadConfig   `yaml:"upload"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Storage  StorageConfig  `yaml:"storage"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	Enabled   bool   `yaml:"enabled"`
	StaticDir string `yaml:"static_dir"`
}

// UploadConfig bounds what the upload guard accepts before any decode.
type UploadConfig struct {
	// MaxFileSize is the byte ceiling for an uploaded buffer.
	MaxFileSize int64 `yaml:"max_file_size"`
	// AllowedFormats restricts decoded container formats; empty means
	// anything the registered decoders understand.
	AllowedFormats []string `yaml:"allowed_formats"`
}

// PipelineConfig tunes the resize pipeline. These were process-global
// mutable knobs in earlier revisions; they are deliberately plain data
// here so tests can construct variants freely.
type PipelineConfig struct {
	// SafePixelCeiling is the largest pixel count resampled in one pass.
	// Larger inputs take the progressive-downscale path.
	SafePixelCeiling int64 `yaml:"safe_pixel_ceiling"`
	// MaxTargetEdge clamps requested output width/height.
	MaxTargetEdge int `yaml:"max_target_edge"`
	DefaultWidth  int `yaml:"default_width"`
	DefaultHeight int `yaml:"default_height"`
	DefaultDPI    int `yaml:"default_dpi"`
	JPEGQuality   int `yaml:"jpeg_quality"`
	// MaxConcurrent caps how many heavy resample operations run at once.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// StorageConfig controls the resize-job audit log. Only request
// metadata is stored, never image bytes.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	// JobHistoryLimit caps how many audit rows the jobs endpoint returns.
	JobHistoryLimit int `yaml:"job_history_limit"`
}
