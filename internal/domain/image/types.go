package image

// UploadedImage is an upload that passed the guard's metadata checks.
// It lives for exactly one pipeline run and is never persisted.
type UploadedImage struct {
	Data         []byte
	DeclaredMIME string
	DeclaredSize int64
}

// Metadata describes a decoded image header. Derived read-only from an
// UploadedImage, never mutated.
type Metadata struct {
	Width  int
	Height int
	Format string
}

// PixelCount reports the total pixels the decoded image would occupy.
func (m Metadata) PixelCount() int64 {
	return int64(m.Width) * int64(m.Height)
}

// TargetSpec is the caller-requested output geometry. Zero width/height
// or DPI mean "use the configured default"; values are clamped to the
// configured maximum edge before resampling.
type TargetSpec struct {
	Width  int
	Height int
	DPI    int
}

// ProcessedImage is one finished rendition: JPEG bytes plus the
// geometry actually achieved.
type ProcessedImage struct {
	Data   []byte
	Width  int
	Height int
	DPI    int
	Format string
	// Oversized records whether the progressive-downscale path ran.
	Oversized bool
	// Source carries the decoded input header for audit events.
	Source Metadata
}
