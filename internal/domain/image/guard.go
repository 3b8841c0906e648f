package image

import (
	"bytes"
	"fmt"
	"strings"

	"printpress-server-go/internal/platform/config"
	"printpress-server-go/internal/platform/errors"
	"printpress-server-go/internal/utils"
)

// Guard performs the O(1) admission checks an upload must pass before
// any decoder sees it. It never inspects pixel data, so a crafted
// declared type cannot be used to exhaust memory here.
type Guard struct {
	config *config.UploadConfig
	logger *utils.Logger
}

// NewGuard constructs an upload guard.
func NewGuard(cfg *config.UploadConfig, logger *utils.Logger) *Guard {
	return &Guard{
		config: cfg,
		logger: logger,
	}
}

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
	"bmp":  {0x42, 0x4D},
}

// Check validates the candidate buffer against the declared metadata
// and returns an accepted UploadedImage or a typed rejection.
func (g *Guard) Check(data []byte, declaredMIME string, declaredSize int64) (*UploadedImage, error) {
	mime := strings.ToLower(strings.TrimSpace(declaredMIME))
	if !strings.HasPrefix(mime, "image/") {
		return nil, errors.NewCoded(
			errors.CodeUnsupportedMediaType,
			"guard.check",
			fmt.Sprintf("declared type %q is not an image", declaredMIME),
		)
	}

	subtype := strings.TrimPrefix(mime, "image/")
	if i := strings.IndexByte(subtype, ';'); i >= 0 {
		subtype = strings.TrimSpace(subtype[:i])
	}
	if !g.formatAllowed(subtype) {
		g.logger.WarnTag("GUARD", "rejected disallowed format: declared_type=%s", declaredMIME)
		return nil, errors.NewCoded(
			errors.CodeUnsupportedMediaType,
			"guard.check",
			fmt.Sprintf("image format %q is not accepted", subtype),
		)
	}

	limit := g.config.MaxFileSize
	if declaredSize > limit || int64(len(data)) > limit {
		g.logger.WarnTag("GUARD", "rejected oversized upload: size=%d max_size=%d type=%s",
			len(data), limit, declaredMIME)
		return nil, errors.NewCoded(
			errors.CodePayloadTooLarge,
			"guard.check",
			fmt.Sprintf("upload exceeds the maximum size of %d bytes", limit),
		)
	}

	if len(data) == 0 {
		return nil, errors.NewCoded(
			errors.CodeEmptyPayload,
			"guard.check",
			"empty upload payload",
		)
	}

	// Signature mismatches are tolerated (the decoder has the final
	// word) but logged, since they usually mean a mislabelled client.
	if !g.signatureMatches(data, subtype) {
		actualHeader := fmt.Sprintf("%x", data[:min(len(data), 16)])
		g.logger.WarnTag("GUARD", "file signature mismatch: declared_type=%s actual_header=%s",
			declaredMIME, actualHeader)
	}

	return &UploadedImage{
		Data:         data,
		DeclaredMIME: declaredMIME,
		DeclaredSize: declaredSize,
	}, nil
}

// formatAllowed checks the declared subtype against the configured
// allowlist. An empty list accepts every image/* type and leaves the
// final word to the registered decoders.
func (g *Guard) formatAllowed(subtype string) bool {
	if len(g.config.AllowedFormats) == 0 {
		return true
	}
	for _, format := range g.config.AllowedFormats {
		if subtype == format {
			return true
		}
	}
	return false
}

func (g *Guard) signatureMatches(data []byte, subtype string) bool {
	signature, ok := imageSignatures[subtype]
	if !ok || len(signature) == 0 {
		return true
	}
	if len(data) < len(signature) {
		return false
	}
	return bytes.Equal(signature, data[:len(signature)])
}
