package image

import (
	"bytes"
	stdimage "image"
	"image/png"
	"testing"

	"printpress-server-go/internal/platform/config"
	"printpress-server-go/internal/platform/errors"
)

func testUploadConfig() *config.UploadConfig {
	return &config.UploadConfig{MaxFileSize: 1024}
}

func tinyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestGuard_Check(t *testing.T) {
	valid := tinyPNG(t, 2, 2)

	tests := []struct {
		name     string
		data     []byte
		mime     string
		size     int64
		wantCode errors.Code
	}{
		{
			name: "valid png",
			data: valid,
			mime: "image/png",
			size: int64(len(valid)),
		},
		{
			name: "mime with parameters",
			data: valid,
			mime: "image/png; charset=binary",
			size: int64(len(valid)),
		},
		{
			name:     "non-image mime",
			data:     valid,
			mime:     "text/plain",
			size:     int64(len(valid)),
			wantCode: errors.CodeUnsupportedMediaType,
		},
		{
			name:     "application mime",
			data:     valid,
			mime:     "application/pdf",
			size:     int64(len(valid)),
			wantCode: errors.CodeUnsupportedMediaType,
		},
		{
			name:     "declared size over limit",
			data:     valid,
			mime:     "image/png",
			size:     2048,
			wantCode: errors.CodePayloadTooLarge,
		},
		{
			name:     "actual size over limit",
			data:     bytes.Repeat([]byte{0x42}, 1025),
			mime:     "image/png",
			size:     100,
			wantCode: errors.CodePayloadTooLarge,
		},
		{
			name:     "empty payload",
			data:     nil,
			mime:     "image/png",
			size:     0,
			wantCode: errors.CodeEmptyPayload,
		},
		{
			name: "signature mismatch tolerated",
			data: []byte("definitely not png bytes"),
			mime: "image/png",
			size: 24,
		},
	}

	guard := NewGuard(testUploadConfig(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, err := guard.Check(tt.data, tt.mime, tt.size)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if up == nil || !bytes.Equal(up.Data, tt.data) {
					t.Fatal("upload payload not carried through")
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s error, got nil", tt.wantCode)
			}
			if got := errors.CodeOf(err); got != tt.wantCode {
				t.Fatalf("expected code %s, got %s (%v)", tt.wantCode, got, err)
			}
		})
	}
}

func TestGuard_FormatAllowlist(t *testing.T) {
	valid := tinyPNG(t, 2, 2)
	guard := NewGuard(&config.UploadConfig{
		MaxFileSize:    1024,
		AllowedFormats: []string{"jpeg", "png"},
	}, nil)

	tests := []struct {
		name     string
		mime     string
		wantCode errors.Code
	}{
		{name: "listed format", mime: "image/png"},
		{name: "listed format with parameters", mime: "image/png; charset=binary"},
		{name: "uppercase declared type", mime: "IMAGE/PNG"},
		{
			name:     "unlisted image format",
			mime:     "image/x-icon",
			wantCode: errors.CodeUnsupportedMediaType,
		},
		{
			name:     "unlisted format with parameters",
			mime:     "image/heic; q=0.9",
			wantCode: errors.CodeUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := guard.Check(valid, tt.mime, int64(len(valid)))
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if got := errors.CodeOf(err); got != tt.wantCode {
				t.Fatalf("expected code %s, got %s (%v)", tt.wantCode, got, err)
			}
		})
	}

	// An empty allowlist must stay permissive for any image/* type.
	open := NewGuard(testUploadConfig(), nil)
	if _, err := open.Check(valid, "image/x-icon", int64(len(valid))); err != nil {
		t.Fatalf("empty allowlist should accept any image type, got: %v", err)
	}
}

func TestGuard_SizeLimitInMessage(t *testing.T) {
	guard := NewGuard(testUploadConfig(), nil)
	_, err := guard.Check(bytes.Repeat([]byte{0x42}, 2000), "image/jpeg", 2000)
	if err == nil {
		t.Fatal("expected payload too large error")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("1024")) {
		t.Fatalf("error should state the byte limit, got: %v", err)
	}
}
