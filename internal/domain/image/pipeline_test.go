package image

import (
	"bytes"
	"context"
	"encoding/binary"
	stdimage "image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"printpress-server-go/internal/platform/config"
	"printpress-server-go/internal/platform/errors"
)

func testPipelineConfig() *config.PipelineConfig {
	return &config.PipelineConfig{
		SafePixelCeiling: 10_000,
		MaxTargetEdge:    256,
		DefaultWidth:     64,
		DefaultHeight:    96,
		DefaultDPI:       300,
		JPEGQuality:      92,
		MaxConcurrent:    1,
	}
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(Options{Config: testPipelineConfig()})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return p
}

func tinyJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: 0x80, A: 0xFF})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func transparentPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	// NewNRGBA zero value is fully transparent
	if err := png.Encode(&buf, stdimage.NewNRGBA(stdimage.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func decodeOutput(t *testing.T, out *ProcessedImage) stdimage.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("output is not decodable jpeg: %v", err)
	}
	return img
}

func upload(data []byte) *UploadedImage {
	return &UploadedImage{Data: data, DeclaredMIME: "image/jpeg", DeclaredSize: int64(len(data))}
}

func TestPipeline_Process_DirectPath(t *testing.T) {
	p := testPipeline(t)

	out, err := p.Process(context.Background(), upload(tinyJPEG(t, 50, 50)), TargetSpec{Width: 40, Height: 60, DPI: 150})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Width != 40 || out.Height != 60 {
		t.Fatalf("expected 40x60, got %dx%d", out.Width, out.Height)
	}
	if out.Oversized {
		t.Fatal("50x50 input should not take the oversized path")
	}
	if out.Source.Width != 50 || out.Source.Height != 50 {
		t.Fatalf("source metadata wrong: %+v", out.Source)
	}
	if got := ReadDPI(out.Data); got != 150 {
		t.Fatalf("expected stamped dpi 150, got %d", got)
	}
	img := decodeOutput(t, out)
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 60 {
		t.Fatalf("decoded output is %dx%d", b.Dx(), b.Dy())
	}
}

// lumaSampling walks the JPEG marker stream and returns the first frame
// component's sampling factors byte. 0x11 means full-resolution chroma
// (4:4:4); 0x22 is the common 4:2:0 subsampling.
func lumaSampling(t *testing.T, data []byte) byte {
	t.Helper()
	for i := 2; i+4 <= len(data); {
		if data[i] != 0xFF {
			t.Fatalf("lost marker sync at offset %d", i)
		}
		marker := data[i+1]
		if marker == 0xDA {
			break
		}
		if marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC {
			// length(2) precision(1) height(2) width(2) ncomp(1), then
			// per component: id(1) sampling(1) quant table(1).
			return data[i+11]
		}
		i += 2 + int(binary.BigEndian.Uint16(data[i+2:]))
	}
	t.Fatal("no frame header in output")
	return 0
}

func TestPipeline_Process_FullChromaOutput(t *testing.T) {
	p := testPipeline(t)

	tests := []struct {
		name  string
		input []byte
	}{
		// 200x200 is over the test ceiling, so the second case also
		// covers the intermediate round-trip encode.
		{"direct path", tinyJPEG(t, 50, 50)},
		{"oversized path", tinyJPEG(t, 200, 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := p.Process(context.Background(), upload(tt.input), TargetSpec{Width: 40, Height: 60})
			if err != nil {
				t.Fatalf("process: %v", err)
			}
			if got := lumaSampling(t, out.Data); got != 0x11 {
				t.Fatalf("output chroma is subsampled: luma sampling factors 0x%02X, want 0x11", got)
			}
		})
	}
}

func TestPipeline_Process_OversizedPath(t *testing.T) {
	p := testPipeline(t)

	// 200x200 = 40000 px, four times the test ceiling.
	out, err := p.Process(context.Background(), upload(tinyJPEG(t, 200, 200)), TargetSpec{Width: 32, Height: 48, DPI: 300})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !out.Oversized {
		t.Fatal("expected the oversized path")
	}
	if out.Width != 32 || out.Height != 48 {
		t.Fatalf("expected 32x48, got %dx%d", out.Width, out.Height)
	}
	img := decodeOutput(t, out)
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 48 {
		t.Fatalf("decoded output is %dx%d", b.Dx(), b.Dy())
	}
}

func TestPipeline_Process_DefaultsAndDPI(t *testing.T) {
	p := testPipeline(t)

	out, err := p.Process(context.Background(), upload(tinyJPEG(t, 30, 30)), TargetSpec{})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Width != 64 || out.Height != 96 {
		t.Fatalf("expected default 64x96, got %dx%d", out.Width, out.Height)
	}
	if out.DPI != 300 {
		t.Fatalf("expected default dpi 300, got %d", out.DPI)
	}
	if got := ReadDPI(out.Data); got != 300 {
		t.Fatalf("expected stamped dpi 300, got %d", got)
	}
}

func TestPipeline_Process_ClampsTargetEdge(t *testing.T) {
	p := testPipeline(t)

	out, err := p.Process(context.Background(), upload(tinyJPEG(t, 30, 30)), TargetSpec{Width: 5000, Height: 5000})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Width != 256 || out.Height != 256 {
		t.Fatalf("expected clamp to 256x256, got %dx%d", out.Width, out.Height)
	}
}

func TestPipeline_Process_TinyInputUpscales(t *testing.T) {
	p := testPipeline(t)

	out, err := p.Process(context.Background(), upload(tinyJPEG(t, 1, 1)), TargetSpec{Width: 20, Height: 30})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Width != 20 || out.Height != 30 {
		t.Fatalf("expected upscale to 20x30, got %dx%d", out.Width, out.Height)
	}
}

func TestPipeline_Process_FlattensAlphaToWhite(t *testing.T) {
	p := testPipeline(t)

	out, err := p.Process(context.Background(), upload(transparentPNG(t, 30, 30)), TargetSpec{Width: 20, Height: 20})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	img := decodeOutput(t, out)
	r, g, b, _ := img.At(10, 10).RGBA()
	if r>>8 < 250 || g>>8 < 250 || b>>8 < 250 {
		t.Fatalf("transparent input should flatten to white, got rgb(%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestPipeline_Process_Rejections(t *testing.T) {
	p := testPipeline(t)

	tests := []struct {
		name     string
		up       *UploadedImage
		spec     TargetSpec
		wantCode errors.Code
	}{
		{
			name:     "corrupt payload",
			up:       upload([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}),
			wantCode: errors.CodeUnsupportedFormat,
		},
		{
			name:     "truncated jpeg header",
			up:       upload(tinyJPEG(t, 10, 10)[:8]),
			wantCode: errors.CodeUnsupportedFormat,
		},
		{
			name:     "negative target",
			up:       upload(tinyJPEG(t, 10, 10)),
			spec:     TargetSpec{Width: -1, Height: 100},
			wantCode: errors.CodeInvalidDimensions,
		},
		{
			name:     "empty upload",
			up:       &UploadedImage{},
			wantCode: errors.CodeEmptyPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Process(context.Background(), tt.up, tt.spec)
			if err == nil {
				t.Fatalf("expected %s error, got nil", tt.wantCode)
			}
			if got := errors.CodeOf(err); got != tt.wantCode {
				t.Fatalf("expected code %s, got %s (%v)", tt.wantCode, got, err)
			}
		})
	}
}

func TestPipeline_Process_Idempotent(t *testing.T) {
	p := testPipeline(t)
	spec := TargetSpec{Width: 48, Height: 64, DPI: 200}

	first, err := p.Process(context.Background(), upload(tinyJPEG(t, 100, 80)), spec)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	second, err := p.Process(context.Background(), upload(first.Data), spec)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second.Width != first.Width || second.Height != first.Height || second.DPI != first.DPI {
		t.Fatalf("re-processing changed geometry: %dx%d@%d vs %dx%d@%d",
			second.Width, second.Height, second.DPI, first.Width, first.Height, first.DPI)
	}
}

func TestIntermediateSize(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		ceiling int64
	}{
		{"square over ceiling", 12000, 12000, 100_000_000},
		{"wide panorama", 40000, 3000, 100_000_000},
		{"tall strip", 300, 400000, 100_000_000},
		{"barely over", 10001, 10000, 100_000_000},
		{"tiny ceiling", 200, 200, 10_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iw, ih := intermediateSize(tt.width, tt.height, tt.ceiling)
			if iw < 1 || ih < 1 {
				t.Fatalf("degenerate intermediate %dx%d", iw, ih)
			}
			if px := int64(iw) * int64(ih); px > tt.ceiling {
				t.Fatalf("intermediate %dx%d = %d px exceeds ceiling %d", iw, ih, px, tt.ceiling)
			}
			// Aspect ratio should survive the downscale closely.
			orig := float64(tt.width) / float64(tt.height)
			got := float64(iw) / float64(ih)
			if diff := orig/got - 1; diff > 0.01 || diff < -0.01 {
				t.Fatalf("aspect drifted: %f vs %f", orig, got)
			}
		})
	}
}

func TestPipeline_InFlightSettlesToZero(t *testing.T) {
	p := testPipeline(t)
	if _, err := p.Process(context.Background(), upload(tinyJPEG(t, 20, 20)), TargetSpec{Width: 16, Height: 16}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if n := p.InFlight(); n != 0 {
		t.Fatalf("expected 0 in-flight after completion, got %d", n)
	}
}
