package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"runtime"
	"strings"
	"sync/atomic"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/jpegli"
	"golang.org/x/sync/semaphore"

	"printpress-server-go/internal/platform/config"
	"printpress-server-go/internal/platform/errors"
	"printpress-server-go/internal/utils"
)

// Pipeline turns an accepted upload into a print-resolution JPEG
// rendition. Each run is independent: decode metadata, classify,
// progressively downscale oversized inputs, cover-fit resample to the
// exact target, stamp DPI and encode. Heavy resampling is admitted
// through a weighted semaphore so at most MaxConcurrent runs hold
// pixel buffers at once.
type Pipeline struct {
	config   *config.PipelineConfig
	logger   *utils.Logger
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// Options configures the pipeline behaviour.
type Options struct {
	Config *config.PipelineConfig
	Logger *utils.Logger
}

// NewPipeline constructs a resize pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("pipeline config is required")
	}
	if opts.Logger == nil {
		opts.Logger = utils.DefaultLogger
	}

	maxConcurrent := opts.Config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &Pipeline{
		config: opts.Config,
		logger: opts.Logger,
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// InFlight reports how many resample operations currently hold pixel buffers.
func (p *Pipeline) InFlight() int64 {
	return p.inFlight.Load()
}

// Inspect decodes only the image header and validates its dimensions.
func (p *Pipeline) Inspect(up *UploadedImage) (Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil {
		return Metadata{}, errors.WrapCoded(
			errors.CodeUnsupportedFormat,
			"pipeline.inspect",
			"please upload a valid image file",
			err,
		)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Metadata{}, errors.NewCoded(
			errors.CodeInvalidDimensions,
			"pipeline.inspect",
			fmt.Sprintf("decoded dimensions %dx%d are not usable", cfg.Width, cfg.Height),
		)
	}
	return Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Normalize resolves defaults and clamps the requested target geometry.
func (p *Pipeline) Normalize(spec TargetSpec) (TargetSpec, error) {
	if spec.Width < 0 || spec.Height < 0 {
		return TargetSpec{}, errors.NewCoded(
			errors.CodeInvalidDimensions,
			"pipeline.normalize",
			fmt.Sprintf("requested target %dx%d is invalid", spec.Width, spec.Height),
		)
	}

	if spec.Width == 0 {
		spec.Width = p.config.DefaultWidth
	}
	if spec.Height == 0 {
		spec.Height = p.config.DefaultHeight
	}
	if spec.DPI <= 0 {
		spec.DPI = p.config.DefaultDPI
	}

	// Clamp rather than reject: a caller asking for more than the edge
	// limit gets the largest rendition the deployment is sized for.
	if spec.Width > p.config.MaxTargetEdge {
		spec.Width = p.config.MaxTargetEdge
	}
	if spec.Height > p.config.MaxTargetEdge {
		spec.Height = p.config.MaxTargetEdge
	}
	return spec, nil
}

// Process runs the full pipeline for one upload. ctx only gates
// admission; once resampling starts the unit of work is not cancellable.
func (p *Pipeline) Process(ctx context.Context, up *UploadedImage, spec TargetSpec) (*ProcessedImage, error) {
	if up == nil || len(up.Data) == 0 {
		return nil, errors.NewCoded(errors.CodeEmptyPayload, "pipeline.process", "empty upload payload")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	meta, err := p.Inspect(up)
	if err != nil {
		return nil, err
	}

	spec, err = p.Normalize(spec)
	if err != nil {
		return nil, err
	}

	oversized := meta.PixelCount() > p.config.SafePixelCeiling
	if oversized {
		p.logger.InfoTag("PIPELINE", "oversized input %dx%d (%d px), taking progressive downscale path",
			meta.Width, meta.Height, meta.PixelCount())
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(errors.KindDomain, "pipeline.process", "admission cancelled", err)
	}
	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		p.sem.Release(1)
	}()

	out, err := p.resample(up.Data, meta, spec, oversized)
	if err != nil {
		return nil, err
	}
	out.Source = meta
	out.Oversized = oversized
	return out, nil
}

// resample performs the pixel work. Panics from the decoder or the
// resampling kernel (huge allocations on corrupt dimension fields) are
// converted to typed errors so nothing unstructured reaches transport.
func (p *Pipeline) resample(data []byte, meta Metadata, spec TargetSpec, oversized bool) (out *ProcessedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = classifyPanic("pipeline.resample", r)
		}
	}()

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapCoded(
			errors.CodeUnsupportedFormat,
			"pipeline.resample",
			"please upload a valid image file",
			err,
		)
	}

	if oversized {
		iw, ih := intermediateSize(meta.Width, meta.Height, p.config.SafePixelCeiling)
		reduced := imaging.Resize(src, iw, ih, imaging.Lanczos)
		src = nil // release the full-size buffer before the round-trip

		// Encode/decode round-trip: the intermediate rendition becomes
		// the input of the final pass, bounding the peak working set by
		// the pixel ceiling instead of the original image size.
		var buf bytes.Buffer
		if encErr := p.encodeJPEG(&buf, reduced); encErr != nil {
			return nil, errors.WrapCoded(errors.CodeProcessingFailed,
				"pipeline.resample", "intermediate encode failed", encErr)
		}
		reduced = nil

		src, err = imaging.Decode(bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, errors.WrapCoded(errors.CodeProcessingFailed,
				"pipeline.resample", "intermediate decode failed", err)
		}
	}

	// Cover fit: scale to fully fill the target box, cropping the
	// overflowing dimension, anchored to center.
	filled := imaging.Fill(src, spec.Width, spec.Height, imaging.Center, imaging.Lanczos)
	src = nil

	// Flatten onto white so alpha never survives into the JPEG.
	canvas := imaging.New(spec.Width, spec.Height, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	final := imaging.OverlayCenter(canvas, filled, 1.0)

	var buf bytes.Buffer
	if err := p.encodeJPEG(&buf, final); err != nil {
		return nil, errors.WrapCoded(errors.CodeProcessingFailed,
			"pipeline.resample", "jpeg encode failed", err)
	}

	stamped, err := StampDPI(buf.Bytes(), spec.DPI)
	if err != nil {
		return nil, errors.WrapCoded(errors.CodeProcessingFailed,
			"pipeline.resample", "dpi stamp failed", err)
	}

	return &ProcessedImage{
		Data:   stamped,
		Width:  spec.Width,
		Height: spec.Height,
		DPI:    spec.DPI,
		Format: "jpeg",
	}, nil
}

// encodeJPEG writes img as a JPEG without chroma subsampling. The
// stdlib encoder always averages Cb/Cr over 2x2 blocks, which softens
// hard color edges at print density, so encoding goes through jpegli
// pinned to 4:4:4.
func (p *Pipeline) encodeJPEG(w io.Writer, img image.Image) error {
	return jpegli.Encode(w, img, &jpegli.EncodingOptions{
		Quality:           p.config.JPEGQuality,
		ChromaSubsampling: image.YCbCrSubsampleRatio444,
	})
}

// intermediateSize computes the progressive-downscale geometry. The
// floating-point square root and floor guarantee the intermediate pixel
// count never exceeds the ceiling.
func intermediateSize(width, height int, ceiling int64) (int, int) {
	scale := math.Sqrt(float64(ceiling) / (float64(width) * float64(height)))
	iw := int(math.Floor(float64(width) * scale))
	ih := int(math.Floor(float64(height) * scale))
	if iw < 1 {
		iw = 1
	}
	if ih < 1 {
		ih = 1
	}
	return iw, ih
}

// classifyPanic turns a recovered resample panic into a typed error.
// Allocation failures map to OutOfMemory, everything else to
// ProcessingFailed.
func classifyPanic(op string, r interface{}) error {
	msg := fmt.Sprint(r)
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "out of memory") ||
		strings.Contains(lower, "cannot allocate") ||
		strings.Contains(lower, "makeslice") ||
		strings.Contains(lower, "len out of range") {
		runtime.GC()
		return errors.NewCoded(errors.CodeOutOfMemory, op,
			"ran out of memory while resampling, try a smaller image")
	}
	return errors.NewCoded(errors.CodeProcessingFailed, op,
		fmt.Sprintf("resample panicked: %s", msg))
}
