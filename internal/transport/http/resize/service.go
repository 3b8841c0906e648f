package resize

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainimage "printpress-server-go/internal/domain/image"
	"printpress-server-go/internal/domain/eventbus"
	"printpress-server-go/internal/platform/config"
	"printpress-server-go/internal/platform/errors"
	httptransport "printpress-server-go/internal/transport/http"
	"printpress-server-go/internal/utils"
)

// Service is the HTTP transport for the resize pipeline.
type Service struct {
	logger   *utils.Logger
	config   *config.Config
	guard    *domainimage.Guard
	pipeline *domainimage.Pipeline
}

// NewService creates the resize HTTP service.
func NewService(
	cfg *config.Config,
	logger *utils.Logger,
	guard *domainimage.Guard,
	pipeline *domainimage.Pipeline,
) (*Service, error) {
	if cfg == nil {
		return nil, errors.Wrap(errors.KindConfig, "resize.new", "config is required", nil)
	}
	if logger == nil {
		return nil, errors.Wrap(errors.KindConfig, "resize.new", "logger is required", nil)
	}
	if guard == nil || pipeline == nil {
		return nil, errors.Wrap(errors.KindConfig, "resize.new", "guard and pipeline are required", nil)
	}

	return &Service{
		logger:   logger,
		config:   cfg,
		guard:    guard,
		pipeline: pipeline,
	}, nil
}

// Register wires the resize routes.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.GET("/resize", s.handleGet)
	router.POST("/resize", s.handlePost)

	s.logger.InfoTag("HTTP", "resize service routes registered")
	return nil
}

// handleGet reports service readiness and the effective limits.
func (s *Service) handleGet(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, StatusData{
		Status:        "ready",
		MaxFileSize:   s.config.Upload.MaxFileSize,
		MaxTargetEdge: s.config.Pipeline.MaxTargetEdge,
		DefaultWidth:  s.config.Pipeline.DefaultWidth,
		DefaultHeight: s.config.Pipeline.DefaultHeight,
		DefaultDPI:    s.config.Pipeline.DefaultDPI,
		InFlight:      s.pipeline.InFlight(),
	}, "")
}

// handlePost accepts a multipart upload and streams back the resized
// rendition. A single rendition is returned as a raw JPEG body; when
// the request carries repeated "spec" fields the renditions come back
// as multipart/mixed parts in request order.
func (s *Service) handlePost(c *gin.Context) {
	requestID := uuid.NewString()
	start := time.Now()

	req, err := s.parseRequest(c, requestID)
	if err != nil {
		s.fail(c, requestID, nil, start, err)
		return
	}

	up, err := s.guard.Check(req.Data, req.DeclaredMIME, req.DeclaredSize)
	if err != nil {
		s.fail(c, requestID, req, start, err)
		return
	}
	eventbus.PublishAsync(eventbus.EventResizeAccepted, eventbus.ResizeEventData{RequestID: requestID})

	results := make([]*domainimage.ProcessedImage, 0, len(req.Specs))
	for _, spec := range req.Specs {
		out, err := s.pipeline.Process(c.Request.Context(), up, spec)
		if err != nil {
			s.fail(c, requestID, req, start, err)
			return
		}
		results = append(results, out)
	}

	if len(results) == 1 {
		s.writeSingle(c, requestID, results[0])
	} else {
		if err := s.writeMultipart(c, requestID, results); err != nil {
			s.logger.WarnTag("RESIZE", "multipart write aborted: %v", err)
			return
		}
	}

	for _, out := range results {
		s.publish(eventbus.EventResizeCompleted, requestID, out, "", time.Since(start))
	}
	s.logger.InfoTag("RESIZE", "request %s produced %d rendition(s) in %s",
		requestID, len(results), time.Since(start))
}

// parseRequest extracts the upload and the requested renditions from
// the multipart form. width/height/dpi fields describe one rendition;
// repeated spec fields override them with a batch.
func (s *Service) parseRequest(c *gin.Context, requestID string) (*ResizeRequest, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, errors.WrapCoded(errors.CodeEmptyPayload,
			"resize.parse_form", "multipart field \"file\" is required", err)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, errors.WrapCoded(errors.CodeProcessingFailed,
			"resize.parse_form", "failed to open uploaded file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.config.Upload.MaxFileSize+1))
	if err != nil {
		return nil, errors.WrapCoded(errors.CodeProcessingFailed,
			"resize.parse_form", "failed to read uploaded file", err)
	}

	declaredMIME := fileHeader.Header.Get("Content-Type")
	if declaredMIME == "" && len(data) > 0 {
		declaredMIME = http.DetectContentType(data)
	}

	req := &ResizeRequest{
		RequestID:    requestID,
		Data:         data,
		DeclaredMIME: declaredMIME,
		DeclaredSize: fileHeader.Size,
	}

	if rawSpecs := c.PostFormArray("spec"); len(rawSpecs) > 0 {
		for _, raw := range rawSpecs {
			spec, err := parseSpec(raw)
			if err != nil {
				return req, err
			}
			req.Specs = append(req.Specs, spec)
		}
		return req, nil
	}

	width, err := parseDimensionField(c.PostForm("width"), "width")
	if err != nil {
		return req, err
	}
	height, err := parseDimensionField(c.PostForm("height"), "height")
	if err != nil {
		return req, err
	}
	dpi, err := parseDimensionField(c.PostForm("dpi"), "dpi")
	if err != nil {
		return req, err
	}

	req.Specs = []domainimage.TargetSpec{{Width: width, Height: height, DPI: dpi}}
	return req, nil
}

func (s *Service) writeSingle(c *gin.Context, requestID string, out *domainimage.ProcessedImage) {
	c.Header("X-Request-Id", requestID)
	c.Header("X-Image-Width", strconv.Itoa(out.Width))
	c.Header("X-Image-Height", strconv.Itoa(out.Height))
	c.Header("X-Image-DPI", strconv.Itoa(out.DPI))
	c.Data(http.StatusOK, "image/jpeg", out.Data)
}

func (s *Service) writeMultipart(c *gin.Context, requestID string, results []*domainimage.ProcessedImage) error {
	mw := multipart.NewWriter(c.Writer)
	c.Header("X-Request-Id", requestID)
	c.Header("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	c.Status(http.StatusOK)

	for _, out := range results {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Type", "image/jpeg")
		hdr.Set("X-Image-Width", strconv.Itoa(out.Width))
		hdr.Set("X-Image-Height", strconv.Itoa(out.Height))
		hdr.Set("X-Image-DPI", strconv.Itoa(out.DPI))

		part, err := mw.CreatePart(hdr)
		if err != nil {
			return err
		}
		if _, err := part.Write(out.Data); err != nil {
			return err
		}
	}
	return mw.Close()
}

// fail writes the error envelope and records the failed job.
func (s *Service) fail(c *gin.Context, requestID string, req *ResizeRequest, start time.Time, err error) {
	code := errors.CodeOf(err)
	if code.HTTPStatus() >= http.StatusInternalServerError {
		s.logger.ErrorTag("RESIZE", "request %s failed: %v", requestID, err)
	} else {
		s.logger.WarnTag("RESIZE", "request %s rejected: %v", requestID, err)
	}

	c.Header("X-Request-Id", requestID)
	httptransport.RespondTypedError(c, err)

	data := eventbus.ResizeEventData{
		RequestID: requestID,
		ErrorCode: string(code),
		Duration:  time.Since(start),
	}
	if req != nil && len(req.Specs) > 0 {
		data.TargetWidth = req.Specs[0].Width
		data.TargetHeight = req.Specs[0].Height
		data.DPI = req.Specs[0].DPI
	}
	eventbus.PublishAsync(eventbus.EventResizeFailed, data)
}

func (s *Service) publish(topic, requestID string, out *domainimage.ProcessedImage, errorCode string, elapsed time.Duration) {
	eventbus.PublishAsync(topic, eventbus.ResizeEventData{
		RequestID:    requestID,
		SourceFormat: out.Source.Format,
		SourceWidth:  out.Source.Width,
		SourceHeight: out.Source.Height,
		Oversized:    out.Oversized,
		TargetWidth:  out.Width,
		TargetHeight: out.Height,
		DPI:          out.DPI,
		OutputBytes:  len(out.Data),
		ErrorCode:    errorCode,
		Duration:     elapsed,
	})
}
