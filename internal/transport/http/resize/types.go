package resize

import (
	"fmt"
	"strconv"
	"strings"

	"printpress-server-go/internal/domain/image"
	"printpress-server-go/internal/platform/errors"
)

// ResizeRequest is one parsed upload with the renditions to produce.
type ResizeRequest struct {
	RequestID    string
	Data         []byte
	DeclaredMIME string
	DeclaredSize int64
	Specs        []image.TargetSpec
}

// StatusData is the GET /resize payload.
type StatusData struct {
	Status        string `json:"status"`
	MaxFileSize   int64  `json:"max_file_size"`
	MaxTargetEdge int    `json:"max_target_edge"`
	DefaultWidth  int    `json:"default_width"`
	DefaultHeight int    `json:"default_height"`
	DefaultDPI    int    `json:"default_dpi"`
	InFlight      int64  `json:"in_flight"`
}

// parseSpec turns a "WIDTHxHEIGHT" or "WIDTHxHEIGHT@DPI" form value
// into a target spec.
func parseSpec(raw string) (image.TargetSpec, error) {
	bad := func() (image.TargetSpec, error) {
		return image.TargetSpec{}, errors.NewCoded(
			errors.CodeInvalidDimensions,
			"resize.parse_spec",
			fmt.Sprintf("spec %q is not WIDTHxHEIGHT or WIDTHxHEIGHT@DPI", raw),
		)
	}

	geometry := raw
	var spec image.TargetSpec
	if at := strings.IndexByte(raw, '@'); at >= 0 {
		dpi, err := strconv.Atoi(raw[at+1:])
		if err != nil || dpi <= 0 {
			return bad()
		}
		spec.DPI = dpi
		geometry = raw[:at]
	}

	sep := strings.IndexByte(geometry, 'x')
	if sep <= 0 {
		return bad()
	}
	width, err := strconv.Atoi(geometry[:sep])
	if err != nil || width <= 0 {
		return bad()
	}
	height, err := strconv.Atoi(geometry[sep+1:])
	if err != nil || height <= 0 {
		return bad()
	}
	spec.Width = width
	spec.Height = height
	return spec, nil
}

// parseDimensionField reads an optional positive-integer form field.
// Empty means "use the default"; anything non-numeric or non-positive
// is rejected before any decoding happens.
func parseDimensionField(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, errors.NewCoded(
			errors.CodeInvalidDimensions,
			"resize.parse_form",
			fmt.Sprintf("%s %q must be a positive integer", name, value),
		)
	}
	return n, nil
}
