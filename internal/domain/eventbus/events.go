package eventbus

import "time"

// Topics published by the resize transport layer.
const (
	EventResizeAccepted  = "resize:accepted"
	EventResizeCompleted = "resize:completed"
	EventResizeFailed    = "resize:failed"

	EventSystemError = "system:error"
	EventSystemInfo  = "system:info"
)

// ResizeEventData describes one finished resize request. Only request
// metadata travels on the bus, never pixel buffers.
type ResizeEventData struct {
	RequestID    string        `json:"request_id"`
	SourceFormat string        `json:"source_format,omitempty"`
	SourceWidth  int           `json:"source_width,omitempty"`
	SourceHeight int           `json:"source_height,omitempty"`
	Oversized    bool          `json:"oversized"`
	TargetWidth  int           `json:"target_width"`
	TargetHeight int           `json:"target_height"`
	DPI          int           `json:"dpi"`
	OutputBytes  int           `json:"output_bytes,omitempty"`
	ErrorCode    string        `json:"error_code,omitempty"`
	Duration     time.Duration `json:"duration"`
}

type SystemEventData struct {
	Level   string      `json:"level"` // error, warn, info
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
