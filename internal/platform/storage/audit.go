package storage

import (
	"context"
	"time"

	"printpress-server-go/internal/domain/eventbus"
	"printpress-server-go/internal/utils"
)

// AuditRecorder subscribes to resize events and persists one audit row
// per finished request. It runs entirely on the event-bus worker pool,
// off the request path.
type AuditRecorder struct {
	jobs   JobRepository
	logger *utils.Logger
}

func NewAuditRecorder(jobs JobRepository, logger *utils.Logger) *AuditRecorder {
	return &AuditRecorder{jobs: jobs, logger: logger}
}

// Start registers the event subscriptions.
func (a *AuditRecorder) Start() error {
	if err := eventbus.SubscribeAsync(eventbus.EventResizeCompleted, a.onCompleted); err != nil {
		return err
	}
	return eventbus.SubscribeAsync(eventbus.EventResizeFailed, a.onFailed)
}

// Stop removes the subscriptions.
func (a *AuditRecorder) Stop() {
	bus := eventbus.GetAsync()
	_ = bus.Unsubscribe(eventbus.EventResizeCompleted, a.onCompleted)
	_ = bus.Unsubscribe(eventbus.EventResizeFailed, a.onFailed)
}

func (a *AuditRecorder) onCompleted(data eventbus.ResizeEventData) {
	a.record(data, "completed")
}

func (a *AuditRecorder) onFailed(data eventbus.ResizeEventData) {
	a.record(data, "failed")
}

func (a *AuditRecorder) record(data eventbus.ResizeEventData, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	job := &ResizeJob{
		RequestID:    data.RequestID,
		SourceFormat: data.SourceFormat,
		SourceWidth:  data.SourceWidth,
		SourceHeight: data.SourceHeight,
		Oversized:    data.Oversized,
		TargetWidth:  data.TargetWidth,
		TargetHeight: data.TargetHeight,
		DPI:          data.DPI,
		OutputBytes:  data.OutputBytes,
		Status:       status,
		ErrorCode:    data.ErrorCode,
		DurationMs:   data.Duration.Milliseconds(),
	}
	if err := a.jobs.Save(ctx, job); err != nil {
		a.logger.WarnTag("STORAGE", "failed to record resize job %s: %v", data.RequestID, err)
	}
}
