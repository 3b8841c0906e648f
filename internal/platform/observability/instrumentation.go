package observability

import (
	"context"
	"log/slog"
	"time"
)

// Enabled reports whether instrumentation is switched on in config.
func Enabled() bool {
	_, cfg := currentLogger()
	return cfg.Enabled
}

// StartSpan opens a span around an operation and returns the context
// together with a finish func. Finishing with a non-nil error raises
// the span record to error level. When no logger is installed the
// finish func is a no-op.
func StartSpan(ctx context.Context, component, operation string) (context.Context, func(error)) {
	logger, _ := currentLogger()
	if logger == nil {
		return ctx, func(error) {}
	}

	base := []slog.Attr{
		slog.String("component", component),
		slog.String("operation", operation),
	}
	start := time.Now()
	logger.LogAttrs(ctx, slog.LevelDebug, "span start", base...)

	return ctx, func(err error) {
		attrs := append(base, slog.Duration("duration", time.Since(start)))
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelError
			attrs = append(attrs, slog.Any("error", err))
		}
		logger.LogAttrs(ctx, level, "span end", attrs...)
	}
}

// RecordMetric logs one metric sample. Delivery is best effort; a
// missing logger drops the sample silently.
func RecordMetric(ctx context.Context, name string, value float64, labels map[string]string) {
	logger, _ := currentLogger()
	if logger == nil {
		return
	}

	attrs := make([]slog.Attr, 0, len(labels)+2)
	attrs = append(attrs,
		slog.String("metric", name),
		slog.Float64("value", value),
	)
	for k, v := range labels {
		attrs = append(attrs, slog.String(k, v))
	}

	logger.LogAttrs(ctx, slog.LevelDebug, "metric sample", attrs...)
}
