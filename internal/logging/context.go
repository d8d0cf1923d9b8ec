package logging

import (
	"context"
	"log/slog"

	"vidstitch/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRunID is the standardized structured logging key for sequence run identifiers.
	FieldRunID = "run_id"
	// FieldClipIndex is the standardized structured logging key for 1-based clip positions.
	FieldClipIndex = "clip_index"
	// FieldProvider is the standardized structured logging key for provider identifiers.
	FieldProvider = "provider"
	// FieldEventType tags log records for machine filtering (clip_start, clip_complete, ...).
	FieldEventType = "event_type"
	// FieldAttempt is the standardized structured logging key for retry attempt counters.
	FieldAttempt = "attempt"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	if provider, ok := services.ProviderFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldProvider, provider))
	}
	if idx, ok := services.ClipIndexFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldClipIndex, idx))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
