package services

import "context"

type contextKey string

const (
	runIDKey    contextKey = "run_id"
	clipKey     contextKey = "clip_index"
	providerKey contextKey = "provider"
)

// WithRunID annotates context with the sequence run identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithClipIndex annotates context with the 1-based clip position being generated.
func WithClipIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, clipKey, index)
}

// ClipIndexFromContext extracts the clip index if present.
func ClipIndexFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(clipKey).(int); ok {
		return v, true
	}
	return 0, false
}

// WithProvider annotates context with the provider identifier.
func WithProvider(ctx context.Context, provider string) context.Context {
	if provider == "" {
		return ctx
	}
	return context.WithValue(ctx, providerKey, provider)
}

// ProviderFromContext extracts the provider identifier if present.
func ProviderFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(providerKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
