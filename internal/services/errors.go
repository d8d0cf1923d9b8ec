package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks failures that are safe to retry: provider capacity,
	// rate limiting, transport hiccups.
	ErrTransient = errors.New("transient failure")
	// ErrCreditExhausted marks billing failures. Never retried; a stitched run
	// stops gracefully and returns what it completed.
	ErrCreditExhausted = errors.New("insufficient credits")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrExternalTool    = errors.New("external tool error")
)

// Kind is the retry classification of a failure. Every provider error maps to
// exactly one kind; the orchestrator's retry wrapper keys off it.
type Kind int

const (
	KindFatal Kind = iota
	KindTransient
	KindCreditExhausted
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindCreditExhausted:
		return "credit_exhausted"
	case KindCancelled:
		return "cancelled"
	default:
		return "fatal"
	}
}

// Classify maps an error to its retry kind. Cancellation wins over any marker
// so a user interrupt during a retryable call never triggers another attempt.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindFatal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCancelled
	case errors.Is(err, ErrCreditExhausted):
		return KindCreditExhausted
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindFatal
	}
}

// Wrap builds an error message that includes provider context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, provider, operation, message string, err error) error {
	detail := buildDetail(provider, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(provider, operation, message string) string {
	parts := make([]string, 0, 3)
	if provider = strings.TrimSpace(provider); provider != "" {
		parts = append(parts, provider)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
