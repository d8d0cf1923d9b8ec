package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindFatal},
		{"transient", Wrap(ErrTransient, "runway", "create task", "rate limited", nil), KindTransient},
		{"credits", Wrap(ErrCreditExhausted, "runway", "create task", "", nil), KindCreditExhausted},
		{"validation", Wrap(ErrValidation, "google", "generate", "bad size", nil), KindFatal},
		{"configuration", Wrap(ErrConfiguration, "openai", "generate", "missing key", nil), KindFatal},
		{"plain", errors.New("boom"), KindFatal},
		{"cancelled", context.Canceled, KindCancelled},
		{"deadline", context.DeadlineExceeded, KindCancelled},
		{"wrapped cancel", fmt.Errorf("sleep: %w", context.Canceled), KindCancelled},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("%s: Classify = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestClassifyCancellationBeatsTransientMarker(t *testing.T) {
	err := Wrap(ErrTransient, "runway", "poll task", "", context.Canceled)
	if got := Classify(err); got != KindCancelled {
		t.Fatalf("Classify = %v, want KindCancelled", got)
	}
}

func TestWrapDetail(t *testing.T) {
	err := Wrap(ErrValidation, "runway", "create task", "duration out of range", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected validation marker")
	}
	want := "validation error: runway: create task: duration out of range"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", errors.New("boom"))
	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected transient marker by default")
	}
}
