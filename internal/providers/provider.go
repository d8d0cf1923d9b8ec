package providers

import (
	"context"
	"strings"

	"vidstitch/internal/catalog"
)

// Request carries everything a provider needs to generate one clip. The
// orchestrator builds one Request per clip; SourceFrame is the continuity
// image threaded from the previous clip and is empty for the first clip of a
// sequence.
type Request struct {
	Prompt          string
	ReferenceImages []string
	SourceFrame     string
	Width           int
	Height          int
	DurationSeconds int
	Seed            *int64
	Model           string
	OutputPath      string
}

// Generator is the capability every provider implementation satisfies. A
// Generate call runs one remote generation to completion and writes the
// produced video to req.OutputPath, returning that path. Every failure must
// carry exactly one services marker so the caller can classify it as
// transient, credit exhaustion, or fatal without provider knowledge.
type Generator interface {
	Provider() catalog.Provider
	Generate(ctx context.Context, req Request) (string, error)
}

// Recorder receives artifact bookkeeping events from provider clients so
// generated tasks can be listed and re-downloaded later. Implementations must
// tolerate being nil-checked; recording is best effort and never fails a
// generation.
type Recorder interface {
	RecordGenerated(ctx context.Context, provider, taskID, model, prompt, downloadURL string) error
	RecordDownloaded(ctx context.Context, taskID, localPath string) error
}

// creditKeywords are the billing-failure phrases providers embed in error
// bodies. Matching any of them classifies the failure as credit exhaustion.
var creditKeywords = []string{
	"not enough credit",
	"enough credits",
	"insufficient credits",
	"insufficient_quota",
	"exceeded your current quota",
}

// LooksLikeCreditFailure reports whether an error body indicates billing
// exhaustion rather than a malformed request.
func LooksLikeCreditFailure(body string) bool {
	lowered := strings.ToLower(body)
	for _, kw := range creditKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
