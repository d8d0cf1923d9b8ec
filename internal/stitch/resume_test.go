package stitch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"vidstitch/internal/logging"
)

type stubExtractor struct {
	frame string
	err   error
	calls []string
}

func (s *stubExtractor) ExtractLastFrame(ctx context.Context, videoPath string) (string, error) {
	s.calls = append(s.calls, videoPath)
	if s.err != nil {
		return "", s.err
	}
	return s.frame, nil
}

func writeClip(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
}

func TestComputeResumeStateNothingOnDisk(t *testing.T) {
	dir := t.TempDir()
	expected := []string{
		filepath.Join(dir, "veo3_clip_1.mp4"),
		filepath.Join(dir, "veo3_clip_2.mp4"),
	}
	extractor := &stubExtractor{frame: "unused.png"}
	state := ComputeResumeState(context.Background(), expected, extractor, logging.NewNop())
	if state.StartIndex != 0 || len(state.Completed) != 0 || state.LastFrame != "" {
		t.Fatalf("state = %+v", state)
	}
	if len(extractor.calls) != 0 {
		t.Errorf("extractor called on empty resume: %v", extractor.calls)
	}
}

func TestComputeResumeStatePrefixContiguous(t *testing.T) {
	dir := t.TempDir()
	expected := []string{
		filepath.Join(dir, "veo3_clip_1.mp4"),
		filepath.Join(dir, "veo3_clip_2.mp4"),
		filepath.Join(dir, "veo3_clip_3.mp4"),
		filepath.Join(dir, "veo3_clip_4.mp4"),
	}
	writeClip(t, expected[0], 10)
	writeClip(t, expected[1], 10)
	// Gap at clip 3; clip 4 exists but must be ignored.
	writeClip(t, expected[3], 10)

	extractor := &stubExtractor{frame: "frame2.png"}
	state := ComputeResumeState(context.Background(), expected, extractor, logging.NewNop())
	if state.StartIndex != 2 {
		t.Fatalf("StartIndex = %d, want 2", state.StartIndex)
	}
	if len(state.Completed) != 2 {
		t.Fatalf("Completed = %v", state.Completed)
	}
	if state.LastFrame != "frame2.png" {
		t.Errorf("LastFrame = %q", state.LastFrame)
	}
	if len(extractor.calls) != 1 || extractor.calls[0] != expected[1] {
		t.Errorf("extractor calls = %v, want last completed clip", extractor.calls)
	}
}

func TestComputeResumeStateZeroByteIsIncomplete(t *testing.T) {
	dir := t.TempDir()
	expected := []string{
		filepath.Join(dir, "veo3_clip_1.mp4"),
		filepath.Join(dir, "veo3_clip_2.mp4"),
	}
	writeClip(t, expected[0], 10)
	writeClip(t, expected[1], 0)

	state := ComputeResumeState(context.Background(), expected, &stubExtractor{frame: "f.png"}, logging.NewNop())
	if state.StartIndex != 1 {
		t.Fatalf("StartIndex = %d, want 1", state.StartIndex)
	}
}

func TestComputeResumeStateAllComplete(t *testing.T) {
	dir := t.TempDir()
	expected := []string{
		filepath.Join(dir, "veo3_clip_1.mp4"),
		filepath.Join(dir, "veo3_clip_2.mp4"),
	}
	writeClip(t, expected[0], 10)
	writeClip(t, expected[1], 10)

	extractor := &stubExtractor{frame: "f.png"}
	state := ComputeResumeState(context.Background(), expected, extractor, logging.NewNop())
	if state.StartIndex != 2 {
		t.Fatalf("StartIndex = %d, want 2", state.StartIndex)
	}
	// No clip left to generate, so no continuity frame is needed.
	if len(extractor.calls) != 0 {
		t.Errorf("extractor calls = %v, want none", extractor.calls)
	}
	if state.LastFrame != "" {
		t.Errorf("LastFrame = %q, want empty", state.LastFrame)
	}
}

func TestComputeResumeStateDegradesOnExtractionFailure(t *testing.T) {
	dir := t.TempDir()
	expected := []string{
		filepath.Join(dir, "veo3_clip_1.mp4"),
		filepath.Join(dir, "veo3_clip_2.mp4"),
	}
	writeClip(t, expected[0], 10)

	extractor := &stubExtractor{err: errors.New("ffmpeg exploded")}
	state := ComputeResumeState(context.Background(), expected, extractor, logging.NewNop())
	if state.StartIndex != 1 {
		t.Fatalf("StartIndex = %d, want 1", state.StartIndex)
	}
	if state.LastFrame != "" {
		t.Errorf("LastFrame = %q, want empty after extraction failure", state.LastFrame)
	}
}
