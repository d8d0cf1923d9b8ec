package stitch

import (
	"context"
	"log/slog"

	"vidstitch/internal/fileutil"
	"vidstitch/internal/frames"
	"vidstitch/internal/logging"
)

// ResumeState describes how much of a sequence already exists on disk.
type ResumeState struct {
	// Completed holds the paths of clips that can be skipped, in clip order.
	Completed []string
	// StartIndex is the zero-based index of the first clip to generate.
	StartIndex int
	// LastFrame is the extracted final frame of the last completed clip,
	// or empty when nothing is completed or extraction failed.
	LastFrame string
}

// ComputeResumeState scans the expected output paths and reports the
// longest completed prefix. A clip counts as completed only when the file
// exists with nonzero size; a zero-byte file is treated as never started.
// Clips after the first gap are ignored even if present, because each clip
// is conditioned on its predecessor's final frame and an out-of-order
// survivor would break continuity.
//
// The scan never fails. If the continuity frame cannot be extracted from
// the last completed clip, LastFrame is left empty and the next clip is
// generated without one.
func ComputeResumeState(ctx context.Context, expected []string, extractor frames.Extractor, logger *slog.Logger) ResumeState {
	if logger == nil {
		logger = logging.NewNop()
	}

	state := ResumeState{}
	for _, path := range expected {
		if !fileutil.Completed(path) {
			break
		}
		state.Completed = append(state.Completed, path)
	}
	state.StartIndex = len(state.Completed)

	if state.StartIndex == 0 || state.StartIndex >= len(expected) {
		return state
	}

	lastClip := state.Completed[len(state.Completed)-1]
	frame, err := extractor.ExtractLastFrame(ctx, lastClip)
	if err != nil {
		logger.Warn("could not extract continuity frame, regenerating without one",
			logging.String("clip", lastClip),
			logging.Error(err),
		)
		return state
	}
	state.LastFrame = frame
	return state
}
