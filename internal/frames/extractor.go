package frames

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"vidstitch/internal/fileutil"
	"vidstitch/internal/logging"
	"vidstitch/internal/services"
)

// Extractor produces a still image of the last rendered frame of a clip.
// Implementations may fail; callers degrade to frame-less generation.
type Extractor interface {
	ExtractLastFrame(ctx context.Context, videoPath string) (string, error)
}

// FFmpeg extracts frames by shelling out to ffmpeg. Output images land in
// OutputDir, defaulting to the OS temp directory so the OS lifecycle owns
// cleanup.
type FFmpeg struct {
	Binary    string
	OutputDir string
	Logger    *slog.Logger
}

// NewFFmpeg constructs an extractor with defaults applied.
func NewFFmpeg(outputDir string, logger *slog.Logger) *FFmpeg {
	return &FFmpeg{
		Binary:    "ffmpeg",
		OutputDir: outputDir,
		Logger:    logging.NewComponentLogger(logger, "frames"),
	}
}

// ExtractLastFrame seeks one second from the end of the clip and keeps the
// final decoded frame as a high-quality PNG named {stem}_last.png.
func (f *FFmpeg) ExtractLastFrame(ctx context.Context, videoPath string) (string, error) {
	videoPath = strings.TrimSpace(videoPath)
	if videoPath == "" {
		return "", services.Wrap(services.ErrValidation, "", "extract last frame", "empty video path", nil)
	}

	binary := strings.TrimSpace(f.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	outputDir := strings.TrimSpace(f.OutputDir)
	if outputDir == "" {
		outputDir = os.TempDir()
	}

	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	outputPNG := filepath.Join(outputDir, stem+"_last.png")

	cmd := exec.CommandContext(ctx, binary,
		"-y",
		"-sseof", "-1",
		"-i", videoPath,
		"-update", "1",
		"-q:v", "1",
		outputPNG,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "", "extract last frame",
			fmt.Sprintf("ffmpeg failed: %s", strings.TrimSpace(string(output))), err)
	}
	if !fileutil.Completed(outputPNG) {
		return "", services.Wrap(services.ErrExternalTool, "", "extract last frame",
			fmt.Sprintf("ffmpeg produced no frame at %s", outputPNG), nil)
	}

	if f.Logger != nil {
		f.Logger.Debug("extracted last frame",
			logging.String("video", videoPath),
			logging.String("frame", outputPNG),
		)
	}
	return outputPNG, nil
}
