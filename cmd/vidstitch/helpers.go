package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vidstitch/internal/catalog"
	"vidstitch/internal/config"
	"vidstitch/internal/frames"
	"vidstitch/internal/providers"
	"vidstitch/internal/runlock"
)

// videoFlags are the generation parameters shared by generate and stitch.
type videoFlags struct {
	provider string
	model    string
	width    int
	height   int
	duration int
}

func (f *videoFlags) resolve(cfg *config.Config) (catalog.Provider, error) {
	provider, err := catalog.Parse(f.provider)
	if err != nil {
		return "", err
	}
	if f.width == 0 {
		f.width = cfg.Defaults.Width
	}
	if f.height == 0 {
		f.height = cfg.Defaults.Height
	}
	if f.duration == 0 {
		f.duration = cfg.Defaults.DurationSeconds
	}
	return provider, nil
}

// collectPrompts merges positional prompts with an optional prompts file,
// one prompt per line, blank lines and #-comments skipped.
func collectPrompts(args []string, promptsFile string) ([]string, error) {
	prompts := append([]string(nil), args...)
	if promptsFile == "" {
		return prompts, nil
	}

	file, err := os.Open(promptsFile)
	if err != nil {
		return nil, fmt.Errorf("open prompts file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		prompts = append(prompts, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return prompts, nil
}

// parseImageGroups splits each --image-group value into its image paths.
// An empty value stands for a clip with no reference images.
func parseImageGroups(specs []string) [][]string {
	if len(specs) == 0 {
		return nil
	}
	groups := make([][]string, len(specs))
	for i, spec := range specs {
		for _, part := range strings.Split(spec, ",") {
			if part = strings.TrimSpace(part); part != "" {
				groups[i] = append(groups[i], part)
			}
		}
	}
	return groups
}

func buildProviderRequest(prompt string, images []string, flags videoFlags, model, outPath string, seedSet bool, seed int64) providers.Request {
	req := providers.Request{
		Prompt:          prompt,
		ReferenceImages: images,
		Width:           flags.width,
		Height:          flags.height,
		DurationSeconds: flags.duration,
		Model:           model,
		OutputPath:      outPath,
	}
	if seedSet {
		req.Seed = &seed
	}
	return req
}

// buildExtractor places continuity frames under a frames/ subdirectory of
// the output dir so they survive for inspection alongside the clips.
func buildExtractor(cfg *config.Config, logger *slog.Logger) (frames.Extractor, error) {
	framesDir := filepath.Join(cfg.Paths.OutputDir, "frames")
	if err := os.MkdirAll(framesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames directory: %w", err)
	}
	return frames.NewFFmpeg(framesDir, logger), nil
}

// acquireRunLock locks the directory the run writes into: the first
// explicit output's directory when paths are given, the output dir
// otherwise.
func acquireRunLock(outputDir string, outputPaths []string) (*runlock.Lock, error) {
	dir := outputDir
	if len(outputPaths) > 0 {
		dir = filepath.Dir(outputPaths[0])
	}
	return runlock.Acquire(dir)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
