package stitch

import (
	"fmt"
	"path/filepath"

	"vidstitch/internal/catalog"
)

// ExpectedOutputPaths returns the on-disk destination for every clip in a
// sequence, in clip order. Explicit paths are used verbatim when supplied;
// otherwise clip n lands at {prefix}_clip_{n}.mp4 under outputDir, numbered
// from 1 so filenames line up with how people count clips.
func ExpectedOutputPaths(provider catalog.Provider, outputDir string, explicit []string, count int) []string {
	if len(explicit) > 0 {
		paths := make([]string, len(explicit))
		copy(paths, explicit)
		return paths
	}
	prefix := catalog.ClipPrefix(provider)
	paths := make([]string, 0, count)
	for n := 1; n <= count; n++ {
		paths = append(paths, filepath.Join(outputDir, fmt.Sprintf("%s_clip_%d.mp4", prefix, n)))
	}
	return paths
}
