package fileutil

import (
	"os"
)

// Completed reports whether a clip output at path counts as finished: the
// file exists and has a size strictly greater than zero. A zero-byte file is
// indistinguishable from a generation that never started and must be redone.
func Completed(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Size() > 0
}
