package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCompleted(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.mp4")
	if Completed(missing) {
		t.Error("missing file must not count as completed")
	}

	empty := filepath.Join(dir, "empty.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	if Completed(empty) {
		t.Error("zero-byte file must not count as completed")
	}

	full := filepath.Join(dir, "full.mp4")
	if err := os.WriteFile(full, []byte("frames"), 0o644); err != nil {
		t.Fatalf("write full: %v", err)
	}
	if !Completed(full) {
		t.Error("non-empty file must count as completed")
	}

	if Completed(dir) {
		t.Error("directory must not count as completed")
	}
}
