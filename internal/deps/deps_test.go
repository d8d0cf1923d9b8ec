package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: ""},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Errorf("expected %q to resolve: %+v", present, results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Errorf("expected missing binary to report detail: %+v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Errorf("expected unset command detail: %+v", results[2])
	}
}

func TestDefaultRequiresFFmpeg(t *testing.T) {
	reqs := Default()
	if len(reqs) == 0 || reqs[0].Command != "ffmpeg" {
		t.Fatalf("expected ffmpeg requirement, got %+v", reqs)
	}
}
