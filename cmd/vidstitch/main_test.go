package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vidstitch/internal/testsupport"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestModelsCommandListsCatalog(t *testing.T) {
	output, err := runCommand(t, "models")
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	for _, want := range []string{"sora-2", "veo-3.1-fast-generate-preview", "gen4_turbo", "runway"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, target) {
		t.Errorf("output missing target path:\n%s", output)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[paths]") {
		t.Errorf("sample config missing [paths] section")
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("existing"), 0o644); err != nil {
		t.Fatalf("seed config: %v", err)
	}
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("config init overwrote existing file without --overwrite")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestGenerateRejectsUnknownProvider(t *testing.T) {
	configPath := testsupport.WriteConfig(t, t.TempDir())
	_, err := runCommand(t, "--config", configPath,
		"generate", "a fox", "--provider", "bogus")
	if err == nil {
		t.Fatal("unknown provider accepted")
	}
	if !strings.Contains(err.Error(), "unsupported provider") {
		t.Errorf("err = %v", err)
	}
}

func TestGenerateRejectsForeignModel(t *testing.T) {
	configPath := testsupport.WriteConfig(t, t.TempDir())
	_, err := runCommand(t, "--config", configPath,
		"generate", "a fox", "--provider", "google", "--model", "sora-2")
	if err == nil {
		t.Fatal("foreign model accepted")
	}
	if !strings.Contains(err.Error(), "--provider openai") {
		t.Errorf("err missing remediation hint: %v", err)
	}
}

func TestDefaultEditOutputPath(t *testing.T) {
	got := defaultEditOutputPath(filepath.Join("videos", "tour.mp4"))
	want := filepath.Join("videos", "tour_aleph_edited.mp4")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestParseImageGroups(t *testing.T) {
	groups := parseImageGroups([]string{"foyer1.png, foyer2.png", "", "kitchen1.png"})
	if len(groups) != 3 {
		t.Fatalf("groups = %v, want one per spec", groups)
	}
	if len(groups[0]) != 2 || groups[0][1] != "foyer2.png" {
		t.Errorf("groups[0] = %v", groups[0])
	}
	if len(groups[1]) != 0 {
		t.Errorf("empty spec should yield no images, got %v", groups[1])
	}
	if len(groups[2]) != 1 || groups[2][0] != "kitchen1.png" {
		t.Errorf("groups[2] = %v", groups[2])
	}
	if parseImageGroups(nil) != nil {
		t.Error("no specs should yield nil")
	}
}

func TestCollectPrompts(t *testing.T) {
	dir := t.TempDir()
	promptsFile := filepath.Join(dir, "prompts.txt")
	content := "first prompt\n\n# a comment\nsecond prompt\n"
	if err := os.WriteFile(promptsFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write prompts: %v", err)
	}

	prompts, err := collectPrompts([]string{"from arg"}, promptsFile)
	if err != nil {
		t.Fatalf("collectPrompts: %v", err)
	}
	want := []string{"from arg", "first prompt", "second prompt"}
	if len(prompts) != len(want) {
		t.Fatalf("prompts = %v", prompts)
	}
	for i := range want {
		if prompts[i] != want[i] {
			t.Errorf("prompts[%d] = %q, want %q", i, prompts[i], want[i])
		}
	}
}
