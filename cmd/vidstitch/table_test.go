package main

import (
	"strings"
	"testing"
)

func TestRenderTableKeepsHeaderCaseAndPadsRows(t *testing.T) {
	out := renderTable(
		[]string{"Provider", "Model"},
		[][]string{{"google", "veo3"}, {"runway"}},
	)
	if !strings.Contains(out, "Provider") || strings.Contains(out, "PROVIDER") {
		t.Fatalf("header casing changed:\n%s", out)
	}
	if !strings.Contains(out, "runway") {
		t.Fatalf("short row missing:\n%s", out)
	}
}

func TestRenderTableNoHeaders(t *testing.T) {
	if out := renderTable(nil, nil); out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}
