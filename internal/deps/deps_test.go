package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result %#v", results[2])
	}
}

func TestCheckFFmpegFilter(t *testing.T) {
	listing := []byte(" ... scale             V->V       Scale the input video size\n" +
		" ... subtitles         V->V       Render text subtitles onto input video using the libass library.\n")

	tests := []struct {
		name   string
		output []byte
		err    error
		want   bool
	}{
		{name: "present", output: listing, want: true},
		{name: "absent", output: []byte(" ... scale V->V Scale\n"), want: false},
		{name: "command fails", err: errors.New("exit status 1"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotArgs []string
			status := CheckFFmpegFilter(context.Background(), "ffmpeg", "subtitles", func(_ context.Context, _ string, args ...string) ([]byte, error) {
				gotArgs = args
				return tt.output, tt.err
			})
			if status.Available != tt.want {
				t.Fatalf("Available = %v, want %v (detail %q)", status.Available, tt.want, status.Detail)
			}
			if !tt.want && status.Detail == "" {
				t.Fatal("expected detail for unavailable filter")
			}
			if len(gotArgs) != 2 || gotArgs[1] != "-filters" {
				t.Fatalf("unexpected args %v", gotArgs)
			}
		})
	}
}
