package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"subvoice/internal/recognition"
	"subvoice/internal/services"
)

func TestRenderStatusLine(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusOK, "found", false)
	want := "  " + "FFmpeg:" + strings.Repeat(" ", statusLabelWidth-len("FFmpeg:")) + " [OK] found"
	if got != want {
		t.Fatalf("renderStatusLine = %q, want %q", got, want)
	}

	colored := renderStatusLine("Recognition API", statusError, "", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red line, got %q", colored)
	}
	if !strings.Contains(colored, "[ERROR]") {
		t.Fatalf("expected bare status label, got %q", colored)
	}
}

func TestJobProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	observe := jobProgressPrinter(&buf, "diarize job", false)
	observe(1, recognition.StatusRunning)
	observe(3, recognition.StatusSucceeded)

	out := buf.String()
	if !strings.Contains(out, "[INFO] running (poll 1)") {
		t.Fatalf("missing running line: %q", out)
	}
	if !strings.Contains(out, "[OK] succeeded (poll 3)") {
		t.Fatalf("missing terminal line: %q", out)
	}
	if !strings.HasSuffix(out, "\n") || strings.Count(out, "\n") != 1 {
		t.Fatalf("only the terminal status should end the line: %q", out)
	}
}

func TestJobStatusKind(t *testing.T) {
	tests := map[recognition.Status]statusKind{
		recognition.StatusPending:   statusInfo,
		recognition.StatusRunning:   statusInfo,
		recognition.StatusSucceeded: statusOK,
		recognition.StatusFailed:    statusError,
		recognition.StatusTimedOut:  statusError,
	}
	for status, want := range tests {
		if got := jobStatusKind(status); got != want {
			t.Errorf("jobStatusKind(%s) = %d, want %d", status, got, want)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{context.Canceled, 130},
		{services.Wrap(services.ErrValidation, services.StageExtract, "run", "media missing", nil), 2},
		{services.Wrap(services.ErrJobFailed, services.StagePoll, "poll job", "boom", nil), 1},
		{errors.New("plain"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
