package cmd

import (
	"testing"

	"github.com/hpcband/batchq/internal/batch"
)

// The status command reports through the process exit code so shell polling
// loops can branch without parsing output.
func TestStatusExitCode(t *testing.T) {
	tests := []struct {
		status batch.JobStatus
		want   int
	}{
		{batch.StatusFinished, exitFinished},
		{batch.StatusTerminated, exitTerminated},
		{batch.StatusUnknown, exitUnknown},
		{batch.StatusUnsubmitted, exitPending},
		{batch.StatusWaiting, exitPending},
		{batch.StatusRunning, exitPending},
	}
	for _, tt := range tests {
		if got := statusExitCode(tt.status); got != tt.want {
			t.Errorf("statusExitCode(%s) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

// reportStatus must not exit the process itself: it records the exit code for
// Execute to apply, so deferred context cleanup still runs first.
func TestReportStatusRecordsExitCode(t *testing.T) {
	exitCode = 0
	defer func() { exitCode = 0 }()

	reportStatus(batch.StatusTerminated)

	// Reaching this line at all proves reportStatus returned control.
	if exitCode != exitTerminated {
		t.Errorf("exit code = %d, want %d", exitCode, exitTerminated)
	}
}

func TestNormalizeFlagName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"workdir", "workdir"},
		{"work-dir", "workdir"},
		{"backend", "backend"},
	}
	for _, tt := range tests {
		if got := string(normalizeFlagName(nil, tt.in)); got != tt.want {
			t.Errorf("normalizeFlagName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
