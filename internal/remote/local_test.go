package remote

import (
	"errors"
	"strings"
	"testing"
)

func TestLocalContextWriteReadFile(t *testing.T) {
	ctx, err := NewLocalContext(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalContext failed: %v", err)
	}

	if err := ctx.WriteFile("job_id", "12345.server"); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, err := ctx.ReadFile("job_id")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if content != "12345.server" {
		t.Errorf("ReadFile = %q, want %q", content, "12345.server")
	}

	// Overwrite must replace the previous contents
	if err := ctx.WriteFile("job_id", "67890.server"); err != nil {
		t.Fatalf("WriteFile (overwrite) failed: %v", err)
	}
	content, err = ctx.ReadFile("job_id")
	if err != nil {
		t.Fatalf("ReadFile after overwrite failed: %v", err)
	}
	if content != "67890.server" {
		t.Errorf("ReadFile after overwrite = %q, want %q", content, "67890.server")
	}
}

func TestLocalContextReadFileNotFound(t *testing.T) {
	ctx, err := NewLocalContext(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalContext failed: %v", err)
	}

	_, err = ctx.ReadFile("missing")
	if !errors.Is(err, ErrFileNotFound) {
		t.Errorf("ReadFile(missing) error = %v, want ErrFileNotFound", err)
	}
}

func TestLocalContextFileExists(t *testing.T) {
	ctx, err := NewLocalContext(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalContext failed: %v", err)
	}

	if ctx.FileExists("tag_finished") {
		t.Error("FileExists(tag_finished) = true before file is written")
	}
	if err := ctx.WriteFile("tag_finished", ""); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if !ctx.FileExists("tag_finished") {
		t.Error("FileExists(tag_finished) = false after file is written")
	}
}

func TestLocalContextBlockCall(t *testing.T) {
	ctx, err := NewLocalContext(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalContext failed: %v", err)
	}

	code, stdout, _, err := ctx.BlockCall("echo hello")
	if err != nil {
		t.Fatalf("BlockCall failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if strings.TrimSpace(stdout) != "hello" {
		t.Errorf("stdout = %q, want %q", stdout, "hello\n")
	}

	// Nonzero exit is reported through the exit code, not an error
	code, _, stderr, err := ctx.BlockCall("echo oops >&2; exit 3")
	if err != nil {
		t.Fatalf("BlockCall with failing command returned error: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if !strings.Contains(stderr, "oops") {
		t.Errorf("stderr = %q, want it to contain %q", stderr, "oops")
	}
}

func TestLocalContextBlockCallRunsInWorkDir(t *testing.T) {
	ctx, err := NewLocalContext(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalContext failed: %v", err)
	}

	if _, _, err := ctx.BlockCheckCall("touch tag_finished"); err != nil {
		t.Fatalf("BlockCheckCall failed: %v", err)
	}
	if !ctx.FileExists("tag_finished") {
		t.Error("command did not run in the working directory")
	}
}

func TestLocalContextBlockCheckCallError(t *testing.T) {
	ctx, err := NewLocalContext(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalContext failed: %v", err)
	}

	_, _, err = ctx.BlockCheckCall("echo bad >&2; exit 1")
	if err == nil {
		t.Fatal("BlockCheckCall with failing command returned nil error")
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error = %T, want *CommandError", err)
	}
	if cmdErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", cmdErr.ExitCode)
	}
	if !strings.Contains(cmdErr.Stderr, "bad") {
		t.Errorf("Stderr = %q, want it to contain %q", cmdErr.Stderr, "bad")
	}
}
