// Package remote abstracts the execution channel between batchq and the
// machine that actually runs the scheduler. A Context is rooted at a working
// directory (local or on a remote host) and offers the file and shell
// primitives the batch layer needs; the batch layer never assumes
// local-filesystem semantics.
package remote

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFileNotFound indicates a file does not exist in the context's working directory.
var ErrFileNotFound = errors.New("file not found in working directory")

// CommandError reports a shell command that exited nonzero through a Context.
// It carries the raw stderr text and exit code so operators can diagnose
// scheduler-side issues.
type CommandError struct {
	Cmd      string // Command that was executed
	ExitCode int    // Process exit code
	Stderr   string // Captured standard error
}

func (e *CommandError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if stderr != "" {
		return fmt.Sprintf("command %q failed with exit code %d: %s", e.Cmd, e.ExitCode, stderr)
	}
	return fmt.Sprintf("command %q failed with exit code %d", e.Cmd, e.ExitCode)
}

// NewCommandError creates a new CommandError.
func NewCommandError(cmd string, exitCode int, stderr string) *CommandError {
	return &CommandError{
		Cmd:      cmd,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// IsCommandError checks if an error is a CommandError.
func IsCommandError(err error) bool {
	var ce *CommandError
	return errors.As(err, &ce)
}

// Context is the execution channel consumed by the batch layer.
//
// All paths are relative to the context's working directory, and all commands
// run with the working directory as their cwd. Implementations must make
// WriteFile durable before returning.
type Context interface {
	// Root returns the absolute path of the working directory.
	Root() string

	// WriteFile creates or overwrites a file in the working directory.
	WriteFile(name, content string) error

	// ReadFile returns a file's contents. Fails with ErrFileNotFound if absent.
	ReadFile(name string) (string, error)

	// FileExists reports whether a file exists. Never fails.
	FileExists(name string) bool

	// BlockCall executes a shell command and returns its exit code, stdout
	// and stderr. A nonzero exit is not an error; the returned error is
	// reserved for channel-level failures (e.g. the connection dropped).
	BlockCall(cmd string) (exitCode int, stdout, stderr string, err error)

	// BlockCheckCall executes a shell command and fails with a CommandError
	// if the exit code is nonzero.
	BlockCheckCall(cmd string) (stdout, stderr string, err error)
}
