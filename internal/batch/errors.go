package batch

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrUnknownBackend indicates the requested backend name is not registered
	ErrUnknownBackend = errors.New("unknown scheduler backend")

	// ErrJobIDParseFailed indicates parsing a job id from submit output failed
	ErrJobIDParseFailed = errors.New("failed to parse job id from scheduler output")

	// ErrAlreadySubmitted indicates a job id is already persisted for this handle
	ErrAlreadySubmitted = errors.New("job already submitted: a job id is persisted in the working directory")
)

// StatusError reports that a status-query command itself failed for a reason
// other than the job being gone from the queue. It is fatal for the poll: the
// caller gets the raw stderr and exit code instead of a guessed status.
type StatusError struct {
	Backend  string // Backend name (e.g. "pbs")
	Cmd      string // Status command that failed
	ExitCode int    // Process exit code
	Stderr   string // Captured standard error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status command %q failed to execute\nerror message: %s\nreturn code %d",
		e.Backend, e.Cmd, e.Stderr, e.ExitCode)
}

// NewStatusError creates a new StatusError.
func NewStatusError(backend, cmd string, exitCode int, stderr string) *StatusError {
	return &StatusError{
		Backend:  backend,
		Cmd:      cmd,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// IsStatusError checks if an error is a StatusError.
func IsStatusError(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// SubmitError reports a failed job submission.
type SubmitError struct {
	Backend string // Backend name
	Output  string // Scheduler output, if any
	Err     error  // Underlying error
}

func (e *SubmitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s submission failed: %v\noutput: %s", e.Backend, e.Err, e.Output)
	}
	return fmt.Sprintf("%s submission failed: %v", e.Backend, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// NewSubmitError creates a new SubmitError.
func NewSubmitError(backend, output string, err error) *SubmitError {
	return &SubmitError{
		Backend: backend,
		Output:  output,
		Err:     err,
	}
}

// IsSubmitError checks if an error is a SubmitError.
func IsSubmitError(err error) bool {
	var se *SubmitError
	return errors.As(err, &se)
}
