// Package batch submits units of work to an HPC cluster scheduler and tracks
// them through a normalized lifecycle. Each backend (PBS, Slurm) generates its
// scheduler's submission script from a declarative resource mapping, submits
// it through a remote.Context, and polls the scheduler's status command,
// resolving scheduler-terminal states against the payload's finish tag.
//
// A backend bound to a context is a single job handle: it owns one persisted
// job id in one working directory. Handles are synchronous and hold no shared
// mutable state, so callers may run many of them concurrently, each in its own
// working directory. Repeated polling with sleep intervals is the caller's
// responsibility; every individual poll is idempotent and side-effect-free on
// the remote system.
package batch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hpcband/batchq/internal/remote"
)

// Persisted state layout, relative to the context's working directory.
const (
	// ScriptFileName is the submission script written at submit time.
	ScriptFileName = "sub.sh"
	// JobIDFileName persists the scheduler-assigned job id. It is the single
	// source of truth for "has this job been submitted" across restarts.
	JobIDFileName = "job_id"
	// FinishTagFileName is the sentinel the generated script touches after the
	// payload command succeeds. Its presence is the only trusted proof of
	// successful completion. This package never deletes it.
	FinishTagFileName = "tag_finished"
)

// Backend is the capability interface every scheduler backend implements.
// One struct per scheduler, composed with a shared remote.Context; no deep
// inheritance.
type Backend interface {
	// Name returns the backend's registry name (e.g. "pbs").
	Name() string

	// DefaultResources fills missing resource keys with backend defaults.
	DefaultResources(res Resources) Resources

	// ScriptHead generates the submission script header: shebang, resource
	// directives, module/source/export setup and the cd into the scheduler's
	// working directory.
	ScriptHead(res Resources) string

	// StepHead builds a parallel-launcher prefix for a step-level resource
	// override. An absent override yields an empty prefix; otherwise the
	// command line is appended to the returned prefix.
	StepHead(step Resources) string

	// ScriptCmd builds the payload command line, stripping inline output
	// redirection and prefixing the parallel launcher when MPI is requested.
	ScriptCmd(cmd, args string, res Resources) string

	// CheckBeforeSub is an admission-control hook run before submission.
	// The base implementation is a deliberate no-op; backends for throttled
	// sites are expected to override it.
	CheckBeforeSub(res Resources) error

	// Submit writes the script into the working directory, invokes the
	// scheduler's submit command, and persists the assigned job id.
	// Any nonzero exit or unparsable output is a fatal error.
	Submit(script string) (string, error)

	// CheckStatus performs one status poll. With no persisted job id it
	// returns StatusUnsubmitted without any remote call. It never fails on
	// unrecognized scheduler codes (they degrade to StatusUnknown); it fails
	// only when the status command itself breaks for a reason other than the
	// job being gone from the queue.
	CheckStatus() (JobStatus, error)
}

// New creates a backend by registry name, bound to a context.
func New(name string, ctx remote.Context) (Backend, error) {
	switch strings.ToLower(name) {
	case "pbs", "torque":
		return NewPBS(ctx), nil
	case "slurm":
		return NewSlurm(ctx), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// BackendNames lists the registered backend names.
func BackendNames() []string {
	return []string{"pbs", "slurm"}
}

// BuildScript assembles the full submission script: header, the (optionally
// step-prefixed) payload command line, failure handling, and the finish-tag
// touch. Generation is deterministic: identical inputs produce byte-identical
// text, which keeps resubmission idempotent.
func BuildScript(b Backend, cmd, args string, res, step Resources) string {
	var sb strings.Builder
	sb.WriteString(b.ScriptHead(res))
	sb.WriteString("\n")

	sb.WriteString(b.StepHead(step))
	sb.WriteString(b.ScriptCmd(cmd, args, res))
	sb.WriteString("\n")
	if !res.Bool(KeyAllowFailure) {
		sb.WriteString("if test $? -ne 0; then exit 1; fi\n")
	}

	sb.WriteString("\n")
	sb.WriteString("touch " + FinishTagFileName + "\n")
	return sb.String()
}

// SubmitJob is the full submission pipeline: default the resources, run the
// admission hook, build the script and submit it. It returns the persisted
// job id.
func SubmitJob(b Backend, cmd, args string, res, step Resources) (string, error) {
	res = b.DefaultResources(res)
	if err := b.CheckBeforeSub(res); err != nil {
		return "", err
	}
	script := BuildScript(b, cmd, args, res, step)
	return b.Submit(script)
}

// handle carries the state shared by all backends: the execution channel and
// the persisted-file protocol around it.
type handle struct {
	ctx remote.Context
}

// JobID returns the persisted job id, or "" if the job was never submitted.
func (h *handle) JobID() (string, error) {
	if !h.ctx.FileExists(JobIDFileName) {
		return "", nil
	}
	id, err := h.ctx.ReadFile(JobIDFileName)
	if err != nil {
		// The file vanished between the existence check and the read; treat
		// it the same as never submitted.
		if errors.Is(err, remote.ErrFileNotFound) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(id), nil
}

// CheckBeforeSub is the base admission hook. It intentionally does nothing.
func (h *handle) CheckBeforeSub(res Resources) error {
	return nil
}

// finishTagPresent reports whether the payload wrote its success sentinel.
func (h *handle) finishTagPresent() bool {
	return h.ctx.FileExists(FinishTagFileName)
}

// submitScript is the shared submitter: write the script under the fixed
// name, run the scheduler's submit command (raising on nonzero exit), parse
// the job id out of the first output line with parseID, and persist it.
func (h *handle) submitScript(backend, subCmd, script string, parseID func(fields []string) string) (string, error) {
	if err := h.ctx.WriteFile(ScriptFileName, script); err != nil {
		return "", err
	}

	stdout, _, err := h.ctx.BlockCheckCall(subCmd)
	if err != nil {
		return "", NewSubmitError(backend, "", err)
	}

	firstLine, _, _ := strings.Cut(stdout, "\n")
	fields := strings.Fields(firstLine)
	if len(fields) == 0 {
		return "", NewSubmitError(backend, stdout, ErrJobIDParseFailed)
	}
	jobID := parseID(fields)
	if jobID == "" {
		return "", NewSubmitError(backend, stdout, ErrJobIDParseFailed)
	}

	if err := h.ctx.WriteFile(JobIDFileName, jobID); err != nil {
		return "", err
	}
	return jobID, nil
}

// pollStatus is the shared status state machine. goneMsg is the scheduler's
// canonical "unknown job id" stderr message; parseCode extracts the status
// code from the status command's stdout; table maps codes to statuses, with
// statusDone entries resolved against the finish tag.
func (h *handle) pollStatus(backend, statusCmd, goneMsg string, parseCode func(stdout string) (string, bool), table map[string]JobStatus) (JobStatus, error) {
	exitCode, stdout, stderr, err := h.ctx.BlockCall(statusCmd)
	if err != nil {
		return StatusUnknown, err
	}

	if exitCode != 0 {
		if strings.Contains(stderr, goneMsg) {
			// The job is gone from the queue: completed, killed or crashed.
			// Only the finish tag distinguishes these.
			return resolveTerminal(h.finishTagPresent()), nil
		}
		return StatusUnknown, NewStatusError(backend, statusCmd, exitCode, stderr)
	}

	code, ok := parseCode(stdout)
	if !ok {
		return StatusUnknown, nil
	}
	return mapStatusCode(table, code, h.finishTagPresent), nil
}

// statusLineField extracts a whitespace-delimited field from the second-to-
// last line of a status command's tabular output (the last line is typically
// blank). fromEnd counts from the end of the line: 1 is the last field.
// Returns false when the output is too short to parse.
func statusLineField(stdout string, fromEnd int) (string, bool) {
	lines := strings.Split(stdout, "\n")
	if len(lines) < 2 {
		return "", false
	}
	fields := strings.Fields(lines[len(lines)-2])
	if len(fields) < fromEnd {
		return "", false
	}
	return fields[len(fields)-fromEnd], true
}

// stepLaunchPrefix builds the parallel-launcher prefix for a step-level
// resource override. Each flag is appended only when the corresponding key is
// present (or, for gpus, nonzero). No validation is performed against the
// enclosing allocation; the launcher is left to reject impossible
// combinations.
func stepLaunchPrefix(step Resources) string {
	if len(step) == 0 {
		return ""
	}
	params := ""
	if step.Has(KeyNodes) {
		params += fmt.Sprintf(" -N %d", step.Int(KeyNodes))
	}
	if step.Has(KeyTasksPerNode) {
		nodes := step.Int(KeyNodes)
		if nodes == 0 {
			nodes = 1
		}
		params += fmt.Sprintf(" -n %d", step.Int(KeyTasksPerNode)*nodes)
	}
	if step.Has(KeyCpusPerTask) {
		params += fmt.Sprintf(" -c %d", step.Int(KeyCpusPerTask))
	}
	if step.Bool(KeyExclusive) {
		params += " --exclusive"
	}
	if step.Int(KeyGpus) > 0 {
		params += fmt.Sprintf(" --gres=gpu:%d", step.Int(KeyGpus))
	}
	return "srun" + params + " "
}
