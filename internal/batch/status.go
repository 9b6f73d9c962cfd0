package batch

// JobStatus is the normalized lifecycle state of a scheduler job.
//
// The set is closed: any scheduler status word that does not map to a known
// code degrades to StatusUnknown instead of failing. Schedulers also expose a
// transient "completing" state; it is folded into StatusRunning here because
// a completing job still occupies the queue and resolves on the next poll.
type JobStatus int

const (
	// StatusUnsubmitted means no job id has ever been persisted.
	StatusUnsubmitted JobStatus = iota
	// StatusWaiting means the job is queued or held.
	StatusWaiting
	// StatusRunning means the job is actively executing.
	StatusRunning
	// StatusFinished means the job left the queue and its payload wrote the finish tag.
	StatusFinished
	// StatusTerminated means the job left the queue without writing the finish tag
	// (killed, crashed, or exceeded its wall-time).
	StatusTerminated
	// StatusUnknown means the scheduler reported a code this package does not
	// recognize. It is a degraded, retryable state, not an error.
	StatusUnknown
)

// statusDone is a private marker used in backend status tables for codes that
// mean "the job has left active execution". It never escapes this package:
// every occurrence is resolved to Finished or Terminated via the finish tag.
const statusDone JobStatus = -1

func (s JobStatus) String() string {
	switch s {
	case StatusUnsubmitted:
		return "unsubmitted"
	case StatusWaiting:
		return "waiting"
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status ends the current polling cycle.
// A new submission produces a new job identity, not a state transition.
func (s JobStatus) Terminal() bool {
	return s == StatusFinished || s == StatusTerminated
}

// resolveTerminal decides between Finished and Terminated once the scheduler
// reports the job gone or done. The scheduler's own terminal code is not
// trusted as proof of success: a job can reach a terminal scheduler state
// after crashing, being killed, or exceeding its wall-time, and the scheduler
// may report all of those identically to clean completion. Only the payload's
// self-written finish tag proves success.
func resolveTerminal(finishTagPresent bool) JobStatus {
	if finishTagPresent {
		return StatusFinished
	}
	return StatusTerminated
}

// mapStatusCode looks up a scheduler status code in a backend's table and
// resolves terminal codes via the finish tag. finishTag is only consulted for
// terminal codes, so non-terminal polls make no extra remote call.
// Unrecognized codes degrade to StatusUnknown.
func mapStatusCode(table map[string]JobStatus, code string, finishTag func() bool) JobStatus {
	status, ok := table[code]
	if !ok {
		return StatusUnknown
	}
	if status == statusDone {
		return resolveTerminal(finishTag())
	}
	return status
}
