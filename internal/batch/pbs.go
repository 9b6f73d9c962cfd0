package batch

import (
	"fmt"
	"strings"

	"github.com/hpcband/batchq/internal/remote"
)

// pbsUnknownJobMsg is qstat's canonical stderr message for a job id that has
// aged out of the queue.
const pbsUnknownJobMsg = "qstat: Unknown Job Id"

// pbsStatusCodes maps qstat single-letter status codes to normalized
// statuses. Terminal codes are resolved against the finish tag; the table is
// the single place scheduler codes are interpreted.
var pbsStatusCodes = map[string]JobStatus{
	"Q": StatusWaiting,
	"H": StatusWaiting,
	"R": StatusRunning,
	"C": statusDone,
	"E": statusDone,
	"K": statusDone,
}

// PBS is the job backend for PBS/Torque clusters.
type PBS struct {
	handle
}

// NewPBS creates a PBS job handle bound to a context.
func NewPBS(ctx remote.Context) *PBS {
	return &PBS{handle{ctx: ctx}}
}

// Name returns the backend's registry name.
func (p *PBS) Name() string {
	return "pbs"
}

// DefaultResources fills missing resource keys with their defaults.
func (p *PBS) DefaultResources(res Resources) Resources {
	return DefaultResources(res)
}

// ScriptHead generates the #PBS directive header.
//
// The gpus clause is emitted only when gpus > 0, the mem directive only when
// mem_limit > 0, and the queue directive only when partition is non-empty.
// List-valued keys are emitted in insertion order and env exports in sorted
// key order, so identical input yields byte-identical text.
func (p *PBS) ScriptHead(res Resources) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash -l\n")

	if res.Int(KeyGpus) == 0 {
		fmt.Fprintf(&sb, "#PBS -l nodes=%d:ppn=%d\n", res.Int(KeyNodes), res.Int(KeyTasksPerNode))
	} else {
		fmt.Fprintf(&sb, "#PBS -l nodes=%d:ppn=%d:gpus=%d\n",
			res.Int(KeyNodes), res.Int(KeyTasksPerNode), res.Int(KeyGpus))
	}
	fmt.Fprintf(&sb, "#PBS -l walltime=%s\n", res.Str(KeyTimeLimit))
	if res.Int(KeyMemLimit) > 0 {
		fmt.Fprintf(&sb, "#PBS -l mem=%dG\n", res.Int(KeyMemLimit))
	}
	sb.WriteString("#PBS -j oe\n")
	if partition := res.Str(KeyPartition); partition != "" {
		fmt.Fprintf(&sb, "#PBS -q %s\n", partition)
	}
	sb.WriteString("\n")

	for _, module := range res.List(KeyModuleUnloadList) {
		fmt.Fprintf(&sb, "module unload %s\n", module)
	}
	for _, module := range res.List(KeyModuleList) {
		fmt.Fprintf(&sb, "module load %s\n", module)
	}
	sb.WriteString("\n")
	for _, script := range res.List(KeySourceList) {
		fmt.Fprintf(&sb, "source %s\n", script)
	}
	sb.WriteString("\n")

	if envs := res.Envs(); envs != nil {
		for _, key := range res.EnvKeys() {
			fmt.Fprintf(&sb, "export %s=%s\n", key, envs[key])
		}
		sb.WriteString("\n")
	}

	sb.WriteString("cd $PBS_O_WORKDIR\n")
	return sb.String()
}

// StepHead builds the launcher prefix for a step-level resource override.
// PBS sites in this system run payloads through the same srun-compatible
// launcher as Slurm, so the prefix syntax is shared.
func (p *PBS) StepHead(step Resources) string {
	return stepLaunchPrefix(step)
}

// ScriptCmd builds the payload command line. Inline output redirection is
// stripped (the scheduler wrapper owns redirection) and the launcher prefix
// is added when MPI execution is requested.
func (p *PBS) ScriptCmd(cmd, args string, res Resources) string {
	trimmed, _, _ := strings.Cut(cmd, "1>")
	trimmed = strings.TrimSpace(trimmed)
	if res.Bool(KeyWithMPI) {
		return fmt.Sprintf("srun %s %s", trimmed, args)
	}
	return fmt.Sprintf("%s %s", trimmed, args)
}

// Submit writes the script, runs qsub against it, and persists the job id.
// qsub prints the job id as the first token of its first output line.
func (p *PBS) Submit(script string) (string, error) {
	return p.submitScript("pbs", "qsub "+ScriptFileName, script, func(fields []string) string {
		return fields[0]
	})
}

// CheckStatus performs one qstat poll and maps the result to a normalized
// status. With no persisted job id it returns StatusUnsubmitted without
// touching the remote system.
func (p *PBS) CheckStatus() (JobStatus, error) {
	jobID, err := p.JobID()
	if err != nil {
		return StatusUnknown, err
	}
	if jobID == "" {
		return StatusUnsubmitted, nil
	}
	return p.pollStatus("pbs", "qstat "+jobID, pbsUnknownJobMsg, parsePbsStatusCode, pbsStatusCodes)
}

// parsePbsStatusCode extracts the status letter from qstat's tabular output:
// the second-to-last field of the second-to-last line.
//
//	Job id        Name  User  Time Use S Queue
//	------------- ----- ----- -------- - -----
//	2201.server   scf   user  00:01:03 R batch
func parsePbsStatusCode(stdout string) (string, bool) {
	return statusLineField(stdout, 2)
}
