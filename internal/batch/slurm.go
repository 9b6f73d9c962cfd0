package batch

import (
	"fmt"
	"strings"

	"github.com/hpcband/batchq/internal/remote"
)

// slurmUnknownJobMsg is squeue's canonical stderr message for a job id that
// has aged out of the queue.
const slurmUnknownJobMsg = "Invalid job id specified"

// slurmStatusCodes maps squeue status codes to normalized statuses. CG
// (completing) is folded into running: the job still occupies the queue and
// resolves on the next poll. Terminal codes are resolved against the finish
// tag.
var slurmStatusCodes = map[string]JobStatus{
	"PD": StatusWaiting,
	"CF": StatusWaiting,
	"S":  StatusWaiting,
	"R":  StatusRunning,
	"CG": StatusRunning,
	"BF": statusDone,
	"CA": statusDone,
	"CD": statusDone,
	"F":  statusDone,
	"NF": statusDone,
	"PR": statusDone,
	"SE": statusDone,
	"ST": statusDone,
	"TO": statusDone,
}

// Slurm is the job backend for Slurm clusters. It is structurally parallel to
// PBS: same handle protocol, same state machine, scheduler-specific script
// directives and command syntax.
type Slurm struct {
	handle
}

// NewSlurm creates a Slurm job handle bound to a context.
func NewSlurm(ctx remote.Context) *Slurm {
	return &Slurm{handle{ctx: ctx}}
}

// Name returns the backend's registry name.
func (s *Slurm) Name() string {
	return "slurm"
}

// DefaultResources fills missing resource keys with their defaults.
func (s *Slurm) DefaultResources(res Resources) Resources {
	return DefaultResources(res)
}

// ScriptHead generates the #SBATCH directive header. The same conditional
// rules apply as for PBS: gpu directive only when gpus > 0, mem only when
// mem_limit > 0, partition/account/qos only when non-empty, and deterministic
// ordering throughout.
func (s *Slurm) ScriptHead(res Resources) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/bash -l\n")

	fmt.Fprintf(&sb, "#SBATCH --nodes=%d\n", res.Int(KeyNodes))
	fmt.Fprintf(&sb, "#SBATCH --ntasks-per-node=%d\n", res.Int(KeyTasksPerNode))
	fmt.Fprintf(&sb, "#SBATCH --cpus-per-task=%d\n", res.Int(KeyCpusPerTask))
	if res.Int(KeyGpus) > 0 {
		fmt.Fprintf(&sb, "#SBATCH --gres=gpu:%d\n", res.Int(KeyGpus))
	}
	fmt.Fprintf(&sb, "#SBATCH --time=%s\n", res.Str(KeyTimeLimit))
	if res.Int(KeyMemLimit) > 0 {
		fmt.Fprintf(&sb, "#SBATCH --mem=%dG\n", res.Int(KeyMemLimit))
	}
	if partition := res.Str(KeyPartition); partition != "" {
		fmt.Fprintf(&sb, "#SBATCH --partition=%s\n", partition)
	}
	if account := res.Str(KeyAccount); account != "" {
		fmt.Fprintf(&sb, "#SBATCH --account=%s\n", account)
	}
	if qos := res.Str(KeyQos); qos != "" {
		fmt.Fprintf(&sb, "#SBATCH --qos=%s\n", qos)
	}
	for _, constraint := range res.List(KeyConstraints) {
		fmt.Fprintf(&sb, "#SBATCH --constraint=%s\n", constraint)
	}
	for _, license := range res.List(KeyLicenses) {
		fmt.Fprintf(&sb, "#SBATCH --licenses=%s\n", license)
	}
	if exclude := res.List(KeyExcludeList); len(exclude) > 0 {
		fmt.Fprintf(&sb, "#SBATCH --exclude=%s\n", strings.Join(exclude, ","))
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

	sb.WriteString("cd $SLURM_SUBMIT_DIR\n")
	return sb.String()
}

// StepHead builds the srun prefix for a step-level resource override.
func (s *Slurm) StepHead(step Resources) string {
	return stepLaunchPrefix(step)
}

// ScriptCmd builds the payload command line, stripping inline redirection and
// adding the srun prefix when MPI execution is requested.
func (s *Slurm) ScriptCmd(cmd, args string, res Resources) string {
	trimmed, _, _ := strings.Cut(cmd, "1>")
	trimmed = strings.TrimSpace(trimmed)
	if res.Bool(KeyWithMPI) {
		return fmt.Sprintf("srun %s %s", trimmed, args)
	}
	return fmt.Sprintf("%s %s", trimmed, args)
}

// Submit writes the script, runs sbatch against it, and persists the job id.
// sbatch reports "Submitted batch job <id>"; the id is the last token of the
// first output line.
func (s *Slurm) Submit(script string) (string, error) {
	return s.submitScript("slurm", "sbatch "+ScriptFileName, script, func(fields []string) string {
		return fields[len(fields)-1]
	})
}

// CheckStatus performs one squeue poll and maps the result to a normalized
// status. With no persisted job id it returns StatusUnsubmitted without
// touching the remote system.
func (s *Slurm) CheckStatus() (JobStatus, error) {
	jobID, err := s.JobID()
	if err != nil {
		return StatusUnknown, err
	}
	if jobID == "" {
		return StatusUnsubmitted, nil
	}
	return s.pollStatus("slurm", "squeue --job "+jobID, slurmUnknownJobMsg, parseSlurmStatusCode, slurmStatusCodes)
}

// parseSlurmStatusCode extracts the ST column from squeue's tabular output:
// the fourth-from-last field of the second-to-last line.
//
//	JOBID PARTITION  NAME  USER ST  TIME NODES NODELIST(REASON)
//	 4417     batch   scf  user  R  1:03     1 cn-0042
func parseSlurmStatusCode(stdout string) (string, bool) {
	return statusLineField(stdout, 4)
}
