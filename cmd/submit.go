package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hpcband/batchq/internal/batch"
	"github.com/hpcband/batchq/internal/console"
	"github.com/hpcband/batchq/internal/jobfile"
)

var submitCmd = &cobra.Command{
	Use:   "submit <job.yaml>",
	Short: "Generate the submission script and submit the job",
	Long: `Generate the scheduler submission script from a job file, write it into
the working directory, submit it, and persist the scheduler-assigned job id.

The working directory keeps three files: the submission script (sub.sh), the
job id (job_id), and the finish tag (tag_finished) the payload touches on
success. A persisted job id means the job was already submitted; resubmission
requires a fresh working directory.`,
	Example: `  batchq submit job.yaml
  batchq submit -w runs/mol-0042 job.yaml
  batchq submit -c ssh -b slurm job.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	job, err := jobfile.Load(args[0])
	if err != nil {
		return err
	}

	backend, closer, err := newBackend(job.Backend)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	// Refuse to clobber a live submission: each job id is immutable once
	// written, and a new submission belongs in a new working directory.
	status, err := backend.CheckStatus()
	if err != nil {
		return err
	}
	if status != batch.StatusUnsubmitted {
		return batch.ErrAlreadySubmitted
	}

	jobID, err := batch.SubmitJob(backend, job.Command, job.Args, job.Resources, job.StepResources)
	if err != nil {
		return err
	}

	console.PrintSuccess("Submitted %s job %s", backend.Name(), console.StyleNumber(jobID))
	return nil
}
