package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hpcband/batchq/internal/batch"
	"github.com/hpcband/batchq/internal/jobfile"
)

var scriptCmd = &cobra.Command{
	Use:   "script <job.yaml>",
	Short: "Render the submission script without submitting",
	Long: `Render the scheduler submission script a job file would produce and print
it to stdout. Nothing is written or submitted; useful for reviewing resource
directives before a real submission.

Script generation is deterministic: the same job file always renders the same
bytes.`,
	Example: `  batchq script job.yaml
  batchq script -b slurm job.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
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

	res := backend.DefaultResources(job.Resources)
	fmt.Print(batch.BuildScript(backend, job.Command, job.Args, res, job.StepResources))
	return nil
}
