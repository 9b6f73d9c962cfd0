package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hpcband/batchq/internal/batch"
	"github.com/hpcband/batchq/internal/console"
)

// Exit codes for `batchq status`, meant for shell polling loops.
const (
	exitFinished   = 0 // job finished successfully
	exitTerminated = 1 // job was killed, crashed, or timed out
	exitUnknown    = 2 // scheduler reported an unrecognized code; retry
	exitPending    = 3 // unsubmitted, waiting or running; poll again
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Poll the job in the working directory once",
	Long: `Perform a single status poll for the job whose id is persisted in the
working directory and print the normalized status.

Exit codes: 0 finished, 1 terminated, 2 unknown (retryable), 3 pending
(unsubmitted/waiting/running — poll again).`,
	Example: `  batchq status -w runs/mol-0042
  batchq status -c ssh -b slurm`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	backend, closer, err := newBackend("")
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	status, err := backend.CheckStatus()
	if err != nil {
		return err
	}

	reportStatus(status)
	return nil
}

// reportStatus prints the status and records the exit code for Execute to
// apply. Exiting here would skip the deferred context closer.
func reportStatus(status batch.JobStatus) {
	fmt.Println(styleStatus(status))
	exitCode = statusExitCode(status)
}

// statusExitCode maps a normalized status to the CLI exit-code contract.
func statusExitCode(status batch.JobStatus) int {
	switch status {
	case batch.StatusFinished:
		return exitFinished
	case batch.StatusTerminated:
		return exitTerminated
	case batch.StatusUnknown:
		return exitUnknown
	default:
		return exitPending
	}
}

// styleStatus colors a status word for terminal output.
func styleStatus(status batch.JobStatus) string {
	switch status {
	case batch.StatusFinished:
		return console.StyleSuccess(status.String())
	case batch.StatusTerminated:
		return console.StyleError(status.String())
	case batch.StatusUnknown:
		return console.StyleWarning(status.String())
	default:
		return console.StyleInfo(status.String())
	}
}
