package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hpcband/batchq/internal/batch"
	"github.com/hpcband/batchq/internal/config"
	"github.com/hpcband/batchq/internal/console"
)

var (
	waitInterval time.Duration
	waitTimeout  time.Duration
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Poll the job until it reaches a terminal state",
	Long: `Repeatedly poll the job in the working directory until it finishes or
terminates. Each poll is a single idempotent status query; the sleep interval
between polls is configurable.

An unknown status is retried like a pending one: unrecognized scheduler codes
are transient more often than not, and a poll can never make things worse.`,
	Example: `  batchq wait -w runs/mol-0042
  batchq wait --interval 10s --timeout 12h`,
	Args: cobra.NoArgs,
	RunE: runWait,
}

func init() {
	waitCmd.Flags().DurationVar(&waitInterval, "interval", 0, "Sleep between polls (default from config, 30s)")
	waitCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "Give up after this long (0 = no timeout)")
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
	backend, closer, err := newBackend("")
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	interval := waitInterval
	if interval == 0 {
		interval = config.Global.PollInterval
	}
	timeout := waitTimeout
	if timeout == 0 {
		timeout = config.Global.PollTimeout
	}

	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		status, err := backend.CheckStatus()
		if err != nil {
			return err
		}
		console.PrintDebug("Job status: %s", status)

		switch status {
		case batch.StatusFinished:
			console.PrintSuccess("Job finished")
			return nil
		case batch.StatusTerminated:
			return fmt.Errorf("job terminated without writing its finish tag")
		case batch.StatusUnsubmitted:
			return fmt.Errorf("no job id in working directory %s; submit first", config.Global.WorkDir)
		case batch.StatusUnknown:
			console.PrintWarning("Scheduler returned an unrecognized status code; polling again")
		}

		if !deadline.IsZero() && time.Now().After(deadline) {
			return fmt.Errorf("job still %s after %s", status, timeout)
		}
		time.Sleep(interval)
	}
}
