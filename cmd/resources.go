package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hpcband/batchq/internal/batch"
	"github.com/hpcband/batchq/internal/console"
	"github.com/hpcband/batchq/internal/jobfile"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources [job.yaml]",
	Short: "Show the fully defaulted resource mapping",
	Long: `Print the resource mapping a job file resolves to after default-filling.
Without a job file, print the bare default table.`,
	Example: `  batchq resources
  batchq resources job.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResources,
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
}

func runResources(cmd *cobra.Command, args []string) error {
	var res batch.Resources
	if len(args) == 1 {
		job, err := jobfile.Load(args[0])
		if err != nil {
			return err
		}
		res = job.Resources
	}
	res = batch.DefaultResources(res)

	keys := make([]string, 0, len(res))
	for key := range res {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Printf("%s: %v\n", console.StyleName(key), res[key])
	}
	return nil
}
