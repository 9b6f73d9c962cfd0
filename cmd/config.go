package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hpcband/batchq/internal/config"
	"github.com/hpcband/batchq/internal/console"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the configuration batchq resolved from its config file, environment
variables and defaults, and where a user config file would be read from.`,
	Example: `  batchq config
  BATCHQ_BACKEND=slurm batchq config`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if file := viper.ConfigFileUsed(); file != "" {
		console.PrintMessage("Config file: %s", console.StylePath(file))
	} else {
		userPath, err := config.GetUserConfigPath()
		if err != nil {
			return err
		}
		console.PrintMessage("No config file found")
		console.PrintMessage("%s Create %s to persist these settings",
			console.StyleHint("Hint:"), console.StylePath(userPath))
	}

	printSetting("backend", config.Global.Backend)
	printSetting("workdir", config.Global.WorkDir)
	printSetting("context", config.Global.Context)
	printSetting("ssh.host", config.Global.SSHHost)
	printSetting("ssh.port", config.Global.SSHPort)
	printSetting("ssh.user", config.Global.SSHUser)
	printSetting("ssh.key_file", config.Global.SSHKeyFile)
	printSetting("poll.interval", config.Global.PollInterval)
	printSetting("poll.timeout", config.Global.PollTimeout)
	return nil
}

func printSetting(key string, value interface{}) {
	fmt.Printf("%s: %v\n", console.StyleName(key), value)
}
