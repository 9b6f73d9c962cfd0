package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hpcband/batchq/internal/batch"
	"github.com/hpcband/batchq/internal/config"
	"github.com/hpcband/batchq/internal/console"
	"github.com/hpcband/batchq/internal/remote"
)

var (
	debugMode   bool
	quietMode   bool
	flagBackend string
	flagWorkDir string
	flagContext string

	// exitCode is the process exit code requested by a command that completed
	// without error (the status command's polling contract). Execute applies
	// it after cobra returns, so deferred cleanup in the command still runs.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:           "batchq",
	Short:         "batchq: submit and track jobs on PBS/Slurm clusters, locally or over SSH.",
	Version:       config.VERSION,
	SilenceErrors: true,
	SilenceUsage:  true,

	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Step 1: Load defaults
		config.LoadDefaults()

		// Step 2: Initialize Viper (read config file, env vars)
		if err := config.InitViper(); err != nil {
			console.PrintDebug("Error reading config file: %v", err)
		}

		// Step 3: Load values from Viper into Global config
		config.LoadFromViper()

		// Step 4: Apply command-line flags (highest priority)
		if debugMode {
			console.DebugMode = true
			config.Global.Debug = true
			console.PrintDebug("Debug mode enabled")
			console.PrintDebug("batchq Version: %s", console.StyleInfo(config.VERSION))
		}
		if quietMode {
			console.QuietMode = true
			config.Global.Quiet = true
		}
		if cmd.Flags().Changed("backend") {
			config.Global.Backend = flagBackend
		}
		if cmd.Flags().Changed("workdir") {
			config.Global.WorkDir = flagWorkDir
		}
		if cmd.Flags().Changed("context") {
			config.Global.Context = flagContext
		}

		console.PrintDebug("Backend:  %s", config.Global.Backend)
		console.PrintDebug("Context:  %s", config.Global.Context)
		console.PrintDebug("Work dir: %s", console.StylePath(config.Global.WorkDir))
	},
}

func init() {
	rootCmd.PersistentFlags().SetNormalizeFunc(normalizeFlagName)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().StringVarP(&flagBackend, "backend", "b", "pbs", "Scheduler backend (pbs, slurm)")
	rootCmd.PersistentFlags().StringVarP(&flagWorkDir, "workdir", "w", ".", "Job working directory")
	rootCmd.PersistentFlags().StringVarP(&flagContext, "context", "c", "local", "Execution context (local, ssh)")
}

// normalizeFlagName accepts hyphenated spellings of the persistent flags, so
// --work-dir resolves to --workdir.
func normalizeFlagName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "-", ""))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		console.PrintError("%v", err)
		if remote.IsCommandError(err) {
			console.PrintMessage("%s Run with %s to see the commands sent to the scheduler",
				console.StyleHint("Hint:"), console.StyleCommand("--debug"))
		}
		os.Exit(1)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// newContext builds the execution channel from the global config.
// The returned closer is non-nil for contexts holding a connection.
func newContext() (remote.Context, func() error, error) {
	switch config.Global.Context {
	case "local", "":
		ctx, err := remote.NewLocalContext(config.Global.WorkDir)
		if err != nil {
			return nil, nil, err
		}
		return ctx, nil, nil
	case "ssh":
		if config.Global.SSHHost == "" {
			return nil, nil, fmt.Errorf("ssh context requires ssh.host to be configured")
		}
		ctx, err := remote.NewSSHContext(remote.SSHConfig{
			Host:    config.Global.SSHHost,
			Port:    config.Global.SSHPort,
			User:    config.Global.SSHUser,
			KeyFile: config.Global.SSHKeyFile,
		}, config.Global.WorkDir)
		if err != nil {
			return nil, nil, err
		}
		return ctx, ctx.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown context %q (want local or ssh)", config.Global.Context)
	}
}

// newBackend builds the scheduler backend named by name (or the configured
// default when name is empty), bound to a fresh context.
func newBackend(name string) (batch.Backend, func() error, error) {
	if name == "" {
		name = config.Global.Backend
	}
	ctx, closer, err := newContext()
	if err != nil {
		return nil, nil, err
	}
	backend, err := batch.New(name, ctx)
	if err != nil {
		if closer != nil {
			closer()
		}
		return nil, nil, err
	}
	return backend, closer, nil
}
