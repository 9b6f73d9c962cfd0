// Package config holds global application settings for batchq.
package config

import (
	"time"
)

const VERSION = "0.4.2"

// Config holds global application settings
type Config struct {
	Debug   bool
	Quiet   bool
	Backend string // Scheduler backend name ("pbs", "slurm")
	WorkDir string // Job working directory (local path, or remote path with the ssh context)

	// Execution channel settings. Context is "local" or "ssh".
	Context    string
	SSHHost    string
	SSHPort    int
	SSHUser    string
	SSHKeyFile string

	// Polling defaults for `batchq wait`
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Global holds the singleton configuration instance
var Global Config

// LoadDefaults resets Global to its built-in defaults. Values from the config
// file, environment and command-line flags are layered on top afterwards.
func LoadDefaults() {
	Global = Config{
		Debug:        false,
		Quiet:        false,
		Backend:      "pbs",
		WorkDir:      ".",
		Context:      "local",
		SSHPort:      22,
		PollInterval: 30 * time.Second,
		PollTimeout:  0, // no timeout
	}
}
