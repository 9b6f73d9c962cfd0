package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigFilename is the name of the config file
const ConfigFilename = "config"

// ConfigType is the type of config file (yaml, json, toml)
const ConfigType = "yaml"

// InitViper initializes Viper with proper search paths and defaults
// Priority (highest to lowest):
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (BATCHQ_*)
// 3. User config file (~/.config/batchq/config.yaml)
// 4. System config file (/etc/batchq/config.yaml)
// 5. Defaults
func InitViper() error {
	viper.SetConfigName(ConfigFilename)
	viper.SetConfigType(ConfigType)

	// Set config search paths (order matters)
	// User config (highest priority)
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(userConfigDir, "batchq"))
	}

	// Home directory fallback
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".batchq"))
	}

	// System-wide config (lower priority)
	viper.AddConfigPath("/etc/batchq")

	// Current directory (for development)
	viper.AddConfigPath(".")

	// Environment variables
	viper.SetEnvPrefix("BATCHQ")
	viper.AutomaticEnv()

	// Set defaults (lowest priority)
	setDefaults()

	// Read config file (non-fatal if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults apply
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// setDefaults sets default values for all config keys
func setDefaults() {
	viper.SetDefault("backend", "pbs")
	viper.SetDefault("workdir", ".")
	viper.SetDefault("context", "local")

	// SSH context defaults
	viper.SetDefault("ssh.host", "")
	viper.SetDefault("ssh.port", 22)
	viper.SetDefault("ssh.user", "")
	viper.SetDefault("ssh.key_file", "")

	// Polling defaults
	viper.SetDefault("poll.interval", "30s")
	viper.SetDefault("poll.timeout", "0")
}

// LoadFromViper copies settings from Viper into the Global config.
// Command-line flags are applied on top by the root command.
func LoadFromViper() {
	Global.Backend = viper.GetString("backend")
	Global.WorkDir = viper.GetString("workdir")
	Global.Context = viper.GetString("context")
	Global.SSHHost = viper.GetString("ssh.host")
	Global.SSHPort = viper.GetInt("ssh.port")
	Global.SSHUser = viper.GetString("ssh.user")
	Global.SSHKeyFile = viper.GetString("ssh.key_file")
	Global.PollInterval = viper.GetDuration("poll.interval")
	Global.PollTimeout = viper.GetDuration("poll.timeout")
}

// GetUserConfigPath returns the path to the user config file
func GetUserConfigPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".batchq", ConfigFilename+"."+ConfigType), nil
	}

	return filepath.Join(userConfigDir, "batchq", ConfigFilename+"."+ConfigType), nil
}
