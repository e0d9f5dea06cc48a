package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	// ConfigDir is the directory name under ~/.config
	ConfigDir = "lumen"
	// ConfigFile is the config file name
	ConfigFile = "config.json"
)

// FileSystem abstracts file operations for testability
type FileSystem interface {
	UserHomeDir() (string, error)
	ReadFile(path string) ([]byte, error)
}

// ConfigFileReader implements FileSystem using the real OS for config loading
type ConfigFileReader struct{}

func (ConfigFileReader) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

func (ConfigFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with injected dependencies
type Loader struct {
	fs     FileSystem
	getenv func(string) string
}

// NewLoader creates a production Loader using the real filesystem and environment
func NewLoader() *Loader {
	return &Loader{fs: ConfigFileReader{}, getenv: os.Getenv}
}

// NewLoaderWithFS creates a Loader with a custom filesystem and environment (for testing)
func NewLoaderWithFS(fs FileSystem, getenv func(string) string) *Loader {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	return &Loader{fs: fs, getenv: getenv}
}

// Load reads configuration from ~/.config/lumen/config.json, merges it with
// defaults, then applies environment overrides.
// Returns default config (plus environment) if the dotfile doesn't exist.
// Returns error only for parse errors, permission issues, or validation failures.
//
// NOTE: This implementation unmarshals JSON keys directly over the default configuration.
// This allows explicit zero values (e.g., 0, false, "") in the config file to override defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	homeDir, err := l.fs.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, ".config", ConfigDir, ConfigFile)

		data, err := l.fs.ReadFile(configPath)
		switch {
		case err == nil:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, err // Return error for malformed JSON
			}
		case !os.IsNotExist(err):
			return nil, err // Return error for permission issues
		}

		cfg.resolvePaths(homeDir)
	}

	if err := applyEnv(cfg, l.getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolvePaths fills empty storage and log paths under ~/.config/lumen.
func (c *Config) resolvePaths(homeDir string) {
	base := filepath.Join(homeDir, ".config", ConfigDir)
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = filepath.Join(base, "conversations.db")
	}
	if c.Storage.AttachmentsDir == "" {
		c.Storage.AttachmentsDir = filepath.Join(base, "attachments")
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(base, "lumen.log")
	}
}

// RequestTimeout returns the model request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Provider.RequestTimeoutSeconds) * time.Second
}

// StaleAfter returns the age after which a conversation is not resumed.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Agent.StaleConversationMinutes) * time.Minute
}

// Load is a convenience function using the default loader
func Load() (*Config, error) {
	return NewLoader().Load()
}
