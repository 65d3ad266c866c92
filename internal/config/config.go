// Package config resolves ledgersmith's directories and tunables from the
// environment. All knobs are plain environment variables with validated
// ranges; invalid values fall back to defaults with a warning on stderr.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// EnvHome overrides the default ledgersmith home directory.
	EnvHome = "LEDGERSMITH_HOME"

	// EnvExecTimeout configures the wall-clock timeout for running a
	// candidate program. Accepts duration strings like "30s", "2m".
	EnvExecTimeout = "LEDGERSMITH_EXEC_TIMEOUT"

	// EnvMaxAttempts configures the default attempt budget for the
	// generate/execute/validate loop.
	EnvMaxAttempts = "LEDGERSMITH_MAX_ATTEMPTS"

	// DefaultExecTimeout bounds a single candidate-program run (30 seconds).
	DefaultExecTimeout = 30 * time.Second

	// DefaultMaxAttempts is the default attempt budget.
	DefaultMaxAttempts = 3
)

// GetExecTimeout returns the candidate execution timeout from
// LEDGERSMITH_EXEC_TIMEOUT. If unset or invalid, returns DefaultExecTimeout.
func GetExecTimeout() time.Duration {
	envValue := os.Getenv(EnvExecTimeout)
	if envValue == "" {
		return DefaultExecTimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvExecTimeout, envValue, DefaultExecTimeout)
		return DefaultExecTimeout
	}

	// Validate reasonable range (1 second to 10 minutes)
	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n",
			EnvExecTimeout, duration)
		return 1 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n",
			EnvExecTimeout, duration)
		return 10 * time.Minute
	}

	return duration
}

// GetMaxAttempts returns the attempt budget from LEDGERSMITH_MAX_ATTEMPTS.
// If unset or invalid, returns DefaultMaxAttempts.
func GetMaxAttempts() int {
	envValue := os.Getenv(EnvMaxAttempts)
	if envValue == "" {
		return DefaultMaxAttempts
	}

	n, err := strconv.Atoi(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvMaxAttempts, envValue, DefaultMaxAttempts)
		return DefaultMaxAttempts
	}

	// Validate reasonable range (1 to 20 attempts)
	if n < 1 {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%d), using minimum 1\n",
			EnvMaxAttempts, n)
		return 1
	}
	if n > 20 {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d), using maximum 20\n",
			EnvMaxAttempts, n)
		return 20
	}

	return n
}

// Config holds ledgersmith's directory layout.
type Config struct {
	HomeDir       string // $LEDGERSMITH_HOME
	TasksDir      string // $LEDGERSMITH_HOME/tasks (task bundles)
	WorkspacesDir string // $LEDGERSMITH_HOME/workspaces (per-run scratch space)
	OutDir        string // $LEDGERSMITH_HOME/out (winning programs)
}

// DefaultConfig returns the default configuration, honoring LEDGERSMITH_HOME.
func DefaultConfig() (*Config, error) {
	home := os.Getenv(EnvHome)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".ledgersmith")
	}

	return &Config{
		HomeDir:       home,
		TasksDir:      filepath.Join(home, "tasks"),
		WorkspacesDir: filepath.Join(home, "workspaces"),
		OutDir:        filepath.Join(home, "out"),
	}, nil
}

// EnsureDirectories creates the directory layout if missing.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.HomeDir,
		c.TasksDir,
		c.WorkspacesDir,
		c.OutDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// TaskDir returns the bundle directory for a named task.
func (c *Config) TaskDir(name string) string {
	return filepath.Join(c.TasksDir, name)
}

// WorkspaceDir returns the scratch directory for one run of a task.
func (c *Config) WorkspaceDir(task, runID string) string {
	return filepath.Join(c.WorkspacesDir, fmt.Sprintf("%s-%s", task, runID))
}

// ProgramPath returns the stable location of a task's winning program.
// The file name comes from the task bundle (e.g. "parser.py").
func (c *Config) ProgramPath(task, file string) string {
	return filepath.Join(c.OutDir, task, file)
}
