// Package secrets provides centralized resolution of API keys.
//
// Secrets are resolved by checking environment variables first, then the
// [secrets] section in $LEDGERSMITH_HOME/config.toml. If neither source has
// a value, an error with guidance is returned.
//
// Each known secret is defined in the knownKeys table (specs.go), which maps
// a canonical name to one or more environment variable aliases. Requesting
// an unknown key returns an error.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/ledgersmith-dev/ledgersmith/internal/config"
)

// KeyInfo describes a registered secret for external consumers.
type KeyInfo struct {
	// Name is the canonical key name (e.g., "anthropic_api_key").
	Name string

	// EnvVars lists environment variables checked, in priority order.
	EnvVars []string

	// Desc is a human-readable description.
	Desc string
}

// configFile mirrors the [secrets] section of config.toml.
type configFile struct {
	Secrets map[string]string `toml:"secrets"`
}

// cached holds the lazily loaded config file values.
var (
	fileOnce sync.Once
	fileVals map[string]string
	fileErr  error
)

// loadFile reads the [secrets] section of config.toml lazily on first call.
// A missing file is not an error; a malformed one is.
func loadFile() (map[string]string, error) {
	fileOnce.Do(func() {
		fileVals = map[string]string{}

		cfg, err := config.DefaultConfig()
		if err != nil {
			return
		}
		path := filepath.Join(cfg.HomeDir, "config.toml")

		var f configFile
		if _, err := toml.DecodeFile(path, &f); err != nil {
			if !os.IsNotExist(err) {
				fileErr = fmt.Errorf("failed to parse %s: %w", path, err)
			}
			return
		}
		if f.Secrets != nil {
			fileVals = f.Secrets
		}
	})
	return fileVals, fileErr
}

// Reset clears the cached config file so the next Get() reloads from disk.
// This is intended for testing only.
func Reset() {
	fileOnce = sync.Once{}
	fileVals = nil
	fileErr = nil
}

// Get resolves a secret by canonical name. Environment variables win over
// config file entries.
func Get(name string) (string, error) {
	spec, ok := knownKeys[name]
	if !ok {
		return "", fmt.Errorf("unknown secret %q", name)
	}

	for _, env := range spec.EnvVars {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}

	vals, err := loadFile()
	if err != nil {
		return "", err
	}
	if v := vals[name]; v != "" {
		return v, nil
	}

	return "", fmt.Errorf("%s is not configured: set %s, or add %q to the [secrets] section of config.toml",
		spec.Desc, strings.Join(spec.EnvVars, " or "), name)
}

// IsSet reports whether a secret resolves to a non-empty value.
func IsSet(name string) bool {
	v, err := Get(name)
	return err == nil && v != ""
}

// Known returns all registered secrets, sorted by name.
func Known() []KeyInfo {
	infos := make([]KeyInfo, 0, len(knownKeys))
	for name, spec := range knownKeys {
		infos = append(infos, KeyInfo{Name: name, EnvVars: spec.EnvVars, Desc: spec.Desc})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
