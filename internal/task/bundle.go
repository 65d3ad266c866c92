// Package task loads and validates task bundles. A bundle is a directory
// describing one synthesis target: a text sample of the source document, the
// schema the extracted table must follow, domain rules for the generator, and
// the known-correct reference artifact.
//
// Bundle layout:
//
//	tasks/icici/
//	├── task.toml       manifest (schema, rules, file names)
//	├── sample.txt      text sample given to the generator and the candidate
//	└── result.csv      reference artifact
package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ledgersmith-dev/ledgersmith/internal/table"
)

// ManifestFile is the manifest file name inside a bundle directory.
const ManifestFile = "task.toml"

// ColumnType classifies a schema column for comparison normalization.
type ColumnType string

const (
	// TypeString compares after whitespace trimming only.
	TypeString ColumnType = "string"
	// TypeNumber compares numerically: "100.00" equals "100".
	TypeNumber ColumnType = "number"
	// TypeDate compares after canonicalizing common date layouts.
	TypeDate ColumnType = "date"
)

// Column is one target-schema column.
type Column struct {
	Name string     `toml:"name"`
	Type ColumnType `toml:"type"`
}

// Schema is the ordered target schema the produced artifact must match.
type Schema struct {
	Columns []Column `toml:"columns"`

	// OrderIndependent declares that row order does not matter; rows are
	// then compared as a multiset keyed by all fields.
	OrderIndependent bool `toml:"order_independent"`
}

// ColumnNames returns the schema's column names in declared order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnType returns the declared type of a named column, defaulting to
// TypeString for unknown names.
func (s Schema) ColumnType(name string) ColumnType {
	for _, c := range s.Columns {
		if c.Name == name {
			if c.Type == "" {
				return TypeString
			}
			return c.Type
		}
	}
	return TypeString
}

// manifest mirrors the TOML structure of task.toml.
type manifest struct {
	Task struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
		Interpreter string `toml:"interpreter"`
		Program     string `toml:"program"`
		Input       string `toml:"input"`
		Reference   string `toml:"reference"`
	} `toml:"task"`
	Schema Schema   `toml:"schema"`
	Rules  []string `toml:"rules"`
}

// Bundle is the immutable description of one synthesis task.
// Created once by Load and never mutated afterwards.
type Bundle struct {
	Name        string
	Description string

	// Interpreter runs the candidate program (e.g. "python3").
	Interpreter string

	// ProgramFile is the file name the winning program is installed under.
	ProgramFile string

	// InputPath is the absolute path of the source sample, handed to the
	// candidate program as its input argument.
	InputPath string

	// InputSample is the sample text embedded into prompts.
	InputSample string

	Schema Schema
	Rules  []string

	// Reference is the known-correct artifact candidates are compared to.
	Reference *table.Table
}

// ConfigError reports a malformed bundle. It is detected before any attempt
// runs and is not recoverable by retrying.
type ConfigError struct {
	Bundle string // bundle directory
	Field  string // offending manifest field or file
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid task bundle %s: %s: %s", e.Bundle, e.Field, e.Reason)
}

// Suggestion returns actionable steps for the user.
func (e *ConfigError) Suggestion() string {
	return fmt.Sprintf("Edit %s and re-run.", filepath.Join(e.Bundle, ManifestFile))
}

// Load reads and validates a bundle directory.
func Load(dir string) (*Bundle, error) {
	manifestPath := filepath.Join(dir, ManifestFile)

	var m manifest
	if _, err := toml.DecodeFile(manifestPath, &m); err != nil {
		if os.IsNotExist(err) {
			return nil, &ConfigError{Bundle: dir, Field: ManifestFile, Reason: "manifest not found"}
		}
		return nil, &ConfigError{Bundle: dir, Field: ManifestFile, Reason: err.Error()}
	}

	if m.Task.Name == "" {
		m.Task.Name = filepath.Base(dir)
	}
	if m.Task.Interpreter == "" {
		m.Task.Interpreter = "python3"
	}
	if m.Task.Program == "" {
		m.Task.Program = "parser.py"
	}

	if m.Task.Input == "" {
		return nil, &ConfigError{Bundle: dir, Field: "task.input", Reason: "input sample file not set"}
	}
	if m.Task.Reference == "" {
		return nil, &ConfigError{Bundle: dir, Field: "task.reference", Reason: "reference artifact file not set"}
	}
	if len(m.Schema.Columns) == 0 {
		return nil, &ConfigError{Bundle: dir, Field: "schema.columns", Reason: "no columns declared"}
	}
	seen := make(map[string]bool, len(m.Schema.Columns))
	for _, c := range m.Schema.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return nil, &ConfigError{Bundle: dir, Field: "schema.columns", Reason: "column with empty name"}
		}
		if seen[c.Name] {
			return nil, &ConfigError{Bundle: dir, Field: "schema.columns", Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[c.Name] = true
		switch c.Type {
		case "", TypeString, TypeNumber, TypeDate:
		default:
			return nil, &ConfigError{Bundle: dir, Field: "schema.columns",
				Reason: fmt.Sprintf("column %q has unknown type %q", c.Name, c.Type)}
		}
	}

	inputPath := filepath.Join(dir, m.Task.Input)
	sample, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, &ConfigError{Bundle: dir, Field: "task.input", Reason: err.Error()}
	}
	if strings.TrimSpace(string(sample)) == "" {
		return nil, &ConfigError{Bundle: dir, Field: "task.input", Reason: "input sample is empty"}
	}

	ref, err := table.Load(filepath.Join(dir, m.Task.Reference))
	if err != nil {
		return nil, &ConfigError{Bundle: dir, Field: "task.reference", Reason: err.Error()}
	}

	// The reference may carry extra columns, but never fewer than the schema.
	for _, name := range m.Schema.ColumnNames() {
		if !ref.HasColumn(name) {
			return nil, &ConfigError{Bundle: dir, Field: "task.reference",
				Reason: fmt.Sprintf("reference artifact is missing schema column %q", name)}
		}
	}

	return &Bundle{
		Name:        m.Task.Name,
		Description: m.Task.Description,
		Interpreter: m.Task.Interpreter,
		ProgramFile: m.Task.Program,
		InputPath:   inputPath,
		InputSample: string(sample),
		Schema:      m.Schema,
		Rules:       append([]string(nil), m.Rules...),
		Reference:   ref,
	}, nil
}
