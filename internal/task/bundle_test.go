package task

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validManifest = `
[task]
name = "icici"
description = "ICICI bank statement"
input = "sample.txt"
reference = "result.csv"

[[schema.columns]]
name = "Date"
type = "date"

[[schema.columns]]
name = "Description"
type = "string"

[[schema.columns]]
name = "Amount"
type = "number"

rules = [
  "The first word of a transaction line is the date.",
  "The last field of a transaction line is the amount.",
]
`

func writeBundle(t *testing.T, manifest, sample, reference string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644))
	if sample != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sample.txt"), []byte(sample), 0o644))
	}
	if reference != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "result.csv"), []byte(reference), 0o644))
	}
	return dir
}

func TestLoadValidBundle(t *testing.T) {
	dir := writeBundle(t, validManifest,
		"01-08-2024 Salary 5000\n",
		"Date,Description,Amount\n01-08-2024,Salary,5000\n")

	b, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "icici", b.Name)
	assert.Equal(t, "python3", b.Interpreter, "interpreter defaults to python3")
	assert.Equal(t, "parser.py", b.ProgramFile, "program file defaults to parser.py")
	assert.Equal(t, []string{"Date", "Description", "Amount"}, b.Schema.ColumnNames())
	assert.Len(t, b.Rules, 2)
	assert.Contains(t, b.InputSample, "Salary")
	require.NotNil(t, b.Reference)
	assert.Len(t, b.Reference.Rows, 1)
}

func TestLoadReferenceSupersetAllowed(t *testing.T) {
	// Reference may carry columns beyond the schema.
	dir := writeBundle(t, validManifest,
		"sample\n",
		"Date,Description,Amount,Balance\n01-08-2024,Salary,5000,6000\n")

	_, err := Load(dir)
	require.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		manifest  string
		sample    string
		reference string
		field     string
	}{
		{
			name:     "missing manifest",
			manifest: "", // writeBundle still writes an empty manifest; input unset
			field:    "task.input",
		},
		{
			name: "missing input file",
			manifest: `
[task]
input = "sample.txt"
reference = "result.csv"
[[schema.columns]]
name = "a"
`,
			reference: "a\n1\n",
			field:     "task.input",
		},
		{
			name: "no schema columns",
			manifest: `
[task]
input = "sample.txt"
reference = "result.csv"
`,
			sample:    "x\n",
			reference: "a\n1\n",
			field:     "schema.columns",
		},
		{
			name: "duplicate column",
			manifest: `
[task]
input = "sample.txt"
reference = "result.csv"
[[schema.columns]]
name = "a"
[[schema.columns]]
name = "a"
`,
			sample:    "x\n",
			reference: "a\n1\n",
			field:     "schema.columns",
		},
		{
			name: "unknown column type",
			manifest: `
[task]
input = "sample.txt"
reference = "result.csv"
[[schema.columns]]
name = "a"
type = "money"
`,
			sample:    "x\n",
			reference: "a\n1\n",
			field:     "schema.columns",
		},
		{
			name: "reference missing schema column",
			manifest: `
[task]
input = "sample.txt"
reference = "result.csv"
[[schema.columns]]
name = "Amount"
`,
			sample:    "x\n",
			reference: "Date\n01-08-2024\n",
			field:     "task.reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeBundle(t, tt.manifest, tt.sample, tt.reference)
			_, err := Load(dir)
			require.Error(t, err)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "want ConfigError, got %T", err)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.NotEmpty(t, cfgErr.Suggestion())
		})
	}
}

func TestSchemaColumnType(t *testing.T) {
	s := Schema{Columns: []Column{
		{Name: "Date", Type: TypeDate},
		{Name: "Note"}, // type unset
	}}

	assert.Equal(t, TypeDate, s.ColumnType("Date"))
	assert.Equal(t, TypeString, s.ColumnType("Note"))
	assert.Equal(t, TypeString, s.ColumnType("missing"))
}
