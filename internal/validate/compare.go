// Package validate compares a produced artifact against a task's reference
// artifact and renders compact failure evidence for the next prompt.
//
// Comparison policy, in order of strictness: the produced column set must
// match the target schema exactly; row counts must match; then cells are
// compared after per-type normalization; finally row order must match unless
// the schema declares order-independence, in which case rows are compared as
// a multiset keyed by all fields.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/ledgersmith-dev/ledgersmith/internal/table"
	"github.com/ledgersmith-dev/ledgersmith/internal/task"
)

// MaxReportedMismatches caps the diff summary. Feedback past the first few
// mismatches adds prompt tokens without helping the generator converge.
const MaxReportedMismatches = 5

// Mismatch is one cell or row difference between produced and reference.
type Mismatch struct {
	Row      int    `json:"row"`    // 0-based data-row index
	Column   string `json:"column"` // column name, or "(row)" for multiset misses
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Verdict is the pass/fail outcome of comparing one produced artifact.
type Verdict struct {
	OK         bool       `json:"ok"`
	Mismatches []Mismatch `json:"mismatches,omitempty"`

	// Truncated counts mismatches beyond MaxReportedMismatches that were
	// found but not recorded.
	Truncated int `json:"truncated,omitempty"`

	// Summary is the human- and generator-readable evidence line(s).
	Summary string `json:"summary,omitempty"`
}

// Compare checks a produced artifact against the reference under the given
// schema. The reference may carry extra columns; it is projected onto the
// schema before comparison. The produced artifact must match the schema
// exactly.
func Compare(produced, reference *table.Table, schema task.Schema) *Verdict {
	names := schema.ColumnNames()

	if v := compareColumns(produced, names); v != nil {
		return v
	}

	ref, err := reference.Project(names)
	if err != nil {
		// Guarded at bundle load; reaching this means the bundle invariant broke.
		return fail(fmt.Sprintf("reference artifact invalid: %v", err), nil, 0)
	}
	prod, _ := produced.Project(names) // column set verified above

	if len(prod.Rows) != len(ref.Rows) {
		return fail(fmt.Sprintf("row count mismatch: expected %d rows, got %d",
			len(ref.Rows), len(prod.Rows)), nil, 0)
	}

	if schema.OrderIndependent {
		return compareUnordered(prod, ref, schema)
	}
	return compareOrdered(prod, ref, schema)
}

// compareColumns verifies the produced columns match the schema exactly,
// counting occurrences: a schema column appears exactly once, so a repeated
// header is an extra column even though its name is expected.
func compareColumns(produced *table.Table, names []string) *Verdict {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}

	seen := make(map[string]int, len(produced.Columns))
	var extra []string
	for _, col := range produced.Columns {
		if !want[col] || seen[col] > 0 {
			extra = append(extra, col)
		}
		seen[col]++
	}

	var missing []string
	for _, name := range names {
		if seen[name] == 0 {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unexpected columns: "+strings.Join(extra, ", "))
	}
	return fail("column mismatch: "+strings.Join(parts, "; "), nil, 0)
}

// compareOrdered compares row-by-row, cell-by-cell in artifact order.
func compareOrdered(prod, ref *table.Table, schema task.Schema) *Verdict {
	var mismatches []Mismatch
	truncated := 0

	for ri := range ref.Rows {
		for ci, col := range ref.Columns {
			want := ref.Rows[ri][ci]
			got := prod.Rows[ri][ci]
			typ := schema.ColumnType(col)
			if normalizeCell(want, typ) == normalizeCell(got, typ) {
				continue
			}
			if len(mismatches) < MaxReportedMismatches {
				mismatches = append(mismatches, Mismatch{
					Row: ri, Column: col, Expected: want, Actual: got,
				})
			} else {
				truncated++
			}
		}
	}

	if len(mismatches) == 0 {
		return &Verdict{OK: true}
	}
	return fail("", mismatches, truncated)
}

// compareUnordered compares rows as a multiset keyed by all normalized
// fields. No row may be dropped or duplicated silently.
func compareUnordered(prod, ref *table.Table, schema task.Schema) *Verdict {
	key := func(row []string) string {
		parts := make([]string, len(row))
		for ci, cell := range row {
			parts[ci] = normalizeCell(cell, schema.ColumnType(ref.Columns[ci]))
		}
		return strings.Join(parts, "\x1f")
	}

	counts := make(map[string]int, len(ref.Rows))
	refByKey := make(map[string][]string, len(ref.Rows))
	for _, row := range ref.Rows {
		k := key(row)
		counts[k]++
		refByKey[k] = row
	}

	var mismatches []Mismatch
	truncated := 0
	record := func(m Mismatch) {
		if len(mismatches) < MaxReportedMismatches {
			mismatches = append(mismatches, m)
		} else {
			truncated++
		}
	}

	for ri, row := range prod.Rows {
		k := key(row)
		if counts[k] > 0 {
			counts[k]--
			continue
		}
		record(Mismatch{
			Row:    ri,
			Column: "(row)",
			Actual: strings.Join(row, ","),
		})
	}

	// Whatever is left in counts was expected but never produced. Sort for
	// deterministic reporting.
	var leftover []string
	for k, n := range counts {
		for i := 0; i < n; i++ {
			leftover = append(leftover, k)
		}
	}
	sort.Strings(leftover)
	for _, k := range leftover {
		record(Mismatch{
			Row:      -1,
			Column:   "(row)",
			Expected: strings.Join(refByKey[k], ","),
		})
	}

	if len(mismatches) == 0 {
		return &Verdict{OK: true}
	}
	return fail("", mismatches, truncated)
}

// fail builds a failing verdict, rendering the summary if not supplied.
func fail(summary string, mismatches []Mismatch, truncated int) *Verdict {
	v := &Verdict{OK: false, Mismatches: mismatches, Truncated: truncated}
	if summary == "" {
		summary = renderSummary(mismatches, truncated)
	}
	v.Summary = summary
	return v
}

// renderSummary turns mismatches into the evidence text fed back to the
// generator. Cell mismatches include a character-level diff so the generator
// can see exactly where the value diverges.
func renderSummary(mismatches []Mismatch, truncated int) string {
	dmp := diffmatchpatch.New()
	var sb strings.Builder

	for _, m := range mismatches {
		switch {
		case m.Column == "(row)" && m.Expected == "":
			fmt.Fprintf(&sb, "row %d: no matching reference row: %s\n", m.Row, m.Actual)
		case m.Column == "(row)":
			fmt.Fprintf(&sb, "expected row never produced: %s\n", m.Expected)
		default:
			fmt.Fprintf(&sb, "row %d, column %q: expected %q, got %q (%s)\n",
				m.Row, m.Column, m.Expected, m.Actual,
				renderCellDiff(dmp, m.Expected, m.Actual))
		}
	}
	if truncated > 0 {
		fmt.Fprintf(&sb, "... and %d more mismatches\n", truncated)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderCellDiff renders expected→actual edits as inline [-del][+ins]
// markers. Plain text, unlike DiffPrettyText's ANSI colors, survives being
// embedded in a prompt.
func renderCellDiff(dmp *diffmatchpatch.DiffMatchPatch, expected, actual string) string {
	diffs := dmp.DiffMain(expected, actual, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("[+" + d.Text + "]")
		default:
			sb.WriteString(d.Text)
		}
	}
	return sb.String()
}
