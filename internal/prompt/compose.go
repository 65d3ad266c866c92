// Package prompt builds the generation requests for the synthesis loop.
// Composition is deterministic and side-effect free: the same bundle and the
// same failure evidence always produce the same prompt text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/ledgersmith-dev/ledgersmith/internal/task"
)

// sampleRowLimit bounds how many reference rows are shown in the prompt.
// A few rows anchor the expected formatting; the full table just burns
// tokens.
const sampleRowLimit = 5

// Feedback carries the evidence from the most recent failed attempt.
// Only the latest failure is included; stacking the full history has not
// helped convergence and inflates every subsequent prompt.
type Feedback struct {
	// Attempt is the 1-based index of the failed attempt.
	Attempt int

	// Code is the extracted candidate program, empty when extraction
	// itself failed.
	Code string

	// Evidence is the failure text: stderr, a timeout notice, or the
	// validator's diff summary.
	Evidence string
}

// System returns the fixed instructions for the generator. The contract is
// strict because everything downstream depends on it: the response must be a
// complete program, runnable as
//
//	<interpreter> program <input-path> <output-path>
//
// that writes a CSV artifact with exactly the schema's columns.
func System(b *task.Bundle) string {
	var sb strings.Builder

	sb.WriteString("You are a code generation engine. Your ONLY output is a complete, runnable program.\n\n")
	sb.WriteString("Hard requirements:\n")
	fmt.Fprintf(&sb, "1. The program is executed as: %s program <input-path> <output-path>.\n", b.Interpreter)
	sb.WriteString("2. It reads the text document at <input-path> and writes a CSV file to <output-path>.\n")
	fmt.Fprintf(&sb, "3. The CSV must have a header row with exactly these columns, in order: %s.\n",
		strings.Join(b.Schema.ColumnNames(), ", "))
	sb.WriteString("4. Do not print anything to stdout on success. Errors may go to stderr.\n")
	sb.WriteString("5. Output only code. No explanations, no markdown fences.\n")

	return sb.String()
}

// Compose builds the user message for one attempt. The first attempt (nil
// feedback) describes the task; later attempts additionally include the
// previous code, its failure evidence, and an explicit instruction to fix
// that defect while keeping what already worked.
func Compose(b *task.Bundle, fb *Feedback) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write a program that extracts structured data from a %s document.\n\n", describe(b))

	sb.WriteString("Target schema (column name: type):\n")
	for _, col := range b.Schema.Columns {
		typ := col.Type
		if typ == "" {
			typ = task.TypeString
		}
		fmt.Fprintf(&sb, "  - %s: %s\n", col.Name, typ)
	}
	if b.Schema.OrderIndependent {
		sb.WriteString("Row order in the output does not matter.\n")
	}
	sb.WriteString("\n")

	if len(b.Rules) > 0 {
		sb.WriteString("Extraction rules:\n")
		for i, rule := range b.Rules {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, rule)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Sample of the input document:\n")
	sb.WriteString("```\n")
	sb.WriteString(strings.TrimRight(b.InputSample, "\n"))
	sb.WriteString("\n```\n\n")

	head, err := b.Reference.Project(b.Schema.ColumnNames())
	if err == nil {
		fmt.Fprintf(&sb, "The first rows of the expected output for this sample:\n```\n%s```\n\n",
			head.Head(sampleRowLimit).String())
	}

	if fb == nil {
		sb.WriteString("Now write the complete program.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "Attempt %d failed.\n\n", fb.Attempt)
	if fb.Code != "" {
		fmt.Fprintf(&sb, "The program you wrote:\n```\n%s\n```\n\n", fb.Code)
	} else {
		sb.WriteString("Your previous response contained no valid code. Respond with code only this time.\n\n")
	}
	if fb.Evidence != "" {
		fmt.Fprintf(&sb, "What went wrong:\n```\n%s\n```\n\n", strings.TrimRight(fb.Evidence, "\n"))
	}
	sb.WriteString("Fix this specific defect. Keep the behavior that already matched the expected output, and write the complete corrected program.\n")

	return sb.String()
}

// describe names the document for the prompt, falling back to the task name.
func describe(b *task.Bundle) string {
	if b.Description != "" {
		return b.Description
	}
	return b.Name
}
