// Package extract isolates executable source from raw generator output.
// Models wrap code in markdown fences and prose despite instructions to the
// contrary, so extraction has to be tolerant: it takes the largest fenced
// block when fences are present and falls back to treating the whole response
// as code when it plausibly is code.
package extract

import (
	"errors"
	"strings"
	"unicode"
)

// ErrNoCode indicates the response contained no identifiable program.
// The retry controller treats this as an attempt failure and tells the
// generator that no valid code was produced.
var ErrNoCode = errors.New("no code block found in response")

// codeMarkers are line prefixes that identify a response as source code when
// no markdown fences are present. Tuned for the scripting languages candidate
// programs are written in.
var codeMarkers = []string{
	"#!",
	"import ",
	"from ",
	"def ",
	"class ",
	"#",
}

// Extract returns the candidate program contained in raw generator output.
//
// Fenced responses yield the largest fenced block, language tag stripped,
// contents otherwise verbatim. Unfenced responses are returned whole when
// they look like code. Extraction is idempotent: extracting from an already
// extracted program returns it unchanged.
func Extract(raw string) (string, error) {
	if block, ok := largestFencedBlock(raw); ok {
		block = strings.TrimSpace(block)
		if block == "" {
			return "", ErrNoCode
		}
		return block, nil
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrNoCode
	}
	if looksLikeCode(trimmed) {
		return trimmed, nil
	}
	return "", ErrNoCode
}

// largestFencedBlock scans for ``` fences and returns the largest enclosed
// block. An unterminated fence swallows the rest of the input; models often
// drop the closing fence when they run out of tokens.
func largestFencedBlock(raw string) (string, bool) {
	lines := strings.Split(raw, "\n")

	var (
		best    string
		found   bool
		inBlock bool
		current []string
	)

	flush := func() {
		block := strings.Join(current, "\n")
		if !found || len(block) > len(best) {
			best = block
		}
		found = true
		current = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inBlock {
				flush()
				inBlock = false
			} else {
				inBlock = true
				current = nil // opening fence line (with any language tag) is dropped
			}
			continue
		}
		if inBlock {
			current = append(current, line)
		}
	}
	if inBlock {
		flush()
	}

	return best, found
}

// looksLikeCode reports whether unfenced text is plausibly a program rather
// than prose. At least one line must start with a known code marker.
func looksLikeCode(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, marker := range codeMarkers {
			if strings.HasPrefix(trimmed, marker) {
				return true
			}
		}
		// Simple assignments also count: "NAME = value" with no spaces
		// before the identifier is far more common in code than prose.
		if i := strings.Index(trimmed, " = "); i > 0 && !strings.ContainsAny(trimmed[:i], " \t") {
			return true
		}
		// Bare call lines like "print(parse(path))" count too: a short
		// program can consist of nothing but calls, and whatever Extract
		// returns must extract to itself on a second pass.
		if isCallLine(trimmed) {
			return true
		}
	}
	return false
}

// isCallLine reports whether a line is a call expression: a dotted
// identifier immediately followed by an argument list that closes the line.
func isCallLine(line string) bool {
	open := strings.IndexByte(line, '(')
	if open <= 0 || !strings.HasSuffix(line, ")") {
		return false
	}
	for _, r := range line[:open] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return false
		}
	}
	return true
}
