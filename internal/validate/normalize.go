package validate

import (
	"strconv"
	"strings"
	"time"

	"github.com/ledgersmith-dev/ledgersmith/internal/task"
)

// dateLayouts are the input layouts canonicalized before comparison.
// Day-first layouts come first: the statements this tool targets use them,
// and time.Parse takes the first layout that fits.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// canonicalDateLayout is the form all recognized dates are reduced to.
const canonicalDateLayout = "2006-01-02"

// normalizeCell reduces a raw cell value to its canonical comparison form
// for the given column type. Values that do not parse under their declared
// type fall back to whitespace normalization, so a malformed cell still
// produces a readable diff instead of an error.
func normalizeCell(value string, typ task.ColumnType) string {
	v := normalizeSpace(value)
	switch typ {
	case task.TypeNumber:
		return normalizeNumber(v)
	case task.TypeDate:
		return normalizeDate(v)
	default:
		return v
	}
}

// normalizeSpace trims the value and collapses internal whitespace runs to a
// single space.
func normalizeSpace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// normalizeNumber strips thousands separators and reduces numeric formatting
// so "1,100.00" and "1100" compare equal. Non-numeric values are returned
// unchanged.
func normalizeNumber(value string) string {
	cleaned := strings.ReplaceAll(value, ",", "")
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return value
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// normalizeDate reduces recognized date layouts to canonicalDateLayout.
// Unrecognized values are returned unchanged.
func normalizeDate(value string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(canonicalDateLayout)
		}
	}
	return value
}
