// =============================================================================
// POS Ledger - Field Classifier
// =============================================================================
//
// POS exports recycle numeric-looking identifiers (branch codes, terminal
// codes, discount codes). Opened in a spreadsheet those lose their leading
// zeros. The classifier decides, per raw column, whether a value must be
// protected from that conversion.
//
// RULE ORDER (later rules override earlier ones):
//   1. length >= 2 and first char '0'  -> protect
//   2. length >= 2 and second char '.' -> do not protect (decimal)
//   3. length >  2 and third char ':'  -> do not protect (time)
//   4. length >  4 and fifth char '-'  -> do not protect (date)
//   5. column 11                       -> protect
//   6. column 37                       -> do not protect
//
// The date column (12) is never classified; it is cut at the first space.
// Downstream consumers depend on this exact ordering, so the rules are kept
// as an ordered list rather than folded into one expression.
//
// =============================================================================

package classify

import "strings"

// =============================================================================
// COLUMN CONTRACT
// =============================================================================

const (
	// DateColumn is the raw column holding "date[ time]".
	DateColumn = 12

	// ForcedProtectColumn is the raw column always protected.
	ForcedProtectColumn = 11

	// ForcedPlainColumn is the raw column never protected.
	ForcedPlainColumn = 37
)

// =============================================================================
// RULES
// =============================================================================

// Decision is the outcome of classifying one value.
type Decision struct {
	Protect bool
}

// rule inspects a value and its raw column index. When applies is true the
// rule's protect verdict replaces the current one.
type rule struct {
	name  string
	check func(value string, column int) (protect, applies bool)
}

// rules is evaluated top to bottom; every applicable rule overwrites the verdict.
var rules = []rule{
	{"leading-zero", func(v string, _ int) (bool, bool) {
		return true, len(v) >= 2 && v[0] == '0'
	}},
	{"decimal", func(v string, _ int) (bool, bool) {
		return false, len(v) >= 2 && v[1] == '.'
	}},
	{"time", func(v string, _ int) (bool, bool) {
		return false, len(v) > 2 && v[2] == ':'
	}},
	{"date", func(v string, _ int) (bool, bool) {
		return false, len(v) > 4 && v[4] == '-'
	}},
	{"forced-protect-column", func(_ string, c int) (bool, bool) {
		return true, c == ForcedProtectColumn
	}},
	{"forced-plain-column", func(_ string, c int) (bool, bool) {
		return false, c == ForcedPlainColumn
	}},
}

// Classify decides whether value, found at raw column index column, must be
// protected. It does not consult the column allow-list; callers only pass
// projected, non-date columns.
func Classify(value string, column int) Decision {
	var d Decision
	for _, r := range rules {
		if protect, ok := r.check(value, column); ok {
			d.Protect = protect
		}
	}
	return d
}

// Shape returns value as it must appear in the assembled row.
func Shape(value string, column int) string {
	if column == DateColumn {
		return DatePart(value)
	}
	if Classify(value, column).Protect {
		return Protect(value)
	}
	return value
}

// DatePart keeps only the text before the first space.
func DatePart(value string) string {
	if i := strings.IndexByte(value, ' '); i >= 0 {
		return value[:i]
	}
	return value
}

// =============================================================================
// EXCEL ESCAPING
// =============================================================================

// Protect wraps a value in the CSV-quoted form of the Excel formula
// ="value", so spreadsheet tools keep it as literal text.
//
// EXAMPLE:
//   Input:  0012
//   Output: "=""0012"""
func Protect(value string) string {
	return `"=""` + value + `"""`
}

// Unprotect strips a Protect wrapper, plain quoting, and surrounding
// whitespace from a value.
func Unprotect(value string) string {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(s, `="`, "")
	s = strings.ReplaceAll(s, `"`, "")
	return strings.TrimSpace(s)
}
