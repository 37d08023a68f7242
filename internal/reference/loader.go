// =============================================================================
// POS Ledger - Reference Loader
// =============================================================================
//
// This module turns one master/reference export into a code -> value lookup
// table. Reference exports are amended by prepending lines, so the FIRST
// physical line for a code is the current definition. Lines are applied in
// reverse physical order with last-write-wins, which makes the first
// physical line win.
//
// COLUMN LAYOUTS (0-based):
//   Items (rd5500)         code=0 name=1, department=12 (>12 cols) or 3
//                          (>3 cols) for new-format branches only
//   Departments (rd1800)   code=0 name=1
//   Discounts (discount)   code=0 name=1
//   Payments (rd5900)      code=0 name=1
//   Transactions (rd5800)  key=20 value=11, needs at least 21 columns
//   Loyalty (blpr)         key=3 (unwrapped if protected) value=1
//
// Tables are built once per group and never mutated afterwards.
//
// =============================================================================

package reference

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/pos-ledger/internal/types"
)

// =============================================================================
// KINDS AND OPTIONS
// =============================================================================

// Kind selects the column layout used to read a reference file.
type Kind int

const (
	KindItems Kind = iota
	KindDepartments
	KindDiscounts
	KindTransactions
	KindPayments
	KindLoyalty
)

// String returns the kind's name as used in logs.
func (k Kind) String() string {
	switch k {
	case KindItems:
		return "items"
	case KindDepartments:
		return "departments"
	case KindDiscounts:
		return "discounts"
	case KindTransactions:
		return "transactions"
	case KindPayments:
		return "payments"
	case KindLoyalty:
		return "loyalty"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// KindFor maps an export file type to its reference kind. The detail file
// has no reference kind.
func KindFor(ft types.FileType) (Kind, bool) {
	switch ft {
	case types.FileItems:
		return KindItems, true
	case types.FileDepartments:
		return KindDepartments, true
	case types.FileDiscounts:
		return KindDiscounts, true
	case types.FileTransactions:
		return KindTransactions, true
	case types.FilePayments:
		return KindPayments, true
	case types.FileLoyalty:
		return KindLoyalty, true
	default:
		return 0, false
	}
}

// Options carries the per-group settings that change how a file is read.
type Options struct {
	// NewFormat enables the department column in the item master.
	NewFormat bool

	// LoyaltyIDLength is the exact length a loyalty customer id must have.
	// Zero accepts any length.
	LoyaltyIDLength int
}

const (
	transactionKeyColumn   = 20
	transactionValueColumn = 11

	loyaltyKeyColumn   = 3
	loyaltyValueColumn = 1
)

// protectedValue matches a value wrapped by classify.Protect.
var protectedValue = regexp.MustCompile(`"=""(.+?)"""`)

// =============================================================================
// REJECTIONS
// =============================================================================

// Rejection describes a reference line that could not be used.
type Rejection struct {
	// Line is the 1-based physical line number.
	Line int

	Reason string
	Raw    string
}

const (
	ReasonLack11       = "lack 11"
	ReasonLack20       = "lack 20"
	ReasonShortLoyalty = "loyalty line has fewer than 4 columns"
	ReasonLoyaltyID    = "loyalty id has unexpected length"
)

// =============================================================================
// LOADING
// =============================================================================

// Load parses content as a reference file of the given kind.
//
// PARAMETERS:
//   - content: the whole file, already decoded to UTF-8.
//   - kind: the column layout to apply.
//   - opts: per-group options (new-format branch, loyalty id length).
//
// RETURNS:
//   - The lookup table. Never nil.
//   - Lines that were rejected, in reverse physical order.
func Load(content string, kind Kind, opts Options) (*Table, []Rejection) {
	lines := SplitLines(content)
	entries := make(map[string]Entry, len(lines))
	var rejected []Rejection

	for i := len(lines) - 1; i >= 0; i-- {
		raw := lines[i]
		if kind == KindItems {
			raw = strings.TrimSpace(raw)
		}
		if raw == "" {
			continue
		}
		cols := strings.Split(raw, ",")

		var (
			code  string
			entry Entry
			ok    bool
			why   string
		)
		switch kind {
		case KindItems:
			code, entry, ok = itemEntry(cols, opts.NewFormat)
		case KindTransactions:
			code, entry, why = transactionEntry(cols)
			ok = why == ""
		case KindLoyalty:
			code, entry, why = loyaltyEntry(cols, opts.LoyaltyIDLength)
			ok = why == ""
		default:
			code, entry, ok = pairEntry(cols)
		}

		if why != "" {
			rejected = append(rejected, Rejection{Line: i + 1, Reason: why, Raw: raw})
		}
		if ok {
			entries[code] = entry
		}
	}

	return &Table{entries: entries}, rejected
}

// itemEntry reads one item master line.
func itemEntry(cols []string, newFormat bool) (string, Entry, bool) {
	switch {
	case newFormat && len(cols) > 12:
		return cols[0], Entry{Value: cols[1], Department: cols[12], HasDepartment: true}, true
	case newFormat && len(cols) > 3:
		return cols[0], Entry{Value: cols[1], Department: cols[3], HasDepartment: true}, true
	case len(cols) >= 2:
		return cols[0], Entry{Value: cols[1]}, true
	case len(cols) == 1 && cols[0] != "":
		return cols[0], Entry{}, true
	default:
		return "", Entry{}, false
	}
}

// pairEntry reads a two-column code,name line. A single column is
// recorded with an empty value.
func pairEntry(cols []string) (string, Entry, bool) {
	if len(cols) >= 2 {
		return cols[0], Entry{Value: cols[1]}, true
	}
	if cols[0] == "" {
		return "", Entry{}, false
	}
	return cols[0], Entry{}, true
}

// transactionEntry reads a payment-transaction line (transaction no -> payment code).
func transactionEntry(cols []string) (string, Entry, string) {
	switch {
	case len(cols) < 11:
		return "", Entry{}, ReasonLack11
	case len(cols) <= transactionKeyColumn:
		return "", Entry{}, ReasonLack20
	}
	return cols[transactionKeyColumn], Entry{Value: cols[transactionValueColumn]}, ""
}

// loyaltyEntry reads a loyalty-customer line (transaction key -> customer id).
func loyaltyEntry(cols []string, idLength int) (string, Entry, string) {
	if len(cols) <= loyaltyKeyColumn {
		return "", Entry{}, ReasonShortLoyalty
	}
	id := cols[loyaltyValueColumn]
	if idLength > 0 && len(id) != idLength {
		return "", Entry{}, ReasonLoyaltyID
	}

	key := cols[loyaltyKeyColumn]
	if m := protectedValue.FindStringSubmatch(key); m != nil {
		key = m[1]
	}
	return key, Entry{Value: id}, ""
}

// SplitLines splits content on newlines, drops a trailing carriage return
// from each line, and drops the empty element after a final newline.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
