// =============================================================================
// POS Ledger - Row Assembler
// =============================================================================
//
// The assembler turns one raw sales-detail line into one denormalized ledger
// row by joining it against the group's reference tables.
//
// ASSEMBLY STEPS:
//   1. Project and classify the raw columns (see projection.go)
//   2. Replace the terminal slot with the group's terminal
//   3. Item join (new-format branches also take the item's department)
//   4. Department join on the unprotected department code
//   5. Discount join
//   6. Transaction-type label
//   7. Daypart from the hour of sale
//   8. Transaction -> payment join and loyalty join on the transaction key
//   9. Branch
//
// The output row is 18 projected columns followed by 9 derived columns.
//
// =============================================================================

package assembler

import (
	"strings"

	"github.com/ginjaninja78/pos-ledger/internal/classify"
	"github.com/ginjaninja78/pos-ledger/internal/reference"
	"github.com/ginjaninja78/pos-ledger/internal/types"
)

// RowWidth is the number of columns in an assembled ledger row.
const RowWidth = ProjectedWidth + 9

// =============================================================================
// ROW
// =============================================================================

// Row is one assembled ledger row.
type Row struct {
	Record Record

	ItemName       string
	DepartmentName string
	DiscountName   string
	TxnTypeLabel   string
	Daypart        string
	PaymentCode    string
	PaymentName    string
	LoyaltyID      string
	Branch         string
}

// Fields returns the row's columns in ledger order.
func (r Row) Fields() []string {
	out := make([]string, 0, RowWidth)
	out = append(out, r.Record.Fields[:]...)
	return append(out,
		r.ItemName,
		r.DepartmentName,
		r.DiscountName,
		r.TxnTypeLabel,
		r.Daypart,
		r.PaymentCode,
		r.PaymentName,
		r.LoyaltyID,
		r.Branch,
	)
}

// Line joins the row's columns with commas, without a line terminator.
// Values are already CSV-shaped, so no further quoting is applied.
func (r Row) Line() string {
	return strings.Join(r.Fields(), ",")
}

// MatchesDate reports whether the row's date equals the group's date.
func (r Row) MatchesDate(expected string) bool {
	return strings.TrimSpace(r.Record.Date()) == expected
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler holds everything needed to assemble the lines of one group.
type Assembler struct {
	tables    reference.Tables
	key       types.GroupKey
	newFormat bool
}

// New creates an Assembler for one group.
//
// PARAMETERS:
//   - tables: the group's reference tables; nil tables behave as empty.
//   - key: the group's branch, terminal and date.
//   - newFormat: whether the branch takes departments from the item master.
func New(tables reference.Tables, key types.GroupKey, newFormat bool) *Assembler {
	return &Assembler{tables: tables, key: key, newFormat: newFormat}
}

// Assemble builds the ledger row for one raw detail line. The only error is
// a time value without a usable hour (ErrMalformedTime).
func (a *Assembler) Assemble(line string) (Row, error) {
	rec := Project(line)
	rec.Fields[SlotTerminal] = a.key.Terminal

	row := Row{Branch: a.key.Branch}

	if item, ok := lookup(a.tables.Items, rec.ItemCode()); ok {
		row.ItemName = quote(item.Value)
		if a.newFormat && item.HasDepartment {
			rec.Fields[SlotDepartment] = quote(item.Department)
		}
	}

	if code := classify.Unprotect(rec.Department()); code != "" {
		if name, ok := a.tables.Departments.Value(code); ok {
			row.DepartmentName = quote(name)
		}
	}

	if disc, ok := lookup(a.tables.Discounts, rec.DiscountCode()); ok {
		row.DiscountName = quote(disc.Value)
	}

	if label := TransactionTypeLabel(rec.TxnType()); label != "" {
		row.TxnTypeLabel = quote(label)
	}

	daypart, err := Daypart(rec.Time())
	if err != nil {
		return Row{}, err
	}
	row.Daypart = daypart

	if key := rec.TxnKey(); key != "" {
		if payment, ok := a.tables.Transactions.Value(key); ok {
			row.PaymentCode = payment
			row.PaymentName, _ = a.tables.Payments.Value(payment)
		}
		row.LoyaltyID, _ = a.tables.Loyalty.Value(key)
	}

	row.Record = rec
	return row, nil
}

// lookup finds code in table as projected, falling back to the code with
// its protect wrapper removed.
func lookup(table *reference.Table, code string) (reference.Entry, bool) {
	if e, ok := table.Lookup(code); ok {
		return e, true
	}
	if plain := classify.Unprotect(code); plain != code && plain != "" {
		return table.Lookup(plain)
	}
	return reference.Entry{}, false
}

func quote(s string) string {
	return `"` + s + `"`
}
