package reference

// Entry is one value of a reference table. Only item masters of
// new-format branches carry a department.
type Entry struct {
	Value         string
	Department    string
	HasDepartment bool
}

// Table is an immutable code -> Entry lookup. Keys are compared exactly:
// case-sensitive, leading zeros kept, no trimming.
type Table struct {
	entries map[string]Entry
}

// Empty returns a table on which every lookup misses.
func Empty() *Table {
	return &Table{}
}

// Lookup returns the entry stored for code. A nil table always misses.
func (t *Table) Lookup(code string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[code]
	return e, ok
}

// Value returns the scalar value stored for code.
func (t *Table) Value(code string) (string, bool) {
	e, ok := t.Lookup(code)
	return e.Value, ok
}

// Len returns the number of codes in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Tables bundles the six reference tables of one group.
type Tables struct {
	Items        *Table
	Departments  *Table
	Discounts    *Table
	Transactions *Table
	Payments     *Table
	Loyalty      *Table
}

// Set stores table under kind. It is used while a group is being loaded.
func (ts *Tables) Set(kind Kind, table *Table) {
	switch kind {
	case KindItems:
		ts.Items = table
	case KindDepartments:
		ts.Departments = table
	case KindDiscounts:
		ts.Discounts = table
	case KindTransactions:
		ts.Transactions = table
	case KindPayments:
		ts.Payments = table
	case KindLoyalty:
		ts.Loyalty = table
	}
}
