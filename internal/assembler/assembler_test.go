package assembler

import (
	"errors"
	"strings"
	"testing"

	"github.com/ginjaninja78/pos-ledger/internal/reference"
	"github.com/ginjaninja78/pos-ledger/internal/types"
)

// detailLine builds a 38-column raw detail line with the given raw columns set.
func detailLine(cols map[int]string) string {
	raw := make([]string, 38)
	for i, v := range cols {
		raw[i] = v
	}
	return strings.Join(raw, ",")
}

func baseColumns() map[int]string {
	return map[int]string{
		0:  "9",
		2:  "OR1",
		4:  "001",
		5:  "2",
		6:  "50.00",
		7:  "100.00",
		11: "01",
		12: "2025-07-01 00:00:00",
		13: "08:30:00",
		18: "DISC",
		21: "D",
		37: "T-1",
	}
}

func load(content string, kind reference.Kind, opts reference.Options) *reference.Table {
	table, _ := reference.Load(content, kind, opts)
	return table
}

func fixtureTables(newFormat bool) reference.Tables {
	opts := reference.Options{NewFormat: newFormat, LoyaltyIDLength: 11}
	return reference.Tables{
		Items:        load("001,Burger,x,02\n", reference.KindItems, opts),
		Departments:  load("01,Food\n02,Sides\n", reference.KindDepartments, opts),
		Discounts:    load("DISC,Senior\n", reference.KindDiscounts, opts),
		Transactions: load(strings.Repeat(",", 11)+"P1"+strings.Repeat(",", 9)+"T-1\n", reference.KindTransactions, opts),
		Payments:     load("P1,Cash\n", reference.KindPayments, opts),
		Loyalty:      load("x,09171234567,x,T-1\n", reference.KindLoyalty, opts),
	}
}

var key = types.GroupKey{Branch: "BR1", Terminal: "1", Date: "2025-07-01"}

func TestAssembleFullJoin(t *testing.T) {
	a := New(fixtureTables(false), key, false)

	row, err := a.Assemble(detailLine(baseColumns()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"1", "OR1", `"=""001"""`, "2", "50.00", "100.00", "", `"=""01"""`, "2025-07-01", "08:30:00",
		"DISC", "D", "", "", "", "", "", "T-1",
		`"Burger"`, `"Food"`, `"Senior"`, `"Dine-In"`, "Breakfast", "P1", "Cash", "09171234567", "BR1",
	}
	got := row.Fields()
	if len(got) != RowWidth {
		t.Fatalf("row has %d columns, want %d", len(got), RowWidth)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, got[i], want[i])
		}
	}
	if row.Line() != strings.Join(want, ",") {
		t.Errorf("Line() = %q", row.Line())
	}
	if !row.MatchesDate("2025-07-01") {
		t.Error("row should match its group date")
	}
}

func TestAssembleBurgerFoodRoundTrip(t *testing.T) {
	tables := reference.Tables{
		Items:       load("001,Burger", reference.KindItems, reference.Options{}),
		Departments: load("01,Food", reference.KindDepartments, reference.Options{}),
	}
	a := New(tables, key, false)

	row, err := a.Assemble(detailLine(map[int]string{4: "001", 11: "01", 12: "2025-07-01"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(row.Line(), `,"Burger","Food",`) {
		t.Errorf("row %q does not carry Burger,Food", row.Line())
	}
}

func TestAssembleTerminalIsReplaced(t *testing.T) {
	a := New(reference.Tables{}, key, false)
	row, err := a.Assemble(detailLine(map[int]string{0: "77"}))
	if err != nil {
		t.Fatal(err)
	}
	if row.Record.Fields[SlotTerminal] != "1" {
		t.Errorf("terminal = %q, want 1", row.Record.Fields[SlotTerminal])
	}
}

func TestAssembleNewFormatDepartmentOverride(t *testing.T) {
	a := New(fixtureTables(true), key, true)

	row, err := a.Assemble(detailLine(baseColumns()))
	if err != nil {
		t.Fatal(err)
	}
	if row.Record.Department() != `"02"` {
		t.Errorf("department slot = %q, want item department", row.Record.Department())
	}
	if row.DepartmentName != `"Sides"` {
		t.Errorf("department name = %q, want Sides", row.DepartmentName)
	}
}

func TestAssembleUnknownItemLeavesDepartment(t *testing.T) {
	cols := baseColumns()
	cols[4] = "999"
	a := New(fixtureTables(true), key, true)

	row, err := a.Assemble(detailLine(cols))
	if err != nil {
		t.Fatal(err)
	}
	if row.ItemName != "" {
		t.Errorf("item name = %q, want empty", row.ItemName)
	}
	if row.Record.Department() != `"=""01"""` {
		t.Errorf("department slot = %q, want raw department", row.Record.Department())
	}
	if row.DepartmentName != `"Food"` {
		t.Errorf("department name = %q", row.DepartmentName)
	}
}

func TestAssembleShortLine(t *testing.T) {
	a := New(fixtureTables(false), key, false)

	row, err := a.Assemble("5,x,001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := row.Fields()
	if len(got) != RowWidth {
		t.Fatalf("row has %d columns, want %d", len(got), RowWidth)
	}
	for slot := 3; slot < ProjectedWidth; slot++ {
		if got[slot] != "" {
			t.Errorf("slot %d = %q, want empty padding", slot, got[slot])
		}
	}
	if row.Daypart != NoTimeRecord {
		t.Errorf("daypart = %q, want %q", row.Daypart, NoTimeRecord)
	}
	if row.PaymentCode != "" || row.PaymentName != "" || row.LoyaltyID != "" {
		t.Errorf("empty key must skip joins: %+v", row)
	}
}

func TestAssembleKeyMisses(t *testing.T) {
	cols := baseColumns()
	cols[37] = "T-404"
	cols[21] = "X"
	a := New(fixtureTables(false), key, false)

	row, err := a.Assemble(detailLine(cols))
	if err != nil {
		t.Fatal(err)
	}
	if row.TxnTypeLabel != "" {
		t.Errorf("unknown type label = %q", row.TxnTypeLabel)
	}
	fields := row.Fields()
	tail := fields[RowWidth-4:]
	for i, v := range tail[:3] {
		if v != "" {
			t.Errorf("derived column %d = %q, want empty", i, v)
		}
	}
	if tail[3] != "BR1" {
		t.Errorf("branch = %q", tail[3])
	}
}

func TestAssembleMalformedTime(t *testing.T) {
	cols := baseColumns()
	cols[13] = "xx:30"
	a := New(fixtureTables(false), key, false)

	_, err := a.Assemble(detailLine(cols))
	if !errors.Is(err, ErrMalformedTime) {
		t.Fatalf("expected ErrMalformedTime, got %v", err)
	}
}

func TestRowMatchesDate(t *testing.T) {
	a := New(reference.Tables{}, key, false)
	row, err := a.Assemble(detailLine(map[int]string{12: "2025-06-30 23:59:59"}))
	if err != nil {
		t.Fatal(err)
	}
	if row.MatchesDate("2025-07-01") {
		t.Error("row from another date must not match")
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	a := New(fixtureTables(true), key, true)
	line := detailLine(baseColumns())

	first, err := a.Assemble(line)
	if err != nil {
		t.Fatal(err)
	}
	second, _ := a.Assemble(line)
	if first.Line() != second.Line() {
		t.Errorf("assembly is not repeatable:\n%s\n%s", first.Line(), second.Line())
	}
}
