package reference

import (
	"strings"
	"testing"

	"github.com/ginjaninja78/pos-ledger/internal/types"
)

func TestLoadFirstPhysicalLineWins(t *testing.T) {
	content := "01,Food\n02,Drinks\n01,Old Food\n"
	table, rejected := Load(content, KindDepartments, Options{})

	if len(rejected) != 0 {
		t.Fatalf("unexpected rejections: %+v", rejected)
	}
	if table.Len() != 2 {
		t.Fatalf("expected 2 codes, got %d", table.Len())
	}
	if got, _ := table.Value("01"); got != "Food" {
		t.Errorf("code 01 = %q, want Food", got)
	}
}

func TestLoadPresenceOnlyAndBlankLines(t *testing.T) {
	content := "D1\r\n\r\nD2,Senior\r\n"
	table, _ := Load(content, KindDiscounts, Options{})

	v, ok := table.Value("D1")
	if !ok || v != "" {
		t.Errorf("D1 = (%q, %v), want presence-only", v, ok)
	}
	if v, _ := table.Value("D2"); v != "Senior" {
		t.Errorf("D2 = %q, want Senior", v)
	}
	if _, ok := table.Value(""); ok {
		t.Error("blank line must not create an empty code")
	}
}

func TestLoadKeysAreExact(t *testing.T) {
	table, _ := Load("001,Burger\n", KindPayments, Options{})

	for _, miss := range []string{"1", "01", " 001", "001 "} {
		if _, ok := table.Lookup(miss); ok {
			t.Errorf("lookup %q should miss", miss)
		}
	}
	if _, ok := table.Lookup("001"); !ok {
		t.Error("lookup 001 should hit")
	}
}

func TestLoadItems(t *testing.T) {
	wide := make([]string, 15)
	for i := range wide {
		wide[i] = "x"
	}
	wide[0], wide[1], wide[3], wide[12] = "100", "Spaghetti", "D3", "D12"
	fiveCol := "200,Fries,x,D4,x"
	content := strings.Join(wide, ",") + "\n" + fiveCol + "\n300,Soda\n400\n"

	t.Run("new format", func(t *testing.T) {
		table, _ := Load(content, KindItems, Options{NewFormat: true})

		want := map[string]Entry{
			"100": {Value: "Spaghetti", Department: "D12", HasDepartment: true},
			"200": {Value: "Fries", Department: "D4", HasDepartment: true},
			"300": {Value: "Soda"},
			"400": {},
		}
		for code, w := range want {
			got, ok := table.Lookup(code)
			if !ok {
				t.Fatalf("missing item %s", code)
			}
			if got != w {
				t.Errorf("item %s = %+v, want %+v", code, got, w)
			}
		}
	})

	t.Run("old format ignores department", func(t *testing.T) {
		table, _ := Load(content, KindItems, Options{})
		got, _ := table.Lookup("100")
		if got.HasDepartment || got.Value != "Spaghetti" {
			t.Errorf("item 100 = %+v", got)
		}
	})

	t.Run("item lines are trimmed", func(t *testing.T) {
		table, _ := Load("  500,Rice  \n", KindItems, Options{})
		if v, _ := table.Value("500"); v != "Rice" {
			t.Errorf("item 500 = %q", v)
		}
	})
}

func TestLoadTransactions(t *testing.T) {
	cols := make([]string, 21)
	cols[11] = "CASH"
	cols[20] = "T-1"
	good := strings.Join(cols, ",")
	short := strings.Join(make([]string, 5), ",")
	medium := strings.Join(make([]string, 20), ",")

	table, rejected := Load(good+"\n"+short+"\n"+medium+"\n", KindTransactions, Options{})

	if v, _ := table.Value("T-1"); v != "CASH" {
		t.Errorf("T-1 = %q, want CASH", v)
	}
	if len(rejected) != 2 {
		t.Fatalf("expected 2 rejections, got %+v", rejected)
	}
	// reversed order: medium (line 3) first, then short (line 2)
	if rejected[0].Reason != ReasonLack20 || rejected[0].Line != 3 {
		t.Errorf("rejection 0 = %+v", rejected[0])
	}
	if rejected[1].Reason != ReasonLack11 || rejected[1].Line != 2 {
		t.Errorf("rejection 1 = %+v", rejected[1])
	}
}

func TestLoadLoyalty(t *testing.T) {
	content := strings.Join([]string{
		`x,09171234567,x,"=""T-9""",x`,
		`x,09170000000,x,T-8`,
		`x,12345,x,T-7`,
		`x,09179999999`,
	}, "\n")

	table, rejected := Load(content, KindLoyalty, Options{LoyaltyIDLength: 11})

	if v, _ := table.Value("T-9"); v != "09171234567" {
		t.Errorf("protected key T-9 = %q", v)
	}
	if v, _ := table.Value("T-8"); v != "09170000000" {
		t.Errorf("plain key T-8 = %q", v)
	}
	if _, ok := table.Value("T-7"); ok {
		t.Error("short loyalty id must be rejected")
	}
	if len(rejected) != 2 {
		t.Errorf("expected 2 rejections, got %+v", rejected)
	}

	anyLen, _ := Load(content, KindLoyalty, Options{})
	if v, _ := anyLen.Value("T-7"); v != "12345" {
		t.Errorf("length filter disabled: T-7 = %q", v)
	}
}

func TestLoadEmptyContent(t *testing.T) {
	table, rejected := Load("", KindItems, Options{})
	if table == nil || table.Len() != 0 || len(rejected) != 0 {
		t.Fatalf("empty content: table=%v rejected=%v", table, rejected)
	}
}

func TestNilTableMisses(t *testing.T) {
	var table *Table
	if _, ok := table.Lookup("x"); ok {
		t.Error("nil table must miss")
	}
	if Empty().Len() != 0 {
		t.Error("empty table must be empty")
	}
}

func TestKindFor(t *testing.T) {
	if _, ok := KindFor(types.FileDetail); ok {
		t.Error("detail file has no reference kind")
	}
	for _, ft := range types.AllFileTypes {
		if ft == types.FileDetail {
			continue
		}
		if _, ok := KindFor(ft); !ok {
			t.Errorf("no kind for %s", ft)
		}
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\r\nb\n\nc")
	want := []string{"a", "b", "", "c"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("SplitLines = %q, want %q", got, want)
	}
}
