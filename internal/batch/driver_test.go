package batch

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/pos-ledger/internal/ledger"
	"github.com/ginjaninja78/pos-ledger/internal/testkit"
	"github.com/ginjaninja78/pos-ledger/internal/types"
	"github.com/ginjaninja78/pos-ledger/pkg/utils"
)

const groupDate = "2025-07-01"

// detail builds a 38-column raw detail line.
func detail(cols map[int]string) string {
	raw := make([]string, 38)
	for i, v := range cols {
		raw[i] = v
	}
	return strings.Join(raw, ",")
}

func saleLine(item, date, time, txn string) string {
	return detail(map[int]string{0: "9", 2: "OR1", 4: item, 11: "01", 12: date, 13: time, 21: "D", 37: txn})
}

// writeGroup lays out one complete B01/1 group plus a B02 group without detail.
func writeGroup(t *testing.T, dir string) {
	t.Helper()
	lines := []string{
		saleLine("001", groupDate+" 00:00:00", "08:30:00", "T-1"),
		"",
		saleLine("002", "2025-06-30 00:00:00", "12:00:00", "T-2"),
		saleLine("002", groupDate+" 00:00:00", "xx:00", "T-3"),
		saleLine("002", groupDate+" 00:00:00", "19:15:00", "T-4"),
	}
	testkit.WriteFile(t, dir, "a_B01_1_rd5000_"+groupDate+".csv", strings.Join(lines, "\n")+"\n")
	testkit.WriteFile(t, dir, "a_B01_1_rd5500_"+groupDate+".csv", "001,Burger\n002,Fries\n001,Old Burger\n")
	testkit.WriteFile(t, dir, "a_B01_1_rd1800_"+groupDate+".csv", "01,Food\n")
	testkit.WriteFile(t, dir, "a_B01_1_rd5800_"+groupDate+".csv", "short,line\n")
	testkit.WriteFile(t, dir, "a_B02_1_rd5500_"+groupDate+".csv", "001,Burger\n")
}

type recorder struct {
	rows       []string
	mismatches []types.MismatchEntry
	failRows   error
}

func (r *recorder) AppendRow(line string) error {
	if r.failRows != nil {
		return r.failRows
	}
	r.rows = append(r.rows, line)
	return nil
}

func (r *recorder) AppendMismatch(e types.MismatchEntry) (bool, error) {
	r.mismatches = append(r.mismatches, e)
	return true, nil
}

func TestRunRoutesRowsMismatchesAndFailures(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir)

	rec := &recorder{}
	d := NewDriver(utils.NewFileManager(dir, ""), rec, rec, Options{LoyaltyIDLength: 11}, nil)
	summary, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.GroupsProcessed != 1 || summary.GroupsSkipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.SkippedGroups[0] != "B02/1/"+groupDate {
		t.Errorf("skipped = %v", summary.SkippedGroups)
	}
	if summary.RowsWritten != 2 || summary.Mismatches != 1 || summary.RowFailures != 1 {
		t.Fatalf("counts = %+v", summary)
	}
	if summary.RejectedLines != 1 {
		t.Errorf("rejected = %d", summary.RejectedLines)
	}

	// Detail lines are processed newest amendment first.
	if len(rec.rows) != 2 {
		t.Fatalf("rows = %v", rec.rows)
	}
	testkit.MustContain(t, rec.rows[0], `"Fries","Food",,"Dine-In",Dinner`)
	testkit.MustContain(t, rec.rows[1], `"Burger","Food",,"Dine-In",Breakfast`)
	if !strings.HasSuffix(rec.rows[1], ",B01") {
		t.Errorf("row does not end with branch: %s", rec.rows[1])
	}

	want := types.MismatchEntry{Terminal: "1", Branch: "B01", Date: groupDate}
	if len(rec.mismatches) != 1 || rec.mismatches[0] != want {
		t.Fatalf("mismatches = %+v", rec.mismatches)
	}
}

func TestRunIsIdempotentOverFreshLedgers(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir)
	header := "pos,or,item"

	run := func(out string) string {
		w, err := ledger.Open(out, header)
		if err != nil {
			t.Fatal(err)
		}
		mm := ledger.NewMismatchLog(filepath.Join(filepath.Dir(out), "mm.csv"))
		d := NewDriver(utils.NewFileManager(dir, ""), w, mm, Options{}, nil)
		if _, err := d.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatal(err)
		}
		return testkit.ReadFile(t, out)
	}

	first := run(filepath.Join(t.TempDir(), "record.csv"))
	second := run(filepath.Join(t.TempDir(), "record.csv"))
	if first != second {
		t.Fatalf("ledgers differ:\n%s\n---\n%s", first, second)
	}
	if !strings.HasPrefix(first, header+"\n") || strings.Count(first, "\n") != 3 {
		t.Fatalf("ledger = %q", first)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir)

	fm := utils.NewFileManager(dir, filepath.Join(t.TempDir(), "archive"))
	fm.ArchiveOnSuccess = true
	d := NewDriver(fm, nil, nil, Options{DryRun: true}, nil)
	summary, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.DryRun || summary.RowsWritten != 2 || summary.FilesArchived != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunArchivesProcessedGroups(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir)
	archive := filepath.Join(t.TempDir(), "archive")

	fm := utils.NewFileManager(dir, archive)
	fm.ArchiveOnSuccess = true
	rec := &recorder{}
	summary, err := NewDriver(fm, rec, rec, Options{}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.FilesArchived != 4 {
		t.Fatalf("archived = %d", summary.FilesArchived)
	}
	if !utils.FileExists(filepath.Join(archive, "a_B01_1_rd5000_"+groupDate+".csv")) {
		t.Error("detail file not archived")
	}
	// The skipped group stays for the next batch.
	if !utils.FileExists(filepath.Join(dir, "a_B02_1_rd5500_"+groupDate+".csv")) {
		t.Error("skipped group was archived")
	}
}

func TestRunBranchFilter(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir)
	rec := &recorder{}
	summary, err := NewDriver(utils.NewFileManager(dir, ""), rec, rec, Options{Branch: "B02"}, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.GroupsProcessed != 0 || summary.GroupsSkipped != 1 || len(rec.rows) != 0 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestRunStopsOnLedgerFailure(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir)
	boom := errors.New("disk full")
	rec := &recorder{failRows: boom}

	_, err := NewDriver(utils.NewFileManager(dir, ""), rec, rec, Options{}, nil).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected ledger failure, got %v", err)
	}
}

func TestRunHonoursCancellationBetweenGroups(t *testing.T) {
	dir := t.TempDir()
	writeGroup(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	summary, err := NewDriver(utils.NewFileManager(dir, ""), rec, rec, Options{}, nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if summary.GroupsProcessed != 0 || len(rec.rows) != 0 {
		t.Fatalf("work done after cancel: %+v", summary)
	}
}

func TestProcessGroupWithoutDetail(t *testing.T) {
	d := NewDriver(utils.NewFileManager(t.TempDir(), ""), &recorder{}, &recorder{}, Options{}, nil)
	_, err := d.ProcessGroup(types.Group{Key: types.GroupKey{Branch: "B"}, Files: map[types.FileType]string{}})
	if !errors.Is(err, ErrNoDetailFile) {
		t.Fatalf("expected ErrNoDetailFile, got %v", err)
	}
}
