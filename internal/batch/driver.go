// =============================================================================
// POS Ledger - Batch Driver
// =============================================================================
//
// The driver runs one sequential pass over a working directory:
//
//   1. Group the exports by (branch, pos, date).
//   2. Skip any group without a transaction-detail file.
//   3. Load the six reference tables of the group.
//   4. Assemble the detail lines, newest amendment first (reverse order).
//   5. Append matching rows to the ledger; route rows carrying another
//      date to the mismatch log.
//
// Reference and row problems never stop the batch. Only a failure to list
// the working directory or to write the ledger or mismatch log is fatal.
// Cancellation is honoured between groups, never inside one.
//
// =============================================================================

package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/pos-ledger/internal/assembler"
	"github.com/ginjaninja78/pos-ledger/internal/logger"
	"github.com/ginjaninja78/pos-ledger/internal/reference"
	"github.com/ginjaninja78/pos-ledger/internal/types"
	"github.com/ginjaninja78/pos-ledger/pkg/utils"
)

// ErrNoDetailFile marks a group skipped for lack of an rd5000 export.
var ErrNoDetailFile = errors.New("group has no transaction detail file")

// RowSink receives assembled ledger rows.
type RowSink interface {
	AppendRow(line string) error
}

// MismatchSink receives (pos, branch, date) tuples whose rows carried another date.
type MismatchSink interface {
	AppendMismatch(entry types.MismatchEntry) (bool, error)
}

// Options are the run settings the driver needs.
type Options struct {
	// Encoding of every export file.
	Encoding string

	// NewBranches enables the department column of the item master.
	NewBranches map[string]bool

	// LoyaltyIDLength filters loyalty lines; 0 disables the filter.
	LoyaltyIDLength int

	// Branch, when set, restricts the run to one branch.
	Branch string

	// DryRun assembles every row but writes nothing and archives nothing.
	DryRun bool

	// RunID is copied into the summary.
	RunID string
}

// Summary is the outcome of one run.
type Summary = utils.RunSummary

// Driver processes the groups of one working directory.
type Driver struct {
	files      *utils.FileManager
	rows       RowSink
	mismatches MismatchSink
	opts       Options
	log        *logger.Logger
	now        func() time.Time
}

// NewDriver wires a driver. In dry-run mode rows and mismatches are counted
// by an in-memory sink and the given sinks may be nil.
func NewDriver(files *utils.FileManager, rows RowSink, mismatches MismatchSink, opts Options, log *logger.Logger) *Driver {
	if log == nil {
		log = logger.Nop()
	}
	if opts.DryRun {
		dry := newDryRunSink()
		rows, mismatches = dry, dry
	}
	return &Driver{
		files:      files,
		rows:       rows,
		mismatches: mismatches,
		opts:       opts,
		log:        log,
		now:        time.Now,
	}
}

// Run processes every group in the working directory.
//
// RETURNS:
//   - The run summary, filled in as far as the run got.
//   - ctx.Err() if cancelled between groups, or a fatal I/O error.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: d.opts.RunID, StartTime: d.now(), DryRun: d.opts.DryRun}

	groups, err := Discover(d.files)
	if err != nil {
		summary.EndTime = d.now()
		return summary, err
	}
	d.log.Info().Int("groups", len(groups)).Str("dir", d.files.WorkingDir).Msg("discovered groups")

	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			d.log.Warn().Err(err).Msg("run cancelled between groups")
			summary.EndTime = d.now()
			return summary, err
		}
		if d.opts.Branch != "" && g.Key.Branch != d.opts.Branch {
			continue
		}

		stats, err := d.ProcessGroup(g)
		switch {
		case errors.Is(err, ErrNoDetailFile):
			summary.GroupsSkipped++
			summary.SkippedGroups = append(summary.SkippedGroups, GroupLabel(g.Key))
			continue
		case errors.As(err, new(*fatalError)):
			addStats(&summary, stats)
			summary.EndTime = d.now()
			return summary, err
		case err != nil:
			summary.GroupsFailed++
			d.log.Error().Err(err).Str("group", GroupLabel(g.Key)).Msg("group failed")
			continue
		}

		summary.GroupsProcessed++
		addStats(&summary, stats)
		summary.FilesArchived += d.archive(g)
	}

	summary.EndTime = d.now()
	return summary, nil
}

// GroupStats counts the outcome of one group.
type GroupStats struct {
	RowsWritten   int
	Mismatches    int
	RowFailures   int
	RejectedLines int
}

func addStats(s *Summary, g GroupStats) {
	s.RowsWritten += g.RowsWritten
	s.Mismatches += g.Mismatches
	s.RowFailures += g.RowFailures
	s.RejectedLines += g.RejectedLines
}

// fatalError wraps sink failures that must stop the run.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// ProcessGroup assembles one group into the sinks.
func (d *Driver) ProcessGroup(g types.Group) (GroupStats, error) {
	var stats GroupStats
	detailPath, ok := g.File(types.FileDetail)
	if !ok {
		return stats, ErrNoDetailFile
	}

	glog := d.log.With().
		Str("branch", g.Key.Branch).
		Str("pos", g.Key.Terminal).
		Str("date", g.Key.Date).
		Logger()

	newFormat := d.opts.NewBranches[g.Key.Branch]
	tables, rejected := d.loadTables(g, newFormat, &glog)
	stats.RejectedLines = rejected

	content, err := utils.ReadSourceFile(detailPath, d.opts.Encoding)
	if err != nil {
		return stats, fmt.Errorf("read detail file: %w", err)
	}

	asm := assembler.New(tables, g.Key, newFormat)
	lines := reference.SplitLines(content)
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}

		row, err := assemble(asm, line)
		if err != nil {
			stats.RowFailures++
			glog.Error().Err(err).Int("line", i+1).Str("raw", line).Msg("failed to append row")
			continue
		}

		if !row.MatchesDate(g.Key.Date) {
			stats.Mismatches++
			entry := types.MismatchEntry{Terminal: g.Key.Terminal, Branch: g.Key.Branch, Date: g.Key.Date}
			if _, err := d.mismatches.AppendMismatch(entry); err != nil {
				return stats, &fatalError{fmt.Errorf("mismatch log: %w", err)}
			}
			continue
		}

		if err := d.rows.AppendRow(row.Line()); err != nil {
			return stats, &fatalError{fmt.Errorf("ledger: %w", err)}
		}
		stats.RowsWritten++
	}

	glog.Info().
		Int("rows", stats.RowsWritten).
		Int("mismatches", stats.Mismatches).
		Int("failures", stats.RowFailures).
		Bool("new_format", newFormat).
		Msg("group processed")
	return stats, nil
}

// assemble turns a panic inside the assembler into a row failure.
func assemble(asm *assembler.Assembler, line string) (row assembler.Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic assembling row: %v", r)
		}
	}()
	return asm.Assemble(line)
}

// loadTables reads the reference files of a group. A missing or unreadable
// file leaves an empty table.
func (d *Driver) loadTables(g types.Group, newFormat bool, glog *logger.Logger) (reference.Tables, int) {
	opts := reference.Options{NewFormat: newFormat, LoyaltyIDLength: d.opts.LoyaltyIDLength}
	var tables reference.Tables
	rejectedTotal := 0

	for _, ft := range types.AllFileTypes {
		kind, ok := reference.KindFor(ft)
		if !ok {
			continue
		}
		path, ok := g.File(ft)
		if !ok {
			glog.Debug().Str("type", string(ft)).Msg("reference file missing")
			tables.Set(kind, reference.Empty())
			continue
		}

		content, err := utils.ReadSourceFile(path, d.opts.Encoding)
		if err != nil {
			glog.Warn().Err(err).Str("type", string(ft)).Msg("reference file unreadable")
			tables.Set(kind, reference.Empty())
			continue
		}

		table, rejected := reference.Load(content, kind, opts)
		tables.Set(kind, table)
		rejectedTotal += len(rejected)
		for _, r := range rejected {
			glog.Warn().
				Str("type", string(ft)).
				Int("line", r.Line).
				Str("reason", r.Reason).
				Str("raw", r.Raw).
				Msg("reference line rejected")
		}
		glog.Debug().Str("type", string(ft)).Int("entries", table.Len()).Msg("reference loaded")
	}
	return tables, rejectedTotal
}

// archive moves a processed group's files when archiving is on.
func (d *Driver) archive(g types.Group) int {
	if d.opts.DryRun || !d.files.ArchiveOnSuccess {
		return 0
	}
	moved := 0
	for _, ft := range types.AllFileTypes {
		path, ok := g.File(ft)
		if !ok {
			continue
		}
		dst, err := d.files.ArchiveFile(path)
		if err != nil {
			d.log.Warn().Err(err).Str("file", path).Msg("archive failed")
			continue
		}
		d.log.Debug().Str("file", path).Str("archive", dst).Msg("archived")
		moved++
	}
	return moved
}

// dryRunSink accepts everything and keeps mismatch tuples in memory.
type dryRunSink struct {
	seen map[types.MismatchEntry]bool
}

func newDryRunSink() *dryRunSink {
	return &dryRunSink{seen: make(map[types.MismatchEntry]bool)}
}

func (s *dryRunSink) AppendRow(string) error { return nil }

func (s *dryRunSink) AppendMismatch(entry types.MismatchEntry) (bool, error) {
	if s.seen[entry] {
		return false, nil
	}
	s.seen[entry] = true
	return true, nil
}
