package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/pos-ledger/internal/types"
)

// MismatchHeader is the first row of a freshly created mismatch log.
var MismatchHeader = []string{"pos", "branch", "date"}

// MismatchLog records each (pos, branch, date) whose detail rows carried a
// different date. A tuple is written at most once per file.
type MismatchLog struct {
	path string
	seen map[types.MismatchEntry]bool
}

// NewMismatchLog returns a log for path. The file is read on first append.
func NewMismatchLog(path string) *MismatchLog {
	return &MismatchLog{path: path}
}

// AppendMismatch appends entry unless the exact tuple is already present.
//
// RETURNS:
//   - true if a new row was written.
//   - An error if the log cannot be read or written.
func (m *MismatchLog) AppendMismatch(entry types.MismatchEntry) (bool, error) {
	if m.seen == nil {
		if err := m.load(); err != nil {
			return false, err
		}
	}
	if m.seen[entry] {
		return false, nil
	}

	file, err := os.OpenFile(m.path, os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open mismatch log: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(entry.Record()); err != nil {
		return false, fmt.Errorf("failed to write mismatch: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("failed to write mismatch: %w", err)
	}

	m.seen[entry] = true
	return true, nil
}

// load reads existing tuples, creating the file with its header when it is
// missing or empty.
func (m *MismatchLog) load() error {
	m.seen = make(map[types.MismatchEntry]bool)

	file, err := os.Open(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return m.create()
	}
	if err != nil {
		return fmt.Errorf("failed to open mismatch log: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read mismatch log: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(rec) < 3 {
			continue
		}
		m.seen[types.MismatchEntry{Terminal: rec[0], Branch: rec[1], Date: rec[2]}] = true
	}

	if first {
		return m.create()
	}
	return nil
}

func (m *MismatchLog) create() error {
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create mismatch log directory: %w", err)
		}
	}
	file, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("failed to create mismatch log: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(MismatchHeader); err != nil {
		return fmt.Errorf("failed to write mismatch header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Len returns the number of distinct tuples known to the log.
func (m *MismatchLog) Len() int { return len(m.seen) }
