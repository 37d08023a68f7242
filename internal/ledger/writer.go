// =============================================================================
// POS Ledger - Ledger Writer
// =============================================================================
//
// The ledger is an append-only CSV shared by every batch. The first time a
// ledger path is opened while missing or empty, the header line from the
// template is written before any data row. Rows are never deduplicated or
// rewritten; a crash mid-batch leaves the rows written so far.
//
// =============================================================================

package ledger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// Writer appends assembled rows to the ledger file.
type Writer struct {
	path   string
	file   *os.File
	buf    *bufio.Writer
	rows   int
	header bool
}

// Open opens (or creates) the ledger at path for appending.
//
// PARAMETERS:
//   - path: The ledger file.
//   - header: The header line. Written only when the file is missing or
//     empty; an empty header writes nothing.
//
// RETURNS:
//   - The writer. Callers must Close it to flush buffered rows.
//   - An error if the ledger cannot be created or opened.
func Open(path, header string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat ledger: %w", err)
	}

	w := &Writer{path: path, file: file, buf: bufio.NewWriter(file)}
	if info.Size() == 0 && header != "" {
		if _, err := w.buf.WriteString(header + "\n"); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write ledger header: %w", err)
		}
		w.header = true
	}
	return w, nil
}

// AppendRow appends one comma-joined row followed by a single newline.
func (w *Writer) AppendRow(line string) error {
	if _, err := w.buf.WriteString(line); err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("failed to append ledger row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows appended through this writer.
func (w *Writer) Rows() int { return w.rows }

// WroteHeader reports whether Open wrote the header line.
func (w *Writer) WroteHeader() bool { return w.header }

// Path returns the ledger path.
func (w *Writer) Path() string { return w.path }

// Flush pushes buffered rows to the file.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush ledger: %w", err)
	}
	return nil
}

// Close flushes and closes the ledger.
func (w *Writer) Close() error {
	ferr := w.Flush()
	cerr := w.file.Close()
	if ferr != nil {
		return ferr
	}
	if cerr != nil {
		return fmt.Errorf("failed to close ledger: %w", cerr)
	}
	return nil
}
