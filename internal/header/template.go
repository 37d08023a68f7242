// =============================================================================
// POS Ledger - Header Template Loader
// =============================================================================
//
// The ledger's first line is copied from a header template maintained by the
// reporting team. Two template formats are accepted:
//
//   | Extension   | Header line                                             |
//   |-------------|---------------------------------------------------------|
//   | .csv / .txt | The whole file, surrounding whitespace stripped         |
//   | .xlsx       | First non-empty row of the first sheet, joined with "," |
//
// A missing template is reported with ErrNotFound; callers then create the
// ledger without a header.
//
// =============================================================================

package header

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pos-ledger/pkg/utils"
)

// ErrNotFound is returned when the template file does not exist.
var ErrNotFound = errors.New("header template not found")

// Load returns the header line held in the template at path.
//
// PARAMETERS:
//   - path: The template file (.csv, .txt or .xlsx).
//   - encoding: Source encoding for text templates; ignored for .xlsx.
//
// RETURNS:
//   - The header line without a trailing newline.
//   - ErrNotFound if the file does not exist, or a read/parse error.
func Load(path, encoding string) (string, error) {
	if path == "" || !utils.FileExists(path) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	default:
		content, err := utils.ReadSourceFile(path, encoding)
		if err != nil {
			return "", fmt.Errorf("failed to read header template: %w", err)
		}
		return strings.TrimSpace(content), nil
	}
}

func loadXLSX(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open header template: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return "", fmt.Errorf("header template has no sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to read rows: %w", err)
	}

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell)
		}
		return strings.Join(cells, ","), nil
	}
	return "", nil
}

func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Exists reports whether err says the template was absent.
func Exists(err error) bool {
	return !errors.Is(err, ErrNotFound)
}
