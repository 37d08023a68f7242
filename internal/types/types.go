// =============================================================================
// POS Ledger - Shared Types
// =============================================================================
//
// This package contains the types shared by the batch driver, the row
// assembler and the ledger writer. Keeping them here avoids import cycles
// between those packages.
//
// =============================================================================

package types

import "sort"

// =============================================================================
// FILE TYPES
// =============================================================================

// FileType is the fourth underscore-separated token of an export filename.
type FileType string

const (
	// FileDepartments is the department master (code,name).
	FileDepartments FileType = "rd1800"

	// FileLoyalty is the loyalty-customer detail.
	FileLoyalty FileType = "blpr"

	// FileDiscounts is the discount master (code,name).
	FileDiscounts FileType = "discount"

	// FileDetail is the sales-transaction detail. A group without one is skipped.
	FileDetail FileType = "rd5000"

	// FileItems is the item master.
	FileItems FileType = "rd5500"

	// FileTransactions is the payment-transaction detail (transaction no -> payment code).
	FileTransactions FileType = "rd5800"

	// FilePayments is the payment master (code,name).
	FilePayments FileType = "rd5900"
)

// AllFileTypes lists every file type a group may carry, in export order.
var AllFileTypes = []FileType{
	FileDepartments,
	FileLoyalty,
	FileDiscounts,
	FileDetail,
	FileItems,
	FileTransactions,
	FilePayments,
}

// =============================================================================
// GROUPS
// =============================================================================

// GroupKey identifies one unit of work: a terminal's exports for one branch and date.
type GroupKey struct {
	Branch   string
	Terminal string
	Date     string
}

// Group is a GroupKey plus the file selected for each type present.
type Group struct {
	Key GroupKey

	// Files maps a file type to the full path of the selected file.
	Files map[FileType]string
}

// File returns the path selected for the given type.
func (g Group) File(ft FileType) (string, bool) {
	p, ok := g.Files[ft]
	return p, ok
}

// HasDetail reports whether the group carries the mandatory detail file.
func (g Group) HasDetail() bool {
	_, ok := g.Files[FileDetail]
	return ok
}

// Missing returns the file types that are absent for this group.
func (g Group) Missing() []FileType {
	var missing []FileType
	for _, ft := range AllFileTypes {
		if _, ok := g.Files[ft]; !ok {
			missing = append(missing, ft)
		}
	}
	return missing
}

// SortGroups orders groups by branch, terminal, then date.
func SortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a.Branch != b.Branch {
			return a.Branch < b.Branch
		}
		if a.Terminal != b.Terminal {
			return a.Terminal < b.Terminal
		}
		return a.Date < b.Date
	})
}

// =============================================================================
// MISMATCHES
// =============================================================================

// MismatchEntry is one row of the mismatch log.
type MismatchEntry struct {
	Terminal string
	Branch   string
	Date     string
}

// Record returns the entry in mismatch-log column order (pos, branch, date).
func (m MismatchEntry) Record() []string {
	return []string{m.Terminal, m.Branch, m.Date}
}
