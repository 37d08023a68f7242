package assembler

import (
	"strings"

	"github.com/ginjaninja78/pos-ledger/internal/classify"
)

// =============================================================================
// PROJECTION CONTRACT
// =============================================================================

// ProjectedWidth is the number of detail columns carried into a ledger row.
const ProjectedWidth = 18

// projection lists, in output order, the raw detail-file column feeding each
// projected slot. The export carries no header; this table is the contract.
//
//	slot  raw  role
//	   0    0  terminal (always replaced by the group's terminal)
//	   1    2  receipt number
//	   2    4  item code
//	   3    5  quantity
//	   4    6  unit price
//	   5    7  amount
//	   6    8
//	   7   11  department code
//	   8   12  date (time suffix removed)
//	   9   13  time
//	  10   18  discount code
//	  11   21  transaction type
//	  12   31
//	  13   32
//	  14   34
//	  15   35
//	  16   36
//	  17   37  transaction / loyalty key
var projection = [ProjectedWidth]int{0, 2, 4, 5, 6, 7, 8, 11, 12, 13, 18, 21, 31, 32, 34, 35, 36, 37}

// Projected slots used by the joins.
const (
	SlotTerminal   = 0
	SlotItemCode   = 2
	SlotDepartment = 7
	SlotDate       = 8
	SlotTime       = 9
	SlotDiscount   = 10
	SlotTxnType    = 11
	SlotTxnKey     = 17
)

// Record is a detail line after projection and classification.
type Record struct {
	Fields [ProjectedWidth]string
}

// Project splits a raw detail line on commas and builds its Record. Missing
// columns are left empty, so short lines never index out of range.
func Project(line string) Record {
	raw := strings.Split(line, ",")

	var r Record
	for slot, col := range projection {
		if col < len(raw) {
			r.Fields[slot] = classify.Shape(raw[col], col)
		}
	}
	return r
}

func (r Record) ItemCode() string     { return r.Fields[SlotItemCode] }
func (r Record) Department() string   { return r.Fields[SlotDepartment] }
func (r Record) Date() string         { return r.Fields[SlotDate] }
func (r Record) Time() string         { return r.Fields[SlotTime] }
func (r Record) DiscountCode() string { return r.Fields[SlotDiscount] }
func (r Record) TxnType() string      { return r.Fields[SlotTxnType] }
func (r Record) TxnKey() string       { return r.Fields[SlotTxnKey] }
