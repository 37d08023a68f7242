package assembler

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedTime is returned when a time value does not start with a
// usable two-digit hour.
var ErrMalformedTime = errors.New("malformed time")

// NoTimeRecord is emitted in place of a daypart when the time is empty.
const NoTimeRecord = "No Time Record"

var transactionTypes = map[string]string{
	"D": "Dine-In",
	"T": "Take-Out",
	"C": "Delivery",
}

// dayparts is indexed by hour of sale.
var dayparts = [24]string{
	"GY", "GY", "GY", "GY", "GY", "GY",
	"Breakfast", "Breakfast", "Breakfast", "Breakfast", "Breakfast",
	"Lunch", "Lunch", "Lunch", "Lunch",
	"PM Snack", "PM Snack", "PM Snack", "PM Snack",
	"Dinner", "Dinner", "Dinner", "Dinner",
	"GY",
}

// TransactionTypeLabel returns the label for a transaction-type code, or
// "" when the code is unknown.
func TransactionTypeLabel(code string) string {
	return transactionTypes[code]
}

// Daypart buckets a time value by the hour in its first two characters.
func Daypart(timeValue string) (string, error) {
	if timeValue == "" {
		return NoTimeRecord, nil
	}

	prefix := timeValue
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	hour, err := strconv.Atoi(prefix)
	if err != nil || hour < 0 || hour >= len(dayparts) {
		return "", fmt.Errorf("%w: %q", ErrMalformedTime, timeValue)
	}
	return dayparts[hour], nil
}
