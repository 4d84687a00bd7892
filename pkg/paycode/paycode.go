// Package paycode builds and parses payment codes.
// A payment code is scoped to its invoice: "<invoice-number>-NNN", where NNN
// is a zero-padded per-invoice sequence assigned once at creation and never
// recomputed.
package paycode

import (
	"fmt"
	"strconv"
	"strings"
)

// PadWidth is the minimum sequence width in the formatted code.
const PadWidth = 3

// Format builds the payment code for the given invoice number and sequence.
// Pattern: FE-1024 + 7 -> "FE-1024-007".
func Format(invoiceNumber string, seq int) string {
	return fmt.Sprintf("%s-%0*d", invoiceNumber, PadWidth, seq)
}

// Parse splits a payment code into the invoice number and sequence.
func Parse(code string) (invoiceNumber string, seq int, err error) {
	idx := strings.LastIndex(code, "-")
	if idx <= 0 || idx == len(code)-1 {
		return "", 0, fmt.Errorf("malformed payment code %q", code)
	}

	seq, err = strconv.Atoi(code[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed payment code %q: %w", code, err)
	}

	return code[:idx], seq, nil
}
