package invoice

import (
	"cartera/internal/core/types"
)

// DetermineStatus maps the confirmed financial state of an invoice to its
// status. It is a pure function: both the per-payment recompute path and the
// bulk overdue sweep go through it, so the two paths cannot drift.
//
// Cancelled is never produced here; it is an externally-set terminal state
// that callers must check before recomputing.
func DetermineStatus(grossTotal, totalApplied types.Money, pastDue bool) Status {
	if totalApplied.GreaterThanOrEqual(grossTotal) {
		return StatusPaid
	}

	// Any confirmed application at all makes the invoice partially paid.
	if totalApplied.IsPositive() {
		if pastDue {
			return StatusOverdue
		}
		return StatusPartial
	}

	if pastDue {
		return StatusOverdue
	}
	return StatusPending
}
