package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cartera/internal/core/types"
)

func TestDetermineStatus(t *testing.T) {
	tests := []struct {
		name    string
		gross   string
		applied string
		pastDue bool
		want    Status
	}{
		{"nothing applied, not due", "1000", "0", false, StatusPending},
		{"nothing applied, past due", "1000", "0", true, StatusOverdue},
		{"partially applied, not due", "1000", "400", false, StatusPartial},
		{"partially applied, past due", "1000", "400", true, StatusOverdue},
		{"exactly covered", "1000", "1000", false, StatusPaid},
		{"exactly covered, past due", "1000", "1000", true, StatusPaid},
		{"over covered", "1000", "1200", true, StatusPaid},
		{"tiny application", "1000", "0.01", false, StatusPartial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetermineStatus(
				types.MustMoney(tt.gross), types.MustMoney(tt.applied), tt.pastDue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetermineStatus_NeverProducesCancelled(t *testing.T) {
	// Cancelled is external; no combination of inputs may yield it.
	grosses := []string{"1", "1000", "99999.99"}
	applieds := []string{"0", "0.01", "1", "1000", "100000"}

	for _, g := range grosses {
		for _, a := range applieds {
			for _, pastDue := range []bool{false, true} {
				got := DetermineStatus(types.MustMoney(g), types.MustMoney(a), pastDue)
				assert.NotEqual(t, StatusCancelled, got)
			}
		}
	}
}
