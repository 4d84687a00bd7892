package paycode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		invoice string
		seq     int
		want    string
	}{
		{"FE-1024", 7, "FE-1024-007"},
		{"FE-1024", 1, "FE-1024-001"},
		{"R-33", 42, "R-33-042"},
		{"FE-1", 999, "FE-1-999"},
		{"FE-1", 1000, "FE-1-1000"}, // width grows past the pad
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Format(tt.invoice, tt.seq))
	}
}

func TestParse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		invoice, seq, err := Parse(Format("FE-1024", 7))
		require.NoError(t, err)
		assert.Equal(t, "FE-1024", invoice)
		assert.Equal(t, 7, seq)
	})

	t.Run("sequence wider than the pad", func(t *testing.T) {
		invoice, seq, err := Parse("R-33-1205")
		require.NoError(t, err)
		assert.Equal(t, "R-33", invoice)
		assert.Equal(t, 1205, seq)
	})

	t.Run("malformed codes", func(t *testing.T) {
		for _, code := range []string{"", "FE-1024-", "-001", "FE-1024-abc"} {
			_, _, err := Parse(code)
			assert.Error(t, err, "code %q", code)
		}
	})
}
