package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApproxEqual_ToleranceIsInclusive(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"10.00", "10.00", true},
		{"10.00", "9.995", true},
		{"10.00", "9.99", true},
		{"9.99", "10.00", true},
		{"10.00", "9.989", false},
		{"10.00", "9.98", false},
	}
	for _, tt := range tests {
		got := ApproxEqual(decimal.RequireFromString(tt.a), decimal.RequireFromString(tt.b))
		assert.Equal(t, tt.want, got, "ApproxEqual(%s, %s)", tt.a, tt.b)
	}
}
