package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCostPerHour_MonthlyTariff(t *testing.T) {
	// 30.00 per month over a fixed 30*24h month.
	perHour := CostPerHour(decimal.RequireFromString("30.00"))
	assert.Equal(t, "0.04166667", perHour.StringFixed(8))
}

func TestBytesToGiB(t *testing.T) {
	fiftyGiB := decimal.NewFromInt(50 << 30)
	assert.True(t, BytesToGiB(fiftyGiB).Equal(decimal.NewFromInt(50)))
}

func TestDisplay_HalfEven(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1.00000008", "1.00"},
		{"2.005", "2.00"},
		{"2.015", "2.02"},
		{"99.999", "100.00"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Display(decimal.RequireFromString(tc.in)).StringFixed(2), "display(%s)", tc.in)
	}
}

func TestDivHalfEven_Scale(t *testing.T) {
	got := DivHalfEven(decimal.NewFromInt(1), decimal.NewFromInt(3))
	assert.Equal(t, "0.33333333", got.StringFixed(8))
}
