package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestEffectivePrice(t *testing.T) {
	tests := []struct {
		name     string
		base     int64
		discount *Discount
		expected int64
	}{
		{
			name:     "no discount returns base",
			base:     10000,
			discount: nil,
			expected: 10000,
		},
		{
			name:     "inactive discount returns base",
			base:     10000,
			discount: &Discount{Type: DiscountTypePercentage, Value: 10, Active: false},
			expected: 10000,
		},
		{
			name:     "not yet started returns base",
			base:     10000,
			discount: &Discount{Type: DiscountTypePercentage, Value: 10, Active: true, StartsAt: timePtr(now.Add(time.Hour))},
			expected: 10000,
		},
		{
			name:     "already ended returns base",
			base:     10000,
			discount: &Discount{Type: DiscountTypePercentage, Value: 10, Active: true, EndsAt: timePtr(now.Add(-time.Hour))},
			expected: 10000,
		},
		{
			name:     "active percentage discount",
			base:     10000,
			discount: &Discount{Type: DiscountTypePercentage, Value: 10, Active: true},
			expected: 9000,
		},
		{
			name:     "active fixed discount",
			base:     10000,
			discount: &Discount{Type: DiscountTypeFixed, Value: 2500, Active: true},
			expected: 7500,
		},
		{
			name:     "discount within window",
			base:     10000,
			discount: &Discount{Type: DiscountTypePercentage, Value: 10, Active: true, StartsAt: timePtr(now.Add(-time.Hour)), EndsAt: timePtr(now.Add(time.Hour))},
			expected: 9000,
		},
		{
			name:     "fixed discount larger than price clamps to zero",
			base:     1000,
			discount: &Discount{Type: DiscountTypeFixed, Value: 2500, Active: true},
			expected: 0,
		},
		{
			name:     "hundred percent off",
			base:     10000,
			discount: &Discount{Type: DiscountTypePercentage, Value: 100, Active: true},
			expected: 0,
		},
		{
			name:     "unknown type returns base",
			base:     10000,
			discount: &Discount{Type: DiscountType("bogus"), Value: 10, Active: true},
			expected: 10000,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := EffectivePrice(tc.base, tc.discount, now)
			assert.Equal(t, tc.expected, got)
			assert.GreaterOrEqual(t, got, int64(0))
		})
	}
}

func TestOrderTotal(t *testing.T) {
	t.Run("widget scenario without discount", func(t *testing.T) {
		// 2 x 100.00 + 15.00 shipping = 215.00
		total := OrderTotal([]Line{{UnitPriceInCents: 10000, Quantity: 2}}, 1500)
		assert.Equal(t, int64(21500), total)
	})

	t.Run("widget scenario with active 10 percent discount", func(t *testing.T) {
		// 2 x 90.00 + 15.00 shipping = 195.00
		discount := &Discount{Type: DiscountTypePercentage, Value: 10, Active: true}
		unit := EffectivePrice(10000, discount, now)
		total := OrderTotal([]Line{{UnitPriceInCents: unit, Quantity: 2}}, 1500)
		assert.Equal(t, int64(19500), total)
	})

	t.Run("multiple lines", func(t *testing.T) {
		total := OrderTotal([]Line{
			{UnitPriceInCents: 10000, Quantity: 2},
			{UnitPriceInCents: 2500, Quantity: 4},
		}, 2000)
		assert.Equal(t, int64(32000), total)
	})

	t.Run("empty cart is just shipping", func(t *testing.T) {
		total := OrderTotal([]Line{}, 1500)
		assert.Equal(t, int64(1500), total)
	})

	t.Run("never negative", func(t *testing.T) {
		total := OrderTotal([]Line{}, -100)
		assert.Equal(t, int64(0), total)
	})
}
