package pricing

import (
	"math"
	"time"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Discount reduces a product's unit price within an optional validity window.
// At most one discount per product is active at a time; that exclusion is
// enforced by the discount service, not here.
type Discount struct {
	UID          string
	ProductUID   string
	Type         DiscountType
	Value        float64 // percentage points, or an amount in cents for fixed
	StartsAt     *time.Time
	EndsAt       *time.Time
	Active       bool
	CreatedAt    time.Time
	LastModified *time.Time
}

func (d Discount) IsValidAt(now time.Time) bool {
	if !d.Active {
		return false
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return false
	}

	return true
}

// EffectivePrice returns the unit price in cents after applying the discount.
// An absent, inactive or out-of-window discount leaves the base price
// unchanged. The result is never negative.
func EffectivePrice(basePriceInCents int64, discount *Discount, now time.Time) int64 {
	if discount == nil || !discount.IsValidAt(now) {
		return basePriceInCents
	}

	var discountInCents int64
	switch discount.Type {
	case DiscountTypePercentage:
		discountInCents = int64(math.Round(float64(basePriceInCents) * discount.Value / 100.0))
	case DiscountTypeFixed:
		discountInCents = int64(math.Round(discount.Value))
	default:
		return basePriceInCents
	}

	effective := basePriceInCents - discountInCents
	if effective < 0 {
		return 0
	}

	return effective
}
