package pricing

// Line is one order line as seen by the total calculation.
type Line struct {
	UnitPriceInCents int64
	Quantity         int
}

// OrderTotal returns the order total in cents: the sum of all line totals
// plus the shipping price. Never negative.
func OrderTotal(lines []Line, shippingPriceInCents int64) int64 {
	var total int64
	for _, line := range lines {
		total += line.UnitPriceInCents * int64(line.Quantity)
	}
	total += shippingPriceInCents

	if total < 0 {
		return 0
	}

	return total
}
