package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeCartItems(t *testing.T) {
	t.Run("Same product and variants merge by quantity", func(t *testing.T) {
		items := mergeCartItems([]CartItem{
			{ProductUID: "product_abaya", Quantity: 1, Variants: []VariantSelection{{Name: "size", Value: "M"}}},
			{ProductUID: "product_abaya", Quantity: 2, Variants: []VariantSelection{{Name: "size", Value: "M"}}},
		})

		assert.Len(t, items, 1)
		assert.Equal(t, 3, items[0].Quantity)
	})

	t.Run("Variant order does not matter", func(t *testing.T) {
		items := mergeCartItems([]CartItem{
			{ProductUID: "product_abaya", Quantity: 1, Variants: []VariantSelection{{Name: "color", Value: "red"}, {Name: "size", Value: "M"}}},
			{ProductUID: "product_abaya", Quantity: 1, Variants: []VariantSelection{{Name: "size", Value: "M"}, {Name: "color", Value: "red"}}},
		})

		assert.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity)
	})

	t.Run("Same product with different variants stays separate", func(t *testing.T) {
		items := mergeCartItems([]CartItem{
			{ProductUID: "product_abaya", Quantity: 1, Variants: []VariantSelection{{Name: "size", Value: "M"}}},
			{ProductUID: "product_abaya", Quantity: 1, Variants: []VariantSelection{{Name: "size", Value: "L"}}},
		})

		assert.Len(t, items, 2)
	})

	t.Run("Quantity below one is bumped to one", func(t *testing.T) {
		items := mergeCartItems([]CartItem{
			{ProductUID: "product_abaya", Quantity: 0},
		})

		assert.Equal(t, 1, items[0].Quantity)
	})
}

func TestCustomerInfoIsComplete(t *testing.T) {
	complete := CustomerInfo{Name: "Salma Alghamdi", Phone: "+966501234567", Address: "King Fahd Rd 12", City: "Riyadh"}

	assert.True(t, complete.IsComplete())

	t.Run("Whitespace does not count", func(t *testing.T) {
		customer := complete
		customer.Phone = "   "

		assert.False(t, customer.IsComplete())
	})

	t.Run("Email and district are optional", func(t *testing.T) {
		customer := complete
		customer.Email = ""
		customer.District = ""

		assert.True(t, customer.IsComplete())
	})
}
