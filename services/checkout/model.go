package checkout

import (
	"sort"
	"strings"
	"time"

	"github.com/tajirhq/storebackend/services/checkoutoptions"
)

// Step is the wizard step a checkout session is currently on.
type Step string

const (
	StepShipping     Step = "shipping"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
	StepSuccess      Step = "success"
)

// CheckoutSession is the server-side state of one shopper walking through
// the checkout wizard. The cart and the available options are snapshotted
// at session start.
type CheckoutSession struct {
	UID              string
	StoreUID         string
	MerchantUID      string
	CurrentStep      Step
	Items            []CartItem
	Currency         string
	Options          checkoutoptions.CheckoutOptions
	SelectedShipping *checkoutoptions.ShippingOption
	SelectedPayment  string
	Customer         CustomerInfo
	PaymentStatus    string
	// ReturnedPaymentStatus is what the hosted payment page reported when
	// it sent the shopper back. The provider's webhook decides the real
	// outcome.
	ReturnedPaymentStatus string
	OrderUID              string
	OrderNumber           string
	CreatedAt             time.Time
	LastModified          *time.Time
}

type CartItem struct {
	ProductUID                 string
	Title                      string
	UnitPriceInCents           int64
	DiscountedUnitPriceInCents *int64
	Quantity                   int
	Variants                   []VariantSelection
}

type VariantSelection struct {
	Name  string
	Value string
}

type CustomerInfo struct {
	Name     string
	Phone    string
	Email    string
	Address  string
	City     string
	District string
}

// IsComplete tells whether the required contact fields are filled in.
// Whitespace-only values do not count.
func (ci CustomerInfo) IsComplete() bool {
	for _, field := range []string{ci.Name, ci.Phone, ci.Address, ci.City} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}

	return true
}

// effectiveUnitPriceInCents is the price the shopper actually pays per unit.
func (item CartItem) effectiveUnitPriceInCents() int64 {
	if item.DiscountedUnitPriceInCents != nil {
		return *item.DiscountedUnitPriceInCents
	}

	return item.UnitPriceInCents
}

// sameIdentity compares product and variant selection. Variants must be in
// canonical order, see sortVariants.
func (item CartItem) sameIdentity(other CartItem) bool {
	if item.ProductUID != other.ProductUID {
		return false
	}
	if len(item.Variants) != len(other.Variants) {
		return false
	}
	for i, variant := range item.Variants {
		if variant != other.Variants[i] {
			return false
		}
	}

	return true
}

// mergeCartItems collapses duplicate lines: an item with the same product
// and the same variant selection as an earlier one only bumps its quantity.
func mergeCartItems(items []CartItem) []CartItem {
	merged := []CartItem{}
	for _, item := range items {
		if item.Quantity < 1 {
			item.Quantity = 1
		}
		sortVariants(item.Variants)

		found := false
		for i := range merged {
			if merged[i].sameIdentity(item) {
				merged[i].Quantity += item.Quantity
				found = true
				break
			}
		}

		if !found {
			merged = append(merged, item)
		}
	}

	return merged
}

// sortVariants puts a variant selection in name order, so that the same
// selection entered in a different order still identifies the same line.
func sortVariants(variants []VariantSelection) {
	sort.Slice(variants, func(i, j int) bool {
		return variants[i].Name < variants[j].Name
	})
}
