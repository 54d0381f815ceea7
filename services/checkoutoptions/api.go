package checkoutoptions

import (
	"context"
)

// OptionsSource tells callers whether the options came from real merchant
// configuration or from the hardcoded fallback, so the substitution is
// observable instead of silent.
type OptionsSource string

const (
	SourceConfigured OptionsSource = "configured"
	SourceFallback   OptionsSource = "fallback"
)

type ShippingOption struct {
	Name         string
	PriceInCents int64
}

type PaymentOption struct {
	Name string
}

type CheckoutOptions struct {
	Shipping []ShippingOption
	Payment  []PaymentOption
	Source   OptionsSource
}

//go:generate mockgen -source=api.go -package checkoutoptions -destination provider_mock.go OptionsProvider
type OptionsProvider interface {
	LoadCheckoutOptions(c context.Context, merchantUID string, storeUID string) (CheckoutOptions, error)
}
