package storeconfig

import "time"

// MerchantSettings is the merchant-level configuration: the price list for
// the shipping companies the merchant has negotiated rates with. Prices are
// stored as entered in the dashboard and parsed on read.
type MerchantSettings struct {
	UID             string
	ShippingPrices  []ShippingPrice
	DefaultCurrency string
	CreatedAt       time.Time
	LastModified    *time.Time
}

type ShippingPrice struct {
	CompanyName string
	Price       string // major units as entered, for example "15" or "17.50"
}

// StoreSettings is the store-level configuration: which of the platform's
// shipping companies and payment methods this storefront has enabled.
type StoreSettings struct {
	UID                      string
	MerchantUID              string
	EnabledShippingCompanies []string
	EnabledPaymentMethods    []string
	CreatedAt                time.Time
	LastModified             *time.Time
}
