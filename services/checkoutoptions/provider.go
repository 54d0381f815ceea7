package checkoutoptions

import (
	"context"
	"math"
	"strconv"

	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/services/storeconfig"
)

const (
	// applied when an enabled shipping company has no (parseable) price in
	// the merchant's price list
	defaultShippingPriceInCents = 1500
)

// FallbackShippingOptions and FallbackPaymentOptions are substituted in full
// when a store has no usable configuration.
var (
	FallbackShippingOptions = []ShippingOption{
		{Name: "SMSA Express", PriceInCents: 1500},
		{Name: "Aramex", PriceInCents: 2000},
	}
	FallbackPaymentOptions = []PaymentOption{
		{Name: "الدفع عند الاستلام"},
		{Name: "إمكان - الشراء الآن والدفع لاحقاً"},
	}
)

type provider struct {
	merchantStore mystore.Store[storeconfig.MerchantSettings]
	storeStore    mystore.Store[storeconfig.StoreSettings]
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func New(merchantStore mystore.Store[storeconfig.MerchantSettings], storeStore mystore.Store[storeconfig.StoreSettings]) OptionsProvider {
	return &provider{
		merchantStore: merchantStore,
		storeStore:    storeStore,
		logger:        mylog.New("checkoutoptions"),
	}
}

// LoadCheckoutOptions joins the store-level enabled-options configuration
// with the merchant-level shipping price list. A store without usable
// configuration gets the fallback lists, tagged as such.
func (p *provider) LoadCheckoutOptions(c context.Context, merchantUID string, storeUID string) (CheckoutOptions, error) {
	storeSettings, found, err := p.storeStore.Get(c, storeUID)
	if err != nil || !found {
		p.logger.Log(c, storeUID, mylog.SeverityWarn, "No store configuration for store %s, substituting fallback options", storeUID)
		return fallbackOptions(), nil
	}

	if len(storeSettings.EnabledShippingCompanies) == 0 {
		p.logger.Log(c, storeUID, mylog.SeverityWarn, "Store %s has no enabled shipping companies, substituting fallback options", storeUID)
		return fallbackOptions(), nil
	}

	priceList := map[string]string{}
	merchantSettings, found, err := p.merchantStore.Get(c, merchantUID)
	if err == nil && found {
		for _, entry := range merchantSettings.ShippingPrices {
			priceList[entry.CompanyName] = entry.Price
		}
	}

	options := CheckoutOptions{
		Source: SourceConfigured,
	}
	for _, name := range storeSettings.EnabledShippingCompanies {
		options.Shipping = append(options.Shipping, ShippingOption{
			Name:         name,
			PriceInCents: parsePriceInCents(priceList[name]),
		})
	}
	for _, name := range storeSettings.EnabledPaymentMethods {
		options.Payment = append(options.Payment, PaymentOption{Name: name})
	}

	if len(options.Payment) == 0 {
		options.Payment = append([]PaymentOption{}, FallbackPaymentOptions...)
	}

	return options, nil
}

func fallbackOptions() CheckoutOptions {
	return CheckoutOptions{
		Shipping: append([]ShippingOption{}, FallbackShippingOptions...),
		Payment:  append([]PaymentOption{}, FallbackPaymentOptions...),
		Source:   SourceFallback,
	}
}

// parsePriceInCents converts a price as entered in the dashboard (major
// units) into cents, falling back to the default on anything unparseable.
func parsePriceInCents(price string) int64 {
	if price == "" {
		return defaultShippingPriceInCents
	}

	value, err := strconv.ParseFloat(price, 64)
	if err != nil || value < 0 {
		return defaultShippingPriceInCents
	}

	return int64(math.Round(value * 100))
}
