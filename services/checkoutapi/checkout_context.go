package checkoutapi

import (
	"time"
)

// CheckoutContext is the per-provider bookkeeping record that correlates the
// redirect back from the hosted payment page and the asynchronous webhook
// with the originating checkout session.
type CheckoutContext struct {
	CheckoutUID       string
	CreatedAt         time.Time
	LastModified      *time.Time
	OriginalReturnURL string
	ProviderReference string
	PaymentProvider   string
	PaymentMethod     string
	Status            string
	StatusDetails     string
}
