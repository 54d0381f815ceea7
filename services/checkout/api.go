package checkout

import (
	"context"

	"github.com/tajirhq/storebackend/services/checkoutapi"
)

//go:generate mockgen -source=api.go -package checkout -destination bnpl_mock.go BNPLStarter

// BNPLStarter initiates a buy-now-pay-later payment with the provider and
// returns the URL of the hosted payment page the shopper must be sent to.
type BNPLStarter interface {
	StartPayment(c context.Context, checkout checkoutapi.Checkout) (string, error)
}
