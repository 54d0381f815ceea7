package checkoutcard

import (
	"context"
	"fmt"
	"net/url"

	"github.com/stripe/stripe-go/v74"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mypublisher"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myvault"
	"github.com/tajirhq/storebackend/services/checkoutapi"
	"github.com/tajirhq/storebackend/services/checkoutevents"
	"github.com/tajirhq/storebackend/services/providervault"
)

const providerName = "stripe"

type service struct {
	apiKey        string
	payer         Payer
	logger        mylog.Logger
	nower         mytime.Nower
	checkoutStore mystore.Store[checkoutapi.CheckoutContext]
	vault         myvault.VaultReader[providervault.Credentials]
	publisher     mypublisher.Publisher
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(apiKey string, payer Payer, logger mylog.Logger, nower mytime.Nower, checkoutStore mystore.Store[checkoutapi.CheckoutContext], vault myvault.VaultReader[providervault.Credentials], publisher mypublisher.Publisher) *service {
	return &service{
		apiKey:        apiKey,
		payer:         payer,
		logger:        logger,
		nower:         nower,
		checkoutStore: checkoutStore,
		vault:         vault,
		publisher:     publisher,
	}
}

// startCheckout creates a hosted checkout session on the Stripe platform
// and returns the URL of the hosted payment page.
func (s *service) startCheckout(c context.Context, checkout checkoutapi.Checkout, hostname string) (string, error) {
	now := s.nower.Now()

	s.logger.Log(c, checkout.SessionUID, mylog.SeverityInfo, "Start stripe checkout for session %s", checkout.SessionUID)

	s.setupAuthentication(c, checkout.MerchantUID)

	sess, err := s.payer.CreateCheckoutSession(c, composeSessionParams(checkout, hostname))
	if err != nil {
		return "", err
	}

	if sess.URL == "" {
		return "", myerrors.NewInternalError(fmt.Errorf("malformed stripe response: no hosted page url"))
	}

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		err := s.checkoutStore.Put(c, checkout.SessionUID, checkoutapi.CheckoutContext{
			CheckoutUID:       checkout.SessionUID,
			CreatedAt:         now,
			OriginalReturnURL: checkout.ReturnURL,
			ProviderReference: sess.ID,
			PaymentProvider:   providerName,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing checkout: %s", err))
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutStarted{
			CheckoutUID:   checkout.SessionUID,
			ProviderName:  providerName,
			AmountInCents: checkout.TotalAmount.Value,
			Currency:      checkout.TotalAmount.Currency,
			StoreUID:      checkout.StoreUID,
			MerchantUID:   checkout.MerchantUID,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return sess.URL, nil
}

func (s *service) setupAuthentication(c context.Context, merchantUID string) {
	credentials, exists, err := s.vault.Get(c, providervault.Key(providerName, merchantUID))
	if err != nil || !exists || credentials.APIKey == "" {
		s.logger.Log(c, merchantUID, mylog.SeverityInfo, "Using platform api key")
		s.payer.UseAPIKey(s.apiKey)
		return
	}

	s.logger.Log(c, merchantUID, mylog.SeverityInfo, "Using api key of merchant %s", merchantUID)
	s.payer.UseAPIKey(credentials.APIKey)
}

func (s *service) finalizeCheckout(c context.Context, checkoutUID string, status string) (string, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Redirect: stripe checkout %s -> %s", checkoutUID, status)

	now := s.nower.Now()

	adjustedReturnURL := ""
	err := s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error fetching checkout with uid %s: %s", checkoutUID, err))
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		checkoutContext.Status = status
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		adjustedReturnURL, err = addStatusQueryParam(checkoutContext.OriginalReturnURL, status)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error adjusting url: %s", err))
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return adjustedReturnURL, nil
}

// webhookNotification processes a Stripe event delivered to the webhook
// endpoint and publishes the final payment outcome.
func (s *service) webhookNotification(c context.Context, event stripe.Event) error {
	checkoutUID := ""
	if event.Data != nil {
		checkoutUID, _ = event.Data.Object["client_reference_id"].(string)
	}
	if checkoutUID == "" {
		return myerrors.NewInvalidInputErrorf("stripe event %s carries no client reference", event.Type)
	}

	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Webhook: stripe event %s on checkout %s", event.Type, checkoutUID)

	success := event.Type == "checkout.session.completed"

	now := s.nower.Now()

	return s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		checkoutContext, found, err := s.checkoutStore.Get(c, checkoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", checkoutUID))
		}

		checkoutContext.Status = string(event.Type)
		checkoutContext.PaymentMethod = "card"
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			CheckoutUID:   checkoutUID,
			ProviderName:  providerName,
			PaymentMethod: "card",
			Status:        string(event.Type),
			Success:       success,
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
}

func composeSessionParams(checkout checkoutapi.Checkout, hostname string) stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(checkout.Items))
	for _, item := range checkout.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(checkout.TotalAmount.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitPrice),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	return stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(fmt.Sprintf("%s/stripe/checkout/%s/status/success", hostname, checkout.SessionUID)),
		CancelURL:         stripe.String(fmt.Sprintf("%s/stripe/checkout/%s/status/cancelled", hostname, checkout.SessionUID)),
		ClientReferenceID: stripe.String(checkout.SessionUID),
		CustomerEmail:     stripeStringOrNil(checkout.Customer.Email),
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
	}
}

func stripeStringOrNil(value string) *string {
	if value == "" {
		return nil
	}

	return stripe.String(value)
}

func addStatusQueryParam(orgURL string, status string) (string, error) {
	u, err := url.Parse(orgURL)
	if err != nil {
		return "", myerrors.NewInternalError(fmt.Errorf("error parsing return URL %s: %s", orgURL, err))
	}
	params := u.Query()
	params.Set("status", status)
	u.RawQuery = params.Encode()

	return u.String(), nil
}
