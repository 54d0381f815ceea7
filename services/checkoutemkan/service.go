package checkoutemkan

import (
	"context"
	"fmt"
	"net/url"
	"strings"

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

const providerName = "emkan"

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

// startCheckout initiates the payment on the Emkan platform and returns the
// URL of the hosted payment page. No state is written when the remote call
// fails, so the caller's session is unaffected.
func (s *service) startCheckout(c context.Context, checkout checkoutapi.Checkout, hostname string) (string, error) {
	now := s.nower.Now()

	s.logger.Log(c, checkout.SessionUID, mylog.SeverityInfo, "Start emkan checkout for session %s", checkout.SessionUID)

	s.setupAuthentication(c, checkout.MerchantUID)

	response, err := s.payer.CreatePayment(c, composePaymentRequest(checkout, hostname))
	if err != nil {
		return "", err
	}

	if !response.Success {
		return "", myerrors.NewInvalidInputErrorf("emkan declined the payment: %s", response.Message)
	}
	paymentPageURL := response.HostedPageURL()
	if paymentPageURL == "" {
		return "", myerrors.NewInternalError(fmt.Errorf("malformed emkan response: no payment page url"))
	}

	err = s.checkoutStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		err := s.checkoutStore.Put(c, checkout.SessionUID, checkoutapi.CheckoutContext{
			CheckoutUID:       checkout.SessionUID,
			CreatedAt:         now,
			OriginalReturnURL: checkout.ReturnURL,
			ProviderReference: response.Reference,
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

	return paymentPageURL, nil
}

// setupAuthentication picks the merchant's own API key when one is
// registered in the vault, the platform key otherwise.
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

// finalizeCheckout handles the shopper returning from the hosted payment
// page and returns the storefront URL to send them on to.
func (s *service) finalizeCheckout(c context.Context, checkoutUID string, status string) (string, error) {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Redirect: emkan checkout %s -> %s", checkoutUID, status)

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

// webhookNotification records the authoritative payment outcome that Emkan
// reports out-of-band.
func (s *service) webhookNotification(c context.Context, checkoutUID string, status string, reference string) error {
	s.logger.Log(c, checkoutUID, mylog.SeverityInfo, "Webhook: emkan status update on checkout %s -> %s", checkoutUID, status)

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

		checkoutContext.Status = status
		checkoutContext.StatusDetails = reference
		checkoutContext.PaymentMethod = "bnpl"
		checkoutContext.LastModified = &now

		err = s.checkoutStore.Put(c, checkoutUID, checkoutContext)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			CheckoutUID:   checkoutUID,
			ProviderName:  providerName,
			PaymentMethod: "bnpl",
			Status:        status,
			Success:       isFinalSuccessStatus(status),
		})
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error publishing event: %s", err))
		}

		return nil
	})
}

func isFinalSuccessStatus(status string) bool {
	switch strings.ToUpper(status) {
	case "APPROVED", "AUTHORISED", "COMPLETED", "PAID", "SUCCESS":
		return true
	default:
		return false
	}
}

func composePaymentRequest(checkout checkoutapi.Checkout, hostname string) PaymentRequest {
	items := make([]PaymentItem, 0, len(checkout.Items))
	for _, item := range checkout.Items {
		items = append(items, PaymentItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return PaymentRequest{
		MerchantReference: checkout.SessionUID,
		AmountInCents:     checkout.TotalAmount.Value,
		Currency:          checkout.TotalAmount.Currency,
		Customer: PaymentCustomer{
			Name:  checkout.Customer.Name,
			Phone: checkout.Customer.Phone,
			Email: checkout.Customer.Email,
		},
		Items:      items,
		SuccessURL: fmt.Sprintf("%s/emkan/checkout/%s/status/success", hostname, checkout.SessionUID),
		CancelURL:  fmt.Sprintf("%s/emkan/checkout/%s/status/cancelled", hostname, checkout.SessionUID),
	}
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
