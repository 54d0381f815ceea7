package checkout

import (
	"context"
	"fmt"
	"regexp"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/services/checkoutapi"
	"github.com/tajirhq/storebackend/services/checkoutevents"
	"github.com/tajirhq/storebackend/services/checkoutoptions"
	"github.com/tajirhq/storebackend/services/order/orderevents"
	"github.com/tajirhq/storebackend/services/pricing"
)

// bnplPattern matches the localized display names under which the BNPL
// method is offered, in either script.
var bnplPattern = regexp.MustCompile(`(?i)(emkan|إمكان)`)

const (
	paymentStatusDeferred = "deferred"
	paymentStatusPending  = "pending"
)

func (s *service) startCheckout(c context.Context, storeUID string, merchantUID string, currency string, items []CartItem) (CheckoutSession, error) {
	if len(items) == 0 {
		return CheckoutSession{}, myerrors.NewInvalidInputErrorf("cannot start checkout with an empty cart")
	}
	if currency == "" {
		currency = "SAR"
	}

	sessionUID := s.uuider.Create()
	createdAt := s.nower.Now()

	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Starting checkout %s for store %s", sessionUID, storeUID)

	options, err := s.optionsProvider.LoadCheckoutOptions(c, merchantUID, storeUID)
	if err != nil {
		return CheckoutSession{}, myerrors.NewInternalError(fmt.Errorf("error loading checkout options: %s", err))
	}

	session := CheckoutSession{
		UID:         sessionUID,
		StoreUID:    storeUID,
		MerchantUID: merchantUID,
		CurrentStep: StepShipping,
		Items:       mergeCartItems(items),
		Currency:    currency,
		Options:     options,
		CreatedAt:   createdAt,
	}

	// Pre-select the first payment method so that the payment step always
	// has a selection to confirm or change.
	if len(options.Payment) > 0 {
		session.SelectedPayment = options.Payment[0].Name
	}

	err = s.sessionStore.Put(c, sessionUID, session)
	if err != nil {
		return CheckoutSession{}, myerrors.NewInternalError(err)
	}

	return session, nil
}

func (s *service) getCheckout(c context.Context, sessionUID string) (CheckoutSession, error) {
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Fetch details of checkout %s", sessionUID)

	session, found, err := s.sessionStore.Get(c, sessionUID)
	if err != nil {
		return CheckoutSession{}, myerrors.NewInternalError(err)
	}
	if !found {
		return CheckoutSession{}, myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", sessionUID))
	}

	return session, nil
}

func (s *service) selectShipping(c context.Context, sessionUID string, shippingName string) (CheckoutSession, error) {
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout %s: select shipping '%s'", sessionUID, shippingName)

	return s.updateSession(c, sessionUID, func(session *CheckoutSession) error {
		err := validateTransition(session.CurrentStep, StepPayment)
		if err != nil {
			return err
		}

		option, found := findShippingOption(session.Options.Shipping, shippingName)
		if !found {
			return myerrors.NewInvalidInputErrorf("shipping option '%s' is not available", shippingName)
		}

		session.SelectedShipping = &option
		session.CurrentStep = StepPayment

		return nil
	})
}

func (s *service) selectPayment(c context.Context, sessionUID string, paymentName string) (CheckoutSession, error) {
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout %s: select payment '%s'", sessionUID, paymentName)

	return s.updateSession(c, sessionUID, func(session *CheckoutSession) error {
		err := validateTransition(session.CurrentStep, StepConfirmation)
		if err != nil {
			return err
		}

		if !hasPaymentOption(session.Options.Payment, paymentName) {
			return myerrors.NewInvalidInputErrorf("payment option '%s' is not available", paymentName)
		}

		session.SelectedPayment = paymentName
		session.CurrentStep = StepConfirmation

		return nil
	})
}

func (s *service) goBack(c context.Context, sessionUID string) (CheckoutSession, error) {
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout %s: go back", sessionUID)

	return s.updateSession(c, sessionUID, func(session *CheckoutSession) error {
		if session.CurrentStep == StepSuccess {
			return myerrors.NewInvalidInputErrorf("checkout is already completed")
		}

		// Going back never discards selections or customer details.
		target, exists := previousStep[session.CurrentStep]
		if !exists {
			if session.CurrentStep == StepShipping {
				return nil
			}
			return myerrors.NewInternalError(fmt.Errorf("session is on unknown step '%s'", session.CurrentStep))
		}

		session.CurrentStep = target

		return nil
	})
}

// checkoutReturned handles the shopper arriving back from the hosted payment
// page. The status it reports is recorded as-is; the authoritative outcome
// comes in through the provider's webhook.
func (s *service) checkoutReturned(c context.Context, sessionUID string, status string) (CheckoutSession, error) {
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Redirect: shopper returned to checkout %s with status '%s'", sessionUID, status)

	return s.updateSession(c, sessionUID, func(session *CheckoutSession) error {
		session.ReturnedPaymentStatus = status

		return nil
	})
}

func (s *service) updateCustomer(c context.Context, sessionUID string, customer CustomerInfo) (CheckoutSession, error) {
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout %s: update customer details", sessionUID)

	return s.updateSession(c, sessionUID, func(session *CheckoutSession) error {
		if session.CurrentStep == StepSuccess {
			return myerrors.NewInvalidInputErrorf("checkout is already completed")
		}

		session.Customer = customer

		return nil
	})
}

// confirm places the order. For a BNPL payment method it returns the URL of
// the provider's hosted payment page; the session only reaches the success
// step once the payment outcome comes back. For any other method the order
// is placed right away with its payment collection deferred to the backend.
func (s *service) confirm(c context.Context, sessionUID string, hostname string) (CheckoutSession, string, error) {
	s.logger.Log(c, sessionUID, mylog.SeverityInfo, "Checkout %s: confirm", sessionUID)

	session, err := s.getCheckout(c, sessionUID)
	if err != nil {
		return CheckoutSession{}, "", err
	}

	err = validateTransition(session.CurrentStep, StepSuccess)
	if err != nil {
		return CheckoutSession{}, "", err
	}

	if !session.Customer.IsComplete() {
		return CheckoutSession{}, "", myerrors.NewInvalidInputErrorf("customer name, phone, address and city are required")
	}
	if session.SelectedShipping == nil {
		return CheckoutSession{}, "", myerrors.NewInvalidInputErrorf("no shipping option selected")
	}
	if session.SelectedPayment == "" {
		return CheckoutSession{}, "", myerrors.NewInvalidInputErrorf("no payment option selected")
	}

	if bnplPattern.MatchString(session.SelectedPayment) {
		return s.confirmWithBNPL(c, session, hostname)
	}

	return s.confirmWithDeferredPayment(c, session)
}

// confirmWithBNPL initiates the remote payment first: when the provider
// call fails the session is left untouched on the confirmation step.
func (s *service) confirmWithBNPL(c context.Context, session CheckoutSession, hostname string) (CheckoutSession, string, error) {
	now := s.nower.Now()
	orderUID := s.uuider.Create()
	orderNumber := formatOrderNumber(now)

	paymentPageURL, err := s.bnplStarter.StartPayment(c, s.composePaymentRequest(session, hostname))
	if err != nil {
		s.logger.Log(c, session.UID, mylog.SeverityError, "Checkout %s: payment initiation failed: %s", session.UID, err)
		return CheckoutSession{}, "", err
	}

	err = s.sessionStore.RunInTransaction(c, func(c context.Context) error {
		session.OrderUID = orderUID
		session.OrderNumber = orderNumber
		session.PaymentStatus = paymentStatusPending
		session.LastModified = &now

		err := s.sessionStore.Put(c, session.UID, session)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, orderevents.TopicName, s.composeOrderPlaced(session))
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return CheckoutSession{}, "", err
	}

	return session, paymentPageURL, nil
}

func (s *service) confirmWithDeferredPayment(c context.Context, session CheckoutSession) (CheckoutSession, string, error) {
	now := s.nower.Now()
	orderUID := s.uuider.Create()
	orderNumber := formatOrderNumber(now)

	err := s.sessionStore.RunInTransaction(c, func(c context.Context) error {
		session.CurrentStep = StepSuccess
		session.OrderUID = orderUID
		session.OrderNumber = orderNumber
		session.PaymentStatus = paymentStatusDeferred
		session.LastModified = &now

		err := s.sessionStore.Put(c, session.UID, session)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, orderevents.TopicName, s.composeOrderPlaced(session))
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
			CheckoutUID:   session.UID,
			PaymentMethod: session.SelectedPayment,
			Status:        paymentStatusDeferred,
			Success:       true,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return CheckoutSession{}, "", err
	}

	return session, "", nil
}

func (s *service) totalInCents(session CheckoutSession) int64 {
	lines := make([]pricing.Line, 0, len(session.Items))
	for _, item := range session.Items {
		lines = append(lines, pricing.Line{
			UnitPriceInCents: item.effectiveUnitPriceInCents(),
			Quantity:         item.Quantity,
		})
	}

	var shippingPrice int64
	if session.SelectedShipping != nil {
		shippingPrice = session.SelectedShipping.PriceInCents
	}

	return pricing.OrderTotal(lines, shippingPrice)
}

func (s *service) composePaymentRequest(session CheckoutSession, hostname string) checkoutapi.Checkout {
	items := make([]checkoutapi.Item, 0, len(session.Items))
	for _, item := range session.Items {
		items = append(items, checkoutapi.Item{
			Name:      item.Title,
			UnitPrice: item.effectiveUnitPriceInCents(),
			Quantity:  item.Quantity,
			Total:     item.effectiveUnitPriceInCents() * int64(item.Quantity),
		})
	}

	return checkoutapi.Checkout{
		SessionUID:  session.UID,
		StoreUID:    session.StoreUID,
		MerchantUID: session.MerchantUID,
		TotalAmount: checkoutapi.Amount{
			Value:    s.totalInCents(session),
			Currency: session.Currency,
		},
		Customer: checkoutapi.Customer{
			Name:     session.Customer.Name,
			Phone:    session.Customer.Phone,
			Email:    session.Customer.Email,
			Address:  session.Customer.Address,
			City:     session.Customer.City,
			District: session.Customer.District,
		},
		Items:     items,
		ReturnURL: fmt.Sprintf("%s/checkout/%s/completed", hostname, session.UID),
	}
}

func (s *service) composeOrderPlaced(session CheckoutSession) orderevents.OrderPlaced {
	lines := make([]orderevents.Line, 0, len(session.Items))
	for _, item := range session.Items {
		lines = append(lines, orderevents.Line{
			ProductUID: item.ProductUID,
			Title:      item.Title,
			UnitPrice:  item.effectiveUnitPriceInCents(),
			Quantity:   item.Quantity,
		})
	}

	shippingCompany := ""
	if session.SelectedShipping != nil {
		shippingCompany = session.SelectedShipping.Name
	}

	return orderevents.OrderPlaced{
		OrderUID:    session.OrderUID,
		OrderNumber: session.OrderNumber,
		CheckoutUID: session.UID,
		StoreUID:    session.StoreUID,
		MerchantUID: session.MerchantUID,
		Customer: orderevents.Customer{
			Name:     session.Customer.Name,
			Phone:    session.Customer.Phone,
			Email:    session.Customer.Email,
			Address:  session.Customer.Address,
			City:     session.Customer.City,
			District: session.Customer.District,
		},
		Lines:           lines,
		ShippingCompany: shippingCompany,
		PaymentMethod:   session.SelectedPayment,
		PaymentStatus:   session.PaymentStatus,
		TotalInCents:    s.totalInCents(session),
		Currency:        session.Currency,
	}
}

// updateSession applies a mutation to a stored session inside a transaction.
// When the mutation errors the session is left as it was.
func (s *service) updateSession(c context.Context, sessionUID string, modify func(session *CheckoutSession) error) (CheckoutSession, error) {
	var session CheckoutSession

	err := s.sessionStore.RunInTransaction(c, func(c context.Context) error {
		var found bool
		var err error
		session, found, err = s.sessionStore.Get(c, sessionUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", sessionUID))
		}

		err = modify(&session)
		if err != nil {
			return err
		}

		now := s.nower.Now()
		session.LastModified = &now

		return s.sessionStore.Put(c, sessionUID, session)
	})
	if err != nil {
		return CheckoutSession{}, err
	}

	return session, nil
}

func findShippingOption(options []checkoutoptions.ShippingOption, name string) (checkoutoptions.ShippingOption, bool) {
	for _, option := range options {
		if option.Name == name {
			return option, true
		}
	}

	return checkoutoptions.ShippingOption{}, false
}

func hasPaymentOption(options []checkoutoptions.PaymentOption, name string) bool {
	for _, option := range options {
		if option.Name == name {
			return true
		}
	}

	return false
}
