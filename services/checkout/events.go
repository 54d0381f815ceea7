package checkout

import (
	"context"
	"fmt"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myhttp"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/services/checkoutevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, checkoutevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", checkoutevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, checkoutevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/checkout/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

func (s *service) OnCheckoutStarted(c context.Context, topic string, event checkoutevents.CheckoutStarted) error {
	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Checkout %s: payment started with provider %s", event.CheckoutUID, event.ProviderName)

	return nil
}

// OnCheckoutCompleted records the payment outcome that arrives out-of-band
// from the provider, and moves the session to the success step when the
// payment went through.
func (s *service) OnCheckoutCompleted(c context.Context, topic string, event checkoutevents.CheckoutCompleted) error {
	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Checkout %s: payment %s (success=%v)", event.CheckoutUID, event.Status, event.Success)

	now := s.nower.Now()

	return s.sessionStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		session, found, err := s.sessionStore.Get(c, event.CheckoutUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("checkout with uid %s not found", event.CheckoutUID))
		}

		if session.CurrentStep == StepSuccess {
			return nil
		}

		session.PaymentStatus = event.Status
		if event.Success {
			session.CurrentStep = StepSuccess
		}
		session.LastModified = &now

		err = s.sessionStore.Put(c, event.CheckoutUID, session)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
}
