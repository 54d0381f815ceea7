package order

import (
	"context"
	"fmt"
	"time"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myhttp"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/services/checkoutevents"
	"github.com/tajirhq/storebackend/services/order/orderevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.subscriber.CreateTopic(c, orderevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", orderevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, orderevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/order/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", orderevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, checkoutevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/order/checkout/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", checkoutevents.TopicName, err)
	}

	return nil
}

// OnOrderPlaced materializes the order that the checkout wizard (or another
// sales channel) placed.
func (s *service) OnOrderPlaced(c context.Context, topic string, event orderevents.OrderPlaced) error {
	s.logger.Log(c, event.OrderUID, mylog.SeverityInfo, "Materialize order %s (%s)", event.OrderUID, event.OrderNumber)

	return s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		_, found, err := s.orderStore.Get(c, event.OrderUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if found {
			return nil
		}

		return s.orderStore.Put(c, event.OrderUID, composeOrder(event, s.nower.Now()))
	})
}

func (s *service) OnCheckoutStarted(c context.Context, topic string, event checkoutevents.CheckoutStarted) error {
	return nil
}

// OnCheckoutCompleted records the final payment outcome on the order that
// originated from the checkout.
func (s *service) OnCheckoutCompleted(c context.Context, topic string, event checkoutevents.CheckoutCompleted) error {
	s.logger.Log(c, event.CheckoutUID, mylog.SeverityInfo, "Payment status update for checkout %s -> %s", event.CheckoutUID, event.Status)

	now := s.nower.Now()

	return s.orderStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent
		orders, err := s.orderStore.Query(c, []mystore.Filter{
			{Field: "CheckoutUID", Compare: "=", Value: event.CheckoutUID},
		}, "")
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		for _, order := range orders {
			// the local store does not filter
			if order.CheckoutUID != event.CheckoutUID {
				continue
			}

			order.PaymentStatus = event.Status
			order.LastModified = &now

			err = s.orderStore.Put(c, order.UID, order)
			if err != nil {
				return myerrors.NewInternalError(err)
			}
		}

		return nil
	})
}

func composeOrder(event orderevents.OrderPlaced, now time.Time) Order {
	lines := make([]Line, 0, len(event.Lines))
	for _, line := range event.Lines {
		lines = append(lines, Line{
			ProductUID: line.ProductUID,
			Title:      line.Title,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
		})
	}

	return Order{
		UID:         event.OrderUID,
		OrderNumber: event.OrderNumber,
		CheckoutUID: event.CheckoutUID,
		StoreUID:    event.StoreUID,
		MerchantUID: event.MerchantUID,
		Customer: Customer{
			Name:     event.Customer.Name,
			Phone:    event.Customer.Phone,
			Email:    event.Customer.Email,
			Address:  event.Customer.Address,
			City:     event.Customer.City,
			District: event.Customer.District,
		},
		Lines:           lines,
		ShippingCompany: event.ShippingCompany,
		PaymentMethod:   event.PaymentMethod,
		PaymentStatus:   event.PaymentStatus,
		TotalInCents:    event.TotalInCents,
		Currency:        event.Currency,
		CreatedAt:       now,
	}
}
