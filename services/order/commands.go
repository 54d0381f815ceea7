package order

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/services/order/orderevents"
)

// createOrder places an order directly, outside the checkout wizard. Used
// by sales channels that collect the order details themselves.
func (s *service) createOrder(c context.Context, order Order) (Order, error) {
	if len(order.Lines) == 0 {
		return Order{}, myerrors.NewInvalidInputErrorf("order must have at least one line")
	}
	if order.StoreUID == "" {
		return Order{}, myerrors.NewInvalidInputErrorf("missing storeUid")
	}

	now := s.nower.Now()
	order.UID = s.uuider.Create()
	order.OrderNumber = formatOrderNumber(now)
	order.CreatedAt = now
	if order.Currency == "" {
		order.Currency = "SAR"
	}

	s.logger.Log(c, order.UID, mylog.SeverityInfo, "Creating order %s (%s)", order.UID, order.OrderNumber)

	err := s.orderStore.RunInTransaction(c, func(c context.Context) error {
		err := s.orderStore.Put(c, order.UID, order)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		err = s.publisher.Publish(c, orderevents.TopicName, composeOrderPlaced(order))
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		return nil
	})
	if err != nil {
		return Order{}, err
	}

	return order, nil
}

func (s *service) listOrders(c context.Context) ([]Order, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all orders")

	orders, err := s.orderStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})

	return orders, nil
}

func (s *service) getOrder(c context.Context, orderUID string) (Order, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Fetch details of order %s", orderUID)

	order, found, err := s.orderStore.Get(c, orderUID)
	if err != nil {
		return Order{}, myerrors.NewInternalError(err)
	}
	if !found {
		return Order{}, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
	}

	return order, nil
}

func formatOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%06d", now.UnixMilli()%1000000)
}

func composeOrderPlaced(order Order) orderevents.OrderPlaced {
	lines := make([]orderevents.Line, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderevents.Line{
			ProductUID: line.ProductUID,
			Title:      line.Title,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
		})
	}

	return orderevents.OrderPlaced{
		OrderUID:    order.UID,
		OrderNumber: order.OrderNumber,
		CheckoutUID: order.CheckoutUID,
		StoreUID:    order.StoreUID,
		MerchantUID: order.MerchantUID,
		Customer: orderevents.Customer{
			Name:     order.Customer.Name,
			Phone:    order.Customer.Phone,
			Email:    order.Customer.Email,
			Address:  order.Customer.Address,
			City:     order.Customer.City,
			District: order.Customer.District,
		},
		Lines:           lines,
		ShippingCompany: order.ShippingCompany,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		TotalInCents:    order.TotalInCents,
		Currency:        order.Currency,
	}
}
