package orderevents

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myevents"
)

const (
	TopicName       = "order"
	orderPlacedName = TopicName + ".placed"
)

type OrderEventService interface {
	Subscribe(c context.Context) error
	OnOrderPlaced(c context.Context, topic string, event OrderPlaced) error
}

func DispatchEvent(c context.Context, reader io.Reader, service OrderEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case orderPlacedName:
		{
			event := OrderPlaced{}
			err := json.Unmarshal([]byte(envelope.EventPayload), &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOrderPlaced(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unknown event type %s", envelope.EventTypeName))
	}
}

// OrderPlaced carries the full order so that consumers can materialize it
// without a callback to the checkout service.
type OrderPlaced struct {
	OrderUID        string
	OrderNumber     string
	CheckoutUID     string
	StoreUID        string
	MerchantUID     string
	Customer        Customer
	Lines           []Line
	ShippingCompany string
	PaymentMethod   string
	PaymentStatus   string
	TotalInCents    int64
	Currency        string
}

type Customer struct {
	Name     string
	Phone    string
	Email    string
	Address  string
	City     string
	District string
}

type Line struct {
	ProductUID string
	Title      string
	UnitPrice  int64
	Quantity   int
}

func (e OrderPlaced) GetEventTypeName() string {
	return orderPlacedName
}

func (e OrderPlaced) GetAggregateName() string {
	return e.OrderUID
}
