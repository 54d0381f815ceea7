package order

import "time"

// Order is the materialized order record, keyed by its uid. OrderNumber is
// the human-facing label shown to shoppers and merchants; it is not unique.
type Order struct {
	UID             string
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
	CreatedAt       time.Time
	LastModified    *time.Time
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
