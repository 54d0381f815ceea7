package checkoutapi

import (
	"net/http"
	"net/url"

	formcodec "github.com/go-playground/form/v4"

	"github.com/tajirhq/storebackend/lib/myerrors"
)

// Checkout is the form-bound payload a storefront posts to a payment
// provider endpoint to initiate payment for a checkout session.
type Checkout struct {
	SessionUID  string   `form:"sessionUid"`
	StoreUID    string   `form:"storeUid"`
	MerchantUID string   `form:"merchantUid"`
	TotalAmount Amount   `form:"amount"`
	Customer    Customer `form:"customer"`
	Items       []Item   `form:"items"`
	ReturnURL   string   `form:"returnUrl"`
}

type Amount struct {
	Value    int64  `form:"value"`
	Currency string `form:"currency"`
}

type Customer struct {
	Name     string `form:"name"`
	Phone    string `form:"phone"`
	Email    string `form:"email"`
	Address  string `form:"address"`
	City     string `form:"city"`
	District string `form:"district"`
}

type Item struct {
	Name      string `form:"name"`
	UnitPrice int64  `form:"unitPrice"`
	Quantity  int    `form:"quantity"`
	Total     int64  `form:"total"`
}

func NewFromRequest(r *http.Request) (Checkout, error) {
	err := r.ParseForm()
	if err != nil {
		return Checkout{}, myerrors.NewInvalidInputError(err)
	}

	return NewFromValues(r.Form)
}

func NewFromValues(values url.Values) (Checkout, error) {
	checkout := Checkout{}
	err := formcodec.NewDecoder().Decode(&checkout, values)
	if err != nil {
		return checkout, myerrors.NewInvalidInputError(err)
	}

	return checkout, nil
}

func (c Checkout) ToForm() (url.Values, error) {
	values, err := formcodec.NewEncoder().Encode(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	return values, nil
}
