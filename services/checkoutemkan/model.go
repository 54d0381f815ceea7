package checkoutemkan

// PaymentRequest is the payment-initiation payload of the Emkan BNPL API.
// All amounts are in minor units.
type PaymentRequest struct {
	MerchantReference string          `json:"merchantReference"`
	AmountInCents     int64           `json:"amount"`
	Currency          string          `json:"currency"`
	Customer          PaymentCustomer `json:"customer"`
	Items             []PaymentItem   `json:"items"`
	SuccessURL        string          `json:"successUrl"`
	CancelURL         string          `json:"cancelUrl"`
}

type PaymentCustomer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type PaymentItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// PaymentResponse is what Emkan returns on payment initiation. The hosted
// page URL has been observed under both field names, depending on the API
// version behind the endpoint.
type PaymentResponse struct {
	Success     bool   `json:"success"`
	Reference   string `json:"reference"`
	PaymentURL  string `json:"payment_url"`
	RedirectURL string `json:"redirectUrl"`
	Message     string `json:"message"`
}

// HostedPageURL returns the URL the shopper must be redirected to,
// preferring the modern field. Empty when the response carries neither.
func (r PaymentResponse) HostedPageURL() string {
	if r.PaymentURL != "" {
		return r.PaymentURL
	}

	return r.RedirectURL
}
