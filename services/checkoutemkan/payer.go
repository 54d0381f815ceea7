package checkoutemkan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myhttpclient"
)

const defaultBaseURL = "https://api.emkanfinance.com.sa/retail/bnpl/v1"

//go:generate mockgen -source=payer.go -package checkoutemkan -destination payer_mock.go Payer
type Payer interface {
	UseAPIKey(key string)
	CreatePayment(c context.Context, request PaymentRequest) (PaymentResponse, error)
}

type emkanPayer struct {
	baseURL string
	apiKey  string
	client  myhttpclient.HTTPSender
}

func NewPayer() Payer {
	baseURL := os.Getenv("EMKAN_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &emkanPayer{
		baseURL: baseURL,
		client:  myhttpclient.New("emkan"),
	}
}

func (p *emkanPayer) UseAPIKey(key string) {
	p.apiKey = key
}

// CreatePayment performs the remote payment-initiation call. A single
// attempt per confirmation: retrying could create duplicate purchases on
// the Emkan side.
func (p *emkanPayer) CreatePayment(c context.Context, request PaymentRequest) (PaymentResponse, error) {
	requestBody, err := json.Marshal(request)
	if err != nil {
		return PaymentResponse{}, myerrors.NewInternalError(fmt.Errorf("error marshalling payment request: %s", err))
	}

	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + p.apiKey,
	}

	httpStatus, responseBody, err := p.client.Send(c, http.MethodPost, p.baseURL+"/purchases", headers, requestBody)
	if err != nil {
		return PaymentResponse{}, myerrors.NewUnavailableError(fmt.Errorf("error calling emkan: %s", err))
	}

	if httpStatus != http.StatusOK && httpStatus != http.StatusCreated {
		return PaymentResponse{}, myerrors.NewUnavailableError(fmt.Errorf("emkan returned http status %d", httpStatus))
	}

	response := PaymentResponse{}
	err = json.Unmarshal(responseBody, &response)
	if err != nil {
		return PaymentResponse{}, myerrors.NewInternalError(fmt.Errorf("error parsing emkan response: %s", err))
	}

	return response, nil
}
