package checkoutemkan

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tajirhq/storebackend/lib/mycontext"
	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myhttp"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mypublisher"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myvault"
	"github.com/tajirhq/storebackend/services/checkoutapi"
	"github.com/tajirhq/storebackend/services/providervault"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(apiKey string, payer Payer, nower mytime.Nower, checkoutStore mystore.Store[checkoutapi.CheckoutContext], vault myvault.VaultReader[providervault.Credentials], publisher mypublisher.Publisher) *webService {
	logger := mylog.New("checkoutemkan")

	return &webService{
		logger:  logger,
		service: newService(apiKey, payer, logger, nower, checkoutStore, vault, publisher),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/emkan/checkout/{checkoutUID}", s.startCheckoutPage()).Methods("POST")
	router.HandleFunc("/emkan/checkout/{checkoutUID}/status/{status}", s.checkoutCompletedPage()).Methods("GET")

	router.HandleFunc("/emkan/checkout/webhook/event/{checkoutUID}", s.webhookNotificationPage()).Methods("POST")

	return nil
}

// StartPayment lets the checkout wizard initiate a BNPL payment without
// going through HTTP.
func (s *webService) StartPayment(c context.Context, checkout checkoutapi.Checkout) (string, error) {
	return s.service.startCheckout(c, checkout, myhttp.GuessHostnameWithScheme())
}

// startCheckoutPage starts a payment on the Emkan platform
func (s *webService) startCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkout, err := checkoutapi.NewFromRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}
		checkout.SessionUID = mux.Vars(r)["checkoutUID"]

		redirectURL, err := s.service.startCheckout(c, checkout, myhttp.HostnameWithScheme(r))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}

func (s *webService) checkoutCompletedPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]
		status := mux.Vars(r)["status"]

		redirectURL, err := s.service.finalizeCheckout(c, checkoutUID, status)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		http.Redirect(w, r, redirectURL, http.StatusSeeOther)
	}
}

type webhookEvent struct {
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

func (s *webService) webhookNotificationPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		checkoutUID := mux.Vars(r)["checkoutUID"]

		event := webhookEvent{}
		err := json.NewDecoder(r.Body).Decode(&event)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}
		if event.Status == "" {
			errorWriter.WriteError(c, w, 2, myerrors.NewInvalidInputErrorf("missing status"))
			return
		}

		err = s.service.webhookNotification(c, checkoutUID, event.Status, event.Reference)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}
