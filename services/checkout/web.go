package checkout

import (
	"context"
	"net/http"
	"strconv"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/tajirhq/storebackend/lib/mycontext"
	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myhttp"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mypublisher"
	"github.com/tajirhq/storebackend/lib/mypubsub"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myuuid"
	"github.com/tajirhq/storebackend/services/checkoutevents"
	"github.com/tajirhq/storebackend/services/checkoutoptions"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(store mystore.Store[CheckoutSession], optionsProvider checkoutoptions.OptionsProvider, bnplStarter BNPLStarter, nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher, subscriber mypubsub.PubSub) *webService {
	logger := mylog.New("checkout")

	return &webService{
		logger:  logger,
		service: newService(store, optionsProvider, bnplStarter, nower, uuider, logger, publisher, subscriber),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/checkout", s.startCheckoutPage()).Methods("POST")
	router.HandleFunc("/api/checkout/{checkoutUID}", s.getCheckoutPage()).Methods("GET")
	router.HandleFunc("/api/checkout/{checkoutUID}/shipping", s.selectShippingPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{checkoutUID}/payment", s.selectPaymentPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{checkoutUID}/back", s.goBackPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{checkoutUID}/customer", s.updateCustomerPage()).Methods("PUT")
	router.HandleFunc("/api/checkout/{checkoutUID}/confirm", s.confirmPage()).Methods("POST")

	router.HandleFunc("/api/checkout/event", s.eventPage()).Methods("POST")

	// The hosted payment page sends the shopper back here
	router.HandleFunc("/checkout/{checkoutUID}/completed", s.checkoutReturnedPage()).Methods("GET")

	return s.service.Subscribe(c)
}

type startCheckoutRequest struct {
	StoreUID    string            `form:"storeUid"`
	MerchantUID string            `form:"merchantUid"`
	Currency    string            `form:"currency"`
	Items       []cartItemRequest `form:"items"`
}

type cartItemRequest struct {
	ProductUID          string           `form:"productUid"`
	Title               string           `form:"title"`
	UnitPrice           int64            `form:"unitPrice"`
	DiscountedUnitPrice string           `form:"discountedUnitPrice"`
	Quantity            int              `form:"quantity"`
	Variants            []variantRequest `form:"variants"`
}

type variantRequest struct {
	Name  string `form:"name"`
	Value string `form:"value"`
}

func (s *webService) startCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		request, err := parseStartCheckoutRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		items, err := toCartItems(request.Items)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		session, err := s.service.startCheckout(c, request.StoreUID, request.MerchantUID, request.Currency, items)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, session)
	}
}

func (s *webService) getCheckoutPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, err := s.service.getCheckout(c, mux.Vars(r)["checkoutUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, session)
	}
}

func (s *webService) selectShippingPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := r.ParseForm()
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		session, err := s.service.selectShipping(c, mux.Vars(r)["checkoutUID"], r.Form.Get("name"))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, session)
	}
}

func (s *webService) selectPaymentPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := r.ParseForm()
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		session, err := s.service.selectPayment(c, mux.Vars(r)["checkoutUID"], r.Form.Get("name"))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, session)
	}
}

func (s *webService) goBackPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, err := s.service.goBack(c, mux.Vars(r)["checkoutUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, session)
	}
}

func (s *webService) updateCustomerPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := r.ParseForm()
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		customer := CustomerInfo{
			Name:     r.Form.Get("name"),
			Phone:    r.Form.Get("phone"),
			Email:    r.Form.Get("email"),
			Address:  r.Form.Get("address"),
			City:     r.Form.Get("city"),
			District: r.Form.Get("district"),
		}

		session, err := s.service.updateCustomer(c, mux.Vars(r)["checkoutUID"], customer)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, session)
	}
}

func (s *webService) confirmPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, redirectURL, err := s.service.confirm(c, mux.Vars(r)["checkoutUID"], myhttp.HostnameWithScheme(r))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		if redirectURL != "" {
			http.Redirect(w, r, redirectURL, http.StatusSeeOther)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, session)
	}
}

func (s *webService) checkoutReturnedPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		session, err := s.service.checkoutReturned(c, mux.Vars(r)["checkoutUID"], r.URL.Query().Get("status"))
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, session)
	}
}

func (s *webService) eventPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := checkoutevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}

func parseStartCheckoutRequest(r *http.Request) (startCheckoutRequest, error) {
	err := r.ParseForm()
	if err != nil {
		return startCheckoutRequest{}, myerrors.NewInvalidInputError(err)
	}

	request := startCheckoutRequest{}
	err = formcodec.NewDecoder().Decode(&request, r.Form)
	if err != nil {
		return startCheckoutRequest{}, myerrors.NewInvalidInputError(err)
	}

	return request, nil
}

func toCartItems(requests []cartItemRequest) ([]CartItem, error) {
	items := make([]CartItem, 0, len(requests))
	for _, request := range requests {
		item := CartItem{
			ProductUID:       request.ProductUID,
			Title:            request.Title,
			UnitPriceInCents: request.UnitPrice,
			Quantity:         request.Quantity,
		}

		if request.DiscountedUnitPrice != "" {
			discounted, err := strconv.ParseInt(request.DiscountedUnitPrice, 10, 64)
			if err != nil {
				return nil, myerrors.NewInvalidInputErrorf("invalid discounted price '%s' (%s)", request.DiscountedUnitPrice, err)
			}
			item.DiscountedUnitPriceInCents = &discounted
		}

		for _, variant := range request.Variants {
			item.Variants = append(item.Variants, VariantSelection{
				Name:  variant.Name,
				Value: variant.Value,
			})
		}

		items = append(items, item)
	}

	return items, nil
}
