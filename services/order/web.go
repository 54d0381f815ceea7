package order

import (
	"context"
	"net/http"

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
	"github.com/tajirhq/storebackend/services/order/orderevents"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(store mystore.Store[Order], nower mytime.Nower, uuider myuuid.UUIDer, publisher mypublisher.Publisher, subscriber mypubsub.PubSub) *webService {
	logger := mylog.New("order")

	return &webService{
		logger:  logger,
		service: newService(store, nower, uuider, logger, publisher, subscriber),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/order", s.createOrderPage()).Methods("POST")
	router.HandleFunc("/api/order", s.listOrdersPage()).Methods("GET")
	router.HandleFunc("/api/order/{orderUID}", s.getOrderPage()).Methods("GET")

	router.HandleFunc("/api/order/event", s.orderEventPage()).Methods("POST")
	router.HandleFunc("/api/order/checkout/event", s.checkoutEventPage()).Methods("POST")

	return s.service.Subscribe(c)
}

type createOrderRequest struct {
	StoreUID        string          `form:"storeUid"`
	MerchantUID     string          `form:"merchantUid"`
	CheckoutUID     string          `form:"checkoutUid"`
	Currency        string          `form:"currency"`
	ShippingCompany string          `form:"shippingCompany"`
	PaymentMethod   string          `form:"paymentMethod"`
	PaymentStatus   string          `form:"paymentStatus"`
	Total           int64           `form:"total"`
	Customer        customerRequest `form:"customer"`
	Lines           []lineRequest   `form:"lines"`
}

type customerRequest struct {
	Name     string `form:"name"`
	Phone    string `form:"phone"`
	Email    string `form:"email"`
	Address  string `form:"address"`
	City     string `form:"city"`
	District string `form:"district"`
}

type lineRequest struct {
	ProductUID string `form:"productUid"`
	Title      string `form:"title"`
	UnitPrice  int64  `form:"unitPrice"`
	Quantity   int    `form:"quantity"`
}

func (s *webService) createOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		request, err := parseCreateOrderRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		order, err := s.service.createOrder(c, toOrder(request))
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) listOrdersPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		orders, err := s.service.listOrders(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, orders)
	}
}

func (s *webService) getOrderPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		order, err := s.service.getOrder(c, mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) orderEventPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := orderevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}

func (s *webService) checkoutEventPage() http.HandlerFunc {
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

func parseCreateOrderRequest(r *http.Request) (createOrderRequest, error) {
	err := r.ParseForm()
	if err != nil {
		return createOrderRequest{}, myerrors.NewInvalidInputError(err)
	}

	request := createOrderRequest{}
	err = formcodec.NewDecoder().Decode(&request, r.Form)
	if err != nil {
		return createOrderRequest{}, myerrors.NewInvalidInputError(err)
	}

	return request, nil
}

func toOrder(request createOrderRequest) Order {
	lines := make([]Line, 0, len(request.Lines))
	for _, line := range request.Lines {
		lines = append(lines, Line{
			ProductUID: line.ProductUID,
			Title:      line.Title,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
		})
	}

	return Order{
		CheckoutUID: request.CheckoutUID,
		StoreUID:    request.StoreUID,
		MerchantUID: request.MerchantUID,
		Customer: Customer{
			Name:     request.Customer.Name,
			Phone:    request.Customer.Phone,
			Email:    request.Customer.Email,
			Address:  request.Customer.Address,
			City:     request.Customer.City,
			District: request.Customer.District,
		},
		Lines:           lines,
		ShippingCompany: request.ShippingCompany,
		PaymentMethod:   request.PaymentMethod,
		PaymentStatus:   request.PaymentStatus,
		TotalInCents:    request.Total,
		Currency:        request.Currency,
	}
}
