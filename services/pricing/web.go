package pricing

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/tajirhq/storebackend/lib/mycontext"
	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myhttp"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myuuid"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(store mystore.Store[Discount], nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	logger := mylog.New("pricing")

	return &webService{
		logger:  logger,
		service: newService(store, nower, uuider, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/discount", s.upsertDiscountPage()).Methods("PUT")
	router.HandleFunc("/api/discount/{discountUID}/activate", s.activateDiscountPage()).Methods("PUT")
	router.HandleFunc("/api/product/{productUID}/discount", s.listDiscountsPage()).Methods("GET")
}

func (s *webService) upsertDiscountPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		discount, err := parseDiscountRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		discount, err = s.service.upsertDiscount(c, discount)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, discount)
	}
}

func (s *webService) activateDiscountPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		discountUID := mux.Vars(r)["discountUID"]

		discount, err := s.service.activateDiscount(c, discountUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, discount)
	}
}

func (s *webService) listDiscountsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		productUID := mux.Vars(r)["productUID"]

		discounts, err := s.service.listDiscounts(c, productUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, discounts)
	}
}

func parseDiscountRequest(r *http.Request) (Discount, error) {
	err := r.ParseForm()
	if err != nil {
		return Discount{}, myerrors.NewInvalidInputError(err)
	}

	discount := Discount{
		UID:        r.Form.Get("uid"),
		ProductUID: r.Form.Get("productUid"),
		Type:       DiscountType(r.Form.Get("type")),
		Active:     r.Form.Get("active") == "true",
	}

	if valueAsString := r.Form.Get("value"); valueAsString != "" {
		discount.Value, err = strconv.ParseFloat(valueAsString, 64)
		if err != nil {
			return Discount{}, myerrors.NewInvalidInputErrorf("invalid value '%s' (%s)", valueAsString, err)
		}
	}

	discount.StartsAt, err = parseOptionalTime(r.Form.Get("startsAt"))
	if err != nil {
		return Discount{}, err
	}
	discount.EndsAt, err = parseOptionalTime(r.Form.Get("endsAt"))
	if err != nil {
		return Discount{}, err
	}

	return discount, nil
}

func parseOptionalTime(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, myerrors.NewInvalidInputErrorf("invalid timestamp '%s' (%s)", value, err)
	}

	return &t, nil
}
