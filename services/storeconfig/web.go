package storeconfig

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tajirhq/storebackend/lib/mycontext"
	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myhttp"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(merchantStore mystore.Store[MerchantSettings], storeStore mystore.Store[StoreSettings], nower mytime.Nower) *webService {
	logger := mylog.New("storeconfig")

	return &webService{
		logger:  logger,
		service: newService(merchantStore, storeStore, nower, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/merchant/{merchantUID}/settings", s.upsertMerchantSettingsPage()).Methods("PUT")
	router.HandleFunc("/api/merchant/{merchantUID}/settings", s.getMerchantSettingsPage()).Methods("GET")
	router.HandleFunc("/api/store/{storeUID}/settings", s.upsertStoreSettingsPage()).Methods("PUT")
	router.HandleFunc("/api/store/{storeUID}/settings", s.getStoreSettingsPage()).Methods("GET")
}

func (s *webService) upsertMerchantSettingsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		settings, err := parseMerchantSettingsRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		settings, err = s.service.upsertMerchantSettings(c, settings)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, settings)
	}
}

func (s *webService) getMerchantSettingsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		settings, err := s.service.getMerchantSettings(c, mux.Vars(r)["merchantUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, settings)
	}
}

func (s *webService) upsertStoreSettingsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		settings, err := parseStoreSettingsRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		settings, err = s.service.upsertStoreSettings(c, settings)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, settings)
	}
}

func (s *webService) getStoreSettingsPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		settings, err := s.service.getStoreSettings(c, mux.Vars(r)["storeUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, settings)
	}
}

func parseMerchantSettingsRequest(r *http.Request) (MerchantSettings, error) {
	err := r.ParseForm()
	if err != nil {
		return MerchantSettings{}, myerrors.NewInvalidInputError(err)
	}

	settings := MerchantSettings{
		UID:             mux.Vars(r)["merchantUID"],
		DefaultCurrency: r.Form.Get("currency"),
	}

	companies := r.Form["shippingCompany"]
	prices := r.Form["shippingPrice"]
	if len(companies) != len(prices) {
		return MerchantSettings{}, myerrors.NewInvalidInputErrorf("mismatched shippingCompany/shippingPrice lists")
	}
	for i, name := range companies {
		settings.ShippingPrices = append(settings.ShippingPrices, ShippingPrice{
			CompanyName: name,
			Price:       prices[i],
		})
	}

	return settings, nil
}

func parseStoreSettingsRequest(r *http.Request) (StoreSettings, error) {
	err := r.ParseForm()
	if err != nil {
		return StoreSettings{}, myerrors.NewInvalidInputError(err)
	}

	return StoreSettings{
		UID:                      mux.Vars(r)["storeUID"],
		MerchantUID:              r.Form.Get("merchantUid"),
		EnabledShippingCompanies: r.Form["shippingCompany"],
		EnabledPaymentMethods:    r.Form["paymentMethod"],
	}, nil
}
