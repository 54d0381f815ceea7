package checkoutemkan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/tajirhq/storebackend/lib/myevents"
	"github.com/tajirhq/storebackend/lib/mypublisher"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myvault"
	"github.com/tajirhq/storebackend/services/checkoutapi"
	"github.com/tajirhq/storebackend/services/checkoutevents"
	"github.com/tajirhq/storebackend/services/providervault"
)

const startCheckoutBody = `storeUid=store_1&merchantUid=merchant_1` +
	`&amount.value=21500&amount.currency=SAR` +
	`&customer.name=Salma Alghamdi&customer.phone=%2B966501234567` +
	`&items[0].name=Thobe&items[0].unitPrice=10000&items[0].quantity=2&items[0].total=20000` +
	`&returnUrl=https://store.example/checkout/checkout_123/completed`

func TestEmkanCheckoutService(t *testing.T) {

	t.Run("Start checkout redirects to hosted payment page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, vault, payer, nower, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		vault.EXPECT().Get(gomock.Any(), providervault.Key("emkan", "merchant_1")).Return(providervault.Credentials{}, false, nil)
		payer.EXPECT().UseAPIKey("platform_key")
		payer.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).DoAndReturn(
			func(c context.Context, request PaymentRequest) (PaymentResponse, error) {
				assert.Equal(t, "checkout_123", request.MerchantReference)
				assert.Equal(t, int64(21500), request.AmountInCents)
				assert.Contains(t, request.SuccessURL, "/emkan/checkout/checkout_123/status/success")
				return PaymentResponse{Success: true, Reference: "emkan_789", PaymentURL: "https://payment.emkanfinance.com.sa/session_abc"}, nil
			})
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, gomock.Any()).DoAndReturn(
			func(c context.Context, topic string, event myevents.Event) error {
				started := event.(checkoutevents.CheckoutStarted)
				assert.Equal(t, "emkan", started.ProviderName)
				assert.Equal(t, int64(21500), started.AmountInCents)
				return nil
			})

		// when
		request, err := http.NewRequest(http.MethodPost, "/emkan/checkout/checkout_123", strings.NewReader(startCheckoutBody))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "https://payment.emkanfinance.com.sa/session_abc", response.Header().Get("Location"))

		stored, exists, _ := storer.Get(ctx, "checkout_123")
		assert.True(t, exists)
		assert.Equal(t, "emkan", stored.PaymentProvider)
		assert.Equal(t, "emkan_789", stored.ProviderReference)
	})

	t.Run("Start checkout uses merchant api key when registered", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, vault, payer, nower, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		vault.EXPECT().Get(gomock.Any(), providervault.Key("emkan", "merchant_1")).Return(providervault.Credentials{
			ProviderName: "emkan",
			MerchantUID:  "merchant_1",
			APIKey:       "merchant_key",
		}, true, nil)
		payer.EXPECT().UseAPIKey("merchant_key")
		payer.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(
			PaymentResponse{Success: true, RedirectURL: "https://payment.emkanfinance.com.sa/session_abc"}, nil)
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, gomock.Any()).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/emkan/checkout/checkout_123", strings.NewReader(startCheckoutBody))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then: legacy redirectUrl field serves as well
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "https://payment.emkanfinance.com.sa/session_abc", response.Header().Get("Location"))
	})

	t.Run("Response without payment page url fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, vault, payer, nower, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		vault.EXPECT().Get(gomock.Any(), gomock.Any()).Return(providervault.Credentials{}, false, nil)
		payer.EXPECT().UseAPIKey("platform_key")
		payer.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(PaymentResponse{Success: true}, nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/emkan/checkout/checkout_123", strings.NewReader(startCheckoutBody))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 500, response.Code)
		_, exists, _ := storer.Get(ctx, "checkout_123")
		assert.False(t, exists)
	})

	t.Run("Declined payment fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, vault, payer, nower, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		vault.EXPECT().Get(gomock.Any(), gomock.Any()).Return(providervault.Credentials{}, false, nil)
		payer.EXPECT().UseAPIKey("platform_key")
		payer.EXPECT().CreatePayment(gomock.Any(), gomock.Any()).Return(PaymentResponse{Success: false, Message: "credit check failed"}, nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/emkan/checkout/checkout_123", strings.NewReader(startCheckoutBody))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Status redirect forwards shopper to storefront", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, "checkout_123", checkoutapi.CheckoutContext{
			CheckoutUID:       "checkout_123",
			PaymentProvider:   "emkan",
			OriginalReturnURL: "https://store.example/checkout/checkout_123/completed",
		})
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodGet, "/emkan/checkout/checkout_123/status/success", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "https://store.example/checkout/checkout_123/completed?status=success", response.Header().Get("Location"))

		stored, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, "success", stored.Status)
	})

	t.Run("Webhook publishes final payment outcome", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower, publisher := setup(t, ctrl)

		// given
		storer.Put(ctx, "checkout_123", checkoutapi.CheckoutContext{
			CheckoutUID:     "checkout_123",
			PaymentProvider: "emkan",
		})
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, gomock.Any()).DoAndReturn(
			func(c context.Context, topic string, event myevents.Event) error {
				completed := event.(checkoutevents.CheckoutCompleted)
				assert.Equal(t, "checkout_123", completed.CheckoutUID)
				assert.Equal(t, "APPROVED", completed.Status)
				assert.True(t, completed.Success)
				return nil
			})

		// when
		request, err := http.NewRequest(http.MethodPost, "/emkan/checkout/webhook/event/checkout_123",
			strings.NewReader(`{"status":"APPROVED","reference":"emkan_789"}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		stored, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, "APPROVED", stored.Status)
		assert.Equal(t, "bnpl", stored.PaymentMethod)
	})

	t.Run("Webhook with cancelled status is not a success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower, publisher := setup(t, ctrl)

		// given
		storer.Put(ctx, "checkout_123", checkoutapi.CheckoutContext{
			CheckoutUID:     "checkout_123",
			PaymentProvider: "emkan",
		})
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, gomock.Any()).DoAndReturn(
			func(c context.Context, topic string, event myevents.Event) error {
				completed := event.(checkoutevents.CheckoutCompleted)
				assert.False(t, completed.Success)
				return nil
			})

		// when
		request, err := http.NewRequest(http.MethodPost, "/emkan/checkout/webhook/event/checkout_123",
			strings.NewReader(`{"status":"CANCELLED"}`))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[checkoutapi.CheckoutContext], *myvault.MockVaultReader[providervault.Credentials], *MockPayer, *mytime.MockNower, *mypublisher.MockPublisher) {
	c := context.TODO()
	storer, _, _ := mystore.New[checkoutapi.CheckoutContext](c)
	vault := myvault.NewMockVaultReader[providervault.Credentials](ctrl)
	payer := NewMockPayer(ctrl)
	nower := mytime.NewMockNower(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)

	sut := NewWebService("platform_key", payer, nower, storer, vault, publisher)
	router := mux.NewRouter()
	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, storer, vault, payer, nower, publisher
}
