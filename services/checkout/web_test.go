package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/myevents"
	"github.com/tajirhq/storebackend/lib/mypublisher"
	"github.com/tajirhq/storebackend/lib/mypubsub"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myuuid"
	"github.com/tajirhq/storebackend/services/checkoutevents"
	"github.com/tajirhq/storebackend/services/checkoutoptions"
	"github.com/tajirhq/storebackend/services/order/orderevents"
)

var exampleOptions = checkoutoptions.CheckoutOptions{
	Shipping: []checkoutoptions.ShippingOption{
		{Name: "SMSA Express", PriceInCents: 1500},
		{Name: "Aramex", PriceInCents: 2000},
	},
	Payment: []checkoutoptions.PaymentOption{
		{Name: "الدفع عند الاستلام"},
		{Name: "إمكان - الشراء الآن والدفع لاحقاً"},
	},
	Source: checkoutoptions.SourceConfigured,
}

func TestCheckoutService(t *testing.T) {

	t.Run("Start checkout snapshots cart and defaults payment selection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, options, _, nower, uuider, _ := setup(t, ctrl)

		// given
		options.EXPECT().LoadCheckoutOptions(gomock.Any(), "merchant_1", "store_1").Return(exampleOptions, nil)
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("checkout_123")

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(
			`storeUid=store_1&merchantUid=merchant_1`+
				`&items[0].productUid=product_thobe&items[0].title=Thobe&items[0].unitPrice=10000&items[0].quantity=2`+
				`&items[1].productUid=product_thobe&items[1].title=Thobe&items[1].unitPrice=10000&items[1].quantity=1`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		session, exists, _ := storer.Get(ctx, "checkout_123")
		assert.True(t, exists)
		assert.Equal(t, StepShipping, session.CurrentStep)
		assert.Equal(t, "SAR", session.Currency)
		assert.Equal(t, "الدفع عند الاستلام", session.SelectedPayment)

		// duplicate cart lines were merged
		assert.Len(t, session.Items, 1)
		assert.Equal(t, 3, session.Items[0].Quantity)
	})

	t.Run("Start checkout with empty cart fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`storeUid=store_1&merchantUid=merchant_1`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Select shipping advances to payment step", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, "checkout_123", sessionOnStep(StepShipping))
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/checkout/checkout_123/shipping", strings.NewReader(`name=Aramex`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepPayment, session.CurrentStep)
		assert.Equal(t, "Aramex", session.SelectedShipping.Name)
		assert.Equal(t, int64(2000), session.SelectedShipping.PriceInCents)
	})

	t.Run("Select unknown shipping option fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, _, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, "checkout_123", sessionOnStep(StepShipping))

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/checkout/checkout_123/shipping", strings.NewReader(`name=DHL`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepShipping, session.CurrentStep)
		assert.Nil(t, session.SelectedShipping)
	})

	t.Run("Select payment from shipping step is blocked", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, _, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, "checkout_123", sessionOnStep(StepShipping))

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/checkout/checkout_123/payment", strings.NewReader(`name=الدفع عند الاستلام`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepShipping, session.CurrentStep)
	})

	t.Run("Go back keeps selections", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower, _, _ := setup(t, ctrl)

		// given
		seeded := sessionOnStep(StepConfirmation)
		storer.Put(ctx, "checkout_123", seeded)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPut, "/api/checkout/checkout_123/back", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepPayment, session.CurrentStep)
		assert.Equal(t, seeded.SelectedShipping.Name, session.SelectedShipping.Name)
		assert.Equal(t, seeded.SelectedPayment, session.SelectedPayment)
	})

	t.Run("Confirm with cash-on-delivery defers payment collection", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower, uuider, publisher := setup(t, ctrl)

		// given
		storer.Put(ctx, "checkout_123", sessionOnStep(StepConfirmation))
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("order_456")

		var placed orderevents.OrderPlaced
		publisher.EXPECT().Publish(gomock.Any(), orderevents.TopicName, gomock.Any()).DoAndReturn(
			func(c context.Context, topic string, event myevents.Event) error {
				placed = event.(orderevents.OrderPlaced)
				return nil
			})
		publisher.EXPECT().Publish(gomock.Any(), checkoutevents.TopicName, gomock.Any()).DoAndReturn(
			func(c context.Context, topic string, event myevents.Event) error {
				completed := event.(checkoutevents.CheckoutCompleted)
				assert.Equal(t, "deferred", completed.Status)
				assert.True(t, completed.Success)
				return nil
			})

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout_123/confirm", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepSuccess, session.CurrentStep)
		assert.Equal(t, "deferred", session.PaymentStatus)
		assert.Equal(t, "order_456", session.OrderUID)
		assert.Regexp(t, `^ORD-\d{6}$`, session.OrderNumber)

		// 2 x 10000 plus 1500 shipping
		assert.Equal(t, int64(21500), placed.TotalInCents)
		assert.Equal(t, "order_456", placed.OrderUID)
		assert.Equal(t, "deferred", placed.PaymentStatus)
	})

	t.Run("Confirm with BNPL method redirects to hosted payment page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, bnpl, nower, uuider, publisher := setup(t, ctrl)

		// given
		seeded := sessionOnStep(StepConfirmation)
		seeded.SelectedPayment = "إمكان - الشراء الآن والدفع لاحقاً"
		storer.Put(ctx, "checkout_123", seeded)
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("order_456")
		bnpl.EXPECT().StartPayment(gomock.Any(), gomock.Any()).Return("https://payment.emkanfinance.com.sa/session_abc", nil)
		publisher.EXPECT().Publish(gomock.Any(), orderevents.TopicName, gomock.Any()).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout_123/confirm", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 303, response.Code)
		assert.Equal(t, "https://payment.emkanfinance.com.sa/session_abc", response.Header().Get("Location"))

		// session awaits the payment outcome
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepConfirmation, session.CurrentStep)
		assert.Equal(t, "pending", session.PaymentStatus)
	})

	t.Run("Confirm stays on confirmation when BNPL initiation fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, bnpl, nower, uuider, _ := setup(t, ctrl)

		// given
		seeded := sessionOnStep(StepConfirmation)
		seeded.SelectedPayment = "Emkan BNPL"
		storer.Put(ctx, "checkout_123", seeded)
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("order_456")
		bnpl.EXPECT().StartPayment(gomock.Any(), gomock.Any()).Return("", myerrors.NewUnavailableError(assert.AnError))

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout_123/confirm", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 503, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepConfirmation, session.CurrentStep)
		assert.Empty(t, session.OrderUID)
	})

	t.Run("Confirm without complete customer details fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, _, _, _ := setup(t, ctrl)

		// given
		seeded := sessionOnStep(StepConfirmation)
		seeded.Customer.City = "  "
		storer.Put(ctx, "checkout_123", seeded)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout_123/confirm", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepConfirmation, session.CurrentStep)
	})

	t.Run("Confirm twice is blocked", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, _, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, "checkout_123", sessionOnStep(StepSuccess))

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/checkout_123/confirm", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Shopper returning from hosted payment page is served", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower, _, _ := setup(t, ctrl)

		// given
		seeded := sessionOnStep(StepConfirmation)
		seeded.PaymentStatus = "pending"
		storer.Put(ctx, "checkout_123", seeded)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodGet, "/checkout/checkout_123/completed?status=success", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, "success", session.ReturnedPaymentStatus)

		// the webhook decides the real outcome
		assert.Equal(t, StepConfirmation, session.CurrentStep)
		assert.Equal(t, "pending", session.PaymentStatus)
	})

	t.Run("Payment outcome event moves session to success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, nower, _, _ := setup(t, ctrl)

		// given
		seeded := sessionOnStep(StepConfirmation)
		seeded.PaymentStatus = "pending"
		storer.Put(ctx, "checkout_123", seeded)
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/checkout/event",
			strings.NewReader(mypublisher.CreatePubsubMessage(checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
				CheckoutUID:   "checkout_123",
				ProviderName:  "emkan",
				PaymentMethod: "bnpl",
				Status:        "AUTHORISED",
				Success:       true,
			})))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		session, _, _ := storer.Get(ctx, "checkout_123")
		assert.Equal(t, StepSuccess, session.CurrentStep)
		assert.Equal(t, "AUTHORISED", session.PaymentStatus)
	})
}

func sessionOnStep(step Step) CheckoutSession {
	return CheckoutSession{
		UID:         "checkout_123",
		StoreUID:    "store_1",
		MerchantUID: "merchant_1",
		CurrentStep: step,
		Items: []CartItem{
			{ProductUID: "product_thobe", Title: "Thobe", UnitPriceInCents: 10000, Quantity: 2},
		},
		Currency:         "SAR",
		Options:          exampleOptions,
		SelectedShipping: &checkoutoptions.ShippingOption{Name: "SMSA Express", PriceInCents: 1500},
		SelectedPayment:  "الدفع عند الاستلام",
		Customer: CustomerInfo{
			Name:    "Salma Alghamdi",
			Phone:   "+966501234567",
			Address: "King Fahd Rd 12",
			City:    "Riyadh",
		},
		CreatedAt: mytime.ExampleTime,
	}
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[CheckoutSession], *checkoutoptions.MockOptionsProvider, *MockBNPLStarter, *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	storer, _, _ := mystore.New[CheckoutSession](c)
	options := checkoutoptions.NewMockOptionsProvider(ctrl)
	bnpl := NewMockBNPLStarter(ctrl)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)
	subscriber := mypubsub.NewMockPubSub(ctrl)
	subscriber.EXPECT().CreateTopic(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	subscriber.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	sut := NewWebService(storer, options, bnpl, nower, uuider, publisher, subscriber)
	router := mux.NewRouter()
	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, storer, options, bnpl, nower, uuider, publisher
}
