package order

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
	"github.com/tajirhq/storebackend/lib/mypubsub"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myuuid"
	"github.com/tajirhq/storebackend/services/checkoutevents"
	"github.com/tajirhq/storebackend/services/order/orderevents"
)

func TestOrderService(t *testing.T) {

	t.Run("Create order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, nower, uuider, publisher := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)
		uuider.EXPECT().Create().Return("order_123")

		var placed orderevents.OrderPlaced
		publisher.EXPECT().Publish(gomock.Any(), orderevents.TopicName, gomock.Any()).DoAndReturn(
			func(c context.Context, topic string, event myevents.Event) error {
				placed = event.(orderevents.OrderPlaced)
				return nil
			})

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/order", strings.NewReader(
			`storeUid=store_1&merchantUid=merchant_1&paymentMethod=cod&paymentStatus=deferred&total=21500`+
				`&customer.name=Salma Alghamdi&customer.phone=%2B966501234567&customer.address=King Fahd Rd 12&customer.city=Riyadh`+
				`&lines[0].productUid=product_thobe&lines[0].title=Thobe&lines[0].unitPrice=10000&lines[0].quantity=2`+
				`&shippingCompany=SMSA Express`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		stored, exists, _ := storer.Get(ctx, "order_123")
		assert.True(t, exists)
		assert.Regexp(t, `^ORD-\d{6}$`, stored.OrderNumber)
		assert.Equal(t, "SAR", stored.Currency)
		assert.Equal(t, int64(21500), stored.TotalInCents)
		assert.Equal(t, stored.OrderNumber, placed.OrderNumber)
	})

	t.Run("Create order without lines fails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/order", strings.NewReader(`storeUid=store_1`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 400, response.Code)
	})

	t.Run("Order placed event materializes order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, nower, _, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/order/event",
			strings.NewReader(mypublisher.CreatePubsubMessage(orderevents.TopicName, orderevents.OrderPlaced{
				OrderUID:      "order_123",
				OrderNumber:   "ORD-123456",
				CheckoutUID:   "checkout_123",
				StoreUID:      "store_1",
				PaymentMethod: "bnpl",
				PaymentStatus: "pending",
				TotalInCents:  21500,
				Currency:      "SAR",
				Lines: []orderevents.Line{
					{ProductUID: "product_thobe", Title: "Thobe", UnitPrice: 10000, Quantity: 2},
				},
			})))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		stored, exists, _ := storer.Get(ctx, "order_123")
		assert.True(t, exists)
		assert.Equal(t, "ORD-123456", stored.OrderNumber)
		assert.Equal(t, "checkout_123", stored.CheckoutUID)
		assert.Equal(t, "pending", stored.PaymentStatus)
	})

	t.Run("Order placed event is idempotent", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, _, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, "order_123", Order{UID: "order_123", PaymentStatus: "paid"})

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/order/event",
			strings.NewReader(mypublisher.CreatePubsubMessage(orderevents.TopicName, orderevents.OrderPlaced{
				OrderUID:      "order_123",
				PaymentStatus: "pending",
			})))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then: the existing order is kept as is
		assert.Equal(t, 200, response.Code)
		stored, _, _ := storer.Get(ctx, "order_123")
		assert.Equal(t, "paid", stored.PaymentStatus)
	})

	t.Run("Checkout completed event updates payment status", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		ctx, router, storer, nower, _, _ := setup(t, ctrl)

		// given
		storer.Put(ctx, "order_123", Order{UID: "order_123", CheckoutUID: "checkout_123", PaymentStatus: "pending"})
		storer.Put(ctx, "order_456", Order{UID: "order_456", CheckoutUID: "checkout_other", PaymentStatus: "pending"})
		nower.EXPECT().Now().Return(mytime.ExampleTime)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/order/checkout/event",
			strings.NewReader(mypublisher.CreatePubsubMessage(checkoutevents.TopicName, checkoutevents.CheckoutCompleted{
				CheckoutUID:   "checkout_123",
				ProviderName:  "emkan",
				PaymentMethod: "bnpl",
				Status:        "APPROVED",
				Success:       true,
			})))
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 200, response.Code)
		updated, _, _ := storer.Get(ctx, "order_123")
		assert.Equal(t, "APPROVED", updated.PaymentStatus)

		// orders of other checkouts are untouched
		other, _, _ := storer.Get(ctx, "order_456")
		assert.Equal(t, "pending", other.PaymentStatus)
	})

	t.Run("Get unknown order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/order/unknown", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, 404, response.Code)
	})
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, mystore.Store[Order], *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	storer, _, _ := mystore.New[Order](c)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)
	subscriber := mypubsub.NewMockPubSub(ctrl)
	subscriber.EXPECT().CreateTopic(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	subscriber.EXPECT().Subscribe(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	sut := NewWebService(storer, nower, uuider, publisher, subscriber)
	router := mux.NewRouter()
	err := sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, storer, nower, uuider, publisher
}
