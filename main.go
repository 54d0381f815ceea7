package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/tajirhq/storebackend/lib/mypublisher"
	"github.com/tajirhq/storebackend/lib/mypubsub"
	"github.com/tajirhq/storebackend/lib/myqueue"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myuuid"
	"github.com/tajirhq/storebackend/lib/myvault"
	"github.com/tajirhq/storebackend/services/checkout"
	"github.com/tajirhq/storebackend/services/checkoutapi"
	"github.com/tajirhq/storebackend/services/checkoutcard"
	"github.com/tajirhq/storebackend/services/checkoutemkan"
	"github.com/tajirhq/storebackend/services/checkoutoptions"
	"github.com/tajirhq/storebackend/services/order"
	"github.com/tajirhq/storebackend/services/pricing"
	"github.com/tajirhq/storebackend/services/providervault"
	"github.com/tajirhq/storebackend/services/storeconfig"
)

func main() {
	c := context.Background()

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating task queue: %s", err)
	}
	defer queueCleanup()

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	vault, vaultCleanup, err := myvault.New[providervault.Credentials](c)
	if err != nil {
		log.Fatalf("Error creating credentials vault: %s", err)
	}
	defer vaultCleanup()

	merchantStore, merchantStoreCleanup, err := mystore.New[storeconfig.MerchantSettings](c)
	if err != nil {
		log.Fatalf("Error creating merchant settings store: %s", err)
	}
	defer merchantStoreCleanup()

	storeStore, storeStoreCleanup, err := mystore.New[storeconfig.StoreSettings](c)
	if err != nil {
		log.Fatalf("Error creating store settings store: %s", err)
	}
	defer storeStoreCleanup()

	storeconfig.NewWebService(merchantStore, storeStore, nower).RegisterEndpoints(c, router)

	discountStore, discountStoreCleanup, err := mystore.New[pricing.Discount](c)
	if err != nil {
		log.Fatalf("Error creating discount store: %s", err)
	}
	defer discountStoreCleanup()

	pricing.NewWebService(discountStore, nower, uuider).RegisterEndpoints(c, router)

	checkoutContextStore, checkoutContextStoreCleanup, err := mystore.New[checkoutapi.CheckoutContext](c)
	if err != nil {
		log.Fatalf("Error creating checkout context store: %s", err)
	}
	defer checkoutContextStoreCleanup()

	emkanService := checkoutemkan.NewWebService(os.Getenv("EMKAN_API_KEY"), checkoutemkan.NewPayer(), nower, checkoutContextStore, vault, publisher)
	err = emkanService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering emkan checkout service: %s", err)
	}

	cardService := checkoutcard.NewWebService(os.Getenv("STRIPE_API_KEY"), checkoutcard.NewPayer(), nower, checkoutContextStore, vault, publisher)
	err = cardService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering card checkout service: %s", err)
	}

	sessionStore, sessionStoreCleanup, err := mystore.New[checkout.CheckoutSession](c)
	if err != nil {
		log.Fatalf("Error creating checkout session store: %s", err)
	}
	defer sessionStoreCleanup()

	optionsProvider := checkoutoptions.New(merchantStore, storeStore)

	checkoutService := checkout.NewWebService(sessionStore, optionsProvider, emkanService, nower, uuider, publisher, pubsub)
	err = checkoutService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering checkout service: %s", err)
	}

	orderStore, orderStoreCleanup, err := mystore.New[order.Order](c)
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderStoreCleanup()

	orderService := order.NewWebService(orderStore, nower, uuider, publisher, pubsub)
	err = orderService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering order service: %s", err)
	}

	startWebServerBlocking(router)
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
