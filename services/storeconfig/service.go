package storeconfig

import (
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
)

type service struct {
	merchantStore mystore.Store[MerchantSettings]
	storeStore    mystore.Store[StoreSettings]
	nower         mytime.Nower
	logger        mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(merchantStore mystore.Store[MerchantSettings], storeStore mystore.Store[StoreSettings], nower mytime.Nower, logger mylog.Logger) *service {
	return &service{
		merchantStore: merchantStore,
		storeStore:    storeStore,
		nower:         nower,
		logger:        logger,
	}
}
