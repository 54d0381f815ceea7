package checkout

import (
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mypublisher"
	"github.com/tajirhq/storebackend/lib/mypubsub"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myuuid"
	"github.com/tajirhq/storebackend/services/checkoutoptions"
)

type service struct {
	sessionStore    mystore.Store[CheckoutSession]
	optionsProvider checkoutoptions.OptionsProvider
	bnplStarter     BNPLStarter
	publisher       mypublisher.Publisher
	subscriber      mypubsub.PubSub
	nower           mytime.Nower
	uuider          myuuid.UUIDer
	logger          mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store mystore.Store[CheckoutSession], optionsProvider checkoutoptions.OptionsProvider, bnplStarter BNPLStarter, nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, pub mypublisher.Publisher, subscriber mypubsub.PubSub) *service {
	return &service{
		sessionStore:    store,
		optionsProvider: optionsProvider,
		bnplStarter:     bnplStarter,
		publisher:       pub,
		subscriber:      subscriber,
		nower:           nower,
		uuider:          uuider,
		logger:          logger,
	}
}
