package order

import (
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mypublisher"
	"github.com/tajirhq/storebackend/lib/mypubsub"
	"github.com/tajirhq/storebackend/lib/mystore"
	"github.com/tajirhq/storebackend/lib/mytime"
	"github.com/tajirhq/storebackend/lib/myuuid"
)

type service struct {
	orderStore mystore.Store[Order]
	publisher  mypublisher.Publisher
	subscriber mypubsub.PubSub
	nower      mytime.Nower
	uuider     myuuid.UUIDer
	logger     mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(store mystore.Store[Order], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, pub mypublisher.Publisher, subscriber mypubsub.PubSub) *service {
	return &service{
		orderStore: store,
		publisher:  pub,
		subscriber: subscriber,
		nower:      nower,
		uuider:     uuider,
		logger:     logger,
	}
}
