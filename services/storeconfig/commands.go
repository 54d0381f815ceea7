package storeconfig

import (
	"context"
	"fmt"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/mylog"
)

func (s *service) upsertMerchantSettings(c context.Context, settings MerchantSettings) (MerchantSettings, error) {
	if settings.UID == "" {
		return MerchantSettings{}, myerrors.NewInvalidInputErrorf("missing merchant uid")
	}

	s.logger.Log(c, settings.UID, mylog.SeverityInfo, "Upsert settings of merchant %s", settings.UID)

	now := s.nower.Now()

	existing, found, err := s.merchantStore.Get(c, settings.UID)
	if err != nil {
		return MerchantSettings{}, myerrors.NewInternalError(err)
	}
	if found {
		settings.CreatedAt = existing.CreatedAt
		settings.LastModified = &now
	} else {
		settings.CreatedAt = now
	}

	err = s.merchantStore.Put(c, settings.UID, settings)
	if err != nil {
		return MerchantSettings{}, myerrors.NewInternalError(err)
	}

	return settings, nil
}

func (s *service) getMerchantSettings(c context.Context, merchantUID string) (MerchantSettings, error) {
	settings, found, err := s.merchantStore.Get(c, merchantUID)
	if err != nil {
		return MerchantSettings{}, myerrors.NewInternalError(err)
	}
	if !found {
		return MerchantSettings{}, myerrors.NewNotFoundError(fmt.Errorf("merchant with uid %s not found", merchantUID))
	}

	return settings, nil
}

func (s *service) upsertStoreSettings(c context.Context, settings StoreSettings) (StoreSettings, error) {
	if settings.UID == "" {
		return StoreSettings{}, myerrors.NewInvalidInputErrorf("missing store uid")
	}

	s.logger.Log(c, settings.UID, mylog.SeverityInfo, "Upsert settings of store %s", settings.UID)

	now := s.nower.Now()

	existing, found, err := s.storeStore.Get(c, settings.UID)
	if err != nil {
		return StoreSettings{}, myerrors.NewInternalError(err)
	}
	if found {
		settings.CreatedAt = existing.CreatedAt
		settings.LastModified = &now
	} else {
		settings.CreatedAt = now
	}

	err = s.storeStore.Put(c, settings.UID, settings)
	if err != nil {
		return StoreSettings{}, myerrors.NewInternalError(err)
	}

	return settings, nil
}

func (s *service) getStoreSettings(c context.Context, storeUID string) (StoreSettings, error) {
	settings, found, err := s.storeStore.Get(c, storeUID)
	if err != nil {
		return StoreSettings{}, myerrors.NewInternalError(err)
	}
	if !found {
		return StoreSettings{}, myerrors.NewNotFoundError(fmt.Errorf("store with uid %s not found", storeUID))
	}

	return settings, nil
}
