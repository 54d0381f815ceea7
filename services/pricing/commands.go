package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/tajirhq/storebackend/lib/myerrors"
	"github.com/tajirhq/storebackend/lib/mylog"
	"github.com/tajirhq/storebackend/lib/mystore"
)

func (s *service) upsertDiscount(c context.Context, discount Discount) (Discount, error) {
	now := s.nower.Now()

	if discount.ProductUID == "" {
		return Discount{}, myerrors.NewInvalidInputErrorf("missing productUid")
	}
	if discount.Type != DiscountTypePercentage && discount.Type != DiscountTypeFixed {
		return Discount{}, myerrors.NewInvalidInputErrorf("unknown discount type %s", discount.Type)
	}
	if discount.Value < 0 {
		return Discount{}, myerrors.NewInvalidInputErrorf("negative discount value")
	}

	if discount.UID == "" {
		discount.UID = s.uuider.Create()
		discount.CreatedAt = now
	} else {
		discount.LastModified = &now
	}

	s.logger.Log(c, discount.UID, mylog.SeverityInfo, "Upsert discount %s on product %s", discount.UID, discount.ProductUID)

	err := s.discountStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		err := s.discountStore.Put(c, discount.UID, discount)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		if discount.Active {
			return s.deactivateOthers(c, discount)
		}

		return nil
	})
	if err != nil {
		return Discount{}, err
	}

	return discount, nil
}

// activateDiscount switches the given discount on and all other discounts of
// the same product off, in one transaction.
func (s *service) activateDiscount(c context.Context, discountUID string) (Discount, error) {
	s.logger.Log(c, discountUID, mylog.SeverityInfo, "Activate discount %s", discountUID)

	now := s.nower.Now()

	var activated Discount
	err := s.discountStore.RunInTransaction(c, func(c context.Context) error {
		// must be idempotent

		discount, found, err := s.discountStore.Get(c, discountUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if !found {
			return myerrors.NewNotFoundError(fmt.Errorf("discount with uid %s not found", discountUID))
		}

		discount.Active = true
		discount.LastModified = &now

		err = s.discountStore.Put(c, discountUID, discount)
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		activated = discount

		return s.deactivateOthers(c, discount)
	})
	if err != nil {
		return Discount{}, err
	}

	return activated, nil
}

func (s *service) deactivateOthers(c context.Context, active Discount) error {
	now := s.nower.Now()

	others, err := s.discountStore.Query(c, []mystore.Filter{{Field: "ProductUID", Compare: "=", Value: active.ProductUID}}, "CreatedAt")
	if err != nil {
		return myerrors.NewInternalError(err)
	}

	for _, other := range others {
		// TODO filter on ProductUID in the datastore query only: the
		// in-memory store returns everything
		if other.ProductUID != active.ProductUID || other.UID == active.UID || !other.Active {
			continue
		}

		other.Active = false
		other.LastModified = &now

		err = s.discountStore.Put(c, other.UID, other)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
	}

	return nil
}

func (s *service) listDiscounts(c context.Context, productUID string) ([]Discount, error) {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Fetch discounts of product %s", productUID)

	discounts, err := s.discountStore.Query(c, []mystore.Filter{{Field: "ProductUID", Compare: "=", Value: productUID}}, "CreatedAt")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	result := []Discount{}
	for _, d := range discounts {
		if d.ProductUID == productUID {
			result = append(result, d)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}
