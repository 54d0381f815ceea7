package mystore

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type setting struct {
	UID   string
	Name  string
	Price int
}

var (
	smsa = setting{UID: "123", Name: "SMSA Express", Price: 1500}
)

func TestStore(t *testing.T) {
	c := context.TODO()
	ss, cleanup, err := NewInMemoryStore[setting](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := ss.Get(c, smsa.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put", func(t *testing.T) {
		err = ss.Put(c, smsa.UID, smsa)
		assert.NoError(t, err)
	})

	t.Run("Get found", func(t *testing.T) {
		got, found, err := ss.Get(c, smsa.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, setting{UID: "123", Name: "SMSA Express", Price: 1500}, got)
	})

	t.Run("List", func(t *testing.T) {
		all, err := ss.List(c)
		assert.NoError(t, err)
		assert.Equal(t, []setting{smsa}, all)
	})

	t.Run("Transaction rolls back on error", func(t *testing.T) {
		err := ss.RunInTransaction(c, func(c context.Context) error {
			return fmt.Errorf("forced failure")
		})
		assert.Error(t, err)

		// store must still be usable after rollback
		_, found, err := ss.Get(c, smsa.UID)
		assert.NoError(t, err)
		assert.True(t, found)
	})
}
