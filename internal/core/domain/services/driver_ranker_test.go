package services_test

import (
	"testing"
	"time"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(t *testing.T, pin *kernel.Location) *order.Order {
	t.Helper()

	customer, err := order.NewCustomer("Amina", "+254700000001")
	require.NoError(t, err)
	dest, err := order.NewDestination("Moi Avenue 12", pin)
	require.NoError(t, err)
	item, err := order.NewItem("lpg-13kg", "13kg LPG refill", 1, 310000)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), customer, dest, []order.Item{item}, order.PaymentCash, "", time.Now())
	require.NoError(t, err)
	return o
}

func newDriver(t *testing.T, name string, lat, lon *float64) *driver.Driver {
	t.Helper()

	d, err := driver.NewDriver(kernel.NewUUID(), name, "+254711000002", "")
	require.NoError(t, err)
	if lat != nil {
		loc, err := kernel.NewLocation(*lat, *lon)
		require.NoError(t, err)
		require.NoError(t, d.RecordPosition(loc, time.Now()))
	}
	return d
}

func ptr(v float64) *float64 { return &v }

func TestDriverRanker_Rank(t *testing.T) {
	pin, _ := kernel.NewLocation(-1.283, 36.817)

	t.Run("should put closest driver first and unknown positions last", func(t *testing.T) {
		far := newDriver(t, "Wanjiru", ptr(-1.30), ptr(36.85))
		near := newDriver(t, "Otieno", ptr(-1.284), ptr(36.818))
		zed := newDriver(t, "Zawadi", nil, nil)
		abel := newDriver(t, "Abel", nil, nil)

		ranked, err := services.NewDriverRanker().Rank(newOrder(t, &pin), []*driver.Driver{zed, far, abel, near})

		require.NoError(t, err)
		require.Len(t, ranked, 4)
		assert.Equal(t, near.ID(), ranked[0].Driver.ID())
		assert.Equal(t, far.ID(), ranked[1].Driver.ID())
		assert.Equal(t, abel.ID(), ranked[2].Driver.ID())
		assert.Equal(t, zed.ID(), ranked[3].Driver.ID())
		require.NotNil(t, ranked[0].Distance)
		assert.InDelta(t, 157, *ranked[0].Distance, 5)
		assert.Nil(t, ranked[3].Distance)
	})

	t.Run("should return empty list for no drivers", func(t *testing.T) {
		ranked, err := services.NewDriverRanker().Rank(newOrder(t, &pin), nil)

		require.NoError(t, err)
		assert.Empty(t, ranked)
	})

	t.Run("should fail for order without pin", func(t *testing.T) {
		d := newDriver(t, "Otieno", ptr(-1.284), ptr(36.818))

		ranked, err := services.NewDriverRanker().Rank(newOrder(t, nil), []*driver.Driver{d})

		require.ErrorIs(t, err, services.ErrOrderHasNoPin)
		assert.Nil(t, ranked)
	})

	t.Run("should fail for unconstructed order", func(t *testing.T) {
		var o *order.Order

		_, err := services.NewDriverRanker().Rank(o, nil)

		require.ErrorIs(t, err, order.ErrOrderIsNotConstructed)
	})
}
