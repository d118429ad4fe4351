// Package memory is a process-local implementation of the persistence ports.
// It enforces the same conditional-write and driver exclusivity rules as the
// Postgres adapter and is used for local runs and tests.
package memory

import (
	"sort"
	"sync"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// Store holds every order and driver behind one mutex. Aggregates are copied
// on the way in and out so callers never share state with the store.
type Store struct {
	mu      sync.Mutex
	orders  map[uuid.UUID]*order.Order
	drivers map[uuid.UUID]*driver.Driver
}

func NewStore() *Store {
	return &Store{
		orders:  make(map[uuid.UUID]*order.Order),
		drivers: make(map[uuid.UUID]*driver.Driver),
	}
}

func copyOrder(o *order.Order) *order.Order {
	c := *o
	return &c
}

func copyDriver(d *driver.Driver) *driver.Driver {
	c := *d
	return &c
}

// inProgressOrderOf returns the InProgress order held by driverID. Callers
// hold s.mu.
func (s *Store) inProgressOrderOf(driverID kernel.UUID) *order.Order {
	for _, o := range s.orders {
		if o.Status() == order.InProgress && o.HasDriver(driverID) {
			return o
		}
	}
	return nil
}

// sortedOrders returns matching orders oldest first. Callers hold s.mu.
func (s *Store) sortedOrders(filter order.Filter) []*order.Order {
	result := make([]*order.Order, 0)
	for _, o := range s.orders {
		if filter.Matches(o) {
			result = append(result, copyOrder(o))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt().Equal(result[j].CreatedAt()) {
			return result[i].ID().String() < result[j].ID().String()
		}
		return result[i].CreatedAt().Before(result[j].CreatedAt())
	})
	return result
}
