package services

import (
	"errors"
	"sort"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/order"
)

// ErrOrderHasNoPin is returned when an order was placed with an address only,
// so there is nothing to measure against.
var ErrOrderHasNoPin = errors.New("order has no delivery pin")

// RankedDriver is a candidate with its distance to the pin. Distance is nil for
// drivers that never reported a position.
type RankedDriver struct {
	Driver   *driver.Driver
	Distance *float64
}

// DriverRanker suggests who to assign an order to.
//
// Business rules:
//   - Closer drivers come first
//   - Drivers without a position go last, by name
//   - Ties keep the input order
//
// Example usage:
//
//	ranker := services.NewDriverRanker()
//	ranked, err := ranker.Rank(o, available)
//	if errors.Is(err, services.ErrOrderHasNoPin) {
//	    // fall back to the unranked list
//	}
type DriverRanker struct{}

func NewDriverRanker() DriverRanker {
	return DriverRanker{}
}

// Rank does not check availability; callers pass drivers that are already
// known to be free.
func (r DriverRanker) Rank(o *order.Order, drivers []*driver.Driver) ([]RankedDriver, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	pin := o.Destination().Location()
	if pin == nil {
		return nil, ErrOrderHasNoPin
	}

	ranked := make([]RankedDriver, 0, len(drivers))
	for _, d := range drivers {
		if err := d.Validate(); err != nil {
			return nil, err
		}

		candidate := RankedDriver{Driver: d}
		if position := d.Position(); position != nil {
			meters, err := position.DistanceTo(*pin)
			if err != nil {
				return nil, err
			}
			candidate.Distance = &meters
		}
		ranked = append(ranked, candidate)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch {
		case a.Distance != nil && b.Distance != nil:
			return *a.Distance < *b.Distance
		case a.Distance != nil:
			return true
		case b.Distance != nil:
			return false
		default:
			return a.Driver.Name() < b.Driver.Name()
		}
	})

	return ranked, nil
}
