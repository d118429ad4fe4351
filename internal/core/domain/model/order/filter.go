package order

import "gasdelivery/internal/core/domain/model/kernel"

// Filter selects orders for listings and change subscriptions. Empty fields
// match everything.
type Filter struct {
	Statuses []Status
	DriverID *kernel.UUID
}

// Matches reports whether o satisfies every set criterion.
func (f Filter) Matches(o *Order) bool {
	if o == nil {
		return false
	}

	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if o.Status() == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.DriverID != nil && !o.HasDriver(*f.DriverID) {
		return false
	}

	return true
}
