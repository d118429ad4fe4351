package queries

import (
	"errors"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/pkg/guard"
)

var ErrGetAvailableDriversQueryIsNotConstructed = errors.New(
	"GetAvailableDriversQuery must be created via NewGetAvailableDriversQuery constructor",
)

// GetAvailableDriversQuery lists drivers that hold no InProgress order.
// Administrators pick the assignee from this list. Without a reference order
// the list is ordered by name; with one, closest drivers come first.
type GetAvailableDriversQuery struct {
	nearOrder *kernel.UUID
	guard     guard.ConstructorGuard
}

func NewGetAvailableDriversQuery() GetAvailableDriversQuery {
	return GetAvailableDriversQuery{guard: guard.NewConstructorGuard()}
}

// NewGetAvailableDriversNearOrderQuery ranks the list by distance to the
// delivery pin of orderID.
func NewGetAvailableDriversNearOrderQuery(orderID kernel.UUID) (GetAvailableDriversQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetAvailableDriversQuery{}, err
	}
	return GetAvailableDriversQuery{nearOrder: &orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetAvailableDriversQuery) Validate() error {
	return q.guard.Validate(ErrGetAvailableDriversQueryIsNotConstructed)
}

func (q GetAvailableDriversQuery) NearOrder() *kernel.UUID { return q.nearOrder }
