package queries

import (
	"errors"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/pkg/guard"
)

var ErrGetOrdersQueryIsNotConstructed = errors.New(
	"GetOrdersQuery must be created via NewGetOrdersQuery constructor",
)

// GetOrdersQuery lists orders, oldest first. With no statuses and no driver
// it returns every order.
//
// Example:
//
//	query, err := NewGetOrdersQuery([]order.Status{order.Pending, order.InProgress}, nil)
//	if err != nil {
//	    return err
//	}
//	open, err := handler.Handle(ctx, query)
type GetOrdersQuery struct { //nolint:recvcheck //using for validation
	filter order.Filter
	guard  guard.ConstructorGuard
}

func NewGetOrdersQuery(statuses []order.Status, driverID *kernel.UUID) (GetOrdersQuery, error) {
	var err error
	for _, s := range statuses {
		err = errors.Join(err, s.Validate())
	}
	if driverID != nil {
		err = errors.Join(err, driverID.Validate())
	}
	if err != nil {
		return GetOrdersQuery{}, err
	}

	filter := order.Filter{Statuses: append([]order.Status(nil), statuses...)}
	if driverID != nil {
		id := *driverID
		filter.DriverID = &id
	}

	return GetOrdersQuery{filter: filter, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetOrdersQueryIsNotConstructed)
}

func (q GetOrdersQuery) Filter() order.Filter { return q.filter }
