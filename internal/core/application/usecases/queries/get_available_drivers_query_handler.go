package queries

import (
	"context"
	"errors"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/services"
)

// GetAvailableDriversQueryHandler reads availability at call time. The list
// can be stale by the time an assignment is attempted; assignment re-checks.
type GetAvailableDriversQueryHandler struct {
	drivers DriverReader
	orders  OrderReader
	ranker  services.DriverRanker
}

func NewGetAvailableDriversQueryHandler(drivers DriverReader, orders OrderReader) GetAvailableDriversQueryHandler {
	return GetAvailableDriversQueryHandler{
		drivers: drivers,
		orders:  orders,
		ranker:  services.NewDriverRanker(),
	}
}

func (h GetAvailableDriversQueryHandler) Handle(
	ctx context.Context,
	query GetAvailableDriversQuery,
) ([]DriverView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	found, err := h.drivers.GetAllAvailable(ctx)
	if err != nil {
		return nil, err
	}

	if query.NearOrder() == nil {
		return availableViews(found), nil
	}

	o, err := h.orders.Get(ctx, *query.NearOrder())
	if err != nil {
		return nil, err
	}

	ranked, err := h.ranker.Rank(o, found)
	if errors.Is(err, services.ErrOrderHasNoPin) {
		return availableViews(found), nil
	}
	if err != nil {
		return nil, err
	}

	views := make([]DriverView, 0, len(ranked))
	for _, r := range ranked {
		view := NewDriverView(r.Driver, true)
		view.DistanceMeters = r.Distance
		views = append(views, view)
	}
	return views, nil
}

func availableViews(found []*driver.Driver) []DriverView {
	views := make([]DriverView, 0, len(found))
	for _, d := range found {
		views = append(views, NewDriverView(d, true))
	}
	return views
}
