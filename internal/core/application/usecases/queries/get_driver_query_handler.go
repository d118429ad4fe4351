package queries

import (
	"context"
)

type GetDriverQueryHandler struct {
	drivers DriverReader
}

func NewGetDriverQueryHandler(drivers DriverReader) GetDriverQueryHandler {
	return GetDriverQueryHandler{drivers: drivers}
}

func (h GetDriverQueryHandler) Handle(ctx context.Context, query GetDriverQuery) (DriverView, error) {
	if err := query.Validate(); err != nil {
		return DriverView{}, err
	}

	found, err := h.drivers.Get(ctx, query.DriverID())
	if err != nil {
		return DriverView{}, err
	}

	available, err := h.drivers.IsAvailable(ctx, found.ID())
	if err != nil {
		return DriverView{}, err
	}

	return NewDriverView(found, available), nil
}
