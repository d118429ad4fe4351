package queries

import (
	"context"
)

type GetOrdersQueryHandler struct {
	orders OrderReader
}

func NewGetOrdersQueryHandler(orders OrderReader) GetOrdersQueryHandler {
	return GetOrdersQueryHandler{orders: orders}
}

func (h GetOrdersQueryHandler) Handle(ctx context.Context, query GetOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	found, err := h.orders.Find(ctx, query.Filter())
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, 0, len(found))
	for _, o := range found {
		views = append(views, NewOrderView(o))
	}
	return views, nil
}
