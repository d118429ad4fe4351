package http

import (
	"gasdelivery/internal/adapters/in/http/api"
	"gasdelivery/internal/core/application/routing"
	"gasdelivery/internal/core/application/usecases/queries"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

func toKernelUUID(id openapi_types.UUID) (kernel.UUID, error) {
	return kernel.UUIDFromBytes(id[:])
}

func toStatuses(in *[]api.Status) ([]order.Status, error) {
	if in == nil {
		return nil, nil
	}
	statuses := make([]order.Status, 0, len(*in))
	for _, s := range *in {
		status, err := order.ParseStatus(string(s))
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func toAPILocation(l *kernel.Location) *api.Location {
	if l == nil {
		return nil
	}
	return &api.Location{Latitude: l.Latitude(), Longitude: l.Longitude()}
}

func toAPIOrder(view queries.OrderView) api.Order {
	items := make([]api.Item, len(view.Items))
	for i, item := range view.Items {
		items[i] = api.Item{
			ProductId: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	response := api.Order{
		Id:            view.ID.Bytes(),
		CustomerName:  view.CustomerName,
		CustomerPhone: view.CustomerPhone,
		Address:       view.Address,
		Location:      toAPILocation(view.Location),
		Items:         items,
		Total:         view.Total,
		PaymentMethod: view.PaymentMethod,
		Notes:         optional(view.Notes),
		Status:        api.Status(view.Status.String()),
		CreatedAt:     view.CreatedAt,
		AssignedAt:    view.AssignedAt,
	}
	if view.DriverID != nil {
		driverID := openapi_types.UUID(view.DriverID.Bytes())
		response.DriverId = &driverID
		response.DriverName = optional(view.DriverName)
	}
	return response
}

func toAPIDriver(view queries.DriverView) api.Driver {
	return api.Driver{
		Id:                 view.ID.Bytes(),
		Name:               view.Name,
		Phone:              view.Phone,
		Vehicle:            optional(view.Vehicle),
		Position:           toAPILocation(view.Position),
		PositionReportedAt: view.PositionReportedAt,
		Available:          view.Available,
		DistanceMeters:     view.DistanceMeters,
	}
}

func toAPIRoute(plan routing.Plan) api.Route {
	response := api.Route{
		OrderId:   plan.OrderID.Bytes(),
		Available: plan.Available,
		Reason:    optional(plan.Reason),
	}
	if !plan.Available {
		return response
	}

	geometry := make([]api.Location, len(plan.Geometry))
	for i, point := range plan.Geometry {
		geometry[i] = api.Location{Latitude: point.Latitude(), Longitude: point.Longitude()}
	}
	distance := plan.DistanceMeters
	eta := plan.ETAMinutes
	computedAt := plan.ComputedAt

	response.Geometry = &geometry
	response.DistanceMeters = &distance
	response.EtaMinutes = &eta
	response.ComputedAt = &computedAt
	return response
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
