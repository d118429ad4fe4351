package queries

import (
	"time"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
)

// ItemView is one basket line with its snapshotted price.
type ItemView struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int64
}

// OrderView is the read model of an order.
type OrderView struct {
	ID            kernel.UUID
	CustomerName  string
	CustomerPhone string
	Address       string
	Location      *kernel.Location
	Items         []ItemView
	Total         int64
	PaymentMethod string
	Notes         string
	Status        order.Status
	DriverID      *kernel.UUID
	DriverName    string
	CreatedAt     time.Time
	AssignedAt    *time.Time
}

// DriverView is the read model of a driver. Available is computed when the
// view is built. DistanceMeters is only set on ranked availability lists.
type DriverView struct {
	ID                 kernel.UUID
	Name               string
	Phone              string
	Vehicle            string
	Position           *kernel.Location
	PositionReportedAt *time.Time
	Available          bool
	DistanceMeters     *float64
}

// NewOrderView flattens an order aggregate.
func NewOrderView(o *order.Order) OrderView {
	items := make([]ItemView, 0, len(o.Items()))
	for _, item := range o.Items() {
		items = append(items, ItemView{
			ProductID: item.ProductID(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}

	view := OrderView{
		ID:            o.ID(),
		CustomerName:  o.Customer().Name(),
		CustomerPhone: o.Customer().Phone(),
		Address:       o.Destination().Address(),
		Location:      o.Destination().Location(),
		Items:         items,
		Total:         o.Total(),
		PaymentMethod: string(o.Payment()),
		Notes:         o.Notes(),
		Status:        o.Status(),
		CreatedAt:     o.CreatedAt(),
		AssignedAt:    o.AssignedAt(),
	}

	if ref := o.Driver(); ref != nil {
		id := ref.ID()
		view.DriverID = &id
		view.DriverName = ref.Name()
	}

	return view
}

// NewDriverView flattens a driver aggregate.
func NewDriverView(d *driver.Driver, available bool) DriverView {
	return DriverView{
		ID:                 d.ID(),
		Name:               d.Name(),
		Phone:              d.Phone(),
		Vehicle:            d.Vehicle(),
		Position:           d.Position(),
		PositionReportedAt: d.PositionReportedAt(),
		Available:          available,
	}
}
