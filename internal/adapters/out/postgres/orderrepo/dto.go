// Package orderrepo maps order aggregates to the orders and order_items
// tables.
package orderrepo

import (
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the persisted form of an order. The partial unique index on
// driver_id makes the database refuse a second InProgress order for the
// same driver.
type OrderDTO struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	CustomerName  string         `gorm:"type:varchar(255);not null"`
	CustomerPhone string         `gorm:"type:varchar(32);not null"`
	Destination   DestinationDTO `gorm:"embedded;embeddedPrefix:destination_"`
	Items         []ItemDTO      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Total         int64          `gorm:"not null"`
	PaymentMethod string         `gorm:"type:varchar(32);not null"`
	Notes         string         `gorm:"type:text;not null;default:''"`
	Status        int            `gorm:"type:smallint;not null;index"`
	DriverID      *uuid.UUID     `gorm:"type:uuid;index;uniqueIndex:idx_orders_driver_in_progress,where:status = 2"`
	DriverName    *string        `gorm:"type:varchar(255)"`
	CreatedAt     time.Time      `gorm:"not null;index"`
	AssignedAt    *time.Time
}

func (OrderDTO) TableName() string {
	return "orders"
}

// DestinationDTO is embedded in the orders row. The pin is optional.
type DestinationDTO struct {
	Address   string   `gorm:"type:text;not null"`
	Latitude  *float64 `gorm:"type:double precision"`
	Longitude *float64 `gorm:"type:double precision"`
}

// ItemDTO is one basket line. Lines are written with the order and never
// updated.
type ItemDTO struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID string    `gorm:"type:varchar(64);not null"`
	Name      string    `gorm:"type:varchar(255);not null"`
	Quantity  int       `gorm:"not null"`
	UnitPrice int64     `gorm:"not null"`
}

func (ItemDTO) TableName() string {
	return "order_items"
}

func fromDomain(aggregate *order.Order) OrderDTO {
	orderID := aggregate.ID().Bytes()

	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, ItemDTO{
			OrderID:   orderID,
			ProductID: item.ProductID(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice(),
		})
	}

	dto := OrderDTO{
		ID:            orderID,
		CustomerName:  aggregate.Customer().Name(),
		CustomerPhone: aggregate.Customer().Phone(),
		Destination:   DestinationDTO{Address: aggregate.Destination().Address()},
		Items:         items,
		Total:         aggregate.Total(),
		PaymentMethod: string(aggregate.Payment()),
		Notes:         aggregate.Notes(),
		Status:        int(aggregate.Status()),
		CreatedAt:     aggregate.CreatedAt(),
		AssignedAt:    aggregate.AssignedAt(),
	}

	if pin := aggregate.Destination().Location(); pin != nil {
		lat, lon := pin.Latitude(), pin.Longitude()
		dto.Destination.Latitude = &lat
		dto.Destination.Longitude = &lon
	}

	if ref := aggregate.Driver(); ref != nil {
		driverID := ref.ID().Bytes()
		name := ref.Name()
		dto.DriverID = &driverID
		dto.DriverName = &name
	}

	return dto
}

// statusColumns holds the columns UpdateStatus is allowed to change.
func statusColumns(aggregate *order.Order) map[string]any {
	dto := fromDomain(aggregate)
	return map[string]any{
		"status":      dto.Status,
		"driver_id":   dto.DriverID,
		"driver_name": dto.DriverName,
		"assigned_at": dto.AssignedAt,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	customer, err := order.NewCustomer(dto.CustomerName, dto.CustomerPhone)
	if err != nil {
		return nil, err
	}

	var pin *kernel.Location
	if dto.Destination.Latitude != nil && dto.Destination.Longitude != nil {
		loc, locErr := kernel.NewLocation(*dto.Destination.Latitude, *dto.Destination.Longitude)
		if locErr != nil {
			return nil, locErr
		}
		pin = &loc
	}

	destination, err := order.NewDestination(dto.Destination.Address, pin)
	if err != nil {
		return nil, err
	}

	items := make([]order.Item, 0, len(dto.Items))
	for _, itemDto := range dto.Items {
		item, itemErr := order.NewItem(itemDto.ProductID, itemDto.Name, itemDto.Quantity, itemDto.UnitPrice)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	var driver *order.DriverRef
	if dto.DriverID != nil {
		driverID, driverErr := kernel.UUIDFromBytes((*dto.DriverID)[:])
		if driverErr != nil {
			return nil, driverErr
		}

		var name string
		if dto.DriverName != nil {
			name = *dto.DriverName
		}

		ref, refErr := order.NewDriverRef(driverID, name)
		if refErr != nil {
			return nil, refErr
		}
		driver = &ref
	}

	return order.RestoreOrder(
		id,
		customer,
		destination,
		items,
		order.PaymentMethod(dto.PaymentMethod),
		dto.Notes,
		order.Status(dto.Status),
		driver,
		dto.CreatedAt,
		dto.AssignedAt,
	)
}
