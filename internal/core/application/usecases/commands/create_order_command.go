package commands

import (
	"errors"
	"fmt"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// OrderLine is one requested basket line as received from the storefront.
type OrderLine struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice int64
}

// CreateOrderCommand places a new Pending order. The id is chosen by the
// caller so a redelivered checkout message maps to the same order.
//
// Example:
//
//	pin, _ := kernel.NewLocation(-1.283, 36.817)
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), "Amina", "+254700000001",
//	    "Moi Avenue 12", &pin,
//	    []OrderLine{{ProductID: "lpg-13kg", Name: "13kg LPG refill", Quantity: 1, UnitPrice: 310000}},
//	    "cash", "")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID     kernel.UUID
	customer    order.Customer
	destination order.Destination
	items       []order.Item
	payment     order.PaymentMethod
	notes       string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates every field and reports all problems in
// one joined error.
func NewCreateOrderCommand(
	orderID kernel.UUID,
	customerName, customerPhone string,
	address string,
	pin *kernel.Location,
	lines []OrderLine,
	payment string,
	notes string,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		notes: notes,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setCustomer(customerName, customerPhone),
		cmd.setDestination(address, pin),
		cmd.setItems(lines),
		cmd.setPayment(payment),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID               { return c.orderID }
func (c CreateOrderCommand) Customer() order.Customer           { return c.customer }
func (c CreateOrderCommand) Destination() order.Destination     { return c.destination }
func (c CreateOrderCommand) Items() []order.Item                { return append([]order.Item(nil), c.items...) }
func (c CreateOrderCommand) PaymentMethod() order.PaymentMethod { return c.payment }
func (c CreateOrderCommand) Notes() string                      { return c.notes }

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCustomer(name, phone string) error {
	customer, err := order.NewCustomer(name, phone)
	if err != nil {
		return err
	}
	c.customer = customer
	return nil
}

func (c *CreateOrderCommand) setDestination(address string, pin *kernel.Location) error {
	destination, err := order.NewDestination(address, pin)
	if err != nil {
		return err
	}
	c.destination = destination
	return nil
}

func (c *CreateOrderCommand) setItems(lines []OrderLine) error {
	if len(lines) == 0 {
		return order.ErrItemsAreRequired
	}

	items := make([]order.Item, 0, len(lines))
	var errs []error
	for i, line := range lines {
		item, err := order.NewItem(line.ProductID, line.Name, line.Quantity, line.UnitPrice)
		if err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	c.items = items
	return nil
}

func (c *CreateOrderCommand) setPayment(payment string) error {
	method := order.PaymentMethod(payment)
	if err := method.Validate(); err != nil {
		return err
	}
	c.payment = method
	return nil
}
