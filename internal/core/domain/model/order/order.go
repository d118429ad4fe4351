package order

import (
	"errors"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	// ErrItemsAreRequired is returned for an order with an empty basket.
	ErrItemsAreRequired = errs.NewValueIsRequiredError("items")
)

// Order is the aggregate root of a customer's gas purchase. It owns the
// lifecycle state machine and the driver linkage.
//
// Order follows these invariants:
//   - Items, total and customer details never change after creation
//   - Status changes only along the edges described on Status
//   - A driver is linked exactly when the status requires one (see
//     Status.ValidateCanHaveDriver)
//   - assignedAt is set together with the driver on assignment
//
// Orders are never deleted by the normal flow; terminal orders stay queryable.
type Order struct {
	id          kernel.UUID
	customer    Customer
	destination Destination
	items       []Item
	total       int64
	payment     PaymentMethod
	notes       string
	status      Status
	driver      *DriverRef
	createdAt   time.Time
	assignedAt  *time.Time

	isConstructed bool
}

// NewOrder places a Pending order with no driver.
//
// Example:
//
//	customer, _ := order.NewCustomer("Amina", "+254700000001")
//	pin, _ := kernel.NewLocation(-1.283, 36.817)
//	dest, _ := order.NewDestination("Moi Avenue 12", &pin)
//	cylinder, _ := order.NewItem("lpg-13kg", "13kg LPG refill", 1, 310000)
//	o, err := order.NewOrder(kernel.NewUUID(), customer, dest,
//	    []order.Item{cylinder}, order.PaymentCash, "", time.Now())
//
// Every invalid argument is reported in a single joined error.
func NewOrder(
	id kernel.UUID,
	customer Customer,
	destination Destination,
	items []Item,
	payment PaymentMethod,
	notes string,
	createdAt time.Time,
) (*Order, error) {
	order := &Order{
		status:        Pending,
		notes:         notes,
		createdAt:     createdAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		order.setID(id),
		order.setCustomer(customer),
		order.setDestination(destination),
		order.setItems(items),
		order.setPayment(payment),
	); err != nil {
		return nil, err
	}

	return order, nil
}

// RestoreOrder rebuilds an order from storage. Unlike NewOrder it accepts any
// valid status but still enforces the driver linkage invariant, so corrupt
// rows surface as errors instead of silently loaded aggregates.
func RestoreOrder(
	id kernel.UUID,
	customer Customer,
	destination Destination,
	items []Item,
	payment PaymentMethod,
	notes string,
	status Status,
	driver *DriverRef,
	createdAt time.Time,
	assignedAt *time.Time,
) (*Order, error) {
	order, err := NewOrder(id, customer, destination, items, payment, notes, createdAt)
	if err != nil {
		return nil, err
	}

	if err = errors.Join(status.Validate(), status.ValidateCanHaveDriver(driver != nil)); err != nil {
		return nil, err
	}

	if driver != nil {
		if err = driver.Validate(); err != nil {
			return nil, err
		}
		ref := *driver
		order.driver = &ref
	}

	if assignedAt != nil {
		at := assignedAt.UTC()
		order.assignedAt = &at
	}

	order.status = status
	return order, nil
}

// Validate ensures the Order was built by a constructor.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID          { return o.id }
func (o *Order) Customer() Customer       { return o.customer }
func (o *Order) Destination() Destination { return o.destination }
func (o *Order) Payment() PaymentMethod   { return o.payment }
func (o *Order) Notes() string            { return o.notes }
func (o *Order) Status() Status           { return o.status }
func (o *Order) CreatedAt() time.Time     { return o.createdAt }
func (o *Order) Total() int64             { return o.total }
func (o *Order) Items() []Item            { return append([]Item(nil), o.items...) }
func (o *Order) AssignedAt() *time.Time   { return copyTime(o.assignedAt) }
func (o *Order) Driver() *DriverRef       { return copyDriver(o.driver) }

// HasDriver reports whether id is the linked driver.
func (o *Order) HasDriver(id kernel.UUID) bool {
	return o.driver != nil && o.driver.ID().IsEqual(id)
}

// Assign links the driver and moves the order to InProgress. Driver
// availability is not checked here; it depends on other orders and is
// enforced by the store.
func (o *Order) Assign(driver DriverRef, at time.Time) error {
	if err := driver.Validate(); err != nil {
		return err
	}

	newStatus, err := o.status.Assign()
	if err != nil {
		return err
	}

	assignedAt := at.UTC()
	o.status = newStatus
	o.driver = &driver
	o.assignedAt = &assignedAt
	return nil
}

// Cancel declines a Pending order.
func (o *Order) Cancel() error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// ConfirmDelivery completes an InProgress order. The driver stays linked.
func (o *Order) ConfirmDelivery() error {
	newStatus, err := o.status.ConfirmDelivery()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// ReportFailure declines an InProgress order. The driver stays linked so the
// failure can be attributed.
func (o *Order) ReportFailure() error {
	newStatus, err := o.status.ReportFailure()
	if err != nil {
		return err
	}

	o.status = newStatus
	return nil
}

// Transition applies target from the current status. A driver is required
// for InProgress and ignored otherwise.
func (o *Order) Transition(target Status, driver *DriverRef, at time.Time) error {
	switch {
	case target == InProgress:
		if driver == nil {
			return errs.NewValueIsRequiredError("driver")
		}
		return o.Assign(*driver, at)
	case target == Delivered:
		return o.ConfirmDelivery()
	case target == Declined && o.status == Pending:
		return o.Cancel()
	case target == Declined:
		return o.ReportFailure()
	default:
		return &TransitionError{From: o.status, To: target}
	}
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomer(customer Customer) error {
	if err := customer.Validate(); err != nil {
		return err
	}
	o.customer = customer
	return nil
}

func (o *Order) setDestination(destination Destination) error {
	if err := destination.Validate(); err != nil {
		return err
	}
	o.destination = destination
	return nil
}

func (o *Order) setItems(items []Item) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}

	var total int64
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		total += item.Subtotal()
	}

	o.items = append([]Item(nil), items...)
	o.total = total
	return nil
}

func (o *Order) setPayment(payment PaymentMethod) error {
	if err := payment.Validate(); err != nil {
		return err
	}
	o.payment = payment
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyDriver(d *DriverRef) *DriverRef {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}
