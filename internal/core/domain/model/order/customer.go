package order

import (
	"errors"
	"fmt"
	"strings"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/pkg/errs"
	"gasdelivery/internal/pkg/guard"
)

var (
	ErrCustomerIsNotConstructed    = errs.NewValueIsRequiredError("customer must be created via NewCustomer constructor")
	ErrDestinationIsNotConstructed = errs.NewValueIsRequiredError("destination must be created via NewDestination constructor")
	ErrDriverRefIsNotConstructed   = errs.NewValueIsRequiredError("driver reference must be created via NewDriverRef constructor")
)

// PaymentMethod tags how the driver collects payment at the door. Payment
// itself is handled outside this service.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentMobileMoney PaymentMethod = "mobile_money"
)

func (p PaymentMethod) Validate() error {
	switch p {
	case PaymentCash, PaymentMobileMoney:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("payment method is invalid", fmt.Errorf("%q is not supported", string(p)))
	}
}

// Customer is the contact the driver calls on arrival.
type Customer struct { //nolint:recvcheck //using for validation
	name  string
	phone string
	guard guard.ConstructorGuard
}

func NewCustomer(name, phone string) (Customer, error) {
	c := Customer{guard: guard.NewConstructorGuard()}

	if err := errors.Join(c.setName(name), c.setPhone(phone)); err != nil {
		return Customer{}, err
	}
	return c, nil
}

func (c Customer) Validate() error { return c.guard.Validate(ErrCustomerIsNotConstructed) }
func (c Customer) Name() string    { return c.name }
func (c Customer) Phone() string   { return c.phone }

func (c *Customer) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("customer name")
	}
	c.name = name
	return nil
}

func (c *Customer) setPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return errs.NewValueIsRequiredError("customer phone")
	}
	c.phone = phone
	return nil
}

// Destination is the free-text delivery address plus an optional pin. Orders
// without a pin can still be tracked but never get a route.
type Destination struct { //nolint:recvcheck //using for validation
	address  string
	location *kernel.Location
	guard    guard.ConstructorGuard
}

func NewDestination(address string, location *kernel.Location) (Destination, error) {
	d := Destination{guard: guard.NewConstructorGuard()}

	address = strings.TrimSpace(address)
	if address == "" {
		return Destination{}, errs.NewValueIsRequiredError("address")
	}
	d.address = address

	if location != nil {
		if err := location.Validate(); err != nil {
			return Destination{}, err
		}
		loc := *location
		d.location = &loc
	}
	return d, nil
}

func (d Destination) Validate() error { return d.guard.Validate(ErrDestinationIsNotConstructed) }
func (d Destination) Address() string { return d.address }

// Location returns the pin, or nil when the customer did not drop one.
func (d Destination) Location() *kernel.Location {
	if d.location == nil {
		return nil
	}
	loc := *d.location
	return &loc
}

// DriverRef is the denormalised driver linkage stored on an order: the
// driver's id plus the display name shown on tracking pages.
type DriverRef struct { //nolint:recvcheck //using for validation
	id    kernel.UUID
	name  string
	guard guard.ConstructorGuard
}

func NewDriverRef(id kernel.UUID, name string) (DriverRef, error) {
	ref := DriverRef{guard: guard.NewConstructorGuard()}
	if err := id.Validate(); err != nil {
		return DriverRef{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return DriverRef{}, errs.NewValueIsRequiredError("driver name")
	}
	ref.id = id
	ref.name = name
	return ref, nil
}

func (r DriverRef) Validate() error { return r.guard.Validate(ErrDriverRefIsNotConstructed) }
func (r DriverRef) ID() kernel.UUID { return r.id }
func (r DriverRef) Name() string    { return r.name }
