package driver

import (
	"errors"
	"strings"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/pkg/errs"
	"gasdelivery/internal/pkg/guard"
)

// Role is the identity-provider role tag granted to registered drivers.
const Role = "driver"

var (
	ErrNameIsRequired         = errs.NewValueIsRequiredError("name")
	ErrPhoneIsRequired        = errs.NewValueIsRequiredError("phone")
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver constructor")
)

// Driver is the aggregate root for a delivery driver.
//
// Key responsibilities:
//   - Holding the profile shown to administrators and customers
//   - Keeping the single latest reported position (no history)
//
// Business rules:
//   - Name and phone are required; vehicle is free text and may be empty
//   - Position reports overwrite each other in receipt order, last write wins
//   - A driver without any report has no position
type Driver struct {
	id                 kernel.UUID
	name               string
	phone              string
	vehicle            string
	position           *kernel.Location
	positionReportedAt *time.Time
	guard              guard.ConstructorGuard
}

// NewDriver creates a driver profile with no position.
//
//	id, _ := kernel.UUIDFromString(identityUserID)
//	d, err := driver.NewDriver(id, "Otieno", "+254711000002", "Motorbike KMEA 123A")
func NewDriver(id kernel.UUID, name, phone, vehicle string) (*Driver, error) {
	d := &Driver{
		vehicle: strings.TrimSpace(vehicle),
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		d.setID(id),
		d.setName(name),
		d.setPhone(phone),
	); err != nil {
		return nil, err
	}

	return d, nil
}

// RestoreDriver rebuilds a driver from storage. position and reportedAt must
// be both set or both nil.
func RestoreDriver(
	id kernel.UUID,
	name, phone, vehicle string,
	position *kernel.Location,
	reportedAt *time.Time,
) (*Driver, error) {
	d, err := NewDriver(id, name, phone, vehicle)
	if err != nil {
		return nil, err
	}

	if (position == nil) != (reportedAt == nil) {
		return nil, errs.NewValueIsInvalidError("position and report time must be set together")
	}

	if position != nil {
		if err = d.RecordPosition(*position, *reportedAt); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// Validate ensures the driver was built by a constructor.
func (d *Driver) Validate() error {
	if d == nil {
		return ErrDriverIsNotConstructed
	}
	return d.guard.Validate(ErrDriverIsNotConstructed)
}

func (d *Driver) ID() kernel.UUID { return d.id }
func (d *Driver) Name() string    { return d.name }
func (d *Driver) Phone() string   { return d.phone }
func (d *Driver) Vehicle() string { return d.vehicle }

// Position returns the last reported location, or nil before the first report.
func (d *Driver) Position() *kernel.Location {
	if d.position == nil {
		return nil
	}
	p := *d.position
	return &p
}

// PositionReportedAt returns when Position was received.
func (d *Driver) PositionReportedAt() *time.Time {
	if d.positionReportedAt == nil {
		return nil
	}
	t := *d.positionReportedAt
	return &t
}

// RecordPosition overwrites the last known position. No plausibility checks
// are made beyond the coordinate ranges enforced by kernel.Location.
func (d *Driver) RecordPosition(location kernel.Location, at time.Time) error {
	if err := location.Validate(); err != nil {
		return err
	}

	reportedAt := at.UTC()
	d.position = &location
	d.positionReportedAt = &reportedAt
	return nil
}

// DistanceMovedTo returns how far location is from the current position in
// meters. ok is false when the driver has never reported.
func (d *Driver) DistanceMovedTo(location kernel.Location) (meters float64, ok bool, err error) {
	if d.position == nil {
		return 0, false, nil
	}
	meters, err = d.position.DistanceTo(location)
	if err != nil {
		return 0, false, err
	}
	return meters, true, nil
}

func (d *Driver) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	d.id = id
	return nil
}

func (d *Driver) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}
	d.name = name
	return nil
}

func (d *Driver) setPhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ErrPhoneIsRequired
	}
	d.phone = phone
	return nil
}
