package commands

import (
	"errors"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/pkg/guard"
)

var ErrRecordPositionCommandIsNotConstructed = errors.New(
	"RecordPositionCommand must be created via NewRecordPositionCommand constructor",
)

// RecordPositionCommand stores a driver's reported coordinate.
type RecordPositionCommand struct { //nolint:recvcheck //using for validation
	driverID kernel.UUID
	location kernel.Location

	guard guard.ConstructorGuard
}

func NewRecordPositionCommand(driverID kernel.UUID, latitude, longitude float64) (RecordPositionCommand, error) {
	location, err := kernel.NewLocation(latitude, longitude)
	if err = errors.Join(driverID.Validate(), err); err != nil {
		return RecordPositionCommand{}, err
	}

	return RecordPositionCommand{
		driverID: driverID,
		location: location,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c RecordPositionCommand) Validate() error {
	return c.guard.Validate(ErrRecordPositionCommandIsNotConstructed)
}

func (c RecordPositionCommand) DriverID() kernel.UUID     { return c.driverID }
func (c RecordPositionCommand) Location() kernel.Location { return c.location }
