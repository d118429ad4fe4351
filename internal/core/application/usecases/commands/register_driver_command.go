package commands

import (
	"errors"
	"strings"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/pkg/guard"
)

var ErrRegisterDriverCommandIsNotConstructed = errors.New(
	"RegisterDriverCommand must be created via NewRegisterDriverCommand constructor",
)

// RegisterDriverCommand onboards a driver. The phone number doubles as the
// driver's login and initial secret.
type RegisterDriverCommand struct { //nolint:recvcheck //using for validation
	name    string
	phone   string
	vehicle string

	guard guard.ConstructorGuard
}

func NewRegisterDriverCommand(name, phone, vehicle string) (RegisterDriverCommand, error) {
	cmd := RegisterDriverCommand{
		name:    strings.TrimSpace(name),
		phone:   strings.TrimSpace(phone),
		vehicle: strings.TrimSpace(vehicle),
		guard:   guard.NewConstructorGuard(),
	}

	var err error
	if cmd.name == "" {
		err = errors.Join(err, driver.ErrNameIsRequired)
	}
	if cmd.phone == "" {
		err = errors.Join(err, driver.ErrPhoneIsRequired)
	}
	if err != nil {
		return RegisterDriverCommand{}, err
	}

	return cmd, nil
}

func (c RegisterDriverCommand) Validate() error {
	return c.guard.Validate(ErrRegisterDriverCommandIsNotConstructed)
}

func (c RegisterDriverCommand) Name() string    { return c.name }
func (c RegisterDriverCommand) Phone() string   { return c.phone }
func (c RegisterDriverCommand) Vehicle() string { return c.vehicle }
