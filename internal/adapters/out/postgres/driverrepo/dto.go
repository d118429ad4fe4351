// Package driverrepo maps driver aggregates to the drivers table.
package driverrepo

import (
	"time"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// DriverDTO is the persisted form of a driver. The position columns are
// either all set or all NULL.
type DriverDTO struct {
	ID       uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name     string      `gorm:"type:varchar(255);not null;index"`
	Phone    string      `gorm:"type:varchar(32);not null"`
	Vehicle  string      `gorm:"type:varchar(255);not null;default:''"`
	Position PositionDTO `gorm:"embedded;embeddedPrefix:position_"`
}

func (DriverDTO) TableName() string {
	return "drivers"
}

type PositionDTO struct {
	Latitude   *float64 `gorm:"type:double precision"`
	Longitude  *float64 `gorm:"type:double precision"`
	ReportedAt *time.Time
}

func fromDomain(aggregate *driver.Driver) DriverDTO {
	dto := DriverDTO{
		ID:      aggregate.ID().Bytes(),
		Name:    aggregate.Name(),
		Phone:   aggregate.Phone(),
		Vehicle: aggregate.Vehicle(),
	}

	if position := aggregate.Position(); position != nil {
		lat, lon := position.Latitude(), position.Longitude()
		dto.Position = PositionDTO{
			Latitude:   &lat,
			Longitude:  &lon,
			ReportedAt: aggregate.PositionReportedAt(),
		}
	}

	return dto
}

func toDomain(dto DriverDTO) (*driver.Driver, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var position *kernel.Location
	if dto.Position.Latitude != nil && dto.Position.Longitude != nil {
		loc, locErr := kernel.NewLocation(*dto.Position.Latitude, *dto.Position.Longitude)
		if locErr != nil {
			return nil, locErr
		}
		position = &loc
	}

	return driver.RestoreDriver(id, dto.Name, dto.Phone, dto.Vehicle, position, dto.Position.ReportedAt)
}
