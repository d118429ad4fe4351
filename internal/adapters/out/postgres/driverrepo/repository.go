package driverrepo

import (
	"context"
	"errors"

	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormDriverRepository implements ports.DriverRepository using GORM.
type GormDriverRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormDriverRepository(db *gorm.DB, tracker aggregateTracker) *GormDriverRepository {
	return &GormDriverRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a newly registered driver.
func (r *GormDriverRepository) Add(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a driver by ID.
func (r *GormDriverRepository) Get(ctx context.Context, id kernel.UUID) (*driver.Driver, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto DriverDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("driver", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// UpdatePosition overwrites the position columns only. Concurrent reports
// for one driver are last-write-wins.
func (r *GormDriverRepository) UpdatePosition(ctx context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&DriverDTO{}).
		Where("id = ?", dto.ID).
		Updates(map[string]any{
			"position_latitude":    dto.Position.Latitude,
			"position_longitude":   dto.Position.Longitude,
			"position_reported_at": dto.Position.ReportedAt,
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("driver", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// GetAllAvailable returns drivers not referenced by any InProgress order,
// ordered by name.
func (r *GormDriverRepository) GetAllAvailable(ctx context.Context) ([]*driver.Driver, error) {
	var dtos []DriverDTO
	if err := r.db.WithContext(ctx).
		Table("drivers").
		Select("drivers.*").
		Joins("LEFT JOIN orders ON drivers.id = orders.driver_id AND orders.status = ?", int(order.InProgress)).
		Where("orders.driver_id IS NULL").
		Order("drivers.name, drivers.id").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	drivers := make([]*driver.Driver, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}

	return drivers, nil
}

// IsAvailable applies the GetAllAvailable rule to one driver.
func (r *GormDriverRepository) IsAvailable(ctx context.Context, id kernel.UUID) (bool, error) {
	if err := id.Validate(); err != nil {
		return false, err
	}

	var row struct {
		Known bool
		Busy  bool
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			EXISTS (SELECT 1 FROM drivers WHERE id = ?) AS known,
			EXISTS (SELECT 1 FROM orders WHERE driver_id = ? AND status = ?) AS busy`,
		id.Bytes(), id.Bytes(), int(order.InProgress)).Scan(&row).Error
	if err != nil {
		return false, err
	}

	if !row.Known {
		return false, errs.NewObjectNotFoundError("driver", id.String())
	}
	return !row.Busy, nil
}
