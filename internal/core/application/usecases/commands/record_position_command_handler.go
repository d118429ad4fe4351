package commands

import (
	"context"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
)

// PositionChange describes a stored position report.
type PositionChange struct {
	DriverID   kernel.UUID
	Location   kernel.Location
	ReportedAt time.Time

	// MovedMeters is the distance from the previous position. It is zero
	// for a first report, which First marks.
	MovedMeters float64
	First       bool
}

// RecordPositionCommandHandler overwrites the driver's last known position.
// Concurrent reports for one driver are last-write-wins.
type RecordPositionCommandHandler struct {
	uowFactory DriverUoWFactory
	now        func() time.Time
}

func NewRecordPositionCommandHandler(uowFactory DriverUoWFactory) RecordPositionCommandHandler {
	return RecordPositionCommandHandler{
		uowFactory: uowFactory,
		now:        time.Now,
	}
}

func (h RecordPositionCommandHandler) Handle(ctx context.Context, cmd RecordPositionCommand) (PositionChange, error) {
	if err := cmd.Validate(); err != nil {
		return PositionChange{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return PositionChange{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	driverRepo := uow.DriverRepository()

	reporter, err := driverRepo.Get(ctx, cmd.DriverID())
	if err != nil {
		return PositionChange{}, err
	}

	moved, hadPosition, err := reporter.DistanceMovedTo(cmd.Location())
	if err != nil {
		return PositionChange{}, err
	}

	// Stored and published times must compare equal after a round trip
	// through Postgres, which keeps microseconds.
	reportedAt := h.now().UTC().Truncate(time.Microsecond)
	if err = reporter.RecordPosition(cmd.Location(), reportedAt); err != nil {
		return PositionChange{}, err
	}

	if err = driverRepo.UpdatePosition(ctx, reporter); err != nil {
		return PositionChange{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return PositionChange{}, err
	}

	return PositionChange{
		DriverID:    reporter.ID(),
		Location:    cmd.Location(),
		ReportedAt:  reportedAt,
		MovedMeters: moved,
		First:       !hadPosition,
	}, nil
}
