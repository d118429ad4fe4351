package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"
)

// OrderChangedMessage is the wire form of ports.OrderChanged shared by the
// Postgres notification channel and the Kafka integration topic.
type OrderChangedMessage struct {
	OrderID    string    `json:"orderId"`
	Status     string    `json:"status"`
	DriverID   *string   `json:"driverId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PositionReportedMessage is the wire form of ports.PositionReported.
type PositionReportedMessage struct {
	DriverID   string    `json:"driverId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reportedAt"`
}

func EncodeOrderChanged(event ports.OrderChanged) ([]byte, error) {
	msg := OrderChangedMessage{
		OrderID:    event.OrderID.String(),
		Status:     event.Status.String(),
		OccurredAt: event.OccurredAt,
	}
	if event.DriverID != nil {
		id := event.DriverID.String()
		msg.DriverID = &id
	}
	return json.Marshal(msg)
}

func DecodeOrderChanged(payload []byte) (ports.OrderChanged, error) {
	var msg OrderChangedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ports.OrderChanged{}, fmt.Errorf("decode order changed: %w", err)
	}

	orderID, err := kernel.UUIDFromString(msg.OrderID)
	if err != nil {
		return ports.OrderChanged{}, err
	}
	status, err := order.ParseStatus(msg.Status)
	if err != nil {
		return ports.OrderChanged{}, err
	}

	event := ports.OrderChanged{OrderID: orderID, Status: status, OccurredAt: msg.OccurredAt}
	if msg.DriverID != nil {
		driverID, idErr := kernel.UUIDFromString(*msg.DriverID)
		if idErr != nil {
			return ports.OrderChanged{}, idErr
		}
		event.DriverID = &driverID
	}
	return event, nil
}

func EncodePositionReported(event ports.PositionReported) ([]byte, error) {
	return json.Marshal(PositionReportedMessage{
		DriverID:   event.DriverID.String(),
		Latitude:   event.Location.Latitude(),
		Longitude:  event.Location.Longitude(),
		ReportedAt: event.ReportedAt,
	})
}

func DecodePositionReported(payload []byte) (ports.PositionReported, error) {
	var msg PositionReportedMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ports.PositionReported{}, fmt.Errorf("decode position reported: %w", err)
	}

	driverID, idErr := kernel.UUIDFromString(msg.DriverID)
	location, locErr := kernel.NewLocation(msg.Latitude, msg.Longitude)
	if err := errors.Join(idErr, locErr); err != nil {
		return ports.PositionReported{}, err
	}

	return ports.PositionReported{
		DriverID:   driverID,
		Location:   location,
		ReportedAt: msg.ReportedAt,
	}, nil
}
