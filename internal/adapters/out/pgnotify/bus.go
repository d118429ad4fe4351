// Package pgnotify shares the change feed between service instances through
// Postgres LISTEN/NOTIFY. Every instance publishes with pg_notify and fans
// received notifications out to its own in-process subscribers, so a driver
// reporting to one instance is seen by a customer tracking on another.
package pgnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gasdelivery/internal/adapters/out/eventbus"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	OrderChangedChannel     = "gasdelivery_order_changed"
	PositionReportedChannel = "gasdelivery_position_reported"

	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
)

// Bus is a ports.EventBus backed by Postgres notifications.
type Bus struct {
	db       *gorm.DB
	listener *pq.Listener
	local    *eventbus.LocalBus
	logger   *slog.Logger
}

// NewBus opens a dedicated LISTEN connection to dsn. Publishing goes through
// db. Call Run to start delivering notifications.
func NewBus(dsn string, db *gorm.DB, local *eventbus.LocalBus, logger *slog.Logger) (*Bus, error) {
	logger = logger.With("component", "pgnotify_bus")

	listener := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval,
		func(event pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("Listener connection event", "event", int(event), "error", err)
			}
		})

	for _, channel := range []string{OrderChangedChannel, PositionReportedChannel} {
		if err := listener.Listen(channel); err != nil {
			_ = listener.Close()
			return nil, fmt.Errorf("listen %s: %w", channel, err)
		}
	}

	return &Bus{
		db:       db,
		listener: listener,
		local:    local,
		logger:   logger,
	}, nil
}

func (b *Bus) PublishOrderChanged(ctx context.Context, event ports.OrderChanged) error {
	payload, err := eventbus.EncodeOrderChanged(event)
	if err != nil {
		return err
	}
	return b.notify(ctx, OrderChangedChannel, payload)
}

func (b *Bus) PublishPositionReported(ctx context.Context, event ports.PositionReported) error {
	payload, err := eventbus.EncodePositionReported(event)
	if err != nil {
		return err
	}
	return b.notify(ctx, PositionReportedChannel, payload)
}

func (b *Bus) SubscribeOrderChanges(ctx context.Context) <-chan ports.OrderChanged {
	return b.local.SubscribeOrderChanges(ctx)
}

func (b *Bus) SubscribePositions(ctx context.Context, driverID kernel.UUID) <-chan ports.PositionReported {
	return b.local.SubscribePositions(ctx, driverID)
}

// Run delivers notifications to local subscribers until ctx is done.
func (b *Bus) Run(ctx context.Context) error {
	b.logger.InfoContext(ctx, "Listening for change notifications")
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-b.listener.Notify:
			if !ok {
				return errors.New("pgnotify: listener closed")
			}
			if n == nil {
				// Reconnected. Notifications sent meanwhile are lost.
				b.logger.WarnContext(ctx, "Listener reconnected")
				continue
			}
			b.deliver(ctx, n)
		}
	}
}

// Ping checks the LISTEN connection.
func (b *Bus) Ping() error {
	return b.listener.Ping()
}

// Close releases the LISTEN connection and ends local subscriptions.
func (b *Bus) Close() error {
	b.local.Close()
	return b.listener.Close()
}

func (b *Bus) notify(ctx context.Context, channel string, payload []byte) error {
	return b.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", channel, string(payload)).Error
}

func (b *Bus) deliver(ctx context.Context, n *pq.Notification) {
	var err error
	switch n.Channel {
	case OrderChangedChannel:
		var event ports.OrderChanged
		if event, err = eventbus.DecodeOrderChanged([]byte(n.Extra)); err == nil {
			err = b.local.PublishOrderChanged(ctx, event)
		}
	case PositionReportedChannel:
		var event ports.PositionReported
		if event, err = eventbus.DecodePositionReported([]byte(n.Extra)); err == nil {
			err = b.local.PublishPositionReported(ctx, event)
		}
	default:
		return
	}
	if err != nil {
		b.logger.WarnContext(ctx, "Dropping malformed notification", "channel", n.Channel, "error", err)
	}
}
