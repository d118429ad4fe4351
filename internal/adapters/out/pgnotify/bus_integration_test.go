package pgnotify_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"gasdelivery/internal/adapters/out/eventbus"
	"gasdelivery/internal/adapters/out/pgnotify"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type BusIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	dsn       string
	db        *gorm.DB
}

func (suite *BusIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	suite.dsn, err = container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	suite.db, err = gorm.Open(postgresdriver.Open(suite.dsn), &gorm.Config{})
	suite.Require().NoError(err)
}

func (suite *BusIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *BusIntegrationTestSuite) newBus(ctx context.Context) *pgnotify.Bus {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus, err := pgnotify.NewBus(suite.dsn, suite.db, eventbus.NewLocalBus(eventbus.DefaultBuffer), logger)
	suite.Require().NoError(err)
	go func() { _ = bus.Run(ctx) }()
	suite.T().Cleanup(func() { _ = bus.Close() })
	return bus
}

// An event published on one instance reaches subscribers of another.
func (suite *BusIntegrationTestSuite) TestPublish_ReachesOtherInstance() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := suite.newBus(ctx)
	receiver := suite.newBus(ctx)
	suite.Require().NoError(receiver.Ping())

	driverID := kernel.NewUUID()
	changes := receiver.SubscribeOrderChanges(ctx)
	positions := receiver.SubscribePositions(ctx, driverID)

	orderID := kernel.NewUUID()
	suite.Require().NoError(publisher.PublishOrderChanged(ctx, ports.OrderChanged{
		OrderID:    orderID,
		Status:     order.InProgress,
		DriverID:   &driverID,
		OccurredAt: time.Now().UTC(),
	}))

	pin, _ := kernel.NewLocation(-1.284, 36.818)
	suite.Require().NoError(publisher.PublishPositionReported(ctx, ports.PositionReported{
		DriverID:   driverID,
		Location:   pin,
		ReportedAt: time.Now().UTC(),
	}))

	select {
	case event := <-changes:
		suite.Equal(orderID, event.OrderID)
		suite.Equal(order.InProgress, event.Status)
		suite.Require().NotNil(event.DriverID)
		suite.Equal(driverID, *event.DriverID)
	case <-time.After(5 * time.Second):
		suite.Fail("order change not delivered")
	}

	select {
	case event := <-positions:
		suite.InDelta(-1.284, event.Location.Latitude(), 1e-9)
	case <-time.After(5 * time.Second):
		suite.Fail("position not delivered")
	}
}

func TestBusIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(BusIntegrationTestSuite))
}
