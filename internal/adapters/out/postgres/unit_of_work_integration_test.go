package postgres_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	postgres_adapter "gasdelivery/internal/adapters/out/postgres"
	"gasdelivery/internal/core/domain/model/driver"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/domain/model/order"
	"gasdelivery/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishOrderChanged(ctx context.Context, event ports.OrderChanged) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) PublishPositionReported(ctx context.Context, event ports.PositionReported) error {
	return m.Called(ctx, event).Error(0)
}

// UnitOfWorkIntegrationTestSuite runs the unit of work against a schema
// created by the embedded migrations.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	publisher *MockPublisher
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{TranslateError: true})
	suite.Require().NoError(err)
	suite.db = db

	sqlDB, err := db.DB()
	suite.Require().NoError(err)
	suite.Require().NoError(postgres_adapter.Migrate(sqlDB))
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE orders, order_items, drivers").Error)

	suite.publisher = new(MockPublisher)
	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(suite.db, suite.publisher,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestMigrate_IsIdempotent() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)

	suite.Require().NoError(postgres_adapter.Migrate(sqlDB))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "Multiple begin calls should be safe")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))

	suite.Require().Error(uow.Commit(ctx), "Should error when committing without active transaction")
	suite.Require().Error(uow.Rollback(ctx), "Should error when rolling back without active transaction")
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_CommitPublishesChanges() {
	ctx := context.Background()
	testOrder := createTestOrder()
	testDriver := createTestDriver()
	pin, _ := kernel.NewLocation(-1.283, 36.817)
	suite.Require().NoError(testDriver.RecordPosition(pin, time.Now()))

	mock.InOrder(
		suite.publisher.On("PublishOrderChanged", mock.Anything, mock.MatchedBy(func(e ports.OrderChanged) bool {
			return e.OrderID == testOrder.ID() && e.Status == order.Pending
		})).Return(nil).Once(),
		suite.publisher.On("PublishPositionReported", mock.Anything, mock.MatchedBy(func(e ports.PositionReported) bool {
			return e.DriverID == testDriver.ID()
		})).Return(nil).Once(),
	)

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	suite.Require().NoError(uow.DriverRepository().Add(ctx, testDriver))
	suite.Require().NoError(uow.Commit(ctx))

	suite.publisher.AssertExpectations(suite.T())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_PublishFailureDoesNotFailCommit() {
	ctx := context.Background()
	testOrder := createTestOrder()
	suite.publisher.On("PublishOrderChanged", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	suite.Require().NoError(uow.Commit(ctx))

	_, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RollbackDiscardsWritesAndEvents() {
	ctx := context.Background()
	testOrder := createTestOrder()
	testDriver := createTestDriver()

	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	suite.Require().NoError(uow.DriverRepository().Add(ctx, testDriver))

	_, err := uow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	suite.Require().NoError(uow.Rollback(ctx))

	newUow := suite.factory.Create()
	_, err = newUow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().Error(err, "Order should not exist after rollback")
	_, err = newUow.DriverRepository().Get(ctx, testDriver.ID())
	suite.Require().Error(err, "Driver should not exist after rollback")

	suite.publisher.AssertNotCalled(suite.T(), "PublishOrderChanged", mock.Anything, mock.Anything)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RepositoryIsolation() {
	ctx := context.Background()
	suite.publisher.On("PublishOrderChanged", mock.Anything, mock.Anything).Return(nil)

	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()
	order1 := createTestOrder()
	order2 := createTestOrder()

	suite.Require().NoError(uow1.Begin(ctx))
	suite.Require().NoError(uow2.Begin(ctx))
	suite.Require().NoError(uow1.OrderRepository().Add(ctx, order1))
	suite.Require().NoError(uow2.OrderRepository().Add(ctx, order2))

	_, err := uow1.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "UOW1 should not see order2")
	_, err = uow2.OrderRepository().Get(ctx, order1.ID())
	suite.Require().Error(err, "UOW2 should not see order1")

	suite.Require().NoError(uow1.Commit(ctx))
	suite.Require().NoError(uow2.Rollback(ctx))

	newUow := suite.factory.Create()
	_, err = newUow.OrderRepository().Get(ctx, order1.ID())
	suite.Require().NoError(err, "Order1 should persist after commit")
	_, err = newUow.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "Order2 should not persist after rollback")
}

// One driver is assigned to two orders from two concurrent transactions.
// The partial unique index lets exactly one of them commit.
func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_ConcurrentAssignmentOfOneDriver() {
	ctx := context.Background()
	suite.publisher.On("PublishOrderChanged", mock.Anything, mock.Anything).Return(nil)
	suite.publisher.On("PublishPositionReported", mock.Anything, mock.Anything).Return(nil)

	testDriver := createTestDriver()
	order1, order2 := createTestOrder(), createTestOrder()
	seed := suite.factory.Create()
	suite.Require().NoError(seed.Begin(ctx))
	suite.Require().NoError(seed.DriverRepository().Add(ctx, testDriver))
	suite.Require().NoError(seed.OrderRepository().Add(ctx, order1))
	suite.Require().NoError(seed.OrderRepository().Add(ctx, order2))
	suite.Require().NoError(seed.Commit(ctx))

	ref, _ := order.NewDriverRef(testDriver.ID(), testDriver.Name())
	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, target := range []*order.Order{order1, order2} {
		wg.Add(1)
		go func(o *order.Order) {
			defer wg.Done()
			uow := suite.factory.Create()
			if err := uow.Begin(ctx); err != nil {
				results <- err
				return
			}
			defer func() { _ = uow.Rollback(ctx) }()

			if err := o.Assign(ref, time.Now()); err != nil {
				results <- err
				return
			}
			if err := uow.OrderRepository().UpdateStatus(ctx, o, order.Pending); err != nil {
				results <- err
				return
			}
			results <- uow.Commit(ctx)
		}(target)
	}
	wg.Wait()
	close(results)

	var succeeded, busy int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ports.ErrDriverBusy):
			busy++
		default:
			suite.Failf("unexpected error", "%v", err)
		}
	}
	suite.Equal(1, succeeded)
	suite.Equal(1, busy)

	available, err := suite.factory.Create().DriverRepository().IsAvailable(ctx, testDriver.ID())
	suite.Require().NoError(err)
	suite.False(available)
}

func createTestOrder() *order.Order {
	customer, _ := order.NewCustomer("Amina", "+254700000001")
	pin, _ := kernel.NewLocation(-1.283, 36.817)
	destination, _ := order.NewDestination("Moi Avenue 12", &pin)
	item, _ := order.NewItem("lpg-13kg", "13kg LPG refill", 1, 310000)
	testOrder, _ := order.NewOrder(kernel.NewUUID(), customer, destination, []order.Item{item}, order.PaymentCash, "", time.Now())
	return testOrder
}

func createTestDriver() *driver.Driver {
	testDriver, _ := driver.NewDriver(kernel.NewUUID(), "Otieno", "+254711000000", "KDA 123A")
	return testDriver
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
