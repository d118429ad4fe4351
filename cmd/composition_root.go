package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	httpin "gasdelivery/internal/adapters/in/http"
	kafkain "gasdelivery/internal/adapters/in/kafka"
	"gasdelivery/internal/adapters/out/eventbus"
	"gasdelivery/internal/adapters/out/identity"
	kafkaout "gasdelivery/internal/adapters/out/kafka"
	"gasdelivery/internal/adapters/out/llm"
	"gasdelivery/internal/adapters/out/memory"
	"gasdelivery/internal/adapters/out/osrm"
	"gasdelivery/internal/adapters/out/pgnotify"
	"gasdelivery/internal/adapters/out/postgres"
	"gasdelivery/internal/adapters/out/postgres/driverrepo"
	"gasdelivery/internal/adapters/out/postgres/orderrepo"
	"gasdelivery/internal/core/application/notification"
	"gasdelivery/internal/core/application/routing"
	"gasdelivery/internal/core/application/tracking"
	"gasdelivery/internal/core/application/usecases/commands"
	"gasdelivery/internal/core/application/usecases/queries"
	"gasdelivery/internal/core/domain/model/kernel"
	"gasdelivery/internal/core/ports"
	"gasdelivery/internal/jobs"

	"github.com/IBM/sarama"
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type (
	orderStore interface {
		tracking.OrderReader
	}

	driverStore interface {
		queries.DriverReader
	}
)

// CompositionRoot owns every long-lived component of the service.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	gormDB     *gorm.DB
	changeFeed *pgnotify.Bus
	localBus   *eventbus.LocalBus
	events     ports.EventSubscriber
	uowFactory ports.UnitOfWorkFactory
	orders     orderStore
	drivers    driverStore

	identity *identity.Provider
	tokens   *identity.Tokens

	producer      sarama.SyncProducer
	checkoutGroup sarama.ConsumerGroup
	checkout      *kafkain.CheckoutConsumer

	advisor      *routing.Advisor
	notifier     *notification.AsyncNotifier
	locationSync *tracking.LocationSync
	orderFeed    *tracking.OrderFeed
}

func NewCompositionRoot(cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &CompositionRoot{
		cfg:      cfg,
		logger:   logger,
		localBus: eventbus.NewLocalBus(eventbus.DefaultBuffer),
	}

	if err := c.openKafka(); err != nil {
		c.Close(context.Background())
		return nil, err
	}
	if err := c.openStorage(); err != nil {
		c.Close(context.Background())
		return nil, err
	}

	c.advisor = routing.NewAdvisor(
		osrm.NewClient(&http.Client{}, osrm.Config{BaseURL: cfg.RoutingURL}),
		c.orders,
		c.drivers,
		cfg.RoutingTimeout,
		logger,
	)
	c.notifier = notification.NewAsyncNotifier(c.newDeliveryNotifier(), logger)
	c.locationSync = tracking.NewLocationSync(
		c.CreateRecordPositionCommandHandler(),
		c.orders,
		c.drivers,
		c.events,
		c.advisor,
		logger,
	)
	c.orderFeed = tracking.NewOrderFeed(c.orders, c.events, logger)

	if c.checkoutGroup != nil {
		c.checkout = kafkain.NewCheckoutConsumer(
			c.checkoutGroup,
			cfg.KafkaCheckoutConfirmedTopic,
			c.CreateCreateOrderCommandHandler(),
			logger,
		)
	}

	return c, nil
}

func (c *CompositionRoot) openStorage() error {
	var publisher ports.EventPublisher = c.localBus
	if c.cfg.Storage == StorageMemory {
		store := memory.NewStore()
		c.events = c.localBus
		c.uowFactory = memory.NewUnitOfWorkFactory(store, c.withKafka(publisher), c.logger)
		c.orders = memory.NewOrderRepository(store)
		c.drivers = memory.NewDriverRepository(store)
		c.identity = identity.NewProvider(identity.NewMemoryStore(), 0)
		return c.openTokens()
	}

	dsn := c.cfg.DSN()
	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	c.gormDB = db

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if err = postgres.Migrate(sqlDB); err != nil {
		return err
	}

	c.changeFeed, err = pgnotify.NewBus(dsn, db, c.localBus, c.logger)
	if err != nil {
		return err
	}
	c.events = c.changeFeed
	publisher = c.changeFeed

	c.uowFactory = postgres.NewGormUnitOfWorkFactory(db, c.withKafka(publisher), c.logger)
	c.orders = orderrepo.NewGormOrderRepository(db, noTracking{})
	c.drivers = driverrepo.NewGormDriverRepository(db, noTracking{})
	c.identity = identity.NewProvider(identity.NewGormStore(db), 0)
	return c.openTokens()
}

func (c *CompositionRoot) openTokens() error {
	ttl := c.cfg.TokenTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	tokens, err := identity.NewTokens(c.cfg.JWTSecret, ttl)
	if err != nil {
		return err
	}
	c.tokens = tokens
	return nil
}

func (c *CompositionRoot) openKafka() error {
	brokers := c.cfg.KafkaBrokers()
	if len(brokers) == 0 {
		c.logger.Info("Kafka is not configured, integration events and checkout ingestion are disabled")
		return nil
	}

	producer, err := kafkaout.NewSyncProducer(brokers)
	if err != nil {
		return fmt.Errorf("kafka producer: %w", err)
	}
	c.producer = producer

	if c.cfg.KafkaCheckoutConfirmedTopic == "" {
		return nil
	}
	c.checkoutGroup, err = kafkain.NewConsumerGroup(brokers, c.cfg.KafkaConsumerGroup)
	if err != nil {
		return fmt.Errorf("kafka consumer group: %w", err)
	}
	return nil
}

// withKafka adds the order-changed integration topic to publisher when Kafka
// is configured.
func (c *CompositionRoot) withKafka(publisher ports.EventPublisher) ports.EventPublisher {
	if c.producer == nil || c.cfg.KafkaOrderChangedTopic == "" {
		return publisher
	}
	topic := kafkaout.NewProducer(c.producer, c.cfg.KafkaOrderChangedTopic, c.logger)
	return eventbus.Fanout{publisher, kafkaout.NewOrderEventPublisher(topic)}
}

func (c *CompositionRoot) newDeliveryNotifier() *notification.DeliveryNotifier {
	var channel ports.NotificationChannel = notification.NewLogChannel(c.logger)
	if c.producer != nil && c.cfg.KafkaNotificationsTopic != "" {
		channel = kafkaout.NewNotificationChannel(
			kafkaout.NewProducer(c.producer, c.cfg.KafkaNotificationsTopic, c.logger),
		)
	}

	var generator ports.TextGenerator
	if c.cfg.LLMURL != "" {
		generator = llm.NewClient(&http.Client{}, llm.Config{
			BaseURL: c.cfg.LLMURL,
			Model:   c.cfg.LLMModel,
			APIKey:  c.cfg.LLMAPIKey,
		})
	}

	return notification.NewDeliveryNotifier(c.orders, generator, channel, c.cfg.LLMTimeout, c.logger)
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateAssignDriverCommandHandler() commands.AssignDriverCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAssignDriverCommandHandler(f)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCancelOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateResolveOrderCommandHandler() commands.ResolveOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewResolveOrderCommandHandler(f, c.notifier)
}

func (c *CompositionRoot) CreateRegisterDriverCommandHandler() commands.RegisterDriverCommandHandler {
	var f commands.DriverUoWFactory = FuncDriverUoWFactory(func() commands.DriverUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRegisterDriverCommandHandler(f, c.identity)
}

func (c *CompositionRoot) CreateRecordPositionCommandHandler() commands.RecordPositionCommandHandler {
	var f commands.DriverUoWFactory = FuncDriverUoWFactory(func() commands.DriverUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRecordPositionCommandHandler(f)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.orders)
}

func (c *CompositionRoot) CreateGetOrdersQueryHandler() queries.GetOrdersQueryHandler {
	return queries.NewGetOrdersQueryHandler(c.orders)
}

func (c *CompositionRoot) CreateGetDriverQueryHandler() queries.GetDriverQueryHandler {
	return queries.NewGetDriverQueryHandler(c.drivers)
}

func (c *CompositionRoot) CreateGetAvailableDriversQueryHandler() queries.GetAvailableDriversQueryHandler {
	return queries.NewGetAvailableDriversQueryHandler(c.drivers, c.orders)
}

// NewHTTPServer builds the echo application serving the API.
func (c *CompositionRoot) NewHTTPServer() (*echo.Echo, error) {
	server := httpin.NewServer(
		httpin.Commands{
			CreateOrder:    c.CreateCreateOrderCommandHandler(),
			AssignDriver:   c.CreateAssignDriverCommandHandler(),
			CancelOrder:    c.CreateCancelOrderCommandHandler(),
			ResolveOrder:   c.CreateResolveOrderCommandHandler(),
			RegisterDriver: c.CreateRegisterDriverCommandHandler(),
		},
		httpin.Queries{
			GetOrder:            c.CreateGetOrderQueryHandler(),
			GetOrders:           c.CreateGetOrdersQueryHandler(),
			GetDriver:           c.CreateGetDriverQueryHandler(),
			GetAvailableDrivers: c.CreateGetAvailableDriversQueryHandler(),
		},
		c.locationSync,
		c.orderFeed,
		c.advisor,
		driverLogin{c.identity, c.tokens},
		c.logger,
	)

	auth := httpin.NewAuthenticator(
		httpin.AdminCredentials{User: c.cfg.AdminUser, Password: c.cfg.AdminPassword},
		c.tokens,
	)
	return httpin.NewEcho(server, auth, c.logger)
}

// NewJobManager schedules the housekeeping jobs.
func (c *CompositionRoot) NewJobManager() *jobs.JobManager {
	var listener jobs.Pinger
	if c.changeFeed != nil {
		listener = c.changeFeed
	}
	return jobs.NewJobManager(c.advisor, c.cfg.RouteMaxAge, listener, c.logger)
}

// Run drives the background consumers until ctx is cancelled or one of them
// fails.
func (c *CompositionRoot) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.advisor.Run(ctx, c.events)
		return nil
	})
	if c.changeFeed != nil {
		g.Go(func() error { return c.changeFeed.Run(ctx) })
	}
	if c.checkout != nil {
		g.Go(func() error { return c.checkout.Run(ctx) })
	}

	return g.Wait()
}

// Close waits for in-flight notifications and route computations, then
// releases connections. It is safe on a partially built root.
func (c *CompositionRoot) Close(ctx context.Context) {
	if c.notifier != nil {
		if err := c.notifier.Close(ctx); err != nil {
			c.logger.Warn("Notifications still in flight at shutdown", "error", err)
		}
	}
	if c.advisor != nil {
		c.advisor.Wait()
	}

	var errs []error
	if c.checkoutGroup != nil {
		errs = append(errs, c.checkoutGroup.Close())
	}
	if c.producer != nil {
		errs = append(errs, c.producer.Close())
	}
	if c.changeFeed != nil {
		errs = append(errs, c.changeFeed.Close())
	} else {
		c.localBus.Close()
	}
	if c.gormDB != nil {
		if sqlDB, err := c.gormDB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.logger.Error("Shutdown finished with errors", "error", err)
	}
}

// noTracking is the aggregate tracker of repositories used outside a unit of
// work, where nothing is published.
type noTracking struct{}

func (noTracking) TrackAggregate(kernel.UUID, any) {}

type driverLogin struct {
	*identity.Provider
	*identity.Tokens
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncDriverUoWFactory func() commands.DriverUoW

func (f FuncDriverUoWFactory) Create() commands.DriverUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
