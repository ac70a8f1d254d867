package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	amqpin "orderflow/internal/adapters/in/amqp"
	"orderflow/internal/adapters/in/auth"
	httpin "orderflow/internal/adapters/in/http"
	kafkain "orderflow/internal/adapters/in/kafka"
	"orderflow/internal/adapters/in/ws"
	kafkaout "orderflow/internal/adapters/out/kafka"
	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/rabbitmq"
	"orderflow/internal/adapters/out/redis/connectionrepo"
	"orderflow/internal/core/application/publisher"
	"orderflow/internal/core/application/router"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/jobs"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// CompositionRoot builds every adapter once and hands out the handlers,
// consumers and jobs wired to them.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	uowFactory ports.UnitOfWorkFactory
	registry   ports.ConnectionRegistry
	queue      ports.WorkQueue
	publisher  *publisher.Publisher
	hub        *ws.Hub
	verifier   auth.TokenVerifier

	// memory driver
	store         *memory.Store
	memoryBus     *memory.Channel
	memoryTopic   *memory.Channel
	memoryQueue   *memory.Queue
	memoryWorkers bool

	// postgres driver
	gormDB   *gorm.DB
	rdb      *redis.Client
	producer *kafkaout.Producer
	rabbit   *rabbitmq.Client
}

func NewCompositionRoot(cfg Config, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:      cfg,
		logger:   logger,
		verifier: auth.NewTokenVerifier(cfg.JWTSecret),
	}

	var (
		bus   ports.EventBus
		topic ports.NotificationTopic
	)
	switch cfg.StorageDriver {
	case StorageMemory:
		c.store = memory.NewStore()
		c.uowFactory = memory.NewUnitOfWorkFactory(c.store)
		c.registry = memory.NewConnectionRegistry()
		c.memoryBus = memory.NewChannel("events", logger)
		c.memoryTopic = memory.NewChannel("notifications", logger)
		c.memoryQueue = memory.NewQueue(logger)
		bus, topic, c.queue = c.memoryBus, c.memoryTopic, c.memoryQueue
	case StoragePostgres:
		if err := c.connect(); err != nil {
			c.Close()
			return nil, err
		}
		bus = c.producer
		topic = rabbitmq.NewNotificationTopic(c.rabbit)
		c.queue = rabbitmq.NewWorkQueue(c.rabbit)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	c.publisher = publisher.New(cfg.EventSource, bus, topic, logger)
	c.hub = ws.NewHub(c.CreateConnectionCommandHandler(), c.verifier, logger)

	if c.store != nil {
		c.subscribeMemoryWorkers()
	}
	return c, nil
}

func (c *CompositionRoot) connect() error {
	db, err := gorm.Open(gorm_postgres.Open(c.cfg.DSN()), &gorm.Config{
		Logger: gorm_logger.Default.LogMode(gorm_logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err = postgres.Migrate(db); err != nil {
		return fmt.Errorf("migrate postgres: %w", err)
	}
	c.gormDB = db
	c.uowFactory = postgres.NewGormUnitOfWorkFactory(db)

	c.rdb = redis.NewClient(&redis.Options{
		Addr:     c.cfg.RedisAddr,
		Password: c.cfg.RedisPassword,
		DB:       c.cfg.RedisDB,
	})
	if err = c.rdb.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	c.registry = connectionrepo.NewRedisConnectionRepository(c.rdb)

	c.producer = kafkaout.NewProducer(c.cfg.KafkaBrokers, c.cfg.KafkaEventsTopic, 0)

	c.rabbit, err = rabbitmq.Dial(rabbitmq.Config{URL: c.cfg.RabbitURL})
	if err != nil {
		return err
	}
	return c.rabbit.DeclareTopology()
}

// subscribeMemoryWorkers attaches the consumers to the in-process channels.
// Delivery is synchronous, so an OrderReady event is handled before the
// request that produced it returns.
func (c *CompositionRoot) subscribeMemoryWorkers() {
	if c.memoryWorkers {
		return
	}
	c.memoryWorkers = true

	c.memoryBus.Subscribe(c.CreateEventRouter().Route)
	c.memoryTopic.Subscribe(c.CreateNotificationRouter().Route)

	queueHandler := c.CreateProcessOrderQueueCommandHandler()
	c.memoryQueue.Consume(func(ctx context.Context, id string, body []byte) error {
		cmd, err := commands.NewProcessOrderQueueCommand([]commands.QueueMessage{{ID: id, Body: body}})
		if err != nil {
			return err
		}
		result, err := queueHandler.Handle(ctx, cmd)
		if err != nil {
			return err
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("message %s not processed", id)
		}
		return nil
	})
}

// Workers returns the long-running consumer loops of the broker-backed
// deployment. The memory driver has none.
func (c *CompositionRoot) Workers() []func(ctx context.Context) error {
	if c.store != nil {
		return nil
	}

	events := kafkain.NewConsumer(kafkain.ConsumerConfig{
		Brokers: c.cfg.KafkaBrokers,
		GroupID: c.cfg.KafkaConsumerGroup,
		Topic:   c.cfg.KafkaEventsTopic,
	}, c.CreateEventRouter(), c.logger)

	orderQueue := amqpin.NewBatchConsumer(c.rabbit, c.CreateProcessOrderQueueCommandHandler(), amqpin.BatchConfig{
		Queue:     rabbitmq.OrderQueue,
		Consumer:  "order-core",
		BatchSize: c.cfg.QueueBatchSize,
		MaxWait:   c.cfg.QueueBatchWait,
	}, c.logger)

	notifications := amqpin.NewNotificationConsumer(
		c.rabbit, rabbitmq.NotificationsExchange, c.CreateNotificationRouter(), c.logger)

	return []func(ctx context.Context) error{events.Start, orderQueue.Start, notifications.Start}
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.CheckoutUoWFactory = FuncCheckoutUoWFactory(func() commands.CheckoutUoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f, c.publisher, c.queue, commands.Pricing{
		DeliveryFee: c.cfg.DeliveryFee,
		Currency:    c.cfg.Currency,
	}, c.logger)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewTransitionOrderCommandHandler(f, c.publisher, c.logger)
}

func (c *CompositionRoot) CreateAssignDriverCommandHandler() commands.AssignDriverCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAssignDriverCommandHandler(f, services.NewDriverSelector(), c.publisher, c.logger)
}

func (c *CompositionRoot) CreateRetryDriverAssignmentsCommandHandler() commands.RetryDriverAssignmentsCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRetryDriverAssignmentsCommandHandler(f, c.CreateAssignDriverCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateProcessOrderQueueCommandHandler() commands.ProcessOrderQueueCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
	return commands.NewProcessOrderQueueCommandHandler(f, c.logger)
}

func (c *CompositionRoot) CreateConnectionCommandHandler() commands.ConnectionCommandHandler {
	return commands.NewConnectionCommandHandler(c.registry, c.cfg.ConnectionTTL, c.logger)
}

func (c *CompositionRoot) CreateBroadcastEventCommandHandler() commands.BroadcastEventCommandHandler {
	return commands.NewBroadcastEventCommandHandler(c.registry, c.hub, c.cfg.PushTimeout, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory.Create().OrderRepository())
}

func (c *CompositionRoot) CreateListCustomerOrdersQueryHandler() queries.ListCustomerOrdersQueryHandler {
	return queries.NewListCustomerOrdersQueryHandler(c.uowFactory.Create().OrderRepository())
}

func (c *CompositionRoot) CreateListConnectionsQueryHandler() queries.ListConnectionsQueryHandler {
	return queries.NewListConnectionsQueryHandler(c.registry)
}

func (c *CompositionRoot) CreateEventRouter() *router.EventRouter {
	return router.NewEventRouter(c.CreateAssignDriverCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateNotificationRouter() *router.NotificationRouter {
	return router.NewNotificationRouter(c.CreateBroadcastEventCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		jobs.NewDriverAssignmentJob(
			c.CreateRetryDriverAssignmentsCommandHandler(),
			c.cfg.DriverAssignmentSchedule,
			c.cfg.DriverAssignmentBatch,
			0,
			c.logger,
		),
	)
}

// CreateHTTPServer builds the echo instance serving the REST API and the
// WebSocket gateway.
func (c *CompositionRoot) CreateHTTPServer() (*echo.Echo, error) {
	server := httpin.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateTransitionOrderCommandHandler(),
		c.CreateAssignDriverCommandHandler(),
		c.CreateGetOrderQueryHandler(),
		c.CreateListCustomerOrdersQueryHandler(),
		c.CreateListConnectionsQueryHandler(),
	)

	opts := httpin.Options{WebSocket: c.hub.Handler(), Health: c.health}
	if c.cfg.ValidateRequests {
		doc, err := httpin.LoadOpenAPI()
		if err != nil {
			return nil, fmt.Errorf("load openapi document: %w", err)
		}
		opts.OpenAPI = doc
	}
	return httpin.NewEcho(server, c.verifier, opts)
}

// MemoryStore exposes the in-process store for seeding; nil unless the
// memory driver is selected.
func (c *CompositionRoot) MemoryStore() *memory.Store {
	return c.store
}

func (c *CompositionRoot) health(ctx echo.Context) error {
	var failures []error
	if c.gormDB != nil {
		if sqlDB, err := c.gormDB.DB(); err != nil {
			failures = append(failures, err)
		} else if err = sqlDB.PingContext(ctx.Request().Context()); err != nil {
			failures = append(failures, fmt.Errorf("postgres: %w", err))
		}
	}
	if c.rdb != nil {
		if err := c.rdb.Ping(ctx.Request().Context()).Err(); err != nil {
			failures = append(failures, fmt.Errorf("redis: %w", err))
		}
	}
	if c.rabbit != nil {
		if err := c.rabbit.Ping(); err != nil {
			failures = append(failures, fmt.Errorf("rabbitmq: %w", err))
		}
	}

	if err := errors.Join(failures...); err != nil {
		return ctx.JSON(http.StatusServiceUnavailable, httpin.Error{
			Code:    http.StatusServiceUnavailable,
			Message: err.Error(),
		})
	}
	return ctx.String(http.StatusOK, "Healthy")
}

// Close drops the open sockets and releases every client connection.
func (c *CompositionRoot) Close() {
	if c.hub != nil {
		c.hub.Close()
	}
	if c.producer != nil {
		if err := c.producer.Close(); err != nil {
			c.logger.Warn("closing kafka producer", "error", err)
		}
	}
	if c.rabbit != nil {
		c.rabbit.Close()
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	if c.gormDB != nil {
		if sqlDB, err := c.gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

type FuncCheckoutUoWFactory func() commands.CheckoutUoW

func (f FuncCheckoutUoWFactory) Create() commands.CheckoutUoW {
	return f()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
