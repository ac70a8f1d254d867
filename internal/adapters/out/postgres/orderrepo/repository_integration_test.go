package orderrepo_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const tenantID = "sede-miraflores"

// immediateTracker marks every written aggregate persisted at once, the way
// the unit of work does outside a transaction.
type immediateTracker struct{}

func (immediateTracker) TrackAggregate(_ string, aggregate any) {
	if p, ok := aggregate.(interface{ MarkPersisted() }); ok {
		p.MarkPersisted()
	}
}

type OrderRepositoryIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	repo      *orderrepo.GormOrderRepository
}

func TestOrderRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(OrderRepositoryIntegrationTestSuite))
}

func (s *OrderRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(30*time.Second)),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(db.AutoMigrate(&orderrepo.OrderDTO{}))
	s.repo = orderrepo.NewGormOrderRepository(db, immediateTracker{})
}

func (s *OrderRepositoryIntegrationTestSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE TABLE orders").Error)
}

func (s *OrderRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(context.Background()))
	}
}

func (s *OrderRepositoryIntegrationTestSuite) actor(id string, role actor.Role) actor.Actor {
	tenant := tenantID
	if role == actor.RoleCustomer {
		tenant = ""
	}
	a, err := actor.NewActor(id, role, tenant)
	s.Require().NoError(err)
	return a
}

func (s *OrderRepositoryIntegrationTestSuite) newOrder(customerID string, createdAt time.Time) *order.Order {
	burger, err := order.NewLineItem("p-1", "Burger", kernel.MustMoney("28.40"), 2)
	s.Require().NoError(err)
	soda, err := order.NewLineItem("p-2", "Inca Kola", kernel.MustMoney("4.50"), 1)
	s.Require().NoError(err)

	o, _, err := order.NewOrder(order.NewOrderParams{
		ID:            kernel.NewUUID(),
		TenantID:      tenantID,
		CustomerID:    customerID,
		Items:         []order.LineItem{burger, soda},
		DeliveryFee:   kernel.MustMoney("5.00"),
		Currency:      "PEN",
		Address:       order.Address{Street: "Av. Larco 123", District: "Miraflores"},
		PaymentMethod: "card",
		PaymentStatus: order.PaymentPaid,
		Notes:         "no onions",
		Customer:      s.actor(customerID, actor.RoleCustomer),
		Now:           createdAt,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Add(s.T().Context(), o))
	return o
}

// advance drives a stored order to READY, storing every step.
func (s *OrderRepositoryIntegrationTestSuite) advanceToReady(o *order.Order, at time.Time) {
	ctx := s.T().Context()
	chef := s.actor("chef-1", actor.RoleKitchenStaff)

	_, err := o.Transition(chef, order.StatusCooking, order.Patch{}, at)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Update(ctx, o))

	_, err = o.Transition(chef, order.StatusReady, order.Patch{}, at)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Update(ctx, o))
}

func (s *OrderRepositoryIntegrationTestSuite) TestAddAndGet() {
	created := s.newOrder("cust-1", time.Now())

	got, err := s.repo.Get(s.T().Context(), created.ID())
	s.Require().NoError(err)

	s.True(created.ID().IsEqual(got.ID()))
	s.Equal(order.StatusCreated, got.Status())
	s.Equal(order.StatusCreated, got.PersistedStatus())
	s.Equal("65.80", got.Subtotal().String())
	s.Equal("70.80", got.Total().String())
	s.Equal("PEN", got.Currency())
	s.Equal(created.Address(), got.Address())
	s.Equal(order.PaymentPaid, got.PaymentStatus())
	s.Equal("no onions", got.Notes())
	s.Require().Len(got.Items(), 2)
	s.Equal("Inca Kola", got.Items()[1].Name())
	s.Require().Len(got.History(), 1)
	s.Equal(actor.RoleCustomer, got.History()[0].ActorRole)
	s.False(got.Processed())
}

func (s *OrderRepositoryIntegrationTestSuite) TestAddDuplicateIsConflict() {
	created := s.newOrder("cust-1", time.Now())

	clone, err := order.Restore(created.Snapshot())
	s.Require().NoError(err)
	s.Require().ErrorIs(s.repo.Add(s.T().Context(), clone), errs.ErrConflict)
}

func (s *OrderRepositoryIntegrationTestSuite) TestGetUnknownIsNotFound() {
	_, err := s.repo.Get(s.T().Context(), kernel.NewUUID())
	s.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (s *OrderRepositoryIntegrationTestSuite) TestUpdateIsConditionalOnStatus() {
	ctx := s.T().Context()
	created := s.newOrder("cust-1", time.Now())

	first, err := s.repo.Get(ctx, created.ID())
	s.Require().NoError(err)
	second, err := s.repo.Get(ctx, created.ID())
	s.Require().NoError(err)

	_, err = first.Transition(s.actor("chef-1", actor.RoleKitchenStaff), order.StatusCooking, order.Patch{}, time.Now())
	s.Require().NoError(err)
	_, err = second.Transition(s.actor("cust-1", actor.RoleCustomer), order.StatusCancelled, order.Patch{}, time.Now())
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Update(ctx, first))
	s.Require().ErrorIs(s.repo.Update(ctx, second), errs.ErrConflict)

	stored, err := s.repo.Get(ctx, created.ID())
	s.Require().NoError(err)
	s.Equal(order.StatusCooking, stored.Status())
	s.Equal("chef-1", stored.KitchenStaffID())
	s.Len(stored.History(), 2)
}

func (s *OrderRepositoryIntegrationTestSuite) TestUpdateUnknownIsNotFound() {
	ghost, err := order.Restore(order.Snapshot{
		ID:         kernel.NewUUID(),
		TenantID:   tenantID,
		CustomerID: "cust-1",
		Status:     order.StatusCreated,
	})
	s.Require().NoError(err)
	_, err = ghost.Transition(s.actor("cust-1", actor.RoleCustomer), order.StatusCancelled, order.Patch{}, time.Now())
	s.Require().NoError(err)

	s.Require().ErrorIs(s.repo.Update(s.T().Context(), ghost), errs.ErrObjectNotFound)
}

func (s *OrderRepositoryIntegrationTestSuite) TestListByCustomerNewestFirst() {
	ctx := s.T().Context()
	now := time.Now()
	older := s.newOrder("cust-1", now.Add(-time.Hour))
	newer := s.newOrder("cust-1", now)
	s.newOrder("cust-2", now)

	found, err := s.repo.ListByCustomer(ctx, "cust-1")
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.True(newer.ID().IsEqual(found[0].ID()))
	s.True(older.ID().IsEqual(found[1].ID()))

	none, err := s.repo.ListByCustomer(ctx, "nobody")
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *OrderRepositoryIntegrationTestSuite) TestListReadyUnassignedOldestFirst() {
	ctx := s.T().Context()
	now := time.Now()

	late := s.newOrder("cust-1", now)
	s.advanceToReady(late, now.Add(2*time.Minute))
	early := s.newOrder("cust-2", now)
	s.advanceToReady(early, now.Add(time.Minute))
	s.newOrder("cust-3", now)

	assigned := s.newOrder("cust-4", now)
	s.advanceToReady(assigned, now)
	_, err := assigned.Transition(s.actor("drv-1", actor.RoleDriver), order.StatusDelivering, order.Patch{}, now)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.Update(ctx, assigned))

	found, err := s.repo.ListReadyUnassigned(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.True(early.ID().IsEqual(found[0].ID()))
	s.True(late.ID().IsEqual(found[1].ID()))

	limited, err := s.repo.ListReadyUnassigned(ctx, 1)
	s.Require().NoError(err)
	s.Len(limited, 1)
}

func (s *OrderRepositoryIntegrationTestSuite) TestMarkProcessed() {
	ctx := s.T().Context()
	created := s.newOrder("cust-1", time.Now())

	s.Require().NoError(s.repo.MarkProcessed(ctx, created.ID(), time.Now()))
	s.Require().NoError(s.repo.MarkProcessed(ctx, created.ID(), time.Now()))

	got, err := s.repo.Get(ctx, created.ID())
	s.Require().NoError(err)
	s.True(got.Processed())

	s.Require().ErrorIs(s.repo.MarkProcessed(ctx, kernel.NewUUID(), time.Now()), errs.ErrObjectNotFound)
}

func (s *OrderRepositoryIntegrationTestSuite) TestStoreFailureIsUnavailable() {
	created := s.newOrder("cust-1", time.Now())

	ctx, cancel := context.WithCancel(s.T().Context())
	cancel()

	_, err := s.repo.Get(ctx, created.ID())
	s.Require().ErrorIs(err, errs.ErrDownstreamUnavailable)

	_, err = s.repo.ListByCustomer(ctx, "cust-1")
	s.Require().ErrorIs(err, errs.ErrDownstreamUnavailable)
}
