package commands_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/cart"
	"orderflow/internal/core/domain/model/connection"
	"orderflow/internal/core/domain/model/driver"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/tenant"
	"orderflow/internal/core/ports"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Update(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*order.Order)
	return o, args.Error(1)
}

func (m *MockOrderRepository) ListByCustomer(ctx context.Context, customerID string) ([]*order.Order, error) {
	args := m.Called(ctx, customerID)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) ListReadyUnassigned(ctx context.Context, limit int) ([]*order.Order, error) {
	args := m.Called(ctx, limit)
	orders, _ := args.Get(0).([]*order.Order)
	return orders, args.Error(1)
}

func (m *MockOrderRepository) MarkProcessed(ctx context.Context, id kernel.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockDriverRepository struct{ mock.Mock }

func (m *MockDriverRepository) Add(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Update(ctx context.Context, d *driver.Driver) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDriverRepository) Get(ctx context.Context, id string) (*driver.Driver, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*driver.Driver)
	return d, args.Error(1)
}

func (m *MockDriverRepository) ListAvailableByTenant(ctx context.Context, tenantID string) ([]*driver.Driver, error) {
	args := m.Called(ctx, tenantID)
	drivers, _ := args.Get(0).([]*driver.Driver)
	return drivers, args.Error(1)
}

type MockTenantRepository struct{ mock.Mock }

func (m *MockTenantRepository) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*tenant.Tenant)
	return t, args.Error(1)
}

type MockCartRepository struct{ mock.Mock }

func (m *MockCartRepository) Get(ctx context.Context, customerID string) (*cart.Cart, error) {
	args := m.Called(ctx, customerID)
	c, _ := args.Get(0).(*cart.Cart)
	return c, args.Error(1)
}

func (m *MockCartRepository) Clear(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

// MockUoW satisfies every unit of work interface of the commands package.
type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

func (m *MockUoW) DriverRepository() ports.DriverRepository {
	args := m.Called()
	return args.Get(0).(ports.DriverRepository)
}

func (m *MockUoW) TenantRepository() ports.TenantRepository {
	args := m.Called()
	return args.Get(0).(ports.TenantRepository)
}

func (m *MockUoW) CartRepository() ports.CartRepository {
	args := m.Called()
	return args.Get(0).(ports.CartRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockCheckoutUoWFactory struct{ mock.Mock }

func (m *MockCheckoutUoWFactory) Create() commands.CheckoutUoW {
	args := m.Called()
	return args.Get(0).(commands.CheckoutUoW)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, e event.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, events []event.Event) ports.PublishResult {
	args := m.Called(ctx, events)
	return args.Get(0).(ports.PublishResult)
}

type MockWorkQueue struct{ mock.Mock }

func (m *MockWorkQueue) Send(ctx context.Context, msg ports.OrderQueueMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockConnectionRegistry struct{ mock.Mock }

func (m *MockConnectionRegistry) Register(ctx context.Context, conn connection.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRegistry) Deregister(ctx context.Context, connectionID string) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

func (m *MockConnectionRegistry) ListByTenant(ctx context.Context, tenantID string) ([]string, error) {
	args := m.Called(ctx, tenantID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockConnectionRegistry) ListByUser(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

func (m *MockConnectionRegistry) ListAll(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

type MockSocketPusher struct{ mock.Mock }

func (m *MockSocketPusher) Push(ctx context.Context, connectionID string, payload []byte) error {
	args := m.Called(ctx, connectionID, payload)
	return args.Error(0)
}

const tenantID = "sede-miraflores"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newActor(t *testing.T, id string, role actor.Role, tenant string) actor.Actor {
	t.Helper()

	a, err := actor.NewActor(id, role, tenant)
	require.NoError(t, err)
	return a
}

func newCustomer(t *testing.T) actor.Actor {
	return newActor(t, "cust-1", actor.RoleCustomer, "")
}

// newStoredOrder returns an order as read from the store in the given status.
func newStoredOrder(t *testing.T, status order.Status, driverID string) *order.Order {
	t.Helper()

	item, err := order.NewLineItem("p-1", "Burger", kernel.MustMoney("28.40"), 2)
	require.NoError(t, err)

	now := time.Now().UTC().Add(-time.Hour)
	o, err := order.Restore(order.Snapshot{
		ID:          kernel.NewUUID(),
		TenantID:    tenantID,
		CustomerID:  "cust-1",
		Items:       []order.LineItem{item},
		DeliveryFee: kernel.MustMoney("5.00"),
		Currency:    "PEN",
		Address:     order.Address{Raw: "Av. Larco 123"},
		DriverID:    driverID,
		Status:      status,
		History:     []order.HistoryEntry{{Status: status, ActorID: "cust-1", ActorRole: actor.RoleCustomer, At: now}},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)
	return o
}

func newSite(t *testing.T) *tenant.Tenant {
	t.Helper()

	loc, err := kernel.NewGeoPoint(-12.1211, -77.0297)
	require.NoError(t, err)
	site, err := tenant.NewTenant(tenantID, "Miraflores", loc)
	require.NoError(t, err)
	return site
}

// newDriverAt places a driver metersNorth of the site.
func newDriverAt(t *testing.T, id string, metersNorth float64) *driver.Driver {
	t.Helper()

	const metersPerDegree = kernel.EarthRadiusMeters * math.Pi / 180
	loc, err := kernel.NewGeoPoint(-12.1211+metersNorth/metersPerDegree, -77.0297)
	require.NoError(t, err)
	d, err := driver.NewDriver(id, tenantID, "Driver "+id, loc)
	require.NoError(t, err)
	return d
}
