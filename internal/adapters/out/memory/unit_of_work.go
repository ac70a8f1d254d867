package memory

import (
	"context"
	"errors"
	"time"

	"orderflow/internal/core/domain/model/cart"
	"orderflow/internal/core/domain/model/driver"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/tenant"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// ErrNoTransaction is returned by Commit and Rollback without a prior Begin.
var ErrNoTransaction = errors.New("memory: no active transaction")

type orderWrite struct {
	snapshot  order.Snapshot
	insert    bool
	expected  order.Status
	aggregate *order.Order
}

type driverWrite struct {
	record    driverRecord
	insert    bool
	aggregate *driver.Driver
}

type UnitOfWorkFactory struct {
	store *Store
}

func NewUnitOfWorkFactory(store *Store) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{store: store}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork stages writes and applies them atomically on Commit. Conditional
// writes are checked when staged and checked again on Commit, so a lost race
// surfaces as errs.ConflictError from either call. Without Begin every write
// is applied immediately.
type UnitOfWork struct {
	store  *Store
	active bool

	orders       []orderWrite
	drivers      []driverWrite
	clearedCarts []string
}

func (u *UnitOfWork) Begin(_ context.Context) error {
	u.active = true
	return nil
}

func (u *UnitOfWork) Commit(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.active = false

	orders, drivers, carts := u.orders, u.drivers, u.clearedCarts
	u.reset()

	if err := u.store.apply(orders, drivers, carts); err != nil {
		return err
	}
	for _, w := range orders {
		w.aggregate.MarkPersisted()
	}
	for _, w := range drivers {
		if !w.insert {
			w.aggregate.MarkPersisted()
		}
	}
	return nil
}

func (u *UnitOfWork) Rollback(_ context.Context) error {
	if !u.active {
		return ErrNoTransaction
	}
	u.active = false
	u.reset()
	return nil
}

func (u *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: u}
}

func (u *UnitOfWork) DriverRepository() ports.DriverRepository {
	return &DriverRepository{uow: u}
}

func (u *UnitOfWork) TenantRepository() ports.TenantRepository {
	return &TenantRepository{store: u.store}
}

func (u *UnitOfWork) CartRepository() ports.CartRepository {
	return &CartRepository{uow: u}
}

func (u *UnitOfWork) reset() {
	u.orders = nil
	u.drivers = nil
	u.clearedCarts = nil
}

func (u *UnitOfWork) stageOrder(w orderWrite) error {
	u.store.mu.RLock()
	err := u.store.checkOrder(w)
	u.store.mu.RUnlock()
	if err != nil {
		return err
	}

	if !u.active {
		if err = u.store.apply([]orderWrite{w}, nil, nil); err != nil {
			return err
		}
		w.aggregate.MarkPersisted()
		return nil
	}
	u.orders = append(u.orders, w)
	return nil
}

func (u *UnitOfWork) stageDriver(w driverWrite) error {
	u.store.mu.RLock()
	err := u.store.checkDriver(w)
	u.store.mu.RUnlock()
	if err != nil {
		return err
	}

	if !u.active {
		if err = u.store.apply(nil, []driverWrite{w}, nil); err != nil {
			return err
		}
		if !w.insert {
			w.aggregate.MarkPersisted()
		}
		return nil
	}
	u.drivers = append(u.drivers, w)
	return nil
}

// OrderRepository implements ports.OrderRepository on the memory store.
type OrderRepository struct {
	uow *UnitOfWork
}

var _ ports.OrderRepository = (*OrderRepository)(nil)

func (r *OrderRepository) Add(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.stageOrder(orderWrite{snapshot: aggregate.Snapshot(), insert: true, aggregate: aggregate})
}

func (r *OrderRepository) Update(_ context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.stageOrder(orderWrite{
		snapshot:  aggregate.Snapshot(),
		expected:  aggregate.PersistedStatus(),
		aggregate: aggregate,
	})
}

// Get sees the transaction's own staged writes first.
func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	for i := len(r.uow.orders) - 1; i >= 0; i-- {
		if w := r.uow.orders[i]; w.snapshot.ID.IsEqual(id) {
			return order.Restore(w.snapshot)
		}
	}
	return r.uow.store.getOrder(id)
}

func (r *OrderRepository) ListByCustomer(_ context.Context, customerID string) ([]*order.Order, error) {
	orders, err := r.uow.store.listOrders(func(s order.Snapshot) bool {
		return s.CustomerID == customerID
	})
	if err != nil {
		return nil, err
	}
	sortOrders(orders, func(a, b *order.Order) bool {
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().After(b.CreatedAt())
		}
		return a.ID().String() < b.ID().String()
	})
	return orders, nil
}

func (r *OrderRepository) ListReadyUnassigned(_ context.Context, limit int) ([]*order.Order, error) {
	orders, err := r.uow.store.listOrders(func(s order.Snapshot) bool {
		return s.Status == order.StatusReady && s.DriverID == ""
	})
	if err != nil {
		return nil, err
	}
	sortOrders(orders, func(a, b *order.Order) bool {
		ra, rb := readyAt(a), readyAt(b)
		if !ra.Equal(rb) {
			return ra.Before(rb)
		}
		return a.ID().String() < b.ID().String()
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// MarkProcessed is applied to the store directly, inside a transaction or not.
func (r *OrderRepository) MarkProcessed(_ context.Context, id kernel.UUID, at time.Time) error {
	if err := id.Validate(); err != nil {
		return err
	}
	return r.uow.store.markProcessed(id, at)
}

// DriverRepository implements ports.DriverRepository on the memory store.
type DriverRepository struct {
	uow *UnitOfWork
}

var _ ports.DriverRepository = (*DriverRepository)(nil)

func (r *DriverRepository) Add(_ context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.stageDriver(driverWrite{record: recordOf(aggregate), insert: true, aggregate: aggregate})
}

func (r *DriverRepository) Update(_ context.Context, aggregate *driver.Driver) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}
	return r.uow.stageDriver(driverWrite{record: recordOf(aggregate), aggregate: aggregate})
}

func (r *DriverRepository) Get(_ context.Context, id string) (*driver.Driver, error) {
	for i := len(r.uow.drivers) - 1; i >= 0; i-- {
		if w := r.uow.drivers[i]; w.record.id == id {
			return w.record.restore()
		}
	}
	return r.uow.store.getDriver(id)
}

func (r *DriverRepository) ListAvailableByTenant(_ context.Context, tenantID string) ([]*driver.Driver, error) {
	return r.uow.store.listAvailableDrivers(tenantID)
}

type TenantRepository struct {
	store *Store
}

var _ ports.TenantRepository = (*TenantRepository)(nil)

func (r *TenantRepository) Get(_ context.Context, id string) (*tenant.Tenant, error) {
	return r.store.getTenant(id)
}

type CartRepository struct {
	uow *UnitOfWork
}

var _ ports.CartRepository = (*CartRepository)(nil)

func (r *CartRepository) Get(_ context.Context, customerID string) (*cart.Cart, error) {
	for _, cleared := range r.uow.clearedCarts {
		if cleared == customerID {
			return nil, errs.NewObjectNotFoundError("cart", customerID)
		}
	}
	return r.uow.store.getCart(customerID)
}

func (r *CartRepository) Clear(_ context.Context, customerID string) error {
	if !r.uow.active {
		return r.uow.store.apply(nil, nil, []string{customerID})
	}
	r.uow.clearedCarts = append(r.uow.clearedCarts, customerID)
	return nil
}

func readyAt(o *order.Order) time.Time {
	if t := o.ReadyAt(); t != nil {
		return *t
	}
	return o.UpdatedAt()
}
