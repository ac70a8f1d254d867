// Package memory holds in-process adapters used when STORAGE_DRIVER=memory
// and by end-to-end tests: a transactional store for orders, drivers, tenants
// and carts, a connection registry, and synchronous message channels.
package memory

import (
	"sort"
	"sync"
	"time"

	"orderflow/internal/core/domain/model/cart"
	"orderflow/internal/core/domain/model/driver"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/model/tenant"
	"orderflow/internal/pkg/errs"
)

type orderRecord struct {
	snapshot    order.Snapshot
	processedAt *time.Time
}

type driverRecord struct {
	id               string
	tenantID         string
	name             string
	location         kernel.GeoPoint
	available        bool
	activeDeliveries int
	version          int
}

func recordOf(d *driver.Driver) driverRecord {
	return driverRecord{
		id:               d.ID(),
		tenantID:         d.TenantID(),
		name:             d.Name(),
		location:         d.Location(),
		available:        d.IsAvailable(),
		activeDeliveries: d.ActiveDeliveries(),
		version:          d.Version(),
	}
}

func (r driverRecord) restore() (*driver.Driver, error) {
	return driver.RestoreDriver(r.id, r.tenantID, r.name, r.location, r.available, r.activeDeliveries, r.version)
}

// Store is the shared state behind every memory unit of work. Aggregates are
// kept as snapshots so callers never share pointers with the store.
type Store struct {
	mu      sync.RWMutex
	orders  map[kernel.UUID]orderRecord
	drivers map[string]driverRecord
	tenants map[string]*tenant.Tenant
	carts   map[string]*cart.Cart
}

func NewStore() *Store {
	return &Store{
		orders:  make(map[kernel.UUID]orderRecord),
		drivers: make(map[string]driverRecord),
		tenants: make(map[string]*tenant.Tenant),
		carts:   make(map[string]*cart.Cart),
	}
}

// SaveTenant upserts a tenant site.
func (s *Store) SaveTenant(t *tenant.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[t.ID()] = t
}

// SaveCart upserts the cart snapshot of c's customer.
func (s *Store) SaveCart(c *cart.Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.CustomerID()] = c
}

// SaveDriver upserts a driver as is, version included.
func (s *Store) SaveDriver(d *driver.Driver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drivers[d.ID()] = recordOf(d)
}

func (s *Store) getOrder(id kernel.UUID) (*order.Order, error) {
	s.mu.RLock()
	rec, ok := s.orders[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.Restore(rec.snapshot)
}

func (s *Store) listOrders(match func(order.Snapshot) bool) ([]*order.Order, error) {
	s.mu.RLock()
	snaps := make([]order.Snapshot, 0)
	for _, rec := range s.orders {
		if match(rec.snapshot) {
			snaps = append(snaps, rec.snapshot)
		}
	}
	s.mu.RUnlock()

	result := make([]*order.Order, 0, len(snaps))
	for _, snap := range snaps {
		o, err := order.Restore(snap)
		if err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, nil
}

func (s *Store) markProcessed(id kernel.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.orders[id]
	if !ok {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	if rec.snapshot.Processed {
		return nil
	}
	rec.snapshot.Processed = true
	at = at.UTC()
	rec.processedAt = &at
	s.orders[id] = rec
	return nil
}

func (s *Store) getDriver(id string) (*driver.Driver, error) {
	s.mu.RLock()
	rec, ok := s.drivers[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errs.NewObjectNotFoundError("driver", id)
	}
	return rec.restore()
}

func (s *Store) listAvailableDrivers(tenantID string) ([]*driver.Driver, error) {
	s.mu.RLock()
	recs := make([]driverRecord, 0)
	for _, rec := range s.drivers {
		if rec.tenantID == tenantID && rec.available {
			recs = append(recs, rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool { return recs[i].id < recs[j].id })

	result := make([]*driver.Driver, 0, len(recs))
	for _, rec := range recs {
		d, err := rec.restore()
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

func (s *Store) getTenant(id string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("tenant", id)
	}
	return t, nil
}

func (s *Store) getCart(customerID string) (*cart.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.carts[customerID]
	if !ok {
		return nil, errs.NewObjectNotFoundError("cart", customerID)
	}
	return c, nil
}

// checkOrder validates a staged order write against the committed state.
// Callers hold the lock.
func (s *Store) checkOrder(w orderWrite) error {
	rec, exists := s.orders[w.snapshot.ID]
	if w.insert {
		if exists {
			return errs.NewConflictError("order", w.snapshot.ID.String())
		}
		return nil
	}
	if !exists {
		return errs.NewObjectNotFoundError("order", w.snapshot.ID.String())
	}
	if rec.snapshot.Status != w.expected {
		return errs.NewConflictError("order", w.snapshot.ID.String())
	}
	return nil
}

func (s *Store) checkDriver(w driverWrite) error {
	rec, exists := s.drivers[w.record.id]
	if w.insert {
		if exists {
			return errs.NewConflictError("driver", w.record.id)
		}
		return nil
	}
	if !exists {
		return errs.NewObjectNotFoundError("driver", w.record.id)
	}
	if rec.version != w.record.version {
		return errs.NewConflictError("driver", w.record.id)
	}
	return nil
}

// apply validates every staged write and applies all of them, or none.
func (s *Store) apply(orders []orderWrite, drivers []driverWrite, clearedCarts []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range orders {
		if err := s.checkOrder(w); err != nil {
			return err
		}
	}
	for _, w := range drivers {
		if err := s.checkDriver(w); err != nil {
			return err
		}
	}

	for _, w := range orders {
		rec := s.orders[w.snapshot.ID]
		snap := w.snapshot
		snap.Processed = rec.snapshot.Processed || snap.Processed
		s.orders[snap.ID] = orderRecord{snapshot: snap, processedAt: rec.processedAt}
	}
	for _, w := range drivers {
		rec := w.record
		if !w.insert {
			rec.version++
		}
		s.drivers[rec.id] = rec
	}
	for _, customerID := range clearedCarts {
		delete(s.carts, customerID)
	}
	return nil
}

func sortOrders(orders []*order.Order, less func(a, b *order.Order) bool) {
	sort.SliceStable(orders, func(i, j int) bool { return less(orders[i], orders[j]) })
}
