// Package postgres provides the GORM based Unit of Work over the order, driver,
// tenant and cart tables.
//
// Repositories obtained after Begin run inside the transaction. Every
// aggregate they write is tracked, and its persisted state (the order status
// or driver version the next conditional write is predicated on) is advanced
// only when Commit succeeds. A rolled back write therefore leaves the
// in-memory aggregate as it was read.
//
// Usage:
//
//	uow := NewGormUnitOfWorkFactory(db).Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer uow.Rollback(ctx)
//
//	o, err := uow.OrderRepository().Get(ctx, orderID)
//	// ... transition o
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//	return uow.Commit(ctx)
//
// Each UnitOfWork instance belongs to one goroutine; concurrent commands use
// separate instances and meet only at the conditional writes.
package postgres

import (
	"context"

	"orderflow/internal/adapters/out/postgres/cartrepo"
	"orderflow/internal/adapters/out/postgres/driverrepo"
	"orderflow/internal/adapters/out/postgres/orderrepo"
	"orderflow/internal/adapters/out/postgres/tenantrepo"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"gorm.io/gorm"
)

// persistable is implemented by aggregates whose next conditional write
// depends on what was last stored.
type persistable interface {
	MarkPersisted()
}

type trackedAggregate struct {
	ID        string
	Aggregate any
}

// Migrate creates or updates the tables used by the repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&driverrepo.DriverDTO{},
		&tenantrepo.TenantDTO{},
		&cartrepo.CartDTO{},
	)
}

// GormUnitOfWorkFactory hands out a fresh UnitOfWork per command.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one database transaction across repositories.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []trackedAggregate
}

// Begin starts the transaction. Calling it twice keeps the first transaction.
// Database failures from Begin, Commit and Rollback are reported as
// errs.ErrDownstreamUnavailable; misuse of the lifecycle is
// gorm.ErrInvalidTransaction.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return errs.NewDownstreamUnavailableError("order store", err)
	}

	return nil
}

// Commit makes the writes permanent and then marks every tracked aggregate
// as persisted.
func (uow *GormUnitOfWork) Commit(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		uow.trackedAggregates = uow.trackedAggregates[:0]
		return errs.NewDownstreamUnavailableError("order store", err)
	}

	for _, tracked := range uow.trackedAggregates {
		if p, ok := tracked.Aggregate.(persistable); ok {
			p.MarkPersisted()
		}
	}
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return nil
}

// Rollback discards the transaction. After a successful Commit it returns
// gorm.ErrInvalidTransaction, which deferred calls ignore.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	if err != nil {
		return errs.NewDownstreamUnavailableError("order store", err)
	}
	return nil
}

func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) DriverRepository() ports.DriverRepository {
	return driverrepo.NewGormDriverRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) TenantRepository() ports.TenantRepository {
	return tenantrepo.NewGormTenantRepository(uow.conn())
}

func (uow *GormUnitOfWork) CartRepository() ports.CartRepository {
	return cartrepo.NewGormCartRepository(uow.conn())
}

// TrackAggregate is called by repositories after a successful write. Outside
// a transaction the write is already durable and the aggregate is marked at once.
func (uow *GormUnitOfWork) TrackAggregate(id string, aggregate any) {
	if uow.tx == nil {
		if p, ok := aggregate.(persistable); ok {
			p.MarkPersisted()
		}
		return
	}

	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}
