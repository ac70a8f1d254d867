package memory_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/cart"
	"orderflow/internal/core/domain/model/connection"
	"orderflow/internal/core/domain/model/driver"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenantID = "sede-miraflores"

func newActor(t *testing.T, id string, role actor.Role) actor.Actor {
	t.Helper()

	tenant := tenantID
	if role == actor.RoleCustomer {
		tenant = ""
	}
	a, err := actor.NewActor(id, role, tenant)
	require.NoError(t, err)
	return a
}

func storeOrder(t *testing.T, factory ports.UnitOfWorkFactory) *order.Order {
	t.Helper()

	item, err := order.NewLineItem("p-1", "Ceviche", kernel.MustMoney("38.00"), 1)
	require.NoError(t, err)
	o, _, err := order.NewOrder(order.NewOrderParams{
		ID:            kernel.NewUUID(),
		TenantID:      tenantID,
		CustomerID:    "cust-1",
		Items:         []order.LineItem{item},
		DeliveryFee:   kernel.MustMoney("5.00"),
		Currency:      "PEN",
		Address:       order.Address{Raw: "Av. Larco 123"},
		PaymentStatus: order.PaymentPaid,
		Customer:      newActor(t, "cust-1", actor.RoleCustomer),
		Now:           time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, factory.Create().OrderRepository().Add(t.Context(), o))
	return o
}

func newDriver(t *testing.T, id string) *driver.Driver {
	t.Helper()

	loc, err := kernel.NewGeoPoint(-12.1211, -77.0297)
	require.NoError(t, err)
	d, err := driver.NewDriver(id, tenantID, "Rosa", loc)
	require.NoError(t, err)
	return d
}

func TestUnitOfWork_ConcurrentTransitionsOneWins(t *testing.T) {
	ctx := t.Context()
	factory := memory.NewUnitOfWorkFactory(memory.NewStore())
	o := storeOrder(t, factory)

	type attempt struct {
		uow ports.UnitOfWork
		o   *order.Order
	}
	attempts := make([]attempt, 2)
	for i := range attempts {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		loaded, err := uow.OrderRepository().Get(ctx, o.ID())
		require.NoError(t, err)
		attempts[i] = attempt{uow: uow, o: loaded}
	}

	_, err := attempts[0].o.Transition(newActor(t, "chef-1", actor.RoleKitchenStaff), order.StatusCooking, order.Patch{}, time.Now())
	require.NoError(t, err)
	_, err = attempts[1].o.Transition(newActor(t, "cust-1", actor.RoleCustomer), order.StatusCancelled, order.Patch{}, time.Now())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]error, len(attempts))
	for i, a := range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.uow.OrderRepository().Update(ctx, a.o); err != nil {
				results[i] = err
				return
			}
			results[i] = a.uow.Commit(ctx)
		}()
	}
	wg.Wait()

	var won, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, errs.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, conflicts)

	stored, err := factory.Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Contains(t, []order.Status{order.StatusCooking, order.StatusCancelled}, stored.Status())
	assert.Len(t, stored.History(), 2)
}

func TestUnitOfWork_CommitIsAllOrNothing(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	factory := memory.NewUnitOfWorkFactory(store)
	o := storeOrder(t, factory)
	store.SaveDriver(newDriver(t, "drv-1"))

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	loaded, err := uow.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	d, err := uow.DriverRepository().Get(ctx, "drv-1")
	require.NoError(t, err)

	_, err = loaded.Transition(newActor(t, "chef-1", actor.RoleKitchenStaff), order.StatusCooking, order.Patch{}, time.Now())
	require.NoError(t, err)
	require.NoError(t, uow.OrderRepository().Update(ctx, loaded))
	require.NoError(t, d.MarkAssigned())
	require.NoError(t, uow.DriverRepository().Update(ctx, d))

	// Another writer moves the driver first.
	other, err := factory.Create().DriverRepository().Get(ctx, "drv-1")
	require.NoError(t, err)
	require.NoError(t, other.MarkAssigned())
	require.NoError(t, factory.Create().DriverRepository().Update(ctx, other))

	require.ErrorIs(t, uow.Commit(ctx), errs.ErrConflict)

	stored, err := factory.Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusCreated, stored.Status())
	assert.Equal(t, order.StatusCreated, loaded.PersistedStatus())
	assert.Zero(t, d.Version())
}

func TestUnitOfWork_RollbackAndStagedReads(t *testing.T) {
	ctx := t.Context()
	store := memory.NewStore()
	factory := memory.NewUnitOfWorkFactory(store)
	o := storeOrder(t, factory)

	c, err := cart.NewCart("cust-1", tenantID, []cart.Item{{ProductID: "p-1", Name: "Ceviche", UnitPrice: kernel.MustMoney("38.00"), Quantity: 1}})
	require.NoError(t, err)
	store.SaveCart(c)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))
	loaded, err := uow.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	_, err = loaded.Transition(newActor(t, "cust-1", actor.RoleCustomer), order.StatusCancelled, order.Patch{}, time.Now())
	require.NoError(t, err)
	require.NoError(t, uow.OrderRepository().Update(ctx, loaded))
	require.NoError(t, uow.CartRepository().Clear(ctx, "cust-1"))

	staged, err := uow.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, staged.Status())

	require.NoError(t, uow.Rollback(ctx))
	require.ErrorIs(t, uow.Rollback(ctx), memory.ErrNoTransaction)

	stored, err := factory.Create().OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusCreated, stored.Status())
	_, err = factory.Create().CartRepository().Get(ctx, "cust-1")
	require.NoError(t, err)
}

func TestUnitOfWork_MissingObjects(t *testing.T) {
	ctx := t.Context()
	uow := memory.NewUnitOfWorkFactory(memory.NewStore()).Create()

	_, err := uow.OrderRepository().Get(ctx, kernel.NewUUID())
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	_, err = uow.DriverRepository().Get(ctx, "drv-x")
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	_, err = uow.TenantRepository().Get(ctx, "sede-x")
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	_, err = uow.CartRepository().Get(ctx, "cust-x")
	require.ErrorIs(t, err, errs.ErrObjectNotFound)
	require.ErrorIs(t, uow.OrderRepository().MarkProcessed(ctx, kernel.NewUUID(), time.Now()), errs.ErrObjectNotFound)
}

func TestChannel_DeliversInSubscriptionOrder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ch := memory.NewChannel("events", logger)

	var got []string
	ch.Subscribe(func(_ context.Context, env event.Envelope) error {
		got = append(got, "first:"+env.EventID)
		return errors.New("consumer failed")
	})
	ch.Subscribe(func(_ context.Context, env event.Envelope) error {
		got = append(got, "second:"+env.EventID)
		return nil
	})

	require.NoError(t, ch.Publish(t.Context(), event.Envelope{EventID: "e-1"}))
	assert.Equal(t, []string{"first:e-1", "second:e-1"}, got)
}

func TestQueue_HandsMessageToConsumer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	q := memory.NewQueue(logger)

	require.NoError(t, q.Send(t.Context(), ports.OrderQueueMessage{MessageID: "dropped"}))

	var gotID string
	var gotBody []byte
	q.Consume(func(_ context.Context, id string, body []byte) error {
		gotID, gotBody = id, body
		return nil
	})
	require.NoError(t, q.Send(t.Context(), ports.OrderQueueMessage{MessageID: "m-1", OrderID: "o-1"}))
	assert.Equal(t, "m-1", gotID)
	assert.JSONEq(t, `{"messageId":"m-1","orderId":"o-1","tenantId":"","total":"","status":""}`, string(gotBody))
}

func TestConnectionRegistry_ExpiresAndScopes(t *testing.T) {
	ctx := t.Context()
	now := time.Now()
	clock := now
	registry := memory.NewConnectionRegistry().WithClock(func() time.Time { return clock })

	for _, c := range []struct {
		id, user, tenant string
		ttl              time.Duration
	}{
		{"c-1", "chef-1", tenantID, time.Hour},
		{"c-2", "cust-1", "", time.Hour},
		{"c-3", "chef-2", tenantID, time.Minute},
	} {
		conn, err := connection.New(c.id, c.user, c.tenant, "", now, c.ttl)
		require.NoError(t, err)
		require.NoError(t, registry.Register(ctx, conn))
	}

	ids, err := registry.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1", "c-3"}, ids)

	clock = now.Add(2 * time.Minute)
	ids, err = registry.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1", "c-2"}, ids)

	ids, err = registry.ListByUser(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c-2"}, ids)

	require.NoError(t, registry.Deregister(ctx, "c-1"))
	ids, err = registry.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
