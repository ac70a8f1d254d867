package commands_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/connection"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cookingEvent(tenant string) event.OrderStatusChanged {
	return event.OrderStatusChanged{
		Header: event.Header{
			OrderID:    "6f1c1f5e-4a8e-4c7b-9b7e-3f1d2a9c0b11",
			TenantID:   tenant,
			CustomerID: "cust-1",
			Actor:      event.Actor{ID: "chef-1", Role: "kitchen-staff"},
			OccurredAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		},
		PreviousStatus: "CREATED",
		NewStatus:      "COOKING",
		KitchenStaffID: "chef-1",
	}
}

func decodeNotification(t *testing.T, payload []byte) commands.Notification {
	t.Helper()

	var n commands.Notification
	require.NoError(t, json.Unmarshal(payload, &n))
	return n
}

func TestBroadcastEventCommandHandler_Handle(t *testing.T) {
	ctx := t.Context()
	registry := &MockConnectionRegistry{}
	pusher := &MockSocketPusher{}

	registry.On("ListByTenant", ctx, tenantID).Return([]string{"staff-ok", "staff-gone", "staff-slow"}, nil).Once()
	registry.On("ListByUser", ctx, "cust-1").Return([]string{"cust-ok"}, nil).Once()
	registry.On("Deregister", ctx, "staff-gone").Return(nil).Once()

	var mu sync.Mutex
	payloads := make(map[string][]byte)
	record := func(args mock.Arguments) {
		mu.Lock()
		defer mu.Unlock()
		payloads[args.String(1)] = args.Get(2).([]byte)
	}
	pusher.On("Push", mock.Anything, "staff-ok", mock.Anything).Run(record).Return(nil).Once()
	pusher.On("Push", mock.Anything, "cust-ok", mock.Anything).Run(record).Return(nil).Once()
	pusher.On("Push", mock.Anything, "staff-gone", mock.Anything).Return(errs.ErrGone).Once()
	pusher.On("Push", mock.Anything, "staff-slow", mock.Anything).Return(errors.New("i/o timeout")).Once()

	cmd, err := commands.NewBroadcastEventCommand(cookingEvent(tenantID))
	require.NoError(t, err)

	handler := commands.NewBroadcastEventCommandHandler(registry, pusher, time.Second, discardLogger())
	result, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, []string{"cust-ok", "staff-ok"}, result.Successful)
	assert.Equal(t, []string{"staff-gone"}, result.Stale)
	assert.Equal(t, []string{"staff-slow"}, result.Failed)

	customer := decodeNotification(t, payloads["cust-ok"])
	assert.Equal(t, commands.NotificationTypeStatusUpdate, customer.Type)
	assert.Equal(t, commands.CustomerMessage(order.StatusCooking), customer.Data.Message)
	require.NotNil(t, customer.Data.UpdatedBy)
	assert.Equal(t, "chef-1", customer.Data.UpdatedBy.ID)
	assert.Nil(t, customer.Data.HandledBy)

	staff := decodeNotification(t, payloads["staff-ok"])
	assert.Equal(t, commands.StaffMessage(order.StatusCooking), staff.Data.Message)
	assert.Equal(t, "CREATED", staff.Data.PreviousStatus)
	require.NotNil(t, staff.Data.HandledBy)
	assert.Equal(t, "kitchen", staff.Data.HandledBy.Stage)
	assert.Equal(t, "chef-1", staff.Data.HandledBy.Handler)
	assert.Nil(t, staff.Data.UpdatedBy)

	registry.AssertExpectations(t)
	pusher.AssertExpectations(t)
}

func TestBroadcastEventCommandHandler_Handle_GoneConnectionLeavesRegistry(t *testing.T) {
	ctx := t.Context()
	registry := memory.NewConnectionRegistry()
	for _, c := range []struct{ id, user, tenant string }{
		{"staff-ok", "chef-1", tenantID},
		{"staff-gone", "chef-2", tenantID},
		{"cust-ok", "cust-1", ""},
	} {
		conn, err := connection.New(c.id, c.user, c.tenant, "", time.Now(), time.Hour)
		require.NoError(t, err)
		require.NoError(t, registry.Register(ctx, conn))
	}

	pusher := &MockSocketPusher{}
	pusher.On("Push", mock.Anything, "staff-gone", mock.Anything).Return(errs.ErrGone).Once()
	pusher.On("Push", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	cmd, err := commands.NewBroadcastEventCommand(cookingEvent(tenantID))
	require.NoError(t, err)

	result, err := commands.NewBroadcastEventCommandHandler(registry, pusher, time.Second, discardLogger()).Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"staff-gone"}, result.Stale)

	byTenant, err := registry.ListByTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Equal(t, []string{"staff-ok"}, byTenant)

	all, err := registry.ListAll(ctx)
	require.NoError(t, err)
	assert.NotContains(t, all, "staff-gone")
	assert.ElementsMatch(t, []string{"cust-ok", "staff-ok"}, all)
}

func TestBroadcastEventCommandHandler_Handle_TenantlessEventGoesToAll(t *testing.T) {
	ctx := t.Context()
	registry := &MockConnectionRegistry{}
	pusher := &MockSocketPusher{}

	registry.On("ListAll", ctx).Return([]string{"anon-1", "cust-ok"}, nil).Once()
	registry.On("ListByUser", ctx, "cust-1").Return([]string{"cust-ok"}, nil).Once()
	pusher.On("Push", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	cmd, err := commands.NewBroadcastEventCommand(cookingEvent(""))
	require.NoError(t, err)

	result, err := commands.NewBroadcastEventCommandHandler(registry, pusher, 0, discardLogger()).Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, []string{"anon-1", "cust-ok"}, result.Successful)
	registry.AssertNotCalled(t, "ListByTenant", mock.Anything, mock.Anything)
	pusher.AssertExpectations(t)
}

func TestBroadcastEventCommandHandler_Handle_NoConnections(t *testing.T) {
	registry := &MockConnectionRegistry{}
	pusher := &MockSocketPusher{}
	registry.On("ListByTenant", mock.Anything, tenantID).Return([]string(nil), nil).Once()
	registry.On("ListByUser", mock.Anything, "cust-1").Return([]string(nil), nil).Once()

	cmd, err := commands.NewBroadcastEventCommand(cookingEvent(tenantID))
	require.NoError(t, err)

	result, err := commands.NewBroadcastEventCommandHandler(registry, pusher, time.Second, discardLogger()).Handle(t.Context(), cmd)
	require.NoError(t, err)
	assert.Empty(t, result.Successful)
	pusher.AssertNotCalled(t, "Push", mock.Anything, mock.Anything, mock.Anything)
}

func TestBroadcastEventCommandHandler_Handle_RegistryDown(t *testing.T) {
	registry := &MockConnectionRegistry{}
	registry.On("ListByTenant", mock.Anything, tenantID).
		Return(nil, errs.NewDownstreamUnavailableError("redis", errors.New("dial tcp"))).Once()

	cmd, err := commands.NewBroadcastEventCommand(cookingEvent(tenantID))
	require.NoError(t, err)

	_, err = commands.NewBroadcastEventCommandHandler(registry, &MockSocketPusher{}, time.Second, discardLogger()).Handle(t.Context(), cmd)
	require.ErrorIs(t, err, errs.ErrDownstreamUnavailable)
}

func TestBuildNotification_DriverAssignment(t *testing.T) {
	e := event.OrderAssigned{
		Header:     cookingEvent(tenantID).Header,
		Assignment: event.AssignmentDriver,
		AssigneeID: "drv-1",
		Status:     "DELIVERING",
	}

	staff := commands.BuildNotification(e, false)
	assert.Equal(t, string(event.TypeOrderAssigned), staff.Type)
	assert.Equal(t, "drv-1", staff.Data.DriverID)
	require.NotNil(t, staff.Data.HandledBy)
	assert.Equal(t, "delivery", staff.Data.HandledBy.Stage)

	customer := commands.BuildNotification(e, true)
	assert.Equal(t, "Your order is on its way!", customer.Data.Message)
}
