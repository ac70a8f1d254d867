package commands_test

import (
	"testing"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/driver"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AssignDriverSuite struct {
	suite.Suite

	orders    *MockOrderRepository
	drivers   *MockDriverRepository
	tenants   *MockTenantRepository
	uow       *MockUoW
	factory   *MockUoWFactory
	publisher *MockEventPublisher
	handler   commands.AssignDriverCommandHandler
}

func TestAssignDriverSuite(t *testing.T) {
	suite.Run(t, new(AssignDriverSuite))
}

func (s *AssignDriverSuite) SetupTest() {
	s.orders = &MockOrderRepository{}
	s.drivers = &MockDriverRepository{}
	s.tenants = &MockTenantRepository{}
	s.uow = &MockUoW{}
	s.factory = &MockUoWFactory{}
	s.publisher = &MockEventPublisher{}

	s.factory.On("Create").Return(s.uow)
	s.uow.On("Begin", mock.Anything).Return(nil)
	s.uow.On("Rollback", mock.Anything).Return(nil).Maybe()
	s.uow.On("OrderRepository").Return(s.orders).Maybe()
	s.uow.On("DriverRepository").Return(s.drivers).Maybe()
	s.uow.On("TenantRepository").Return(s.tenants).Maybe()

	s.handler = commands.NewAssignDriverCommandHandler(s.factory, services.NewDriverSelector(), s.publisher, discardLogger())
}

func (s *AssignDriverSuite) command(id kernel.UUID, requestedBy *actor.Actor) commands.AssignDriverCommand {
	cmd, err := commands.NewAssignDriverCommand(id, requestedBy)
	s.Require().NoError(err)
	return cmd
}

func (s *AssignDriverSuite) readyOrderWithDrivers(drivers ...*driver.Driver) *order.Order {
	t := s.T()
	o := newStoredOrder(t, order.StatusReady, "")
	s.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()
	s.tenants.On("Get", mock.Anything, tenantID).Return(newSite(t), nil).Once()
	s.drivers.On("ListAvailableByTenant", mock.Anything, tenantID).Return(drivers, nil).Once()
	return o
}

func (s *AssignDriverSuite) TestAssignsFirstDriverInRange() {
	far := newDriverAt(s.T(), "drv-far", 3100)
	near := newDriverAt(s.T(), "drv-near", 2999)
	o := s.readyOrderWithDrivers(far, near)

	mock.InOrder(
		s.orders.On("Update", mock.Anything, o).Return(nil).Once(),
		s.drivers.On("Update", mock.Anything, near).Return(nil).Once(),
		s.uow.On("Commit", mock.Anything).Return(nil).Once(),
		s.publisher.On("PublishBatch", mock.Anything, mock.MatchedBy(func(events []event.Event) bool {
			if len(events) != 2 {
				return false
			}
			assigned, ok := events[1].(event.OrderAssigned)
			return ok && assigned.Assignment == event.AssignmentDriver && assigned.AssigneeID == "drv-near"
		})).Return(ports.PublishResult{Published: 2}).Once(),
	)

	result, err := s.handler.Handle(s.T().Context(), s.command(o.ID(), nil))
	s.Require().NoError(err)

	s.True(result.Assigned)
	s.Equal(commands.OutcomeAssigned, result.Outcome)
	s.Equal("drv-near", result.DriverID)
	s.Equal(order.StatusDelivering, o.Status())
	s.Equal("drv-near", o.DriverID())
	s.False(near.IsAvailable())
	s.Equal(1, near.ActiveDeliveries())
	s.True(far.IsAvailable())

	s.orders.AssertExpectations(s.T())
	s.drivers.AssertExpectations(s.T())
	s.publisher.AssertExpectations(s.T())
}

func (s *AssignDriverSuite) TestNoDriverInRangeLeavesOrderReady() {
	o := s.readyOrderWithDrivers(newDriverAt(s.T(), "drv-far", 3001))

	result, err := s.handler.Handle(s.T().Context(), s.command(o.ID(), nil))
	s.Require().NoError(err)

	s.False(result.Assigned)
	s.Equal(commands.OutcomeNoDriverInRange, result.Outcome)
	s.Equal(order.StatusReady, o.Status())
	s.orders.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
	s.uow.AssertNotCalled(s.T(), "Commit", mock.Anything)
	s.publisher.AssertNotCalled(s.T(), "PublishBatch", mock.Anything, mock.Anything)
}

func (s *AssignDriverSuite) TestNoAvailableDrivers() {
	o := s.readyOrderWithDrivers()

	result, err := s.handler.Handle(s.T().Context(), s.command(o.ID(), nil))
	s.Require().NoError(err)
	s.Equal(commands.OutcomeNoDriverInRange, result.Outcome)
}

func (s *AssignDriverSuite) TestAlreadyAssignedIsNoop() {
	o := newStoredOrder(s.T(), order.StatusDelivering, "drv-1")
	s.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	result, err := s.handler.Handle(s.T().Context(), s.command(o.ID(), nil))
	s.Require().NoError(err)

	s.False(result.Assigned)
	s.Equal(commands.OutcomeAlreadyAssigned, result.Outcome)
	s.Equal("drv-1", result.DriverID)
	s.tenants.AssertNotCalled(s.T(), "Get", mock.Anything, mock.Anything)
}

func (s *AssignDriverSuite) TestOrderNotReady() {
	o := newStoredOrder(s.T(), order.StatusCooking, "")
	s.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

	result, err := s.handler.Handle(s.T().Context(), s.command(o.ID(), nil))
	s.Require().NoError(err)
	s.Equal(commands.OutcomeNotReady, result.Outcome)
	s.Equal(order.StatusCooking, o.Status())
}

func (s *AssignDriverSuite) TestLostRaceReturnsConflict() {
	near := newDriverAt(s.T(), "drv-near", 500)
	o := s.readyOrderWithDrivers(near)

	s.orders.On("Update", mock.Anything, o).Return(nil).Once()
	s.drivers.On("Update", mock.Anything, near).Return(errs.NewConflictError("driver", "drv-near")).Once()

	_, err := s.handler.Handle(s.T().Context(), s.command(o.ID(), nil))
	s.Require().ErrorIs(err, errs.ErrConflict)
	s.uow.AssertNotCalled(s.T(), "Commit", mock.Anything)
	s.publisher.AssertNotCalled(s.T(), "PublishBatch", mock.Anything, mock.Anything)
}

func (s *AssignDriverSuite) TestNotificationFailureKeepsAssignment() {
	near := newDriverAt(s.T(), "drv-near", 500)
	o := s.readyOrderWithDrivers(near)

	s.orders.On("Update", mock.Anything, o).Return(nil).Once()
	s.drivers.On("Update", mock.Anything, near).Return(nil).Once()
	s.uow.On("Commit", mock.Anything).Return(nil).Once()
	s.publisher.On("PublishBatch", mock.Anything, mock.Anything).Return(ports.PublishResult{Failed: 2}).Once()

	result, err := s.handler.Handle(s.T().Context(), s.command(o.ID(), nil))
	s.Require().NoError(err)
	s.True(result.Assigned)
	s.Equal(2, result.Published.Failed)
	s.Equal(order.StatusDelivering, o.Status())
}

func (s *AssignDriverSuite) TestManualTrigger() {
	t := s.T()
	tests := map[string]struct {
		requester actor.Actor
		wantErr   error
	}{
		"customer may not trigger": {
			requester: newCustomer(t),
			wantErr:   errs.ErrForbidden,
		},
		"dispatcher of another tenant": {
			requester: newActor(t, "disp-2", actor.RoleDispatcher, "sede-surco"),
			wantErr:   errs.ErrForbidden,
		},
		"dispatcher of the tenant": {
			requester: newActor(t, "disp-1", actor.RoleDispatcher, tenantID),
		},
	}

	for name, tt := range tests {
		s.Run(name, func() {
			s.SetupTest()
			o := newStoredOrder(s.T(), order.StatusCooking, "")
			s.orders.On("Get", mock.Anything, o.ID()).Return(o, nil).Once()

			result, err := s.handler.Handle(s.T().Context(), s.command(o.ID(), &tt.requester))
			if tt.wantErr != nil {
				s.Require().ErrorIs(err, tt.wantErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(commands.OutcomeNotReady, result.Outcome)
		})
	}
}

func TestNewAssignDriverCommand_RequiresOrderID(t *testing.T) {
	_, err := commands.NewAssignDriverCommand(kernel.UUID{}, nil)
	require.Error(t, err)

	cmd, err := commands.NewAssignDriverCommand(kernel.NewUUID(), nil)
	require.NoError(t, err)
	assert.Nil(t, cmd.RequestedBy())
}
