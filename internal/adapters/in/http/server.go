package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// Server handles the REST endpoints of the order core.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	// Command handlers
	createOrderHandler     commands.CreateOrderCommandHandler
	transitionOrderHandler commands.TransitionOrderCommandHandler
	assignDriverHandler    commands.AssignDriverCommandHandler

	// Query handlers
	getOrderHandler           queries.GetOrderQueryHandler
	listCustomerOrdersHandler queries.ListCustomerOrdersQueryHandler
	listConnectionsHandler    queries.ListConnectionsQueryHandler
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	transitionOrderHandler commands.TransitionOrderCommandHandler,
	assignDriverHandler commands.AssignDriverCommandHandler,
	getOrderHandler queries.GetOrderQueryHandler,
	listCustomerOrdersHandler queries.ListCustomerOrdersQueryHandler,
	listConnectionsHandler queries.ListConnectionsQueryHandler,
) *Server {
	return &Server{
		createOrderHandler:        createOrderHandler,
		transitionOrderHandler:    transitionOrderHandler,
		assignDriverHandler:       assignDriverHandler,
		getOrderHandler:           getOrderHandler,
		listCustomerOrdersHandler: listCustomerOrdersHandler,
		listConnectionsHandler:    listConnectionsHandler,
	}
}

type createOrderRequest struct {
	TenantID        string          `json:"tenantId"`
	DeliveryAddress json.RawMessage `json:"deliveryAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Notes           string          `json:"notes"`
}

type addressRequest struct {
	Street    string `json:"street"`
	District  string `json:"district"`
	Reference string `json:"reference"`
	Raw       string `json:"raw"`
}

type statusUpdateRequest struct {
	Status         string `json:"status"`
	ExpectedStatus string `json:"expectedStatus"`
	KitchenStaffID string `json:"kitchenStaffId"`
	Note           string `json:"note"`
}

type assignChefRequest struct {
	ChefID string `json:"chefId"`
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type deliveryStatusRequest struct {
	Status   string           `json:"status"`
	Location *locationRequest `json:"location"`
	Note     string           `json:"note"`
}

type assignDriverResponse struct {
	OrderID  string `json:"orderId"`
	Assigned bool   `json:"assigned"`
	DriverID string `json:"driverId,omitempty"`
	Outcome  string `json:"outcome"`
}

// CreateOrder handles POST /orders - checks out the caller's cart.
func (s *Server) CreateOrder(c echo.Context) error {
	customer, err := actorFrom(c)
	if err != nil {
		return err
	}

	var body createOrderRequest
	if err = c.Bind(&body); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("request body", err)
	}
	address, err := decodeAddress(body.DeliveryAddress)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCreateOrderCommand(customer, body.TenantID, address, body.PaymentMethod, body.Notes)
	if err != nil {
		return err
	}

	result, err := s.createOrderHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, queries.NewOrderResponse(result.Order))
}

// GetOrder handles GET /orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	viewer, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	query, err := queries.NewGetOrderQuery(orderID, viewer)
	if err != nil {
		return err
	}
	resp, err := s.getOrderHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// ListCustomerOrders handles GET /users/orders - the caller's own orders.
func (s *Server) ListCustomerOrders(c echo.Context) error {
	customer, err := actorFrom(c)
	if err != nil {
		return err
	}

	query, err := queries.NewListCustomerOrdersQuery(customer)
	if err != nil {
		return err
	}
	resp, err := s.listCustomerOrdersHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

// UpdateOrderStatus handles PUT /orders/:id/status - the generic transition.
func (s *Server) UpdateOrderStatus(c echo.Context) error {
	a, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var body statusUpdateRequest
	if err = c.Bind(&body); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("request body", err)
	}

	var expected *order.Status
	if body.ExpectedStatus != "" {
		st := order.ParseStatus(body.ExpectedStatus)
		expected = &st
	}

	cmd, err := commands.NewTransitionOrderCommand(orderID, a, order.ParseStatus(body.Status), expected,
		order.Patch{KitchenStaffID: body.KitchenStaffID, Note: body.Note})
	if err != nil {
		return err
	}

	return s.transition(c, cmd)
}

// CancelOrder handles PUT /orders/:id/cancel.
func (s *Server) CancelOrder(c echo.Context) error {
	a, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewCancelOrderCommand(orderID, a)
	if err != nil {
		return err
	}

	return s.transition(c, cmd)
}

// AssignChef handles POST /kitchen/orders/:id/assign - starts cooking.
func (s *Server) AssignChef(c echo.Context) error {
	a, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var body assignChefRequest
	if c.Request().ContentLength != 0 {
		if err = c.Bind(&body); err != nil {
			return errs.NewValueIsInvalidErrorWithCause("request body", err)
		}
	}

	cmd, err := commands.NewStartCookingCommand(orderID, a, body.ChefID)
	if err != nil {
		return err
	}

	return s.transition(c, cmd)
}

// MarkReady handles POST /kitchen/orders/:id/ready.
func (s *Server) MarkReady(c echo.Context) error {
	a, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewMarkReadyCommand(orderID, a)
	if err != nil {
		return err
	}

	return s.transition(c, cmd)
}

// AssignDriver handles POST /delivery/orders/:id/assign-driver - runs the
// assignment workflow on demand.
func (s *Server) AssignDriver(c echo.Context) error {
	a, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	cmd, err := commands.NewAssignDriverCommand(orderID, &a)
	if err != nil {
		return err
	}
	result, err := s.assignDriverHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, assignDriverResponse{
		OrderID:  result.OrderID,
		Assigned: result.Assigned,
		DriverID: result.DriverID,
		Outcome:  string(result.Outcome),
	})
}

// UpdateDeliveryStatus handles PUT /delivery/orders/:id/status - the driver's report.
func (s *Server) UpdateDeliveryStatus(c echo.Context) error {
	a, err := actorFrom(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var body deliveryStatusRequest
	if err = c.Bind(&body); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("request body", err)
	}

	var location *kernel.GeoPoint
	if body.Location != nil {
		p, geoErr := kernel.NewGeoPoint(body.Location.Lat, body.Location.Lng)
		if geoErr != nil {
			return geoErr
		}
		location = &p
	}

	cmd, err := commands.NewUpdateDeliveryStatusCommand(orderID, a, order.ParseStatus(body.Status), location, body.Note)
	if err != nil {
		return err
	}

	return s.transition(c, cmd)
}

// ListConnections handles GET /ws/connections - the tenant's live sockets.
func (s *Server) ListConnections(c echo.Context) error {
	admin, err := actorFrom(c)
	if err != nil {
		return err
	}

	query, err := queries.NewListConnectionsQuery(admin)
	if err != nil {
		return err
	}
	resp, err := s.listConnectionsHandler.Handle(c.Request().Context(), query)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *Server) transition(c echo.Context, cmd commands.TransitionOrderCommand) error {
	result, err := s.transitionOrderHandler.Handle(c.Request().Context(), cmd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, queries.NewOrderResponse(result.Order))
}

func orderIDParam(c echo.Context) (kernel.UUID, error) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "id", c.Param("id"), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return kernel.UUIDFromString(raw)
}

// decodeAddress accepts either a single free-form line or the structured form.
func decodeAddress(raw json.RawMessage) (order.Address, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return order.Address{}, errs.NewValueIsRequiredError("deliveryAddress")
	}

	if raw[0] == '"' {
		var line string
		if err := json.Unmarshal(raw, &line); err != nil {
			return order.Address{}, errs.NewValueIsInvalidErrorWithCause("deliveryAddress", err)
		}
		return order.Address{Raw: line}, nil
	}

	var a addressRequest
	if err := json.Unmarshal(raw, &a); err != nil {
		return order.Address{}, errs.NewValueIsInvalidErrorWithCause("deliveryAddress", err)
	}
	return order.Address{Street: a.Street, District: a.District, Reference: a.Reference, Raw: a.Raw}, nil
}
