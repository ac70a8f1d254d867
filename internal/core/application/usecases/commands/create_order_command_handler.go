package commands

import (
	"context"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// Pricing holds the checkout constants applied to every new order.
type Pricing struct {
	DeliveryFee kernel.Money
	Currency    string
}

// CreateOrderResult is the stored order and the outcome of publishing its events.
type CreateOrderResult struct {
	Order     *order.Order
	Published ports.PublishResult
}

// CreateOrderCommandHandler copies the customer's cart into a new order,
// stores it, clears the cart, and then, outside the transaction, publishes
// OrderCreated and enqueues the order for asynchronous processing.
type CreateOrderCommandHandler struct {
	uowFactory CheckoutUoWFactory
	publisher  ports.EventPublisher
	queue      ports.WorkQueue
	pricing    Pricing
	logger     *slog.Logger
}

func NewCreateOrderCommandHandler(
	uowFactory CheckoutUoWFactory,
	publisher ports.EventPublisher,
	queue ports.WorkQueue,
	pricing Pricing,
	logger *slog.Logger,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		queue:      queue,
		pricing:    pricing,
		logger:     logger.With("component", "CreateOrderCommandHandler"),
	}
}

// Handle performs the checkout. The cart must exist and hold at least one item.
// Event publication and queueing are best effort: their failures are logged and
// reported in the result but the order stays created.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, command CreateOrderCommand) (CreateOrderResult, error) {
	if err := command.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CreateOrderResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	customerID := command.Customer().ID()
	c, err := uow.CartRepository().Get(ctx, customerID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if c.IsEmpty() {
		return CreateOrderResult{}, errs.NewValueIsRequiredError("cart items")
	}

	items := make([]order.LineItem, 0, len(c.Items()))
	for _, it := range c.Items() {
		li, itemErr := order.NewLineItem(it.ProductID, it.Name, it.UnitPrice, it.Quantity)
		if itemErr != nil {
			return CreateOrderResult{}, itemErr
		}
		items = append(items, li)
	}

	tenantID := command.TenantID()
	if tenantID == "" {
		tenantID = c.TenantID()
	}

	o, events, err := order.NewOrder(order.NewOrderParams{
		ID:            kernel.NewUUID(),
		TenantID:      tenantID,
		CustomerID:    customerID,
		Items:         items,
		DeliveryFee:   h.pricing.DeliveryFee,
		Currency:      h.pricing.Currency,
		Address:       command.Address(),
		PaymentMethod: command.PaymentMethod(),
		PaymentStatus: order.PaymentPaid,
		Notes:         command.Notes(),
		Customer:      command.Customer(),
		Now:           time.Now(),
	})
	if err != nil {
		return CreateOrderResult{}, err
	}

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return CreateOrderResult{}, err
	}
	if err = uow.CartRepository().Clear(ctx, customerID); err != nil {
		return CreateOrderResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	published := h.publisher.PublishBatch(ctx, events)

	msg := ports.OrderQueueMessage{
		MessageID: kernel.NewUUID().String(),
		OrderID:   o.ID().String(),
		TenantID:  o.TenantID(),
		Total:     o.Total().String(),
		Status:    o.Status().String(),
	}
	if err = h.queue.Send(ctx, msg); err != nil {
		h.logger.ErrorContext(ctx, "failed to enqueue created order",
			"order_id", msg.OrderID, "error", err)
	}

	h.logger.InfoContext(ctx, "order created",
		"order_id", o.ID().String(), "tenant_id", o.TenantID(), "total", o.Total().String())

	return CreateOrderResult{Order: o, Published: published}, nil
}
