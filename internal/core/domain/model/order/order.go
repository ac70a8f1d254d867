package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through
	// NewOrder or Restore.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or Restore")
)

// historyTick is added to a transition timestamp that would not be strictly
// after the previous history entry.
const historyTick = time.Microsecond

// Order is the aggregate root of the ordering domain. It is created at checkout
// and then only moves forward through its lifecycle; it is never deleted.
//
// Order follows these invariants:
//   - total = subtotal + delivery fee, to two decimal places
//   - tenant, customer and line items never change after creation
//   - the status history is strictly increasing in time and ends with the current status
//   - once DELIVERED or CANCELLED, no transition is accepted
//
// Mutation happens only through Transition, which checks the lifecycle guard
// and the caller's access before changing anything.
type Order struct {
	id         kernel.UUID
	tenantID   string
	customerID string

	items       []LineItem
	subtotal    kernel.Money
	deliveryFee kernel.Money
	total       kernel.Money
	currency    string

	address       Address
	paymentMethod string
	paymentStatus PaymentStatus
	notes         string

	kitchenStaffID string
	driverID       string

	status  Status
	history []HistoryEntry

	processed   bool
	createdAt   time.Time
	updatedAt   time.Time
	readyAt     *time.Time
	deliveredAt *time.Time
	cancelledAt *time.Time

	// persistedStatus is the status last read from or written to the store;
	// conditional writes are predicated on it. Empty for a new order.
	persistedStatus Status

	isConstructed bool
}

// NewOrderParams carries checkout data for NewOrder.
type NewOrderParams struct {
	ID            kernel.UUID
	TenantID      string
	CustomerID    string
	Items         []LineItem
	DeliveryFee   kernel.Money
	Currency      string
	Address       Address
	PaymentMethod string
	PaymentStatus PaymentStatus
	Notes         string
	Customer      actor.Actor
	Now           time.Time
}

// NewOrder creates an order in CREATED status with its first history entry and
// returns the OrderCreated event to publish once the order is stored.
//
// Example:
//
//	item, _ := order.NewLineItem("burger-1", "Classic burger", kernel.MustMoney("28.40"), 2)
//	o, events, err := order.NewOrder(order.NewOrderParams{
//	    ID:          kernel.NewUUID(),
//	    TenantID:    "sede-miraflores",
//	    CustomerID:  customer.ID(),
//	    Items:       []order.LineItem{item},
//	    DeliveryFee: kernel.MustMoney("5.00"),
//	    Currency:    "PEN",
//	    Address:     order.Address{Raw: "Av. Larco 123"},
//	    Customer:    customer,
//	    Now:         time.Now(),
//	})
func NewOrder(p NewOrderParams) (*Order, []event.Event, error) {
	if err := errors.Join(
		p.ID.Validate(),
		requireText("tenantId", p.TenantID),
		requireText("customerId", p.CustomerID),
		requireText("currency", p.Currency),
		p.Customer.Validate(),
	); err != nil {
		return nil, nil, err
	}
	if len(p.Items) == 0 {
		return nil, nil, errs.NewValueIsRequiredError("items")
	}
	if p.Address.IsEmpty() {
		return nil, nil, errs.NewValueIsRequiredError("deliveryAddress")
	}

	paymentStatus := p.PaymentStatus
	if paymentStatus == "" {
		paymentStatus = PaymentPending
	}

	now := p.Now.UTC()
	o := &Order{
		id:            p.ID,
		tenantID:      p.TenantID,
		customerID:    p.CustomerID,
		items:         slices.Clone(p.Items),
		deliveryFee:   p.DeliveryFee,
		currency:      p.Currency,
		address:       p.Address,
		paymentMethod: p.PaymentMethod,
		paymentStatus: paymentStatus,
		notes:         p.Notes,
		status:        StatusCreated,
		createdAt:     now,
		updatedAt:     now,
		history: []HistoryEntry{{
			Status:    StatusCreated,
			ActorID:   p.Customer.ID(),
			ActorRole: p.Customer.Role(),
			At:        now,
		}},
		isConstructed: true,
	}
	o.recalculate()

	created := event.OrderCreated{
		Header:      o.header(p.Customer, now),
		Status:      StatusCreated.String(),
		Subtotal:    o.subtotal.Decimal(),
		DeliveryFee: o.deliveryFee.Decimal(),
		Total:       o.total.Decimal(),
		Currency:    o.currency,
		ItemCount:   len(o.items),
	}

	return o, []event.Event{created}, nil
}

// Snapshot is the full persisted state of an order, used by repositories to
// rehydrate and flatten the aggregate. Subtotal and total are derived.
type Snapshot struct {
	ID             kernel.UUID
	TenantID       string
	CustomerID     string
	Items          []LineItem
	DeliveryFee    kernel.Money
	Currency       string
	Address        Address
	PaymentMethod  string
	PaymentStatus  PaymentStatus
	Notes          string
	KitchenStaffID string
	DriverID       string
	Status         Status
	History        []HistoryEntry
	Processed      bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ReadyAt        *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
}

// Restore rebuilds an order read from storage. The restored status becomes the
// predicate of the next conditional write.
func Restore(s Snapshot) (*Order, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.Status.Validate(),
		requireText("tenantId", s.TenantID),
		requireText("customerId", s.CustomerID),
	); err != nil {
		return nil, err
	}

	o := &Order{
		id:              s.ID,
		tenantID:        s.TenantID,
		customerID:      s.CustomerID,
		items:           slices.Clone(s.Items),
		deliveryFee:     s.DeliveryFee,
		currency:        s.Currency,
		address:         s.Address,
		paymentMethod:   s.PaymentMethod,
		paymentStatus:   s.PaymentStatus,
		notes:           s.Notes,
		kitchenStaffID:  s.KitchenStaffID,
		driverID:        s.DriverID,
		status:          s.Status,
		history:         slices.Clone(s.History),
		processed:       s.Processed,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
		readyAt:         s.ReadyAt,
		deliveredAt:     s.DeliveredAt,
		cancelledAt:     s.CancelledAt,
		persistedStatus: s.Status,
		isConstructed:   true,
	}
	o.recalculate()

	return o, nil
}

// Snapshot flattens the aggregate for persistence.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:             o.id,
		TenantID:       o.tenantID,
		CustomerID:     o.customerID,
		Items:          o.Items(),
		DeliveryFee:    o.deliveryFee,
		Currency:       o.currency,
		Address:        o.address,
		PaymentMethod:  o.paymentMethod,
		PaymentStatus:  o.paymentStatus,
		Notes:          o.notes,
		KitchenStaffID: o.kitchenStaffID,
		DriverID:       o.driverID,
		Status:         o.status,
		History:        o.History(),
		Processed:      o.processed,
		CreatedAt:      o.createdAt,
		UpdatedAt:      o.updatedAt,
		ReadyAt:        o.readyAt,
		DeliveredAt:    o.deliveredAt,
		CancelledAt:    o.cancelledAt,
	}
}

// Validate ensures the order was built by NewOrder or Restore.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// Patch carries the optional data that accompanies a transition.
type Patch struct {
	// KitchenStaffID is the chef taking the order on CREATED -> COOKING.
	// Defaults to the acting kitchen staff member.
	KitchenStaffID string
	// DriverID is the driver taking the order on READY -> DELIVERING.
	// Defaults to the acting driver.
	DriverID string
	// Note is stored on the history entry.
	Note string
}

// Transition moves the order to status `to` on behalf of a.
//
// The checks run in order and nothing changes when one fails:
//  1. the edge must exist (errs.InvalidTransitionError, always for terminal orders)
//  2. a's role must be allowed to drive it (errs.ForbiddenError)
//  3. a must have access to this order (errs.ForbiddenError)
//
// On success the status, the matching timestamp and assignee fields, the
// history and updatedAt are changed, and the events describing the change are
// returned for the caller to publish after the store accepted the write:
// always OrderStatusChanged, plus OrderAssigned on COOKING and DELIVERING and
// OrderReady on READY.
func (o *Order) Transition(a actor.Actor, to Status, patch Patch, now time.Time) ([]event.Event, error) {
	if err := errors.Join(o.Validate(), a.Validate()); err != nil {
		return nil, err
	}

	from := o.status
	if err := CheckTransition(a.Role(), from, to); err != nil {
		return nil, err
	}
	if err := o.Authorize(a); err != nil {
		return nil, err
	}

	at := o.nextTimestamp(now)
	switch to {
	case StatusCooking:
		o.kitchenStaffID = firstNonEmpty(patch.KitchenStaffID, a.ID())
	case StatusReady:
		o.readyAt = &at
	case StatusDelivering:
		o.driverID = firstNonEmpty(patch.DriverID, a.ID())
	case StatusDelivered:
		o.deliveredAt = &at
	case StatusCancelled:
		o.cancelledAt = &at
	}

	o.status = to
	o.updatedAt = at
	o.history = append(o.history, HistoryEntry{
		Status:    to,
		ActorID:   a.ID(),
		ActorRole: a.Role(),
		At:        at,
		Note:      patch.Note,
	})

	return o.transitionEvents(a, from, to, patch.Note, at), nil
}

// Authorize checks that a may see and act on this order: customers only on
// their own orders, staff only on orders of their tenant.
func (o *Order) Authorize(a actor.Actor) error {
	if a.Role() == actor.RoleCustomer {
		if a.ID() != o.customerID {
			return errs.NewForbiddenError(a.Role(), "access another customer's order")
		}
		return nil
	}
	if a.TenantID() != o.tenantID {
		return errs.NewForbiddenError(a.Role(), fmt.Sprintf("access an order of tenant %s", o.tenantID))
	}
	return nil
}

// MarkPersisted records that the current state has been written, making the
// current status the predicate of the next conditional write.
func (o *Order) MarkPersisted() {
	o.persistedStatus = o.status
}

// PersistedStatus is the status the store is expected to hold; empty for a
// new, never stored order.
func (o *Order) PersistedStatus() Status {
	return o.persistedStatus
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) TenantID() string {
	return o.tenantID
}

func (o *Order) CustomerID() string {
	return o.customerID
}

// Items returns a copy of the line items.
func (o *Order) Items() []LineItem {
	return slices.Clone(o.items)
}

func (o *Order) Subtotal() kernel.Money {
	return o.subtotal
}

func (o *Order) DeliveryFee() kernel.Money {
	return o.deliveryFee
}

func (o *Order) Total() kernel.Money {
	return o.total
}

func (o *Order) Currency() string {
	return o.currency
}

func (o *Order) Address() Address {
	return o.address
}

func (o *Order) PaymentMethod() string {
	return o.paymentMethod
}

func (o *Order) PaymentStatus() PaymentStatus {
	return o.paymentStatus
}

func (o *Order) Notes() string {
	return o.notes
}

func (o *Order) KitchenStaffID() string {
	return o.kitchenStaffID
}

func (o *Order) DriverID() string {
	return o.driverID
}

func (o *Order) Status() Status {
	return o.status
}

// History returns a copy of the status history, oldest first.
func (o *Order) History() []HistoryEntry {
	return slices.Clone(o.history)
}

func (o *Order) Processed() bool {
	return o.processed
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

func (o *Order) ReadyAt() *time.Time {
	return o.readyAt
}

func (o *Order) DeliveredAt() *time.Time {
	return o.deliveredAt
}

func (o *Order) CancelledAt() *time.Time {
	return o.cancelledAt
}

func (o *Order) recalculate() {
	subtotal := kernel.Zero
	for _, item := range o.items {
		subtotal = subtotal.Add(item.Subtotal())
	}
	o.subtotal = subtotal
	o.total = subtotal.Add(o.deliveryFee)
}

// nextTimestamp returns now, moved just past the last history entry when the
// clock did not advance.
func (o *Order) nextTimestamp(now time.Time) time.Time {
	at := now.UTC()
	if n := len(o.history); n > 0 && !at.After(o.history[n-1].At) {
		at = o.history[n-1].At.Add(historyTick)
	}
	return at
}

func (o *Order) header(a actor.Actor, at time.Time) event.Header {
	return event.Header{
		OrderID:    o.id.String(),
		TenantID:   o.tenantID,
		CustomerID: o.customerID,
		Actor:      event.Actor{ID: a.ID(), Role: a.Role().String()},
		OccurredAt: at,
	}
}

func (o *Order) transitionEvents(a actor.Actor, from, to Status, note string, at time.Time) []event.Event {
	h := o.header(a, at)
	events := []event.Event{event.OrderStatusChanged{
		Header:         h,
		PreviousStatus: from.String(),
		NewStatus:      to.String(),
		KitchenStaffID: o.kitchenStaffID,
		DriverID:       o.driverID,
		Note:           note,
	}}

	switch to {
	case StatusCooking:
		events = append(events, event.OrderAssigned{
			Header:     h,
			Assignment: event.AssignmentKitchen,
			AssigneeID: o.kitchenStaffID,
			Status:     to.String(),
		})
	case StatusReady:
		events = append(events, event.OrderReady{Header: h, ReadyAt: at})
	case StatusDelivering:
		events = append(events, event.OrderAssigned{
			Header:     h,
			Assignment: event.AssignmentDriver,
			AssigneeID: o.driverID,
			Status:     to.String(),
		})
	}

	return events
}

func requireText(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
