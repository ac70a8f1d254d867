// Package orderrepo maps order aggregates onto the orders table. Line items,
// the delivery address and the status history are stored as JSONB columns;
// money is stored as numeric.
package orderrepo

import (
	"time"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// OrderDTO is the row of the orders table. Timestamps come from the
// aggregate, never from GORM's auto time tracking.
type OrderDTO struct {
	ID             string          `gorm:"type:uuid;primaryKey"`
	TenantID       string          `gorm:"size:64;not null;index:idx_orders_tenant_status"`
	CustomerID     string          `gorm:"size:64;not null;index"`
	Items          []ItemDTO       `gorm:"type:jsonb;serializer:json;not null"`
	Subtotal       decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DeliveryFee    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Currency       string          `gorm:"size:3;not null"`
	Address        AddressDTO      `gorm:"type:jsonb;serializer:json;not null"`
	PaymentMethod  string          `gorm:"size:32"`
	PaymentStatus  string          `gorm:"size:16;not null"`
	Notes          string          `gorm:"type:text"`
	KitchenStaffID string          `gorm:"size:64"`
	DriverID       string          `gorm:"size:64;index"`
	Status         string          `gorm:"size:16;not null;index:idx_orders_tenant_status"`
	History        []HistoryDTO    `gorm:"type:jsonb;serializer:json;not null"`
	Processed      bool            `gorm:"not null;default:false"`
	ProcessedAt    *time.Time      `gorm:"index"`
	CreatedAt      time.Time       `gorm:"autoCreateTime:false;not null"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime:false;not null"`
	ReadyAt        *time.Time
	DeliveredAt    *time.Time
	CancelledAt    *time.Time
}

func (OrderDTO) TableName() string {
	return "orders"
}

type ItemDTO struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type AddressDTO struct {
	Street    string `json:"street,omitempty"`
	District  string `json:"district,omitempty"`
	Reference string `json:"reference,omitempty"`
	Raw       string `json:"raw,omitempty"`
}

type HistoryDTO struct {
	Status    string    `json:"status"`
	ActorID   string    `json:"actorId"`
	ActorRole string    `json:"actorRole"`
	At        time.Time `json:"at"`
	Note      string    `json:"note,omitempty"`
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	items := make([]ItemDTO, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, ItemDTO{
			ProductID: it.ProductID(),
			Name:      it.Name(),
			UnitPrice: it.UnitPrice().Decimal(),
			Quantity:  it.Quantity(),
		})
	}

	history := make([]HistoryDTO, 0, len(s.History))
	for _, h := range s.History {
		history = append(history, HistoryDTO{
			Status:    h.Status.String(),
			ActorID:   h.ActorID,
			ActorRole: h.ActorRole.String(),
			At:        h.At,
			Note:      h.Note,
		})
	}

	return OrderDTO{
		ID:          s.ID.String(),
		TenantID:    s.TenantID,
		CustomerID:  s.CustomerID,
		Items:       items,
		Subtotal:    o.Subtotal().Decimal(),
		DeliveryFee: s.DeliveryFee.Decimal(),
		Total:       o.Total().Decimal(),
		Currency:    s.Currency,
		Address: AddressDTO{
			Street:    s.Address.Street,
			District:  s.Address.District,
			Reference: s.Address.Reference,
			Raw:       s.Address.Raw,
		},
		PaymentMethod:  s.PaymentMethod,
		PaymentStatus:  string(s.PaymentStatus),
		Notes:          s.Notes,
		KitchenStaffID: s.KitchenStaffID,
		DriverID:       s.DriverID,
		Status:         s.Status.String(),
		History:        history,
		Processed:      s.Processed,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
		ReadyAt:        s.ReadyAt,
		DeliveredAt:    s.DeliveredAt,
		CancelledAt:    s.CancelledAt,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromString(dto.ID)
	if err != nil {
		return nil, err
	}

	items := make([]order.LineItem, 0, len(dto.Items))
	for _, it := range dto.Items {
		price, priceErr := kernel.NewMoney(it.UnitPrice)
		if priceErr != nil {
			return nil, priceErr
		}
		li, itemErr := order.NewLineItem(it.ProductID, it.Name, price, it.Quantity)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, li)
	}

	history := make([]order.HistoryEntry, 0, len(dto.History))
	for _, h := range dto.History {
		history = append(history, order.HistoryEntry{
			Status:    order.ParseStatus(h.Status),
			ActorID:   h.ActorID,
			ActorRole: actor.Role(h.ActorRole),
			At:        h.At.UTC(),
			Note:      h.Note,
		})
	}

	fee, err := kernel.NewMoney(dto.DeliveryFee)
	if err != nil {
		return nil, err
	}

	return order.Restore(order.Snapshot{
		ID:          id,
		TenantID:    dto.TenantID,
		CustomerID:  dto.CustomerID,
		Items:       items,
		DeliveryFee: fee,
		Currency:    dto.Currency,
		Address: order.Address{
			Street:    dto.Address.Street,
			District:  dto.Address.District,
			Reference: dto.Address.Reference,
			Raw:       dto.Address.Raw,
		},
		PaymentMethod:  dto.PaymentMethod,
		PaymentStatus:  order.PaymentStatus(dto.PaymentStatus),
		Notes:          dto.Notes,
		KitchenStaffID: dto.KitchenStaffID,
		DriverID:       dto.DriverID,
		Status:         order.ParseStatus(dto.Status),
		History:        history,
		Processed:      dto.Processed,
		CreatedAt:      dto.CreatedAt.UTC(),
		UpdatedAt:      dto.UpdatedAt.UTC(),
		ReadyAt:        utcPtr(dto.ReadyAt),
		DeliveredAt:    utcPtr(dto.DeliveredAt),
		CancelledAt:    utcPtr(dto.CancelledAt),
	})
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
