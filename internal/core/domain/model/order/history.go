package order

import (
	"time"

	"orderflow/internal/core/domain/model/actor"
)

// HistoryEntry records one status the order entered, who moved it there and when.
type HistoryEntry struct {
	Status    Status
	ActorID   string
	ActorRole actor.Role
	At        time.Time
	Note      string
}

// PaymentStatus is the paid flag of an order. Settlement itself is external.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)
