// Package order implements the Order aggregate root and its lifecycle state machine.
//
// The package includes:
//   - Order: the aggregate root created at checkout and driven through its lifecycle
//   - Status: the lifecycle states and the legal edges between them
//   - CheckTransition: the guard combining edge legality with role capabilities
//   - LineItem, Address, HistoryEntry: value objects owned by the aggregate
//
// Lifecycle:
//
//	CREATED ──> COOKING ──> READY ──> DELIVERING ──> DELIVERED
//	   │           │          │            │
//	   └───────────┴──────────┴────────────┴──────> CANCELLED
//
// DELIVERED and CANCELLED are terminal. Every accepted transition appends one
// history entry and returns the domain events the caller must publish once the
// new state is stored.
package order
