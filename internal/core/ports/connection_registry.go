package ports

import (
	"context"

	"orderflow/internal/core/domain/model/connection"
)

// ConnectionRegistry tracks live WebSocket connections. Entries expire on
// their own after the connection TTL; writes are last-write-wins per id.
type ConnectionRegistry interface {
	Register(ctx context.Context, conn connection.Connection) error
	// Deregister is idempotent: removing an unknown id succeeds.
	Deregister(ctx context.Context, connectionID string) error
	ListByTenant(ctx context.Context, tenantID string) ([]string, error)
	ListByUser(ctx context.Context, userID string) ([]string, error)
	ListAll(ctx context.Context) ([]string, error)
}

// SocketPusher delivers a payload to one connection. It returns an error
// wrapping errs.ErrGone when the connection no longer exists.
type SocketPusher interface {
	Push(ctx context.Context, connectionID string, payload []byte) error
}
