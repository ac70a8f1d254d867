// Package connection models a live WebSocket client as tracked by the
// connection registry.
package connection

import (
	"strings"
	"time"

	"orderflow/internal/pkg/errs"
)

// DefaultTTL bounds how long a registration survives without being refreshed.
const DefaultTTL = 2 * time.Hour

// Connection is a registered client. UserID, TenantID and Role are empty for
// anonymous clients, which only receive tenant-less broadcasts.
type Connection struct {
	ID          string
	UserID      string
	TenantID    string
	Role        string
	ConnectedAt time.Time
	ExpiresAt   time.Time
}

// New registers id at now, expiring after ttl (DefaultTTL when ttl <= 0).
func New(id, userID, tenantID, role string, now time.Time, ttl time.Duration) (Connection, error) {
	if strings.TrimSpace(id) == "" {
		return Connection{}, errs.NewValueIsRequiredError("connectionId")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return Connection{
		ID:          id,
		UserID:      userID,
		TenantID:    tenantID,
		Role:        role,
		ConnectedAt: now.UTC(),
		ExpiresAt:   now.UTC().Add(ttl),
	}, nil
}

// IsExpired reports whether the registration lapsed at now.
func (c Connection) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// TTL is the remaining lifetime at now, never negative.
func (c Connection) TTL(now time.Time) time.Duration {
	if d := c.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}
