package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"orderflow/internal/core/domain/model/connection"
	"orderflow/internal/core/ports"
)

var _ ports.ConnectionRegistry = (*ConnectionRegistry)(nil)

// ConnectionRegistry keeps connections in a map and drops expired ones when
// they are listed.
type ConnectionRegistry struct {
	mu    sync.Mutex
	conns map[string]connection.Connection
	now   func() time.Time
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[string]connection.Connection),
		now:   time.Now,
	}
}

// WithClock replaces the time source. Tests use it to expire connections.
func (r *ConnectionRegistry) WithClock(now func() time.Time) *ConnectionRegistry {
	r.now = now
	return r
}

func (r *ConnectionRegistry) Register(_ context.Context, conn connection.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[conn.ID] = conn
	return nil
}

func (r *ConnectionRegistry) Deregister(_ context.Context, connectionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connectionID)
	return nil
}

func (r *ConnectionRegistry) ListByTenant(_ context.Context, tenantID string) ([]string, error) {
	return r.list(func(c connection.Connection) bool { return c.TenantID == tenantID }), nil
}

func (r *ConnectionRegistry) ListByUser(_ context.Context, userID string) ([]string, error) {
	return r.list(func(c connection.Connection) bool { return c.UserID == userID }), nil
}

func (r *ConnectionRegistry) ListAll(_ context.Context) ([]string, error) {
	return r.list(func(connection.Connection) bool { return true }), nil
}

func (r *ConnectionRegistry) list(match func(connection.Connection) bool) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	ids := make([]string, 0)
	for id, c := range r.conns {
		if c.IsExpired(now) {
			delete(r.conns, id)
			continue
		}
		if match(c) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
