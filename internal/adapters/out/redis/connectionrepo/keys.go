// Package connectionrepo implements the connection registry on Redis. Each
// connection is a hash that expires with the connection TTL; index sets per
// tenant, per user and for all connections point at the hashes and are
// cleaned lazily when a listing finds a member whose hash has expired.
package connectionrepo

import (
	"fmt"
	"time"
)

const (
	// Connection hash: ws:conn:{connection_id} -> {user_id, tenant_id, role, connected_at}
	KeyConnection = "ws:conn:%s"

	// Index sets of connection ids.
	KeyTenantIndex = "ws:tenant:%s"
	KeyUserIndex   = "ws:user:%s"
	KeyAllIndex    = "ws:all"
)

// indexGrace keeps an index set alive a little longer than the newest
// connection it points at.
const indexGrace = 10 * time.Minute

func connKey(id string) string {
	return fmt.Sprintf(KeyConnection, id)
}

func tenantKey(id string) string {
	return fmt.Sprintf(KeyTenantIndex, id)
}

func userKey(id string) string {
	return fmt.Sprintf(KeyUserIndex, id)
}
