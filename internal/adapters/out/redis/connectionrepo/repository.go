package connectionrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"orderflow/internal/core/domain/model/connection"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

var _ ports.ConnectionRegistry = (*RedisConnectionRepository)(nil)

type RedisConnectionRepository struct {
	rdb *redis.Client
}

func NewRedisConnectionRepository(rdb *redis.Client) *RedisConnectionRepository {
	return &RedisConnectionRepository{rdb: rdb}
}

// Register stores the connection hash with its TTL and adds it to the index
// sets in one MULTI/EXEC. Registering the same id again overwrites it.
func (r *RedisConnectionRepository) Register(ctx context.Context, conn connection.Connection) error {
	ttl := conn.TTL(time.Now())
	if ttl <= 0 {
		return nil
	}

	key := connKey(conn.ID)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"user_id", conn.UserID,
			"tenant_id", conn.TenantID,
			"role", conn.Role,
			"connected_at", conn.ConnectedAt.Format(time.RFC3339Nano),
			"expires_at", conn.ExpiresAt.Format(time.RFC3339Nano),
		)
		pipe.Expire(ctx, key, ttl)

		pipe.SAdd(ctx, KeyAllIndex, conn.ID)
		if conn.TenantID != "" {
			pipe.SAdd(ctx, tenantKey(conn.TenantID), conn.ID)
			pipe.Expire(ctx, tenantKey(conn.TenantID), ttl+indexGrace)
		}
		if conn.UserID != "" {
			pipe.SAdd(ctx, userKey(conn.UserID), conn.ID)
			pipe.Expire(ctx, userKey(conn.UserID), ttl+indexGrace)
		}
		return nil
	})
	if err != nil {
		return registryError(fmt.Errorf("register connection %s: %w", conn.ID, err))
	}
	return nil
}

// Deregister removes the hash and its index entries. Unknown ids succeed.
func (r *RedisConnectionRepository) Deregister(ctx context.Context, connectionID string) error {
	key := connKey(connectionID)
	fields, err := r.rdb.HMGet(ctx, key, "user_id", "tenant_id").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return registryError(fmt.Errorf("deregister connection %s: %w", connectionID, err))
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, KeyAllIndex, connectionID)
		if userID, ok := fieldString(fields, 0); ok {
			pipe.SRem(ctx, userKey(userID), connectionID)
		}
		if tenantID, ok := fieldString(fields, 1); ok {
			pipe.SRem(ctx, tenantKey(tenantID), connectionID)
		}
		return nil
	})
	if err != nil {
		return registryError(fmt.Errorf("deregister connection %s: %w", connectionID, err))
	}
	return nil
}

func (r *RedisConnectionRepository) ListByTenant(ctx context.Context, tenantID string) ([]string, error) {
	return r.listIndex(ctx, tenantKey(tenantID))
}

func (r *RedisConnectionRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	return r.listIndex(ctx, userKey(userID))
}

func (r *RedisConnectionRepository) ListAll(ctx context.Context) ([]string, error) {
	return r.listIndex(ctx, KeyAllIndex)
}

// listIndex returns the members of index whose connection hash still exists
// and removes the others from the set.
func (r *RedisConnectionRepository) listIndex(ctx context.Context, index string) ([]string, error) {
	members, err := r.rdb.SMembers(ctx, index).Result()
	if err != nil {
		return nil, registryError(fmt.Errorf("list %s: %w", index, err))
	}
	if len(members) == 0 {
		return []string{}, nil
	}

	exists := make([]*redis.IntCmd, len(members))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range members {
			exists[i] = pipe.Exists(ctx, connKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, registryError(fmt.Errorf("list %s: %w", index, err))
	}

	live := make([]string, 0, len(members))
	stale := make([]any, 0)
	for i, id := range members {
		if exists[i].Val() > 0 {
			live = append(live, id)
		} else {
			stale = append(stale, id)
		}
	}

	if len(stale) > 0 {
		if err = r.rdb.SRem(ctx, index, stale...).Err(); err != nil {
			return nil, registryError(fmt.Errorf("prune %s: %w", index, err))
		}
	}

	sort.Strings(live)
	return live, nil
}

func fieldString(fields []any, i int) (string, bool) {
	if i >= len(fields) {
		return "", false
	}
	s, ok := fields[i].(string)
	return s, ok && s != ""
}

func registryError(err error) error {
	return errs.NewDownstreamUnavailableError("connection registry", err)
}
