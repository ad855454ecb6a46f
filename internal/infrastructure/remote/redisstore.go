package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/persistence/snapshot"
)

// keyPrefix namespaces progress snapshots in a shared Redis instance.
const keyPrefix = "lingotrail:progress:"

// RedisStore keeps progress snapshots in Redis. Used by self-hosted
// deployments that already run Redis and want cheap snapshot backup
// without the full HTTP backend.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed remote store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func snapshotKey(userID shared.UserID) string {
	return keyPrefix + userID.String()
}

// Fetch implements progress.RemoteStore.
func (s *RedisStore) Fetch(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	data, err := s.client.Get(ctx, snapshotKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapError("sync", "Fetch", shared.ErrServiceUnavailable,
			"redis unreachable", err)
	}

	state, err := snapshot.Decode(data)
	if err != nil {
		return nil, shared.WrapError("sync", "Fetch", shared.ErrInvalidFormat,
			"invalid snapshot in redis", err)
	}
	return state, nil
}

// Push implements progress.RemoteStore. Snapshots have no TTL:
// a backup that silently expires is worse than no backup.
func (s *RedisStore) Push(ctx context.Context, state *progress.UserState) error {
	data, err := snapshot.Encode(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.client.Set(ctx, snapshotKey(state.UserID), data, 0).Err(); err != nil {
		return shared.WrapError("sync", "Push", shared.ErrServiceUnavailable,
			"redis unreachable", err)
	}
	return nil
}

// Ping verifies connectivity at startup.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
