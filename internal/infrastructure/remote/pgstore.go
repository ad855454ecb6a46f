package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/persistence/snapshot"
)

// ══════════════════════════════════════════════════════════════════════════════
// POSTGRES STORE
// ══════════════════════════════════════════════════════════════════════════════

// progressSchema holds whole snapshots as JSONB. The backend never
// inspects individual lessons: merge semantics live in the client,
// the server is a dumb document store.
const progressSchema = `
CREATE TABLE IF NOT EXISTS progress_snapshots (
	user_id    UUID PRIMARY KEY,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGStore keeps progress snapshots in PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed remote store and ensures
// the snapshot table exists.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool) (*PGStore, error) {
	if _, err := pool.Exec(ctx, progressSchema); err != nil {
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Fetch implements progress.RemoteStore.
func (s *PGStore) Fetch(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	query := `SELECT snapshot FROM progress_snapshots WHERE user_id = $1`

	var data []byte
	err := s.pool.QueryRow(ctx, query, userID.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.WrapError("sync", "Fetch", shared.ErrServiceUnavailable,
			"postgres unreachable", err)
	}

	state, err := snapshot.Decode(data)
	if err != nil {
		return nil, shared.WrapError("sync", "Fetch", shared.ErrInvalidFormat,
			"invalid snapshot in postgres", err)
	}
	return state, nil
}

// Push implements progress.RemoteStore.
func (s *PGStore) Push(ctx context.Context, state *progress.UserState) error {
	data, err := snapshot.Encode(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	query := `
		INSERT INTO progress_snapshots (user_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`
	if _, err := s.pool.Exec(ctx, query, state.UserID.String(), data); err != nil {
		return shared.WrapError("sync", "Push", shared.ErrServiceUnavailable,
			"postgres unreachable", err)
	}
	return nil
}

// Ping verifies connectivity at startup.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
