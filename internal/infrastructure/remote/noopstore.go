package remote

import (
	"context"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

// NoopStore is the offline backend: fetches report an empty server
// and pushes succeed without doing anything. The engine runs fully
// local and never notices the difference.
type NoopStore struct{}

// NewNoopStore creates the offline store.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

// Fetch implements progress.RemoteStore.
func (NoopStore) Fetch(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	return nil, shared.ErrNotFound
}

// Push implements progress.RemoteStore.
func (NoopStore) Push(ctx context.Context, state *progress.UserState) error {
	return nil
}
