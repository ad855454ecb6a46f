// Package local implements the on-device progress store backed by bbolt.
// The local snapshot is the source of truth for the engine; the remote
// backend only ever receives copies of it.
package local

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
	"github.com/lingotrail/lingotrail-core/internal/infrastructure/persistence/snapshot"
	"github.com/lingotrail/lingotrail-core/pkg/logger"
)

var progressBucket = []byte("progress")

// Store persists progress snapshots in a single bbolt file.
type Store struct {
	db  *bolt.DB
	log *logger.Logger
}

// Open opens (or creates) the store at path.
func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open progress store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(progressBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create progress bucket: %w", err)
	}

	return &Store{db: db, log: log.With(logger.Component("local_store"))}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load implements progress.Repository.
//
// A missing snapshot yields a fresh zero state. A corrupt snapshot is
// logged and also yields a zero state: an unreadable file must never
// brick the app.
func (s *Store) Load(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if data := tx.Bucket(progressBucket).Get([]byte(userID)); data != nil {
			raw = make([]byte, len(data))
			copy(raw, data)
		}
		return nil
	})
	if err != nil {
		return nil, shared.WrapError("progress", "Load", shared.ErrExternalService,
			"reading local snapshot", err)
	}

	if raw == nil {
		return progress.NewUserState(userID), nil
	}

	state, err := snapshot.Decode(raw)
	if err != nil {
		s.log.Warn("corrupt progress snapshot, starting from zero state",
			logger.UserID(userID.String()), logger.Err(err))
		return progress.NewUserState(userID), nil
	}
	return state, nil
}

// Save implements progress.Repository. The snapshot is written in a
// single transaction, so readers never observe a partial state.
func (s *Store) Save(ctx context.Context, state *progress.UserState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := snapshot.Encode(state)
	if err != nil {
		return shared.WrapError("progress", "Save", shared.ErrInvalidFormat,
			"encoding snapshot", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(progressBucket).Put([]byte(state.UserID), data)
	})
	if err != nil {
		return shared.WrapError("progress", "Save", shared.ErrExternalService,
			"writing local snapshot", err)
	}
	return nil
}

// Delete implements progress.Repository.
func (s *Store) Delete(ctx context.Context, userID shared.UserID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(progressBucket).Delete([]byte(userID))
	})
}
