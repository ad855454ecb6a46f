package eventhandler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

const testUser = "a1b2c3d4-0000-4000-8000-000000000001"

type memoryRepo struct {
	states  map[shared.UserID]*progress.UserState
	loadErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{states: make(map[shared.UserID]*progress.UserState)}
}

func (r *memoryRepo) Load(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if state, ok := r.states[userID]; ok {
		return state, nil
	}
	return progress.NewUserState(userID), nil
}

func (r *memoryRepo) Save(ctx context.Context, state *progress.UserState) error {
	r.states[state.UserID] = state
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, userID shared.UserID) error {
	delete(r.states, userID)
	return nil
}

type fakeRemote struct {
	pushed  []*progress.UserState
	pushErr error
}

func (f *fakeRemote) Fetch(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	return nil, shared.ErrNotFound
}

func (f *fakeRemote) Push(ctx context.Context, state *progress.UserState) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, state)
	return nil
}

type recordingPublisher struct {
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestOnStateChanged_PushesSnapshot(t *testing.T) {
	repo := newMemoryRepo()
	remote := &fakeRemote{}
	publisher := &recordingPublisher{}
	handler := NewOnStateChangedHandler(repo, remote, publisher, nil, StateChangedConfig{})

	state := progress.NewUserState(shared.UserID(testUser))
	_, err := state.AwardXP(50, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), state))

	err = handler.Handle(shared.NewStateChangedEvent(testUser, "lesson_attempt"))
	require.NoError(t, err)

	require.Len(t, remote.pushed, 1)
	assert.Equal(t, shared.XP(50), remote.pushed[0].TotalXP)
	assert.Empty(t, publisher.events)
}

func TestOnStateChanged_PushFailureIsSwallowed(t *testing.T) {
	repo := newMemoryRepo()
	remote := &fakeRemote{pushErr: errors.New("server unreachable")}
	publisher := &recordingPublisher{}
	handler := NewOnStateChangedHandler(repo, remote, publisher, nil, StateChangedConfig{})

	err := handler.Handle(shared.NewStateChangedEvent(testUser, "session_finished"))

	// Local state is the source of truth, send failures never propagate.
	assert.NoError(t, err)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, shared.EventPushFailed, publisher.events[0].EventType())
}

func TestOnStateChanged_LoadFailureSkipsPush(t *testing.T) {
	repo := newMemoryRepo()
	repo.loadErr = errors.New("disk error")
	remote := &fakeRemote{}
	handler := NewOnStateChangedHandler(repo, remote, &recordingPublisher{}, nil, StateChangedConfig{})

	err := handler.Handle(shared.NewStateChangedEvent(testUser, "lesson_attempt"))

	assert.NoError(t, err)
	assert.Empty(t, remote.pushed)
}

func TestOnStateChanged_IgnoresForeignEvents(t *testing.T) {
	remote := &fakeRemote{}
	handler := NewOnStateChangedHandler(newMemoryRepo(), remote, &recordingPublisher{}, nil, StateChangedConfig{})

	err := handler.Handle(shared.NewXPGainedEvent(testUser, 10, 10, 1.0, 10, "session", ""))

	assert.NoError(t, err)
	assert.Empty(t, remote.pushed)
}

func TestOnStateChanged_BadUserIDSkipped(t *testing.T) {
	remote := &fakeRemote{}
	handler := NewOnStateChangedHandler(newMemoryRepo(), remote, &recordingPublisher{}, nil, StateChangedConfig{})

	err := handler.Handle(shared.NewStateChangedEvent("not-a-uuid", "lesson_attempt"))

	assert.NoError(t, err)
	assert.Empty(t, remote.pushed)
}
