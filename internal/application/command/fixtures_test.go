package command

import (
	"context"
	"sync"

	"github.com/lingotrail/lingotrail-core/internal/domain/curriculum"
	"github.com/lingotrail/lingotrail-core/internal/domain/progress"
	"github.com/lingotrail/lingotrail-core/internal/domain/shared"
)

const testUser = "a1b2c3d4-0000-4000-8000-000000000001"

// memoryRepo is a map-backed progress.Repository for handler tests.
type memoryRepo struct {
	mu     sync.Mutex
	states map[shared.UserID]*progress.UserState
	saves  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{states: make(map[shared.UserID]*progress.UserState)}
}

func (r *memoryRepo) Load(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[userID]; ok {
		return state, nil
	}
	return progress.NewUserState(userID), nil
}

func (r *memoryRepo) Save(ctx context.Context, state *progress.UserState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.UserID] = state
	r.saves++
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, userID shared.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, userID)
	return nil
}

// fakeRemote is a scriptable progress.RemoteStore.
type fakeRemote struct {
	fetchState *progress.UserState
	fetchErr   error
	pushed     []*progress.UserState
	pushErr    error
}

func (f *fakeRemote) Fetch(ctx context.Context, userID shared.UserID) (*progress.UserState, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.fetchState, nil
}

func (f *fakeRemote) Push(ctx context.Context, state *progress.UserState) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, state)
	return nil
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *recordingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) byType(eventType shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []shared.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

// fixtureCatalog: greetings unlocks food, food unlocks travel.
func fixtureCatalog() *curriculum.Catalog {
	catalog, err := curriculum.NewCatalog([]curriculum.Unit{
		{
			ID: "unit-greetings", Title: "Greetings", CEFR: shared.CEFRA1,
			Lessons: []curriculum.Lesson{
				{ID: "greet-01", UnitID: "unit-greetings", BaseXP: 20, PassScore: 70},
				{ID: "greet-02", UnitID: "unit-greetings", BaseXP: 20, PassScore: 70},
			},
		},
		{
			ID: "unit-food", Title: "Food", CEFR: shared.CEFRA1,
			Prerequisites: []shared.UnitID{"unit-greetings"},
			Lessons: []curriculum.Lesson{
				{ID: "food-01", UnitID: "unit-food", BaseXP: 25, PassScore: 70},
			},
		},
		{
			ID: "unit-travel", Title: "Travel", CEFR: shared.CEFRA2,
			Prerequisites: []shared.UnitID{"unit-food"},
			Lessons: []curriculum.Lesson{
				{ID: "travel-01", UnitID: "unit-travel", BaseXP: 30, PassScore: 75},
			},
		},
	})
	if err != nil {
		panic(err)
	}
	return catalog
}
