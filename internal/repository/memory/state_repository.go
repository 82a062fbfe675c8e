package memory

import (
	"sync"
	"time"

	"docmind-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// StateRepository keeps each user's ChatState projection in memory.
// Entries expire after an hour of inactivity; the projection is
// rebuilt from Postgres on the next fetch, so expiry only costs a
// reload.
type StateRepository struct {
	cache *cache.Cache
	mu    sync.Mutex
}

func NewStateRepository() *StateRepository {
	// Default expiration of 1 hour, purge sweep every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &StateRepository{
		cache: c,
	}
}

// Get returns a snapshot of the user's state. Mutating the snapshot
// has no effect; writes go through Update.
func (r *StateRepository) Get(userID string) (*store.ChatState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, found := r.get(userID)
	if !found {
		return nil, false
	}
	return snapshot(state), true
}

func (r *StateRepository) get(userID string) (*store.ChatState, bool) {
	if x, found := r.cache.Get(userID); found {
		return x.(*store.ChatState), true
	}
	return nil, false
}

func (r *StateRepository) Save(state *store.ChatState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Set(state.UserID, state, cache.DefaultExpiration)
}

func (r *StateRepository) Delete(userID string) {
	r.cache.Delete(userID)
}

// Update applies fn to the user's state under the repository lock,
// creating an empty state first if none exists. All read-modify-write
// cycles on ChatState must go through here.
func (r *StateRepository) Update(userID string, fn func(state *store.ChatState)) *store.ChatState {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, found := r.get(userID)
	if !found {
		state = &store.ChatState{UserID: userID}
	}
	fn(state)
	r.cache.Set(userID, state, cache.DefaultExpiration)
	return snapshot(state)
}

// snapshot deep-copies the slices so readers never share backing
// arrays with the stored state.
func snapshot(state *store.ChatState) *store.ChatState {
	copied := *state
	copied.Sessions = append([]store.SessionSummary(nil), state.Sessions...)
	if state.Sequence != nil {
		copied.Sequence = append([]store.Turn{}, state.Sequence...)
	}
	return &copied
}
