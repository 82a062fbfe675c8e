package store

import "time"

// Turn is one message of the in-memory conversation sequence the
// orchestrator keeps for the user's current session.
type Turn struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"` // "user" | "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary is one entry of the per-user session projection,
// newest first.
type SessionSummary struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatState is the in-memory projection of a user's chat UI state:
// the session list snapshot, the current session pointer, the selected
// model and the loaded message sequence. It is a cache, never the
// source of truth — Postgres is.
type ChatState struct {
	UserID string `json:"user_id"`

	// CurrentSessionID points at one entry of Sessions. Empty means no
	// session is selected and Send is a no-op.
	CurrentSessionID string `json:"current_session_id"`

	// SelectedModelID is a weak reference into the last-fetched active
	// model set. It is not revalidated when the set changes.
	SelectedModelID string `json:"selected_model_id"`

	// Sessions is the last successfully fetched session list, newest
	// first. Kept as-is when a later fetch fails.
	Sessions []SessionSummary `json:"sessions"`

	// Sequence holds the messages of CurrentSessionID, ascending by
	// created_at. Discarded whenever the current session changes.
	Sequence []Turn `json:"sequence"`
}

// SessionIndex returns the position of id in Sessions, or -1.
func (s *ChatState) SessionIndex(id string) int {
	for i, sess := range s.Sessions {
		if sess.Id == id {
			return i
		}
	}
	return -1
}

// RemoveSession drops id from the projection, keeping order.
func (s *ChatState) RemoveSession(id string) {
	idx := s.SessionIndex(id)
	if idx < 0 {
		return
	}
	s.Sessions = append(s.Sessions[:idx], s.Sessions[idx+1:]...)
}
