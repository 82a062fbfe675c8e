package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Current   bool      `json:"current"`
}

type SelectSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

type DeleteSessionRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
}

type ChatMessageResponse struct {
	Id        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatRequest struct {
	Content string `json:"content"`
	UseWeb  bool   `json:"use_web"`
}

// SendChatResponse carries both turns of a completed exchange. Ignored
// is set when the send was a validation no-op (blank input, no session
// or model selected, or a send already in flight for the session).
type SendChatResponse struct {
	ChatSessionId uuid.UUID            `json:"chat_session_id,omitempty"`
	Ignored       bool                 `json:"ignored,omitempty"`
	Sent          *ChatMessageResponse `json:"sent,omitempty"`
	Reply         *ChatMessageResponse `json:"reply,omitempty"`
}

// SessionTitleMessage is the payload of the async title-derivation
// topic published after a session's first completed exchange.
type SessionTitleMessage struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	FirstMessage  string    `json:"first_message"`
}
