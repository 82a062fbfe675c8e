package contract

import (
	"context"

	"docmind-be/internal/entity"
	"docmind-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ChatMessageRepository has no update: messages are immutable once
// created. Deletion exists only as the session-delete cascade.
type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
