package unitofwork

import (
	"context"

	"docmind-be/internal/repository"
	"docmind-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
	AiModelRepository() contract.AiModelRepository
	NotificationRepository() repository.NotificationRepository
}
