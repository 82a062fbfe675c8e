package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"docmind-be/internal/constant"
	"docmind-be/internal/dto"
	"docmind-be/internal/pkg/logger"
	"docmind-be/internal/repository/specification"
	"docmind-be/internal/repository/unitofwork"
	"docmind-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
)

const sessionTitleMaxLen = 60

// IConsumerService runs the in-process background workers.
type IConsumerService interface {
	Start(ctx context.Context) error
}

// consumerService derives session titles from the first user message.
// It runs off the send path so a slow or failed rename can never
// perturb an exchange.
type consumerService struct {
	subscriber message.Subscriber
	uowFactory unitofwork.RepositoryFactory
	stateRepo  stateUpdater
	logger     logger.ILogger
}

// stateUpdater is the slice of the state repository the consumer needs.
type stateUpdater interface {
	Update(userID string, fn func(*store.ChatState)) *store.ChatState
}

func NewConsumerService(
	subscriber message.Subscriber,
	uowFactory unitofwork.RepositoryFactory,
	stateRepo stateUpdater,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		uowFactory: uowFactory,
		stateRepo:  stateRepo,
		logger:     log,
	}
}

func (s *consumerService) Start(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, TopicSessionTitle)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			if err := s.handleSessionTitle(ctx, msg.Payload); err != nil {
				s.logger.Warn("ConsumerService", "Session title derivation failed", map[string]interface{}{
					"message_id": msg.UUID,
					"error":      err.Error(),
				})
			}
			// Renames are best-effort; a failed one is not retried.
			msg.Ack()
		}
	}()

	return nil
}

func (s *consumerService) handleSessionTitle(ctx context.Context, payload []byte) error {
	var titleMsg dto.SessionTitleMessage
	if err := json.Unmarshal(payload, &titleMsg); err != nil {
		return err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: titleMsg.ChatSessionId},
	)
	if err != nil {
		return err
	}
	// Deleted before the rename landed, or already renamed by the user.
	if session == nil || session.Title != constant.DefaultSessionTitle {
		return nil
	}

	title := deriveSessionTitle(titleMsg.FirstMessage)
	if title == "" {
		return nil
	}

	session.Title = title
	now := time.Now()
	session.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return err
	}

	s.stateRepo.Update(session.UserId.String(), func(st *store.ChatState) {
		if i := st.SessionIndex(session.Id.String()); i >= 0 {
			st.Sessions[i].Title = title
		}
	})

	return nil
}

// deriveSessionTitle collapses whitespace and truncates to 60 runes,
// preferring a word boundary.
func deriveSessionTitle(firstMessage string) string {
	title := strings.Join(strings.Fields(firstMessage), " ")
	if utf8.RuneCountInString(title) <= sessionTitleMaxLen {
		return title
	}

	runes := []rune(title)[:sessionTitleMaxLen]
	truncated := string(runes)
	if i := strings.LastIndex(truncated, " "); i > sessionTitleMaxLen/2 {
		truncated = truncated[:i]
	}
	return truncated + "..."
}
