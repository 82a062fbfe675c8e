package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"docmind-be/internal/constant"
	"docmind-be/internal/dto"
	"docmind-be/internal/entity"
	"docmind-be/internal/pkg/logger"
	"docmind-be/internal/pkg/serverutils"
	"docmind-be/internal/repository/memory"
	"docmind-be/internal/repository/specification"
	"docmind-be/internal/repository/unitofwork"
	"docmind-be/pkg/events"
	"docmind-be/pkg/inference"
	"docmind-be/pkg/store"

	"github.com/google/uuid"
)

// IChatService runs the send protocol against the current session and
// serves the cached message sequence.
type IChatService interface {
	History(ctx context.Context, userId uuid.UUID) ([]*dto.ChatMessageResponse, error)
	Send(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	stateRepo      *memory.StateRepository
	modelService   IModelService
	inference      inference.Client
	eventPublisher EventPublisher
	publisher      IPublisherService
	logger         logger.ILogger

	// inflight tracks sessions with a send in progress. Kept out of the
	// expiring state cache on purpose: cache eviction must never be able
	// to release (or wedge) a guard.
	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.StateRepository,
	modelService IModelService,
	inferenceClient inference.Client,
	eventPublisher EventPublisher,
	publisher IPublisherService,
	log logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		stateRepo:      stateRepo,
		modelService:   modelService,
		inference:      inferenceClient,
		eventPublisher: eventPublisher,
		publisher:      publisher,
		logger:         log,
		inflight:       make(map[uuid.UUID]struct{}),
	}
}

// History returns the cached sequence of the current session. An empty
// slice when no session is current.
func (s *chatService) History(ctx context.Context, userId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	state, found := s.stateRepo.Get(userId.String())
	if !found || state.CurrentSessionID == "" {
		return []*dto.ChatMessageResponse{}, nil
	}
	return turnsToResponse(state.Sequence), nil
}

// Send runs one exchange against the current session:
//
//  1. persist the user turn (failure aborts before any network call),
//  2. ask the inference service for a reply,
//  3. persist the assistant turn.
//
// Blank input, a missing session or model selection, or a send already
// in flight for the session short-circuit into an ignored answer. A
// failure after step 1 leaves the user turn in place; the sequence
// stays consistent with the store at every step.
func (s *chatService) Send(ctx context.Context, userId uuid.UUID, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return s.ignored(userId, ErrEmptyMessage)
	}

	state, found := s.stateRepo.Get(userId.String())
	if !found || state.CurrentSessionID == "" {
		return s.ignored(userId, ErrNoSessionSelected)
	}
	sessionId, err := uuid.Parse(state.CurrentSessionID)
	if err != nil {
		return s.ignored(userId, ErrNoSessionSelected)
	}

	model := s.modelService.SelectedModel(userId)
	if model == nil {
		return s.ignored(userId, ErrNoModelSelected)
	}

	if !s.tryAcquire(sessionId) {
		return s.ignored(userId, ErrSendInFlight)
	}
	defer s.release(sessionId)

	// Whether this exchange is the session's first, decided before the
	// user turn is written.
	uow := s.uowFactory.NewUnitOfWork(ctx)
	priorCount, err := uow.ChatMessageRepository().Count(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
	)
	if err != nil {
		s.logger.Warn("ChatService", "Failed to count prior messages", map[string]interface{}{
			"chat_session_id": sessionId.String(),
			"error":           err.Error(),
		})
		priorCount = -1 // unknown, skip title derivation
	}

	userTurn := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          constant.ChatMessageRoleUser,
		Content:       content,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &userTurn); err != nil {
		s.publishFailure(ctx, userId, sessionId, "Failed to save your message")
		return nil, serverutils.NewPersistenceError(err)
	}

	s.stateRepo.Update(userId.String(), func(st *store.ChatState) {
		st.Sequence = append(st.Sequence, turnFromEntity(&userTurn))
	})

	chatResp, err := s.inference.Chat(ctx, &inference.ChatRequest{
		Query:     content,
		SessionId: sessionId.String(),
		UserId:    userId.String(),
		ModelName: model.ApiModelName,
		UseWeb:    req.UseWeb,
	})
	if err != nil {
		detail := "The assistant is unavailable right now"
		var remoteErr *inference.RemoteError
		if errors.As(err, &remoteErr) && remoteErr.Detail != "" {
			detail = remoteErr.Detail
		}
		s.publishFailure(ctx, userId, sessionId, detail)
		return nil, serverutils.NewInferenceError(detail, err)
	}

	reply := chatResp.Response
	if strings.TrimSpace(reply) == "" {
		reply = constant.FallbackAssistantReply
	}

	assistantTurn := entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Role:          constant.ChatMessageRoleAssistant,
		Content:       reply,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, &assistantTurn); err != nil {
		// The user turn is already durable; the partial exchange stands.
		s.publishFailure(ctx, userId, sessionId, "Failed to save the assistant's reply")
		return nil, serverutils.NewPersistenceError(err)
	}

	s.stateRepo.Update(userId.String(), func(st *store.ChatState) {
		st.Sequence = append(st.Sequence, turnFromEntity(&assistantTurn))
	})

	if priorCount == 0 {
		s.publishTitle(sessionId, content)
	}

	sent := turnsToResponse([]store.Turn{turnFromEntity(&userTurn)})[0]
	replied := turnsToResponse([]store.Turn{turnFromEntity(&assistantTurn)})[0]
	return &dto.SendChatResponse{
		ChatSessionId: sessionId,
		Sent:          sent,
		Reply:         replied,
	}, nil
}

// ignored answers a validation no-op: nothing happened, nothing failed.
func (s *chatService) ignored(userId uuid.UUID, reason error) (*dto.SendChatResponse, error) {
	s.logger.Debug("ChatService", "Send ignored", map[string]interface{}{
		"user_id": userId.String(),
		"reason":  reason.Error(),
	})
	return &dto.SendChatResponse{Ignored: true}, nil
}

func (s *chatService) tryAcquire(sessionId uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[sessionId]; busy {
		return false
	}
	s.inflight[sessionId] = struct{}{}
	return true
}

func (s *chatService) release(sessionId uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, sessionId)
}

func (s *chatService) publishFailure(ctx context.Context, userId, sessionId uuid.UUID, detail string) {
	if s.eventPublisher == nil {
		return
	}
	event := events.New(events.TypeChatFailed, map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": sessionId.String(),
		"detail":     detail,
	})
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("ChatService", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *chatService) publishTitle(sessionId uuid.UUID, firstMessage string) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishSessionTitle(&dto.SessionTitleMessage{
		ChatSessionId: sessionId,
		FirstMessage:  firstMessage,
	})
	if err != nil {
		s.logger.Warn("ChatService", "Failed to publish session title message", map[string]interface{}{
			"chat_session_id": sessionId.String(),
			"error":           err.Error(),
		})
	}
}
