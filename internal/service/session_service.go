package service

import (
	"context"
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
	"docmind-be/pkg/store"

	"github.com/google/uuid"
)

// ISessionService owns the per-user session projection and the
// current-session pointer: list, create, select, delete.
type ISessionService interface {
	GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error)
	Create(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	Select(ctx context.Context, userId uuid.UUID, req *dto.SelectSessionRequest) ([]*dto.ChatMessageResponse, error)
	Delete(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error
}

type sessionService struct {
	uowFactory     unitofwork.RepositoryFactory
	stateRepo      *memory.StateRepository
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.StateRepository,
	eventPublisher EventPublisher,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory:     uowFactory,
		stateRepo:      stateRepo,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// GetAll returns the user's sessions newest first and refreshes the
// in-memory projection. On a store failure the last-known projection
// is kept untouched and the error is returned.
func (s *sessionService) GetAll(ctx context.Context, userId uuid.UUID) ([]*dto.GetAllSessionsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, serverutils.NewPersistenceError(err)
	}

	summaries := make([]store.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, store.SessionSummary{
			Id:        sess.Id.String(),
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt,
		})
	}

	state := s.stateRepo.Update(userId.String(), func(st *store.ChatState) {
		st.Sessions = summaries
		// Default the pointer to the newest session when nothing is
		// selected yet; its history loads on the first Select call.
		if st.CurrentSessionID == "" && len(summaries) > 0 {
			st.CurrentSessionID = summaries[0].Id
		}
		if st.CurrentSessionID != "" && st.SessionIndex(st.CurrentSessionID) < 0 {
			// Current session vanished server-side (deleted elsewhere).
			st.CurrentSessionID = ""
			st.Sequence = nil
		}
	})

	response := make([]*dto.GetAllSessionsResponse, 0, len(sessions))
	for _, sess := range sessions {
		response = append(response, &dto.GetAllSessionsResponse{
			Id:        sess.Id,
			Title:     sess.Title,
			CreatedAt: sess.CreatedAt,
			Current:   state.CurrentSessionID == sess.Id.String(),
		})
	}

	return response, nil
}

// Create inserts an empty session with the default title, prepends it
// to the projection and makes it current with an empty sequence.
func (s *sessionService) Create(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session := entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     constant.DefaultSessionTitle,
		CreatedAt: time.Now(),
	}

	if err := uow.ChatSessionRepository().Create(ctx, &session); err != nil {
		return nil, serverutils.NewPersistenceError(err)
	}

	s.stateRepo.Update(userId.String(), func(st *store.ChatState) {
		st.Sessions = append([]store.SessionSummary{{
			Id:        session.Id.String(),
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
		}}, st.Sessions...)
		st.CurrentSessionID = session.Id.String()
		st.Sequence = nil
	})

	return &dto.CreateSessionResponse{
		Id:        session.Id,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
	}, nil
}

// Select makes a session current and returns its message sequence.
// Selecting the already-current session is a no-op served from the
// cached sequence; anything else discards the sequence and reloads it
// ascending by created_at.
func (s *sessionService) Select(ctx context.Context, userId uuid.UUID, req *dto.SelectSessionRequest) ([]*dto.ChatMessageResponse, error) {
	sessionId := req.ChatSessionId

	if state, found := s.stateRepo.Get(userId.String()); found &&
		state.CurrentSessionID == sessionId.String() && state.Sequence != nil {
		return turnsToResponse(state.Sequence), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, serverutils.NewPersistenceError(err)
	}
	if session == nil {
		return nil, serverutils.NewNotFoundError("session not found or access denied")
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, serverutils.NewPersistenceError(err)
	}

	turns := turnsFromEntities(messages)
	s.stateRepo.Update(userId.String(), func(st *store.ChatState) {
		st.CurrentSessionID = sessionId.String()
		st.Sequence = turns
	})

	return turnsToResponse(turns), nil
}

// Delete removes a session and its messages in one transaction, then
// repairs the projection: if the deleted session was current, the
// next-most-recent remaining one becomes current (or none) and the
// sequence is cleared. An in-flight send for the session is NOT
// awaited or cancelled; its completion writes messages that the
// cascade has already missed, which the store tolerates as orphans.
func (s *sessionService) Delete(ctx context.Context, userId uuid.UUID, req *dto.DeleteSessionRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: req.ChatSessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return serverutils.NewPersistenceError(err)
	}
	if session == nil {
		return serverutils.NewNotFoundError("session not found or access denied")
	}

	if err := uow.Begin(ctx); err != nil {
		return serverutils.NewPersistenceError(err)
	}
	defer uow.Rollback()

	if err := uow.ChatSessionRepository().Delete(ctx, req.ChatSessionId); err != nil {
		return serverutils.NewPersistenceError(err)
	}
	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, req.ChatSessionId); err != nil {
		return serverutils.NewPersistenceError(err)
	}

	if err := uow.Commit(); err != nil {
		return serverutils.NewPersistenceError(err)
	}

	s.stateRepo.Update(userId.String(), func(st *store.ChatState) {
		wasCurrent := st.CurrentSessionID == req.ChatSessionId.String()
		st.RemoveSession(req.ChatSessionId.String())
		if wasCurrent {
			st.CurrentSessionID = ""
			st.Sequence = nil
			if len(st.Sessions) > 0 {
				st.CurrentSessionID = st.Sessions[0].Id
			}
		}
	})

	s.publish(ctx, events.New(events.TypeSessionDeleted, map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": req.ChatSessionId.String(),
		"title":      session.Title,
	}))

	return nil
}

func (s *sessionService) publish(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("SessionService", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
