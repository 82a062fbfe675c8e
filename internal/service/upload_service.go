package service

import (
	"context"
	"errors"
	"io"

	"docmind-be/internal/dto"
	"docmind-be/internal/pkg/logger"
	"docmind-be/internal/pkg/serverutils"
	"docmind-be/internal/repository/memory"
	"docmind-be/pkg/events"
	"docmind-be/pkg/inference"

	"github.com/google/uuid"
)

// IUploadService forwards documents to the inference backend for
// ingestion. Uploads run outside the send guard: an upload and a send
// for the same session may overlap.
type IUploadService interface {
	Upload(ctx context.Context, userId uuid.UUID, filename string, content io.Reader) (*dto.UploadResponse, error)
}

type uploadService struct {
	stateRepo      *memory.StateRepository
	inference      inference.Client
	eventPublisher EventPublisher
	logger         logger.ILogger
}

func NewUploadService(
	stateRepo *memory.StateRepository,
	inferenceClient inference.Client,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IUploadService {
	return &uploadService{
		stateRepo:      stateRepo,
		inference:      inferenceClient,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

// Upload ships one document. The current session id is attached when
// one exists so the backend can scope the document; without one the
// document lands in the user's global context.
func (s *uploadService) Upload(ctx context.Context, userId uuid.UUID, filename string, content io.Reader) (*dto.UploadResponse, error) {
	sessionId := ""
	if state, found := s.stateRepo.Get(userId.String()); found {
		sessionId = state.CurrentSessionID
	}

	resp, err := s.inference.Upload(ctx, &inference.UploadRequest{
		UserId:    userId.String(),
		SessionId: sessionId,
		Filename:  filename,
		Content:   content,
	})
	if err != nil {
		detail := ""
		var remoteErr *inference.RemoteError
		if errors.As(err, &remoteErr) {
			detail = remoteErr.Detail
		}
		s.publish(ctx, events.New(events.TypeUploadFailed, map[string]interface{}{
			"user_id":  userId.String(),
			"filename": filename,
			"detail":   detail,
		}))
		return nil, serverutils.NewUploadError(detail, err)
	}

	s.publish(ctx, events.New(events.TypeUploadCompleted, map[string]interface{}{
		"user_id":  userId.String(),
		"filename": filename,
		"message":  resp.Message,
	}))

	message := resp.Message
	if message == "" {
		message = "Document uploaded"
	}
	return &dto.UploadResponse{Message: message}, nil
}

func (s *uploadService) publish(ctx context.Context, event events.Event) {
	if s.eventPublisher == nil {
		return
	}
	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.Warn("UploadService", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
