package service

import (
	"context"
	"encoding/json"
	"fmt"

	"docmind-be/internal/dto"
	"docmind-be/internal/model"
	"docmind-be/internal/pkg/logger"
	"docmind-be/internal/pkg/serverutils"
	"docmind-be/internal/repository/unitofwork"
	"docmind-be/pkg/events"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationDelivery pushes a persisted notification to connected
// clients in real time. The websocket hub implements it; a nil
// delivery degrades to history-only notifications.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification *model.Notification)
}

// INotificationService turns bus events into persisted, deliverable
// notifications and serves the per-user history.
type INotificationService interface {
	HandleEvent(ctx context.Context, event events.Event) error
	List(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, userId uuid.UUID, notificationId uuid.UUID) error
	MarkAllRead(ctx context.Context, userId uuid.UUID) error
}

type notificationService struct {
	uowFactory unitofwork.RepositoryFactory
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(
	uowFactory unitofwork.RepositoryFactory,
	delivery NotificationDelivery,
	log logger.ILogger,
) INotificationService {
	return &notificationService{
		uowFactory: uowFactory,
		delivery:   delivery,
		logger:     log,
	}
}

// HandleEvent persists one bus event as a notification and pushes it
// to the owning user. Events without a user_id are dropped.
func (s *notificationService) HandleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	userIdRaw, _ := payload["user_id"].(string)
	userId, err := uuid.Parse(userIdRaw)
	if err != nil {
		s.logger.Warn("NotificationService", "Event without a valid user_id", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}

	title, text := renderNotification(event.EventType(), payload)
	if title == "" {
		// Unknown code; nothing user-facing to say.
		return nil
	}

	metadata, err := json.Marshal(payload)
	if err != nil {
		metadata = []byte("{}")
	}

	notification := model.Notification{
		ID:        uuid.New(),
		UserID:    userId,
		TypeCode:  event.EventType(),
		Title:     title,
		Message:   text,
		Metadata:  datatypes.JSON(metadata),
		CreatedAt: event.Timestamp(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().CreateNotification(ctx, &notification); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	if s.delivery != nil {
		s.delivery.Send(userId, &notification)
	}

	return nil
}

func (s *notificationService) List(ctx context.Context, userId uuid.UUID, limit, offset int) (*dto.NotificationListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	notifications, total, err := uow.NotificationRepository().GetNotificationsByUserID(ctx, userId, limit, offset)
	if err != nil {
		return nil, serverutils.NewPersistenceError(err)
	}
	unread, err := uow.NotificationRepository().GetUnreadCount(ctx, userId)
	if err != nil {
		return nil, serverutils.NewPersistenceError(err)
	}

	response := &dto.NotificationListResponse{
		Notifications: make([]dto.NotificationResponse, 0, len(notifications)),
		Total:         total,
		UnreadCount:   unread,
	}
	for _, n := range notifications {
		response.Notifications = append(response.Notifications, dto.NotificationResponse{
			Id:        n.ID,
			TypeCode:  n.TypeCode,
			Title:     n.Title,
			Message:   n.Message,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}

	return response, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userId uuid.UUID, notificationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().MarkAsRead(ctx, notificationId); err != nil {
		return serverutils.NewPersistenceError(err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().MarkAllAsRead(ctx, userId); err != nil {
		return serverutils.NewPersistenceError(err)
	}
	return nil
}

// renderNotification maps an event code to its user-facing title and
// body. Returns empty strings for codes with no user-facing shape.
func renderNotification(code string, payload map[string]interface{}) (string, string) {
	detail, _ := payload["detail"].(string)
	filename, _ := payload["filename"].(string)

	switch code {
	case events.TypeChatFailed:
		if detail == "" {
			detail = "Your message could not be processed."
		}
		return "Message failed", detail
	case events.TypeUploadCompleted:
		if message, ok := payload["message"].(string); ok && message != "" {
			return "Document ready", message
		}
		return "Document ready", fmt.Sprintf("%s has been added to your knowledge base.", filename)
	case events.TypeUploadFailed:
		if detail == "" {
			detail = fmt.Sprintf("%s could not be processed.", filename)
		}
		return "Upload failed", detail
	case events.TypeSessionDeleted:
		title, _ := payload["title"].(string)
		if title == "" {
			title = "A conversation"
		}
		return "Conversation deleted", fmt.Sprintf("%q and its messages were removed.", title)
	}
	return "", ""
}
