package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"docmind-be/internal/dto"
	"docmind-be/internal/entity"
	"docmind-be/internal/model"
	"docmind-be/internal/repository"
	"docmind-be/internal/repository/contract"
	"docmind-be/internal/repository/specification"
	"docmind-be/internal/repository/unitofwork"
	"docmind-be/pkg/events"
	"docmind-be/pkg/inference"

	"github.com/google/uuid"
)

var errBoom = errors.New("boom")

// fakeStore is an in-memory stand-in for the gorm repositories. Specs
// are interpreted by type, mirroring the SQL each one would produce.
type fakeStore struct {
	sessions      []*entity.ChatSession
	messages      []*entity.ChatMessage
	models        []*entity.AiModel
	notifications []model.Notification

	sessionCreateErr error
	sessionFindErr   error
	messageCreateErr error
	messageFindErr   error
	modelFindErr     error

	// messageCreateErrAfter fails message Create once n creates have
	// already succeeded. -1 disables it.
	messageCreateErrAfter int
	messageCreates        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{messageCreateErrAfter: -1}
}

type fakeUow struct{ store *fakeStore }

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeSessionRepo{store: u.store}
}
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &fakeMessageRepo{store: u.store}
}
func (u *fakeUow) AiModelRepository() contract.AiModelRepository {
	return &fakeModelRepo{store: u.store}
}
func (u *fakeUow) NotificationRepository() repository.NotificationRepository {
	return &fakeNotificationRepo{store: u.store}
}

type fakeFactory struct{ store *fakeStore }

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeSessionRepo struct{ store *fakeStore }

func (r *fakeSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	if r.store.sessionCreateErr != nil {
		return r.store.sessionCreateErr
	}
	copied := *session
	r.store.sessions = append(r.store.sessions, &copied)
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, session *entity.ChatSession) error {
	for i, s := range r.store.sessions {
		if s.Id == session.Id {
			copied := *session
			r.store.sessions[i] = &copied
			return nil
		}
	}
	return nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	for i, s := range r.store.sessions {
		if s.Id == id {
			r.store.sessions = append(r.store.sessions[:i], r.store.sessions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	if r.store.sessionFindErr != nil {
		return nil, r.store.sessionFindErr
	}
	matches, err := r.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	copied := *matches[0]
	return &copied, nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	if r.store.sessionFindErr != nil {
		return nil, r.store.sessionFindErr
	}
	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if sessionMatches(s, specs) {
			copied := *s
			out = append(out, &copied)
		}
	}
	applySessionOrder(out, specs)
	return out, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := r.FindAll(ctx, specs...)
	return int64(len(matches)), err
}

func sessionMatches(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch v := spec.(type) {
		case specification.ByID:
			if s.Id != v.ID {
				return false
			}
		case specification.UserOwnedBy:
			if s.UserId != v.UserID {
				return false
			}
		}
	}
	return true
}

func applySessionOrder(sessions []*entity.ChatSession, specs []specification.Specification) {
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "created_at" {
			sort.SliceStable(sessions, func(i, j int) bool {
				if order.Desc {
					return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
				}
				return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
			})
		}
	}
}

type fakeMessageRepo struct{ store *fakeStore }

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.ChatMessage) error {
	if r.store.messageCreateErr != nil {
		return r.store.messageCreateErr
	}
	if r.store.messageCreateErrAfter >= 0 && r.store.messageCreates >= r.store.messageCreateErrAfter {
		return errBoom
	}
	r.store.messageCreates++
	copied := *message
	r.store.messages = append(r.store.messages, &copied)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	if r.store.messageFindErr != nil {
		return nil, r.store.messageFindErr
	}
	var out []*entity.ChatMessage
	for _, m := range r.store.messages {
		if messageMatches(m, specs) {
			copied := *m
			out = append(out, &copied)
		}
	}
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "created_at" {
			sort.SliceStable(out, func(i, j int) bool {
				if order.Desc {
					return out[i].CreatedAt.After(out[j].CreatedAt)
				}
				return out[i].CreatedAt.Before(out[j].CreatedAt)
			})
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, chatSessionId uuid.UUID) error {
	var kept []*entity.ChatMessage
	for _, m := range r.store.messages {
		if m.ChatSessionId != chatSessionId {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	matches, err := r.FindAll(ctx, specs...)
	return int64(len(matches)), err
}

func messageMatches(m *entity.ChatMessage, specs []specification.Specification) bool {
	for _, spec := range specs {
		if v, ok := spec.(specification.ByChatSessionID); ok && m.ChatSessionId != v.ChatSessionID {
			return false
		}
	}
	return true
}

type fakeModelRepo struct{ store *fakeStore }

func (r *fakeModelRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AiModel, error) {
	matches, err := r.FindAll(ctx, specs...)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

func (r *fakeModelRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AiModel, error) {
	if r.store.modelFindErr != nil {
		return nil, r.store.modelFindErr
	}
	activeOnly := false
	for _, spec := range specs {
		if _, ok := spec.(specification.ActiveOnly); ok {
			activeOnly = true
		}
	}
	var out []*entity.AiModel
	for _, m := range r.store.models {
		if activeOnly && !m.IsActive {
			continue
		}
		copied := *m
		out = append(out, &copied)
	}
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "display_name" {
			sort.SliceStable(out, func(i, j int) bool {
				return out[i].DisplayName < out[j].DisplayName
			})
		}
	}
	return out, nil
}

type fakeNotificationRepo struct{ store *fakeStore }

func (r *fakeNotificationRepo) CreateNotification(ctx context.Context, notification *model.Notification) error {
	r.store.notifications = append(r.store.notifications, *notification)
	return nil
}

func (r *fakeNotificationRepo) GetNotificationsByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	var out []model.Notification
	for _, n := range r.store.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	total := int64(len(out))
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, total, nil
}

func (r *fakeNotificationRepo) GetUnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range r.store.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, notificationID uuid.UUID) error {
	for i, n := range r.store.notifications {
		if n.ID == notificationID {
			r.store.notifications[i].IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	for i, n := range r.store.notifications {
		if n.UserID == userID {
			r.store.notifications[i].IsRead = true
		}
	}
	return nil
}

// fakeInference records calls and answers from a script.
type fakeInference struct {
	chatCalls   int
	uploadCalls int
	lastChat    *inference.ChatRequest

	chatResponse *inference.ChatResponse
	chatErr      error
	uploadResp   *inference.UploadResponse
	uploadErr    error

	// blockChat, when set, parks Chat until the test closes it; entered
	// is closed once Chat has been reached.
	blockChat chan struct{}
	entered   chan struct{}
}

func (f *fakeInference) Chat(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
	f.chatCalls++
	f.lastChat = req
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.blockChat != nil {
		<-f.blockChat
	}
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if f.chatResponse != nil {
		return f.chatResponse, nil
	}
	return &inference.ChatResponse{Response: "stub reply"}, nil
}

func (f *fakeInference) Upload(ctx context.Context, req *inference.UploadRequest) (*inference.UploadResponse, error) {
	f.uploadCalls++
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if f.uploadResp != nil {
		return f.uploadResp, nil
	}
	return &inference.UploadResponse{Status: "success", Message: "ok"}, nil
}

// fakeBus collects published events.
type fakeBus struct {
	published []events.Event
	err       error
}

func (f *fakeBus) Publish(ctx context.Context, event events.Event) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, event)
	return nil
}

// fakeTitlePublisher collects session title messages.
type fakeTitlePublisher struct {
	messages []string
}

func (f *fakeTitlePublisher) PublishSessionTitle(msg *dto.SessionTitleMessage) error {
	f.messages = append(f.messages, msg.FirstMessage)
	return nil
}

func mustJSON(t interface{ Fatalf(string, ...interface{}) }, v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
