package service

import (
	"context"
	"testing"
	"time"

	"docmind-be/internal/constant"
	"docmind-be/internal/dto"
	"docmind-be/internal/entity"
	"docmind-be/internal/repository/memory"
	"docmind-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSessions(store *fakeStore, userId uuid.UUID, titles ...string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(titles))
	base := time.Now().Add(-time.Hour)
	for i, title := range titles {
		id := uuid.New()
		ids = append(ids, id)
		store.sessions = append(store.sessions, &entity.ChatSession{
			Id:        id,
			UserId:    userId,
			Title:     title,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return ids
}

func TestGetAllReturnsNewestFirst(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	ids := seedSessions(store, userId, "oldest", "middle", "newest")

	stateRepo := memory.NewStateRepository()
	svc := NewSessionService(&fakeFactory{store: store}, stateRepo, &fakeBus{}, nopLogger{})

	res, err := svc.GetAll(context.Background(), userId)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "newest", res[0].Title)
	assert.Equal(t, "oldest", res[2].Title)

	// With nothing selected yet, the newest becomes current.
	assert.True(t, res[0].Current)
	state, _ := stateRepo.Get(userId.String())
	assert.Equal(t, ids[2].String(), state.CurrentSessionID)
}

func TestGetAllFailureKeepsProjection(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	ids := seedSessions(store, userId, "only")

	stateRepo := memory.NewStateRepository()
	svc := NewSessionService(&fakeFactory{store: store}, stateRepo, &fakeBus{}, nopLogger{})

	_, err := svc.GetAll(context.Background(), userId)
	require.NoError(t, err)

	store.sessionFindErr = errBoom
	_, err = svc.GetAll(context.Background(), userId)
	require.Error(t, err)

	// The last good projection survives the failed refresh.
	state, found := stateRepo.Get(userId.String())
	require.True(t, found)
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, ids[0].String(), state.CurrentSessionID)
}

func TestCreateSessionBecomesCurrent(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	seedSessions(store, userId, "existing")

	stateRepo := memory.NewStateRepository()
	svc := NewSessionService(&fakeFactory{store: store}, stateRepo, &fakeBus{}, nopLogger{})
	_, err := svc.GetAll(context.Background(), userId)
	require.NoError(t, err)

	res, err := svc.Create(context.Background(), userId)
	require.NoError(t, err)
	assert.Equal(t, constant.DefaultSessionTitle, res.Title)

	state, _ := stateRepo.Get(userId.String())
	assert.Equal(t, res.Id.String(), state.CurrentSessionID)
	assert.Empty(t, state.Sequence)
	require.Len(t, state.Sessions, 2)
	assert.Equal(t, res.Id.String(), state.Sessions[0].Id)
}

func TestSelectLoadsHistoryAscending(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	ids := seedSessions(store, userId, "a", "b")

	now := time.Now()
	store.messages = []*entity.ChatMessage{
		{Id: uuid.New(), ChatSessionId: ids[0], Role: constant.ChatMessageRoleAssistant, Content: "second", CreatedAt: now},
		{Id: uuid.New(), ChatSessionId: ids[0], Role: constant.ChatMessageRoleUser, Content: "first", CreatedAt: now.Add(-time.Minute)},
		{Id: uuid.New(), ChatSessionId: ids[1], Role: constant.ChatMessageRoleUser, Content: "other session", CreatedAt: now},
	}

	stateRepo := memory.NewStateRepository()
	svc := NewSessionService(&fakeFactory{store: store}, stateRepo, &fakeBus{}, nopLogger{})

	res, err := svc.Select(context.Background(), userId, &dto.SelectSessionRequest{ChatSessionId: ids[0]})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "first", res[0].Content)
	assert.Equal(t, "second", res[1].Content)

	state, _ := stateRepo.Get(userId.String())
	assert.Equal(t, ids[0].String(), state.CurrentSessionID)
}

func TestSelectCurrentSessionServedFromCache(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	ids := seedSessions(store, userId, "a")
	store.messages = []*entity.ChatMessage{
		{Id: uuid.New(), ChatSessionId: ids[0], Role: constant.ChatMessageRoleUser, Content: "hi", CreatedAt: time.Now()},
	}

	stateRepo := memory.NewStateRepository()
	svc := NewSessionService(&fakeFactory{store: store}, stateRepo, &fakeBus{}, nopLogger{})

	_, err := svc.Select(context.Background(), userId, &dto.SelectSessionRequest{ChatSessionId: ids[0]})
	require.NoError(t, err)

	// A store outage no longer matters for the already-current session.
	store.sessionFindErr = errBoom
	store.messageFindErr = errBoom
	res, err := svc.Select(context.Background(), userId, &dto.SelectSessionRequest{ChatSessionId: ids[0]})
	require.NoError(t, err)
	assert.Len(t, res, 1)
}

func TestSelectForeignSessionRejected(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	foreign := seedSessions(store, uuid.New(), "not yours")

	svc := NewSessionService(&fakeFactory{store: store}, memory.NewStateRepository(), &fakeBus{}, nopLogger{})

	_, err := svc.Select(context.Background(), userId, &dto.SelectSessionRequest{ChatSessionId: foreign[0]})
	require.Error(t, err)
}

func TestDeleteCurrentPromotesNextMostRecent(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	ids := seedSessions(store, userId, "oldest", "middle", "newest")
	store.messages = []*entity.ChatMessage{
		{Id: uuid.New(), ChatSessionId: ids[2], Role: constant.ChatMessageRoleUser, Content: "doomed", CreatedAt: time.Now()},
	}

	stateRepo := memory.NewStateRepository()
	bus := &fakeBus{}
	svc := NewSessionService(&fakeFactory{store: store}, stateRepo, bus, nopLogger{})

	_, err := svc.GetAll(context.Background(), userId)
	require.NoError(t, err)

	// Newest is current; deleting it promotes "middle".
	err = svc.Delete(context.Background(), userId, &dto.DeleteSessionRequest{ChatSessionId: ids[2]})
	require.NoError(t, err)

	state, _ := stateRepo.Get(userId.String())
	assert.Equal(t, ids[1].String(), state.CurrentSessionID)
	assert.Empty(t, state.Sequence)
	assert.Len(t, state.Sessions, 2)

	// Messages cascaded.
	assert.Empty(t, store.messages)
	assert.Len(t, store.sessions, 2)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TypeSessionDeleted, bus.published[0].EventType())
}

func TestDeleteNonCurrentKeepsSelection(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	ids := seedSessions(store, userId, "older", "newest")

	stateRepo := memory.NewStateRepository()
	svc := NewSessionService(&fakeFactory{store: store}, stateRepo, &fakeBus{}, nopLogger{})

	_, err := svc.GetAll(context.Background(), userId)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), userId, &dto.DeleteSessionRequest{ChatSessionId: ids[0]})
	require.NoError(t, err)

	state, _ := stateRepo.Get(userId.String())
	assert.Equal(t, ids[1].String(), state.CurrentSessionID)
	assert.Len(t, state.Sessions, 1)
}

func TestDeleteLastSessionLeavesNoCurrent(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	ids := seedSessions(store, userId, "only")

	stateRepo := memory.NewStateRepository()
	svc := NewSessionService(&fakeFactory{store: store}, stateRepo, &fakeBus{}, nopLogger{})

	_, err := svc.GetAll(context.Background(), userId)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), userId, &dto.DeleteSessionRequest{ChatSessionId: ids[0]})
	require.NoError(t, err)

	state, _ := stateRepo.Get(userId.String())
	assert.Empty(t, state.CurrentSessionID)
	assert.Empty(t, state.Sessions)
}

func TestDeleteForeignSessionRejected(t *testing.T) {
	userId := uuid.New()
	store := newFakeStore()
	foreign := seedSessions(store, uuid.New(), "not yours")

	svc := NewSessionService(&fakeFactory{store: store}, memory.NewStateRepository(), &fakeBus{}, nopLogger{})

	err := svc.Delete(context.Background(), userId, &dto.DeleteSessionRequest{ChatSessionId: foreign[0]})
	require.Error(t, err)
	assert.Len(t, store.sessions, 1)
}
