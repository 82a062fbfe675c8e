package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"docmind-be/internal/constant"
	"docmind-be/internal/dto"
	"docmind-be/internal/entity"
	"docmind-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSessionTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "short message unchanged",
			input: "Plan my trip to Japan",
			want:  "Plan my trip to Japan",
		},
		{
			name:  "whitespace collapsed",
			input: "  What   is\n\tGo?  ",
			want:  "What is Go?",
		},
		{
			name:  "long message truncated on word boundary",
			input: strings.Repeat("word ", 30),
			want:  strings.TrimSpace(strings.Repeat("word ", 12)) + "...",
		},
		{
			name:  "blank stays blank",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveSessionTitle(tt.input)
			if got != tt.want {
				t.Errorf("deriveSessionTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if len([]rune(got)) > sessionTitleMaxLen+3 {
				t.Errorf("title too long: %d runes", len([]rune(got)))
			}
		})
	}
}

func TestHandleSessionTitleRenamesDefaultOnly(t *testing.T) {
	userId := uuid.New()
	defaultId := uuid.New()
	renamedId := uuid.New()

	store := newFakeStore()
	store.sessions = []*entity.ChatSession{
		{Id: defaultId, UserId: userId, Title: constant.DefaultSessionTitle, CreatedAt: time.Now()},
		{Id: renamedId, UserId: userId, Title: "My research", CreatedAt: time.Now()},
	}

	stateRepo := memory.NewStateRepository()
	svc := &consumerService{
		uowFactory: &fakeFactory{store: store},
		stateRepo:  stateRepo,
		logger:     nopLogger{},
	}

	payload := mustJSON(t, &dto.SessionTitleMessage{ChatSessionId: defaultId, FirstMessage: "How do goroutines work?"})
	require.NoError(t, svc.handleSessionTitle(context.Background(), payload))
	assert.Equal(t, "How do goroutines work?", store.sessions[0].Title)

	// A session the user already renamed is left alone.
	payload = mustJSON(t, &dto.SessionTitleMessage{ChatSessionId: renamedId, FirstMessage: "ignored"})
	require.NoError(t, svc.handleSessionTitle(context.Background(), payload))
	assert.Equal(t, "My research", store.sessions[1].Title)

	// A session deleted before the rename is a quiet no-op.
	payload = mustJSON(t, &dto.SessionTitleMessage{ChatSessionId: uuid.New(), FirstMessage: "gone"})
	require.NoError(t, svc.handleSessionTitle(context.Background(), payload))
}

func TestHandleSessionTitleUpdatesProjection(t *testing.T) {
	userId := uuid.New()
	sessionId := uuid.New()

	store := newFakeStore()
	store.sessions = []*entity.ChatSession{
		{Id: sessionId, UserId: userId, Title: constant.DefaultSessionTitle, CreatedAt: time.Now()},
	}

	stateRepo := memory.NewStateRepository()
	sessions := NewSessionService(&fakeFactory{store: store}, stateRepo, &fakeBus{}, nopLogger{})
	_, err := sessions.GetAll(context.Background(), userId)
	require.NoError(t, err)

	svc := &consumerService{
		uowFactory: &fakeFactory{store: store},
		stateRepo:  stateRepo,
		logger:     nopLogger{},
	}

	payload := mustJSON(t, &dto.SessionTitleMessage{ChatSessionId: sessionId, FirstMessage: "Explain channels"})
	require.NoError(t, svc.handleSessionTitle(context.Background(), payload))

	state, _ := stateRepo.Get(userId.String())
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "Explain channels", state.Sessions[0].Title)
}
