package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docmind-be/internal/pkg/serverutils"
	"docmind-be/internal/repository/memory"
	"docmind-be/pkg/events"
	"docmind-be/pkg/inference"
	"docmind-be/pkg/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadAttachesCurrentSession(t *testing.T) {
	userId := uuid.New()
	sessionId := uuid.New()

	stateRepo := memory.NewStateRepository()
	stateRepo.Update(userId.String(), func(st *store.ChatState) {
		st.CurrentSessionID = sessionId.String()
	})

	inf := &fakeInference{uploadResp: &inference.UploadResponse{Status: "success", Message: "3 chunks indexed"}}
	bus := &fakeBus{}
	svc := NewUploadService(stateRepo, inf, bus, nopLogger{})

	res, err := svc.Upload(context.Background(), userId, "notes.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "3 chunks indexed", res.Message)
	assert.Equal(t, 1, inf.uploadCalls)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TypeUploadCompleted, bus.published[0].EventType())
	assert.Equal(t, "notes.pdf", bus.published[0].Payload()["filename"])
}

func TestUploadWithoutSessionStillWorks(t *testing.T) {
	userId := uuid.New()
	inf := &fakeInference{}
	svc := NewUploadService(memory.NewStateRepository(), inf, &fakeBus{}, nopLogger{})

	_, err := svc.Upload(context.Background(), userId, "notes.pdf", strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, 1, inf.uploadCalls)
}

func TestUploadFailureCarriesBackendDetail(t *testing.T) {
	userId := uuid.New()
	inf := &fakeInference{uploadErr: &inference.RemoteError{StatusCode: 422, Detail: "unsupported file type"}}
	bus := &fakeBus{}
	svc := NewUploadService(memory.NewStateRepository(), inf, bus, nopLogger{})

	_, err := svc.Upload(context.Background(), userId, "notes.exe", strings.NewReader("content"))
	require.Error(t, err)

	var appErr *serverutils.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, serverutils.KindUpload, appErr.Kind)
	assert.Equal(t, "unsupported file type", appErr.Message)

	require.Len(t, bus.published, 1)
	assert.Equal(t, events.TypeUploadFailed, bus.published[0].EventType())
}
