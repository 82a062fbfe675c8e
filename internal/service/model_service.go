package service

import (
	"context"
	"sync"

	"docmind-be/internal/dto"
	"docmind-be/internal/entity"
	"docmind-be/internal/pkg/serverutils"
	"docmind-be/internal/repository/memory"
	"docmind-be/internal/repository/specification"
	"docmind-be/internal/repository/unitofwork"
	"docmind-be/pkg/store"

	"github.com/google/uuid"
)

// IModelService is the registry of selectable inference models: an
// in-memory projection of the active model set plus each user's
// current selection.
type IModelService interface {
	LoadActiveModels(ctx context.Context, userId uuid.UUID) ([]*dto.ModelResponse, error)
	Select(ctx context.Context, userId uuid.UUID, req *dto.SelectModelRequest) error
	SelectedModel(userId uuid.UUID) *entity.AiModel
}

type modelService struct {
	uowFactory unitofwork.RepositoryFactory
	stateRepo  *memory.StateRepository

	// snapshot of the last successfully fetched active set. Selections
	// resolve against this snapshot only; a model going inactive after
	// the fetch is not detected until the next load.
	mu       sync.RWMutex
	snapshot []*entity.AiModel
}

func NewModelService(uowFactory unitofwork.RepositoryFactory, stateRepo *memory.StateRepository) IModelService {
	return &modelService{
		uowFactory: uowFactory,
		stateRepo:  stateRepo,
	}
}

// LoadActiveModels fetches the active set and defaults the user's
// selection to the first entry when nothing is selected yet.
func (s *modelService) LoadActiveModels(ctx context.Context, userId uuid.UUID) ([]*dto.ModelResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	models, err := uow.AiModelRepository().FindAll(ctx,
		specification.ActiveOnly{},
		specification.OrderBy{Field: "display_name", Desc: false},
	)
	if err != nil {
		return nil, serverutils.NewPersistenceError(err)
	}

	s.mu.Lock()
	s.snapshot = models
	s.mu.Unlock()

	state := s.stateRepo.Update(userId.String(), func(st *store.ChatState) {
		if st.SelectedModelID == "" && len(models) > 0 {
			st.SelectedModelID = models[0].Id.String()
		}
	})

	response := make([]*dto.ModelResponse, 0, len(models))
	for _, m := range models {
		response = append(response, &dto.ModelResponse{
			Id:           m.Id,
			DisplayName:  m.DisplayName,
			ApiModelName: m.ApiModelName,
			Selected:     state.SelectedModelID == m.Id.String(),
		})
	}

	return response, nil
}

// Select is a pure reassignment; the id is not revalidated against the
// active set until the next LoadActiveModels.
func (s *modelService) Select(ctx context.Context, userId uuid.UUID, req *dto.SelectModelRequest) error {
	s.stateRepo.Update(userId.String(), func(st *store.ChatState) {
		st.SelectedModelID = req.ModelId.String()
	})
	return nil
}

// SelectedModel resolves the user's selection against the snapshot.
// Returns nil when nothing is selected or the snapshot no longer
// carries the selected id (e.g. after a restart), which downgrades a
// send to a validation no-op.
func (s *modelService) SelectedModel(userId uuid.UUID) *entity.AiModel {
	state, found := s.stateRepo.Get(userId.String())
	if !found || state.SelectedModelID == "" {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.snapshot {
		if m.Id.String() == state.SelectedModelID {
			return m
		}
	}
	return nil
}
