package implementation

import (
	"context"
	"errors"

	"docmind-be/internal/entity"
	"docmind-be/internal/mapper"
	"docmind-be/internal/model"
	"docmind-be/internal/repository/contract"
	"docmind-be/internal/repository/specification"

	"gorm.io/gorm"
)

type AiModelRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewAiModelRepository(db *gorm.DB) contract.AiModelRepository {
	return &AiModelRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *AiModelRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *AiModelRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AiModel, error) {
	var m model.AiModel
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AiModelToEntity(&m), nil
}

func (r *AiModelRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AiModel, error) {
	var models []*model.AiModel
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.AiModel, len(models))
	for i, m := range models {
		entities[i] = r.mapper.AiModelToEntity(m)
	}
	return entities, nil
}
