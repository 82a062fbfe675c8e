package contract

import (
	"context"

	"docmind-be/internal/entity"
	"docmind-be/internal/repository/specification"
)

// AiModelRepository is read-only from this service's point of view;
// model rows belong to the excluded admin surface.
type AiModelRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.AiModel, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.AiModel, error)
}
