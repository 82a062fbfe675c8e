package entity

import (
	"time"

	"github.com/google/uuid"
)

type AiModel struct {
	Id           uuid.UUID
	DisplayName  string
	ApiModelName string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
