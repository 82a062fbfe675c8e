package model

import (
	"time"

	"github.com/google/uuid"
)

// AiModel is a selectable inference backend. Rows are managed by the
// admin surface; this service only reads them.
type AiModel struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DisplayName  string    `gorm:"type:varchar(200);not null"`
	ApiModelName string    `gorm:"type:varchar(200);not null"`
	IsActive     bool      `gorm:"default:true;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (AiModel) TableName() string {
	return "ai_models"
}
