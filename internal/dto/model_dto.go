package dto

import "github.com/google/uuid"

type ModelResponse struct {
	Id           uuid.UUID `json:"id"`
	DisplayName  string    `json:"display_name"`
	ApiModelName string    `json:"api_model_name"`
	Selected     bool      `json:"selected"`
}

type SelectModelRequest struct {
	ModelId uuid.UUID `json:"model_id" validate:"required"`
}
