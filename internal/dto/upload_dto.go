package dto

type UploadResponse struct {
	Message string `json:"message"`
}
