package serverutils

import "github.com/gofiber/fiber/v2"

// Error kinds surfaced to clients. ValidationNoop conditions never
// reach this taxonomy: they are swallowed at the service boundary.
const (
	KindPersistence = "persistence_error"
	KindInference   = "inference_error"
	KindUpload      = "upload_error"
	KindNotFound    = "not_found"
	KindBadRequest  = "bad_request"
)

// AppError is the boundary error type every failed operation is
// converted to before it reaches the HTTP layer.
type AppError struct {
	Code    int    // HTTP status
	Kind    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps a durable-store failure (connectivity,
// constraint violation).
func NewPersistenceError(err error) *AppError {
	return &AppError{
		Code:    fiber.StatusInternalServerError,
		Kind:    KindPersistence,
		Message: "Failed to reach the data store",
		Err:     err,
	}
}

// NewInferenceError wraps a failed remote inference call. detail
// carries the backend-provided reason when one exists.
func NewInferenceError(detail string, err error) *AppError {
	if detail == "" {
		detail = "The AI service could not be reached"
	}
	return &AppError{
		Code:    fiber.StatusBadGateway,
		Kind:    KindInference,
		Message: detail,
		Err:     err,
	}
}

// NewUploadError wraps a failed document ingestion.
func NewUploadError(detail string, err error) *AppError {
	if detail == "" {
		detail = "Document upload failed"
	}
	return &AppError{
		Code:    fiber.StatusBadGateway,
		Kind:    KindUpload,
		Message: detail,
		Err:     err,
	}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{
		Code:    fiber.StatusNotFound,
		Kind:    KindNotFound,
		Message: message,
	}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    fiber.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}
