package serverutils

// Envelope is the uniform JSON body for all API responses.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func SuccessResponse(message string, data interface{}) Envelope {
	return Envelope{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func ErrorResponse(message string, kind string) Envelope {
	return Envelope{
		Success: false,
		Message: message,
		Error:   kind,
	}
}
