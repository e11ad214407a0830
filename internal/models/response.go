package models

// APIResponse is the envelope around every JSON body the API writes.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	// Errors maps field names to messages on validation failures.
	Errors map[string]string `json:"errors,omitempty"`
}

func NewSuccessResponse(data any) APIResponse {
	return APIResponse{Success: true, Data: data}
}

func NewErrorResponse(message string) APIResponse {
	return APIResponse{Error: message}
}

func NewValidationErrorResponse(fields map[string]string) APIResponse {
	return APIResponse{Error: "Validation failed", Errors: fields}
}

// MessageResponse is the payload of endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}
