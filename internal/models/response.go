package models

// FieldError mirrors one entry of a validation failure list.
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param,omitempty"`
	Location string `json:"location,omitempty"`
}

// ErrorsResponse is the {errors:[...]} body used for validation and credential failures.
type ErrorsResponse struct {
	Errors []FieldError `json:"errors"`
}

// MessageResponse is the {msg} body used for business-rule failures and confirmations.
type MessageResponse struct {
	Msg string `json:"msg"`
}

func NewErrorsResponse(errs []FieldError) ErrorsResponse {
	return ErrorsResponse{Errors: errs}
}

// NewErrorResponse wraps a single message in the {errors:[{msg}]} shape.
func NewErrorResponse(message string) ErrorsResponse {
	return ErrorsResponse{Errors: []FieldError{{Msg: message}}}
}

func NewMessageResponse(message string) MessageResponse {
	return MessageResponse{Msg: message}
}
