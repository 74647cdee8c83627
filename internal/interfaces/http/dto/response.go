package dto

// Response is the uniform envelope for all API responses
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo carries a machine-readable code and a human-readable message
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse wraps data in a success envelope
func SuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// ErrorResponse builds an error envelope
func ErrorResponse(code, message string) Response {
	return Response{Success: false, Error: &ErrorInfo{Code: code, Message: message}}
}

// ErrorResponseWithDetails builds an error envelope with extra context
func ErrorResponseWithDetails(code, message string, details any) Response {
	return Response{Success: false, Error: &ErrorInfo{Code: code, Message: message, Details: details}}
}

// PagedData wraps list payloads with paging metadata
type PagedData struct {
	Items  any   `json:"items"`
	Total  int64 `json:"total"`
	Offset int   `json:"offset"`
	Limit  int   `json:"limit"`
}
