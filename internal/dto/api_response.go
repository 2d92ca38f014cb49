package dto

// APIResponse is the envelope of every successful response.
type APIResponse struct {
	StatusCode int    `json:"statusCode" example:"200"`
	Data       any    `json:"data"`
	Message    string `json:"message" example:"Success"`
	Success    bool   `json:"success" example:"true"`
}

// APIErrorResponse is the envelope of every failed response.
type APIErrorResponse struct {
	StatusCode int      `json:"statusCode" example:"401"`
	Message    string   `json:"message" example:"Unauthorized request"`
	Success    bool     `json:"success" example:"false"`
	Errors     []string `json:"errors,omitempty"`
}

// NewAPIResponse builds a success envelope.
func NewAPIResponse(statusCode int, data any, message string) APIResponse {
	return APIResponse{StatusCode: statusCode, Data: data, Message: message, Success: statusCode < 400}
}

// NewAPIErrorResponse builds an error envelope.
func NewAPIErrorResponse(statusCode int, message string, errs ...string) APIErrorResponse {
	return APIErrorResponse{StatusCode: statusCode, Message: message, Success: false, Errors: errs}
}
