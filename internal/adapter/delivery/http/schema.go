package http

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

const statusError = "error"

// maxURLsPerRequest bounds a single API or form lookup.
const maxURLsPerRequest = 200

// viewsRequest represents the structure for a batch lookup request.
type viewsRequest struct {
	URLs []string `json:"urls" validate:"required,min=1,max=200,dive,required"`
}

// lookupResponse represents the outcome of one URL lookup.
type lookupResponse struct {
	ID            string    `json:"id,omitempty"`
	URL           string    `json:"url"`
	Platform      string    `json:"platform"`
	PlatformLabel string    `json:"platform_label"`
	Views         *int64    `json:"views"`
	Error         string    `json:"error,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

func toLookupResponse(l *entity.Lookup) lookupResponse {
	return lookupResponse{
		ID:            l.ID,
		URL:           l.URL,
		Platform:      string(l.Platform),
		PlatformLabel: l.Platform.Label(),
		Views:         l.Views,
		Error:         l.Error,
		FetchedAt:     l.FetchedAt,
	}
}

func toLookupResponses(lookups []entity.Lookup) []lookupResponse {
	resp := make([]lookupResponse, 0, len(lookups))
	for i := range lookups {
		resp = append(resp, toLookupResponse(&lookups[i]))
	}
	return resp
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Errors  []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Status:  statusError,
		Message: "invalid request body",
	}

	missingURLResponse = errorResponse{
		Status:  statusError,
		Message: "url query parameter is required",
	}

	invalidLimitResponse = errorResponse{
		Status:  statusError,
		Message: "limit must be a positive integer",
	}

	lookupNotFoundResponse = errorResponse{
		Status:  statusError,
		Message: "lookup not found",
	}

	historyDisabledResponse = errorResponse{
		Status:  statusError,
		Message: "lookup history is disabled",
	}

	serverErrorResponse = errorResponse{
		Status:  statusError,
		Message: "server error occurred",
	}
)

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "min":
		return "at least one url is required"
	case "max":
		return "too many urls"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	errs, ok := err.(validator.ValidationErrors)
	if ok {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Status:  statusError,
		Message: "validation error",
		Errors:  getValidationErrors(err),
	}
}
