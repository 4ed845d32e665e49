package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/kapu/gift-ai-go/internal/service/recommendation"
	apperrors "github.com/kapu/gift-ai-go/pkg/errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	ErrorType string         `json:"error_type"`
	Message   string         `json:"message"`
	RequestID *string        `json:"request_id"`
	Details   map[string]any `json:"details"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

// httpError is the internal form of ErrorResponse.
type httpError struct {
	Code    string
	Status  int
	Type    string
	Message string
	Details map[string]any
}

func (e *httpError) Error() string {
	return e.Message
}

// errorResponse converts err into a status code and body.
func errorResponse(err error, requestID string) (int, ErrorResponse) {
	apiErr := fromError(err)
	if apiErr == nil {
		apiErr = newInternalError("unknown error")
	}

	var requestIDPtr *string
	if requestID != "" {
		requestIDPtr = &requestID
	}

	return apiErr.Status, ErrorResponse{
		ErrorCode: apiErr.Code,
		ErrorType: apiErr.Type,
		Message:   apiErr.Message,
		RequestID: requestIDPtr,
		Details:   apiErr.Details,
	}
}

func fromError(err error) *httpError {
	if err == nil {
		return nil
	}

	var apiErr *httpError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		return newValidationError(validationErrors)
	}

	var fieldErr *apperrors.ValidationError
	if stderrors.As(err, &fieldErr) {
		return &httpError{
			Code:    apperrors.CodeValidation,
			Status:  http.StatusBadRequest,
			Type:    "ValidationError",
			Message: fieldErr.Message,
			Details: map[string]any{"errors": []FieldError{{Field: fieldErr.Field, Message: fieldErr.Message, Value: fieldErr.Value}}},
		}
	}

	var sourceErr *apperrors.SourceError
	if stderrors.As(err, &sourceErr) {
		return &httpError{
			Code:    apperrors.CodeSourceUnavailable,
			Status:  http.StatusBadGateway,
			Type:    "SourceUnavailableError",
			Message: sourceErr.Message,
			Details: map[string]any{"provider": sourceErr.Provider},
		}
	}

	if stderrors.Is(err, recommendation.ErrNoProducts) {
		return &httpError{
			Code:    apperrors.CodeStoreUnavailable,
			Status:  http.StatusServiceUnavailable,
			Type:    "CatalogUnavailableError",
			Message: "No products available for recommendation",
		}
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		return &httpError{
			Code:    "TIMEOUT",
			Status:  http.StatusGatewayTimeout,
			Type:    "TimeoutError",
			Message: "Request timed out",
		}
	}

	return newInternalError(err.Error())
}

func newInternalError(message string) *httpError {
	return &httpError{
		Code:    "INTERNAL_ERROR",
		Status:  http.StatusInternalServerError,
		Type:    "InternalError",
		Message: message,
	}
}

func newValidationError(errs validator.ValidationErrors) *httpError {
	fields := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: fe.Error(),
			Value:   fe.Value(),
		})
	}
	return &httpError{
		Code:    apperrors.CodeValidation,
		Status:  http.StatusBadRequest,
		Type:    "ValidationError",
		Message: "Input validation failed",
		Details: map[string]any{"errors": fields},
	}
}

func newMissingField(field string) *httpError {
	return &httpError{
		Code:    "MISSING_FIELD",
		Status:  http.StatusBadRequest,
		Type:    "MissingFieldError",
		Message: fmt.Sprintf("Field '%s' required", field),
		Details: map[string]any{"field": field},
	}
}

func newInvalidInput(message string) *httpError {
	return &httpError{
		Code:    "INVALID_INPUT",
		Status:  http.StatusBadRequest,
		Type:    "InvalidInputError",
		Message: message,
	}
}
