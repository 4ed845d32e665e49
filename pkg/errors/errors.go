package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	CodeAppError          = "APP_ERROR"
	CodeAPIError          = "API_ERROR"
	CodeValidation        = "VALIDATION_ERROR"
	CodeCache             = "CACHE_ERROR"
	CodeService           = "SERVICE_ERROR"
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeSelectionFailed   = "SELECTION_FAILED"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

type APIError struct {
	*AppError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*AppError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// SourceError reports a profile provider failure. Profile sources recover
// from it locally; it only escapes when a source has no mock to fall back on.
type SourceError struct {
	*AppError
	Provider string
	Handle   string
}

func NewSourceError(message, provider, handle string, cause error) *SourceError {
	return &SourceError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeSourceUnavailable,
			StatusCode: 502,
			Context: map[string]any{
				"provider": provider,
				"handle":   handle,
			},
			Cause: cause,
		},
		Provider: provider,
		Handle:   handle,
	}
}

// StoreError reports a catalog database failure.
type StoreError struct {
	*AppError
	Operation string
}

func NewStoreError(message, operation string, cause error) *StoreError {
	return &StoreError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeStoreUnavailable,
			StatusCode: 503,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}

// SelectionError is the single failure kind of a selection oracle. Transport,
// envelope, empty content and decode failures all surface as this type.
type SelectionError struct {
	*AppError
	Provider string
}

func NewSelectionError(message, provider string, cause error) *SelectionError {
	return &SelectionError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeSelectionFailed,
			StatusCode: 502,
			Context: map[string]any{
				"provider": provider,
			},
			Cause: cause,
		},
		Provider: provider,
	}
}

func IsSelectionFailed(err error) bool {
	var target *SelectionError
	return stderrors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

func IsSourceUnavailable(err error) bool {
	var target *SourceError
	return stderrors.As(err, &target)
}

func IsStoreUnavailable(err error) bool {
	var target *StoreError
	return stderrors.As(err, &target)
}
