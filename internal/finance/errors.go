package finance

import (
	"errors"
	"fmt"
	"net/http"

	"finance/internal/models"
	"finance/internal/resilience"
	"finance/internal/storage"
)

// ServiceError represents errors from the finance service with HTTP context
type ServiceError struct {
	Code       string
	Message    string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Error constructors for common service errors

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewInvalidRequestError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

func NewValidationError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeValidation,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

func NewConflictError(message string) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewServiceUnavailableError(err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeServiceUnavailable,
		Message:    "storage temporarily unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewGatewayTimeoutError(err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeGatewayTimeout,
		Message:    "storage operation timed out",
		StatusCode: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewUpstreamFailureError(err error) *ServiceError {
	return &ServiceError{
		Code:       models.ErrorCodeUpstreamFailure,
		Message:    "storage operation failed after retries",
		StatusCode: http.StatusBadGateway,
		Err:        err,
	}
}

// wrapStorageError converts storage and resilience failures into ServiceErrors
// carrying the right HTTP status. ServiceErrors pass through unchanged so
// not-found results raised inside an operation keep their status.
func wrapStorageError(err error, action string) error {
	if err == nil {
		return nil
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var exhausted *resilience.RetryExhaustedError
	switch {
	case errors.Is(err, resilience.ErrCallNotPermitted):
		return NewServiceUnavailableError(err)
	case errors.Is(err, resilience.ErrTimeout):
		return NewGatewayTimeoutError(err)
	case errors.As(err, &exhausted):
		return NewUpstreamFailureError(err)
	case errors.Is(err, storage.ErrNotFound):
		return NewNotFoundError(fmt.Sprintf("failed to %s: record not found", action))
	case errors.Is(err, storage.ErrHasDependencies):
		return NewConflictError(fmt.Sprintf("cannot %s: dependent records exist", action))
	default:
		return NewInternalError(fmt.Sprintf("failed to %s", action), err)
	}
}
