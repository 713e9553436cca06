package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	DomainValidationError      DomainErrorType = "VALIDATION_ERROR"
	DomainBusinessRuleError    DomainErrorType = "BUSINESS_RULE_ERROR"
	DomainNotFoundError        DomainErrorType = "NOT_FOUND"
	DomainConflictError        DomainErrorType = "CONFLICT"
	DomainAuthenticationError  DomainErrorType = "AUTHENTICATION_ERROR"
	DomainAuthorizationError   DomainErrorType = "AUTHORIZATION_ERROR"
	DomainExternalServiceError DomainErrorType = "EXTERNAL_SERVICE_ERROR"
	DomainInfrastructureError  DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// DomainError is a typed, coded error raised by the cat and yarn core.
// Two domain errors match under errors.Is when type and code agree, so the
// predefined values below work as sentinels even after Clone/WithDetail.
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Retryable  bool                   `json:"retryable"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		StatusCode: statusForDomainType(errorType),
	}
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Clone returns an independent copy so that callers can attach details to a
// predefined error without touching the shared value.
func (e *DomainError) Clone() *DomainError {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]interface{}, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

// With returns a copy of e carrying one extra detail.
func (e *DomainError) With(key string, value interface{}) *DomainError {
	return e.Clone().WithDetail(key, value)
}

// WithCause attaches the underlying error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail in place
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRetryable sets whether the error is retryable
func (e *DomainError) WithRetryable(retryable bool) *DomainError {
	e.Retryable = retryable
	return e
}

func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

func statusForDomainType(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return http.StatusBadRequest
	case DomainBusinessRuleError:
		return http.StatusUnprocessableEntity
	case DomainNotFoundError:
		return http.StatusNotFound
	case DomainConflictError:
		return http.StatusConflict
	case DomainAuthenticationError:
		return http.StatusUnauthorized
	case DomainAuthorizationError:
		return http.StatusForbidden
	case DomainExternalServiceError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var (
	// Lookups
	ErrCatNotFound = NewDomainError(
		DomainNotFoundError,
		"CAT_NOT_FOUND",
		"The requested cat does not exist",
	)

	ErrUserNotFound = NewDomainError(
		DomainNotFoundError,
		"USER_NOT_FOUND",
		"The requested user does not exist",
	)

	ErrInteractionNotFound = NewDomainError(
		DomainNotFoundError,
		"INTERACTION_NOT_FOUND",
		"The requested interaction does not exist",
	)

	// Identity
	ErrUnauthenticated = NewDomainError(
		DomainAuthenticationError,
		"UNAUTHENTICATED_ACTOR",
		"An authenticated user is required",
	)

	ErrNotCatOwner = NewDomainError(
		DomainAuthorizationError,
		"NOT_CAT_OWNER",
		"Only the owner may do this to the cat",
	)

	// Input
	ErrInvalidInteractionKind = NewDomainError(
		DomainValidationError,
		"INVALID_INTERACTION_KIND",
		"Interaction type is not in the cost table",
	)

	ErrInvalidInput = NewDomainError(
		DomainValidationError,
		"INVALID_INPUT",
		"The request is malformed",
	)

	// State
	ErrAlreadyOwned = NewDomainError(
		DomainConflictError,
		"ALREADY_OWNED",
		"The cat already has an owner",
	)

	ErrConcurrentModification = NewDomainError(
		DomainConflictError,
		"CONCURRENT_MODIFICATION",
		"The resource was modified by another request",
	).WithRetryable(true)

	ErrLockTimeout = NewDomainError(
		DomainConflictError,
		"LOCK_TIMEOUT",
		"The resource is busy, try again",
	).WithRetryable(true)

	// Economy and lifecycle rules
	ErrInsufficientYarn = NewDomainError(
		DomainBusinessRuleError,
		"INSUFFICIENT_YARN",
		"Not enough yarn for this interaction",
	)

	ErrCatDeceased = NewDomainError(
		DomainBusinessRuleError,
		"CAT_DECEASED",
		"The cat has passed away",
	)

	// Collaborators
	ErrConversationUnavailable = NewDomainError(
		DomainExternalServiceError,
		"CONVERSATION_ENGINE_UNAVAILABLE",
		"The conversation engine did not answer",
	).WithRetryable(true)
)

// AsDomainError extracts the first DomainError in the chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsRetryable reports whether err carries a retryable domain error.
func IsRetryable(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Retryable
}

// IsConflict reports whether err is any conflict-class domain error.
func IsConflict(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Type == DomainConflictError
}
