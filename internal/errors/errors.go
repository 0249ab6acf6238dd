package errors

import (
	"errors"
	"net/http"
)

// Kind classifies a failure independently of its transport.
type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidationFailed
	KindConflict
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidationFailed:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "internal"
	}
}

// AppError is a domain error with a stable machine readable code.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches another AppError by code so wrapped copies compare equal to sentinels.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an AppError.
func New(kind Kind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// Validation creates a ValidationFailed error carrying field level detail.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{
		Kind:    KindValidationFailed,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Fields:  fields,
	}
}

var (
	// ErrUnauthenticated is returned when no valid session is attached.
	ErrUnauthenticated = New(KindUnauthenticated, "UNAUTHENTICATED", "authentication required")
	// ErrUserNotFound is returned when the session refers to a user that no longer exists.
	ErrUserNotFound = New(KindUnauthenticated, "USER_NOT_FOUND", "user no longer exists")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = New(KindUnauthenticated, "INVALID_CREDENTIALS", "invalid email or password")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid, expired or revoked.
	ErrInvalidRefreshToken = New(KindUnauthenticated, "INVALID_REFRESH_TOKEN", "invalid or expired refresh token")

	// ErrForbidden is returned when the caller's role is not allowed to act.
	ErrForbidden = New(KindForbidden, "FORBIDDEN", "insufficient permissions")
	// ErrNotOwner is returned when a reporter acts on someone else's article.
	ErrNotOwner = New(KindForbidden, "NOT_OWNER", "you are not the author of this article")
	// ErrForceDeleteForbidden is returned when a non admin asks for a hard delete.
	ErrForceDeleteForbidden = New(KindForbidden, "FORCE_DELETE_FORBIDDEN", "only admins can force delete")
	// ErrAccountDisabled is returned when an inactive user tries to act.
	ErrAccountDisabled = New(KindForbidden, "ACCOUNT_DISABLED", "account is disabled")

	// ErrNotFound is the generic lookup failure.
	ErrNotFound = New(KindNotFound, "NOT_FOUND", "record not found")
	// ErrArticleNotFound is returned when an article is missing or not visible.
	ErrArticleNotFound = New(KindNotFound, "ARTICLE_NOT_FOUND", "article not found")
	// ErrArticleNotDeleted is returned when restoring an article that is not soft deleted.
	ErrArticleNotDeleted = New(KindNotFound, "ARTICLE_NOT_DELETED", "article not found or not deleted")
	// ErrCategoryNotFound is returned when a category is missing or inactive.
	ErrCategoryNotFound = New(KindNotFound, "CATEGORY_NOT_FOUND", "category not found")
	// ErrAccountNotFound is returned when a managed user is missing.
	ErrAccountNotFound = New(KindNotFound, "ACCOUNT_NOT_FOUND", "user not found")

	// ErrInvalidStatus is returned for a status outside the article status set.
	ErrInvalidStatus = New(KindValidationFailed, "INVALID_STATUS", "invalid status")
	// ErrInvalidRole is returned for a role outside the role set.
	ErrInvalidRole = New(KindValidationFailed, "INVALID_ROLE", "invalid role")

	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = New(KindConflict, "CONFLICT", "resource already exists")
	// ErrEmailTaken is returned when creating a user with an existing email.
	ErrEmailTaken = New(KindConflict, "EMAIL_TAKEN", "user with this email already exists")

	// ErrAlreadyDeleted is returned when soft deleting an already soft deleted article.
	ErrAlreadyDeleted = New(KindInvalidState, "ALREADY_DELETED", "article is already soft deleted")
	// ErrArticleDeleted is returned when mutating a soft deleted article.
	ErrArticleDeleted = New(KindInvalidState, "ARTICLE_DELETED", "article is soft deleted")
	// ErrCategoryInactive is returned when deleting an already inactive category.
	ErrCategoryInactive = New(KindInvalidState, "CATEGORY_INACTIVE", "category is already inactive")
)

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unclassified errors never
// leak their message.
func MapErrorToHTTP(err error) *HTTPError {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case KindUnauthenticated:
		status = http.StatusUnauthorized
	case KindForbidden:
		status = http.StatusForbidden
	case KindNotFound:
		status = http.StatusNotFound
	case KindValidationFailed, KindInvalidState:
		status = http.StatusBadRequest
	case KindConflict:
		status = http.StatusConflict
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}

	httpErr := NewHTTPError(status, appErr.Message, appErr.Code)
	httpErr.Fields = appErr.Fields
	return httpErr
}
