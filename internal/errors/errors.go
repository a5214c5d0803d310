package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrProjectNotFound is returned when a project does not exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrOnboardingNotFound is returned when a project has no onboarding record.
	ErrOnboardingNotFound = errors.New("onboarding not found")
	// ErrInvalidStatus is returned when a project status value is not a known enum value.
	ErrInvalidStatus = errors.New("invalid project status")
	// ErrInvalidPlan is returned when a plan value is not Rocket or Galaxy.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrInvalidProgress is returned when progress is outside 0..100.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	// ErrInvalidAction is returned for an unknown subscription management action.
	ErrInvalidAction = errors.New("invalid subscription action")
	// ErrInvalidLoginToken is returned when a one-time login token is missing, expired or tampered.
	ErrInvalidLoginToken = errors.New("invalid or expired login token")
	// ErrPasswordTooShort is returned when a password is under the minimum length.
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	// ErrForbidden is returned when the session role is insufficient.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidExportFormat is returned for an unknown export format.
	ErrInvalidExportFormat = errors.New("invalid export format")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
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
		Error: e.Message,
		Code:  e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrProjectNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "PROJECT_NOT_FOUND")
	case errors.Is(err, ErrOnboardingNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error(), "ONBOARDING_NOT_FOUND")
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_STATUS")
	case errors.Is(err, ErrInvalidPlan):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_PLAN")
	case errors.Is(err, ErrInvalidProgress):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_PROGRESS")
	case errors.Is(err, ErrInvalidAction):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_ACTION")
	case errors.Is(err, ErrInvalidLoginToken):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "INVALID_LOGIN_TOKEN")
	case errors.Is(err, ErrPasswordTooShort):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "PASSWORD_TOO_SHORT")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, err.Error(), "FORBIDDEN")
	case errors.Is(err, ErrInvalidExportFormat):
		return NewHTTPError(http.StatusBadRequest, err.Error(), "INVALID_EXPORT_FORMAT")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
