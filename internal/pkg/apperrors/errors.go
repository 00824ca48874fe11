package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUnauthorized       = errors.New("unauthorized")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Upstream errors
	ErrUpstream = errors.New("upstream service failed")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Hub errors
var (
	ErrHubNotFound     = errors.New("hub not found")
	ErrAlreadyMember   = errors.New("already a member")
	ErrNotMember       = errors.New("not a member")
	ErrRequestPending  = errors.New("join request already pending")
	ErrRequestNotFound = errors.New("join request not found")
	ErrLastAdmin       = errors.New("last admin cannot leave")
	ErrHubClosed       = errors.New("hub is closed")
)

// Activity errors
var (
	ErrActivityNotFound    = errors.New("activity not found")
	ErrAlreadyParticipated = errors.New("already participated")
	ErrAnswerCount         = errors.New("answer count does not match question count")
)

// Roadmap errors
var (
	ErrRoadmapNotFound   = errors.New("roadmap not found")
	ErrAlreadyAdopted    = errors.New("template already adopted")
	ErrNotTemplate       = errors.New("roadmap is not a template")
	ErrTemplateImmutable = errors.New("template progress cannot be updated")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrTemplateInUse     = errors.New("template has adopters")
)

// Session errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionFull       = errors.New("session is full")
	ErrSessionOverlap    = errors.New("trainer already booked for this time")
	ErrInvalidTransition = errors.New("invalid session status transition")
	ErrAlreadyRated      = errors.New("session already rated")
	ErrAlreadyJoined     = errors.New("already joined session")
)

// File errors
var (
	ErrFileNotFound    = errors.New("file not found")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrFileTooLarge    = errors.New("file too large")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewUnauthorizedError creates a new custom error for missing or invalid authentication
func NewUnauthorizedError(message string) error {
	return &CustomError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// NewUpstreamError wraps a failure of an external collaborator. The upstream
// HTTP status, when known, is carried in details.
func NewUpstreamError(message string, cause error) *CustomError {
	return &CustomError{
		Err:     errors.Join(ErrUpstream, cause),
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}

// DetailsOf returns the details attached to the first CustomError in err's chain.
func DetailsOf(err error) map[string]interface{} {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Details
	}
	return nil
}
