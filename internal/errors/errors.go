package errors

import "fmt"

// ErrorCode represents a VibeCheck client error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"  // 400
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"     // 401
	ErrQuotaExceeded  ErrorCode = "QUOTA_EXCEEDED"   // 403, local pre-check failed
	ErrConflict       ErrorCode = "CONFLICT"         // 409, e.g. already checked in today
	ErrInFlight       ErrorCode = "SUBMIT_IN_FLIGHT" // 409, another submission is running
	ErrRateLimited    ErrorCode = "RATE_LIMITED"     // 429, server rejected
	ErrNotReady       ErrorCode = "NOT_READY"        // 503, device identity unresolved
	ErrNetwork        ErrorCode = "NETWORK"          // transport/timeout failure
	ErrInternal       ErrorCode = "INTERNAL"         // 500
)

// VibeError represents a structured error with code, status, and details.
type VibeError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *VibeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *VibeError {
	return &VibeError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewUnauthorized creates a 401 error for requests that need a session.
func NewUnauthorized(msg string) *VibeError {
	if msg == "" {
		msg = "sign in or continue as guest first"
	}
	return &VibeError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: msg,
	}
}

// NewQuotaExceeded creates a 403 error when the local guest quota is spent.
func NewQuotaExceeded(used, cap int) *VibeError {
	return &VibeError{
		Code:    ErrQuotaExceeded,
		Status:  403,
		Message: fmt.Sprintf("guest limit reached (%d of %d used); register for unlimited vibe checks", used, cap),
		Details: map[string]any{"used": used, "cap": cap},
	}
}

// NewConflict creates a 409 error for server-reported conflicts.
func NewConflict(msg string) *VibeError {
	return &VibeError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewInFlight creates a 409 error when a submission is already running.
func NewInFlight() *VibeError {
	return &VibeError{
		Code:    ErrInFlight,
		Status:  409,
		Message: "a vibe check is already in progress",
	}
}

// NewRateLimited creates a 429 error for server-side quota rejections.
// The server's verdict is authoritative even when the local counter disagrees.
func NewRateLimited(msg string) *VibeError {
	if msg == "" {
		msg = "the server rejected the request: rate limited"
	}
	return &VibeError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: msg,
	}
}

// NewNotReady creates a 503 error when the device identity cannot be resolved.
// The caller is expected to retry the submission; nothing blocks on it.
func NewNotReady(msg string) *VibeError {
	if msg == "" {
		msg = "device identity not resolved yet; retry the submission"
	}
	return &VibeError{
		Code:    ErrNotReady,
		Status:  503,
		Message: msg,
	}
}

// NewNetwork creates an error for transport-level failures.
func NewNetwork(err error) *VibeError {
	msg := "network failure"
	if err != nil {
		msg = fmt.Sprintf("network failure: %v", err)
	}
	return &VibeError{
		Code:    ErrNetwork,
		Status:  0,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *VibeError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &VibeError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a VibeError with the given code.
func Is(err error, code ErrorCode) bool {
	if vErr, ok := err.(*VibeError); ok {
		return vErr.Code == code
	}
	return false
}
