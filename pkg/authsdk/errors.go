package authsdk

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from the service. Message is one of the
// service's stable messages.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("authsdk: %d %s", e.StatusCode, e.Message)
}

// Is matches on status and message so callers can use errors.Is against the
// predefined errors below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Message == t.Message
}

var (
	ErrNotAuthorized   = &APIError{StatusCode: http.StatusUnauthorized, Message: "Not authorized"}
	ErrNotFound        = &APIError{StatusCode: http.StatusNotFound, Message: "Entity Not Found"}
	ErrInvalidInput    = &APIError{StatusCode: http.StatusBadRequest, Message: "Invalid Input"}
	ErrTokenExpired    = &APIError{StatusCode: http.StatusBadRequest, Message: "Bad Request (expired)"}
	ErrTokenInvalid    = &APIError{StatusCode: http.StatusBadRequest, Message: "Generation Token Error"}
	ErrAlreadyExists   = &APIError{StatusCode: http.StatusConflict, Message: "Resource Already Exists"}
	ErrNotCompleted    = &APIError{StatusCode: http.StatusBadRequest, Message: "Operation Could Not Be Completed"}
	ErrInternal        = &APIError{StatusCode: http.StatusInternalServerError, Message: "Internal Server Error"}
	ErrCouldNotExecute = &APIError{StatusCode: http.StatusBadRequest, Message: "Could not Execute request"}
)
