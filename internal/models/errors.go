package models

import (
	"errors"
	"fmt"
)

// GenericErrorMessage is shown whenever a failed trip request carries no
// server-supplied message.
const GenericErrorMessage = "An error occurred"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrUnknownField is returned when a field update names a field that the
	// trip form does not have.
	ErrUnknownField = errors.New("unknown form field")

	// ErrNoResult is returned when an operation needs a displayed trip result
	// and the session has none.
	ErrNoResult = errors.New("no trip result to act on")

	// ErrFeatureDisabled is returned when an optional integration (history,
	// e-mail) is not configured.
	ErrFeatureDisabled = errors.New("feature is not enabled")

	// ErrRequestFailed covers every way a trip request can fail: transport
	// errors, non-2xx responses and undecodable bodies.
	ErrRequestFailed = errors.New("trip request failed")
)

// RequestError carries the details of a failed trip request.
type RequestError struct {
	StatusCode    int    // 0 when no response was received
	ServerMessage string // the backend's "error" field, if it sent one
	Err           error
}

func (e *RequestError) Error() string {
	switch {
	case e.ServerMessage != "":
		return fmt.Sprintf("trip request failed (status %d): %s", e.StatusCode, e.ServerMessage)
	case e.Err != nil:
		return fmt.Sprintf("trip request failed (status %d): %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("trip request failed (status %d)", e.StatusCode)
	}
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRequestFailed}
	}
	return []error{ErrRequestFailed, e.Err}
}

// DisplayMessage converts a failed submission into the text shown to the
// user: the server's message when it sent one, the generic fallback otherwise.
func DisplayMessage(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.ServerMessage != "" {
		return reqErr.ServerMessage
	}
	return GenericErrorMessage
}

// ErrorResponse is the JSON body returned by this service on errors.
type ErrorResponse struct {
	Message string `json:"message"`
}
