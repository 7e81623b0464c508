package promoapi

import (
	"errors"
	"fmt"
)

// GenericErrorMessage is shown when the Promotion Service cannot be reached
// or its error carries no message.
const GenericErrorMessage = "Server error!"

// APIError is a failed Promotion Service call. Status is zero when no
// response was received.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("promotion service: %s", e.Message)
	}
	return fmt.Sprintf("promotion service returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Message returns the text to show the user for err: the server's message
// for API errors and the generic message for anything else.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return GenericErrorMessage
}
