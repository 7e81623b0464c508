package model

// ErrorResponse is the error body returned by the Promotion Service.
type ErrorResponse struct {
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// Standard error codes for user input errors
const (
	ErrCodeMissingID     = "MISSING_ID"
	ErrCodeInvalidDate   = "INVALID_DATE"
	ErrCodeInvalidSource = "INVALID_SOURCE"
	ErrCodeInvalidRow    = "INVALID_ROW"
)

// InputError is a user input error caught before any request is sent.
type InputError struct {
	Code    string
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

// NewInputError creates a new input error
func NewInputError(code, message string) *InputError {
	return &InputError{
		Code:    code,
		Message: message,
	}
}

// Common input errors
var (
	ErrMissingPromotionID = NewInputError(ErrCodeMissingID, "Please input a valid Promotion ID")
	ErrMissingSource      = NewInputError(ErrCodeInvalidSource, "Please input a product line file")
	ErrInvalidRow         = NewInputError(ErrCodeInvalidRow, "No such product row")
)
