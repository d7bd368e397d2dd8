package domain

import (
	"errors"
	"fmt"
)

var (
	// Extraction errors
	ErrMissingField   = errors.New("required field is missing")
	ErrMalformedField = errors.New("field value is malformed")

	// Workflow precondition errors
	ErrMissingCachedAccounts = errors.New("cached account list is absent, open the accounts page first")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnresolvedAccount     = errors.New("no cached account matches the adjustment sub-account")
	ErrConfirmationDeclined  = errors.New("confirmation declined")

	// Remote errors
	ErrRemoteCallFailed = errors.New("remote call failed")
)

// FieldError reports which row field could not be extracted.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// MissingField returns a FieldError for an absent field.
func MissingField(field string) *FieldError {
	return &FieldError{Field: field, Err: ErrMissingField}
}

// RemoteCallError describes a failed gateway call.
// StatusCode is zero when the request never got a response.
type RemoteCallError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s: status %d", ErrRemoteCallFailed, e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", ErrRemoteCallFailed, e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRemoteCallFailed}
	}
	return []error{ErrRemoteCallFailed, e.Err}
}

// InvalidInput wraps ErrInvalidInput with a description of the bad parameter.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
