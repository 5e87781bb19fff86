package pairing

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is carried by an ignored Outcome while another code is being
	// processed or the ingestor is waiting to re-arm.
	ErrBusy = errors.New("pairing in progress")

	// ErrClosed is carried by an ignored Outcome after Close.
	ErrClosed = errors.New("ingestor closed")

	// ErrEmptyCapture is carried by an ignored Outcome for a batch with no codes.
	ErrEmptyCapture = errors.New("capture contains no codes")
)

// ErrorType represents the category of a pairing failure
type ErrorType int

const (
	// ErrTypeDecode indicates the payload is not a key/value object
	ErrTypeDecode ErrorType = iota
	// ErrTypeValidation indicates a required field is missing or has the wrong type
	ErrTypeValidation
	// ErrTypeDelivery indicates the device registry refused the device
	ErrTypeDelivery
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeDecode:
		return "PayloadDecodeFailure"
	case ErrTypeValidation:
		return "PayloadValidationFailure"
	case ErrTypeDelivery:
		return "DeliveryFailure"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is a pairing failure. It is never fatal; the ingestor reports it and
// re-arms after its recovery delay.
type Error struct {
	Type  ErrorType
	Field string // offending field for validation failures
	Err   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %v", e.Type, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Type, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the short notice shown to the user.
func (e *Error) UserMessage() string {
	switch e.Type {
	case ErrTypeDecode, ErrTypeValidation:
		return "Invalid pairing code"
	case ErrTypeDelivery:
		return "Could not save the paired device"
	default:
		return "Pairing failed"
	}
}

func decodeError(err error) *Error {
	return &Error{Type: ErrTypeDecode, Err: err}
}

func validationError(field string, err error) *Error {
	return &Error{Type: ErrTypeValidation, Field: field, Err: err}
}

func deliveryError(err error) *Error {
	return &Error{Type: ErrTypeDelivery, Err: err}
}

// IsDecodeFailure checks if err is a PayloadDecodeFailure
func IsDecodeFailure(err error) bool {
	return hasType(err, ErrTypeDecode)
}

// IsValidationFailure checks if err is a PayloadValidationFailure
func IsValidationFailure(err error) bool {
	return hasType(err, ErrTypeValidation)
}

// IsDeliveryFailure checks if err is a DeliveryFailure
func IsDeliveryFailure(err error) bool {
	return hasType(err, ErrTypeDelivery)
}

// UserMessage returns the notice to show for err, or "" for nil.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.UserMessage()
	}
	return "Pairing failed"
}

func hasType(err error, t ErrorType) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Type == t
	}
	return false
}
