package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthenticated    = errors.New("Not authenticated")
	ErrForbidden          = errors.New("Not authorized")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUserExists         = errors.New("User already exists")
	ErrSlotUnavailable    = errors.New("Slot not available")
	ErrSlotExists         = errors.New("slot already exists for this time")
	ErrConflict           = errors.New("conflict")
	ErrAgeVerification    = errors.New("age verification required")
	ErrUnderage           = errors.New("minimum age not met")
	ErrWaiverRequired     = errors.New("required waivers must be signed before booking")
	ErrCancelWindowClosed = errors.New("booking can no longer be canceled")
	ErrIdempotencyReplay  = errors.New("idempotency key already used")
	ErrPaymentFailed      = errors.New("deposit payment could not be started")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
