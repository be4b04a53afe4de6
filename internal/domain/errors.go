package domain

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrValidation           = errors.New("validation")
	ErrProductNotFound      = errors.New("product not found")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrDuplicateEmail       = errors.New("an account with this email already exists")
	ErrUserNotFound         = errors.New("no account found with this email")
	ErrInvalidCredentials   = errors.New("incorrect password")
	ErrInvalidFormat        = errors.New("invalid data format")
	ErrAlreadySubscribed    = errors.New("already subscribed")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNumberExhausted = errors.New("could not allocate a free order number")
)

// ValidationError names the first field that failed a form check.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldOf returns the failing field of a wrapped ValidationError, or "".
func FieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}

type CatalogLoadError struct {
	Source string
	Err    error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("catalog load %s: %v", e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}
