package shared

import "errors"

var (
	// ErrValidation indicates a missing or out-of-range input field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates an unknown id for the active account.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken indicates another account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWrongCurrentSecret indicates a password change with a bad current password.
	ErrWrongCurrentSecret = errors.New("current password is incorrect")
	// ErrInsufficientStock indicates a sale larger than the product stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnauthenticated indicates a request without an active account.
	ErrUnauthenticated = errors.New("not signed in")
)
