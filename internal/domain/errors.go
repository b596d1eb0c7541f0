// Package domain contains the core entities of the Openshelf catalogue.
package domain

import "errors"

// Domain errors - these represent business rule violations.
// Callers classify them with errors.Is; the catalogue never swallows them.

var (
	// ===========================================
	// Validation Errors
	// ===========================================

	// ErrInvalidISBN indicates the ISBN is not exactly 13 characters.
	ErrInvalidISBN = errors.New("isbn must be exactly 13 characters")

	// ErrInvalidEmail indicates the email does not match the expected pattern.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidPhone indicates the phone number does not match the expected pattern.
	ErrInvalidPhone = errors.New("invalid phone number format")

	// ErrInvalidTransactionType indicates the transaction type is neither borrow nor return.
	ErrInvalidTransactionType = errors.New("invalid transaction type")

	// ErrUnknownField indicates an update named a field that does not exist.
	ErrUnknownField = errors.New("unknown update field")

	// ErrInvalidValue indicates an update value failed to parse for its field.
	ErrInvalidValue = errors.New("invalid value for field")

	// ===========================================
	// Not Found Errors
	// ===========================================

	// ErrBookNotFound indicates the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrTransactionNotFound indicates the requested transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ===========================================
	// Authentication Errors
	// ===========================================

	// ErrInvalidCredentials indicates a username/password pair that matched no user.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ===========================================
	// State Errors
	// ===========================================

	// ErrTransactionNotOpen indicates execute/cancel was called on a terminal transaction.
	ErrTransactionNotOpen = errors.New("transaction is not open")

	// ===========================================
	// Domain Rule Errors
	// ===========================================

	// ErrBookUnavailable indicates a borrow was attempted on a checked-out book.
	// The owning transaction stays open and retryable.
	ErrBookUnavailable = errors.New("book not available to borrow")

	// ErrBookNotBorrowed indicates a return of a book the user never borrowed.
	// The owning transaction stays open and retryable.
	ErrBookNotBorrowed = errors.New("user has not borrowed this book")
)

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidISBN) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidPhone) ||
		errors.Is(err, ErrInvalidTransactionType) ||
		errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrInvalidValue)
}

// IsNotFound reports whether err is a missing-entity failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}
