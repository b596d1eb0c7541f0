package domain

import "time"

// TransactionType is the kind of transaction, fixed at construction.
type TransactionType string

// Transaction types.
const (
	TransactionBorrow TransactionType = "borrow"
	TransactionReturn TransactionType = "return"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

// Transaction statuses. Open is the only non-terminal state.
const (
	StatusOpen      TransactionStatus = "open"
	StatusCompleted TransactionStatus = "completed"
	StatusCancelled TransactionStatus = "cancelled"
)

// ParseTransactionType validates a raw transaction type string.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(s) {
	case TransactionBorrow, TransactionReturn:
		return TransactionType(s), nil
	default:
		return "", ErrInvalidTransactionType
	}
}

// Transaction records intent to borrow or return a book.
//
// Creating a transaction and executing it are separate steps: the catalogue
// records the open transaction first, so a failed side effect leaves an
// auditable, still-open record instead of vanishing.
type Transaction struct {
	// ID is the unique identifier, assigned by the catalogue and never reused.
	ID int64

	// Type is borrow or return, fixed at construction.
	Type TransactionType

	// Status is open until the transaction is executed or cancelled.
	Status TransactionStatus

	// Book is a non-owning handle to the catalogue's book.
	Book *Book

	// User is a non-owning handle to the catalogue's user.
	User *User

	// Datetime is empty while open, then holds the execution or
	// cancellation timestamp in RFC 3339 form.
	Datetime string
}

// NewTransaction creates an open transaction after validating the type.
// Book and user must already exist in the catalogue.
func NewTransaction(id int64, typ TransactionType, book *Book, user *User) (*Transaction, error) {
	if _, err := ParseTransactionType(string(typ)); err != nil {
		return nil, err
	}
	return &Transaction{
		ID:     id,
		Type:   typ,
		Status: StatusOpen,
		Book:   book,
		User:   user,
	}, nil
}

// Execute applies the transaction's side effect and completes it.
//
// Legal only while open. If the side effect is refused (book unavailable for
// borrow, book not in the user's list for return) the transaction stays open
// and retryable, and the corresponding domain-rule error is returned.
func (t *Transaction) Execute() error {
	if t.Status != StatusOpen {
		return ErrTransactionNotOpen
	}

	switch t.Type {
	case TransactionBorrow:
		if !t.User.BorrowBook(t.Book) {
			return ErrBookUnavailable
		}
	case TransactionReturn:
		if !t.User.ReturnBook(t.Book) {
			return ErrBookNotBorrowed
		}
	}

	t.Datetime = time.Now().Format(time.RFC3339)
	t.Status = StatusCompleted
	return nil
}

// Cancel closes the transaction without touching book or user state.
// Legal only while open.
func (t *Transaction) Cancel() error {
	if t.Status != StatusOpen {
		return ErrTransactionNotOpen
	}
	t.Datetime = time.Now().Format(time.RFC3339)
	t.Status = StatusCancelled
	return nil
}
