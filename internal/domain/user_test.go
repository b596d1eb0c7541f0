package domain

import (
	"errors"
	"testing"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	user, err := NewUser(1, "john_doe", "John", "Doe", "johndoe@email.com", "+441234567890", "password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return user
}

func newTestBook(t *testing.T, id int64, title string) *Book {
	t.Helper()
	book, err := NewBook(id, title, "George Orwell", "9780451524935", 1949)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return book
}

func TestNewUserValidation(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		phone   string
		wantErr error
	}{
		{"valid", "johndoe@email.com", "+441234567890", nil},
		{"valid without plus", "johndoe@email.com", "441234567890", nil},
		{"missing at sign", "johndoe.email.com", "+441234567890", ErrInvalidEmail},
		{"missing domain", "johndoe@", "+441234567890", ErrInvalidEmail},
		{"phone with letters", "johndoe@email.com", "+44abc4567890", ErrInvalidPhone},
		{"phone too short", "johndoe@email.com", "+44123", ErrInvalidPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(1, "john_doe", "John", "Doe", tt.email, tt.phone, "password")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserBorrowedBooks(t *testing.T) {
	user := newTestUser(t)
	first := newTestBook(t, 1, "1984")
	second := newTestBook(t, 2, "Animal Farm")

	if user.HasBorrowed(first) {
		t.Error("fresh user should not have borrowed anything")
	}

	user.BorrowBook(first)
	user.BorrowBook(second)

	if !user.HasBorrowed(first) || !user.HasBorrowed(second) {
		t.Error("both books should be in the borrowed list")
	}
	if got := len(user.BorrowedBooks()); got != 2 {
		t.Fatalf("expected 2 borrowed books, got %d", got)
	}

	if !user.ReturnBook(first) {
		t.Error("returning a borrowed book should succeed")
	}
	if user.ReturnBook(first) {
		t.Error("returning the same book twice should fail")
	}
	if user.HasBorrowed(first) {
		t.Error("returned book should leave the borrowed list")
	}
	if !user.HasBorrowed(second) {
		t.Error("other borrowed book should remain")
	}
}

func TestBorrowedBooksReturnsCopy(t *testing.T) {
	user := newTestUser(t)
	user.BorrowBook(newTestBook(t, 1, "1984"))

	list := user.BorrowedBooks()
	list[0] = nil

	if got := user.BorrowedBooks()[0]; got == nil {
		t.Error("mutating the returned slice must not affect the user")
	}
}
