package domain

import (
	"errors"
	"testing"
)

func TestNewBook(t *testing.T) {
	tests := []struct {
		name    string
		isbn    string
		wantErr error
	}{
		{"valid isbn", "9780451524935", nil},
		{"too short", "978045152493", ErrInvalidISBN},
		{"too long", "97804515249350", ErrInvalidISBN},
		{"empty", "", ErrInvalidISBN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book, err := NewBook(1, "1984", "George Orwell", tt.isbn, 1949)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !book.Available {
				t.Error("new book should be available")
			}
			if book.ID != 1 || book.Title != "1984" {
				t.Errorf("unexpected book fields: %+v", book)
			}
		})
	}
}

func TestBookBorrowReturn(t *testing.T) {
	book, err := NewBook(1, "1984", "George Orwell", "9780451524935", 1949)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !book.Borrow() {
		t.Fatal("borrowing an available book should succeed")
	}
	if book.Available {
		t.Error("borrowed book should be unavailable")
	}

	// Borrowing again must be refused without side effects.
	if book.Borrow() {
		t.Error("borrowing an unavailable book should fail")
	}
	if book.Available {
		t.Error("failed borrow must not change availability")
	}

	book.Return()
	if !book.Available {
		t.Error("returned book should be available")
	}

	// Return is idempotent.
	book.Return()
	if !book.Available {
		t.Error("repeated return should keep the book available")
	}
}
