package domain

import (
	"errors"
	"testing"
)

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		in      string
		want    TransactionType
		wantErr bool
	}{
		{"borrow", TransactionBorrow, false},
		{"return", TransactionReturn, false},
		{"purchase", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTransactionType(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTransactionType) {
				t.Errorf("ParseTransactionType(%q): expected ErrInvalidTransactionType, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTransactionType(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestTransactionExecuteBorrow(t *testing.T) {
	book := newTestBook(t, 1, "1984")
	user := newTestUser(t)

	txn, err := NewTransaction(1, TransactionBorrow, book, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txn.Status != StatusOpen {
		t.Fatalf("new transaction should be open, got %s", txn.Status)
	}
	if txn.Datetime != "" {
		t.Error("new transaction should not carry a datetime")
	}

	if err := txn.Execute(); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if txn.Status != StatusCompleted {
		t.Errorf("executed transaction should be completed, got %s", txn.Status)
	}
	if txn.Datetime == "" {
		t.Error("completed transaction should carry a datetime")
	}
	if book.Available {
		t.Error("borrowed book should be unavailable")
	}
	if !user.HasBorrowed(book) {
		t.Error("user should hold the borrowed book")
	}
}

func TestTransactionExecuteTwice(t *testing.T) {
	book := newTestBook(t, 1, "1984")
	user := newTestUser(t)

	txn, _ := NewTransaction(1, TransactionBorrow, book, user)
	if err := txn.Execute(); err != nil {
		t.Fatalf("first execute failed: %v", err)
	}
	if err := txn.Execute(); !errors.Is(err, ErrTransactionNotOpen) {
		t.Errorf("second execute should fail with ErrTransactionNotOpen, got %v", err)
	}
}

func TestTransactionBorrowUnavailable(t *testing.T) {
	book := newTestBook(t, 1, "1984")
	user := newTestUser(t)
	book.Available = false

	txn, _ := NewTransaction(1, TransactionBorrow, book, user)
	err := txn.Execute()
	if !errors.Is(err, ErrBookUnavailable) {
		t.Fatalf("expected ErrBookUnavailable, got %v", err)
	}

	// A refused execute leaves the transaction open and retryable.
	if txn.Status != StatusOpen {
		t.Errorf("failed execute should leave the transaction open, got %s", txn.Status)
	}
	if txn.Datetime != "" {
		t.Error("failed execute should not stamp a datetime")
	}

	book.Available = true
	if err := txn.Execute(); err != nil {
		t.Errorf("retry after the book became available should succeed, got %v", err)
	}
}

func TestTransactionReturnNotBorrowed(t *testing.T) {
	book := newTestBook(t, 1, "1984")
	user := newTestUser(t)

	txn, _ := NewTransaction(1, TransactionReturn, book, user)
	if err := txn.Execute(); !errors.Is(err, ErrBookNotBorrowed) {
		t.Errorf("expected ErrBookNotBorrowed, got %v", err)
	}
	if txn.Status != StatusOpen {
		t.Errorf("failed return should leave the transaction open, got %s", txn.Status)
	}
}

func TestTransactionCancel(t *testing.T) {
	book := newTestBook(t, 1, "1984")
	user := newTestUser(t)

	txn, _ := NewTransaction(1, TransactionBorrow, book, user)
	if err := txn.Cancel(); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if txn.Status != StatusCancelled {
		t.Errorf("cancelled transaction should have status cancelled, got %s", txn.Status)
	}
	if txn.Datetime == "" {
		t.Error("cancelled transaction should carry a datetime")
	}
	if book.Available != true {
		t.Error("cancel must not touch the book")
	}

	if err := txn.Execute(); !errors.Is(err, ErrTransactionNotOpen) {
		t.Errorf("executing a cancelled transaction should fail, got %v", err)
	}
}
