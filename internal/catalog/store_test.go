package catalog

import (
	"errors"
	"testing"

	"github.com/openshelf/openshelf/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore("admin")
}

func addBook(t *testing.T, s *Store, title, author, isbn string, year int) *domain.Book {
	t.Helper()
	id, err := s.CreateBook(title, author, isbn, year)
	if err != nil {
		t.Fatalf("CreateBook(%q) failed: %v", title, err)
	}
	book, err := s.ReadBook(id)
	if err != nil {
		t.Fatalf("ReadBook(%d) failed: %v", id, err)
	}
	return book
}

func addUser(t *testing.T, s *Store, username string) *domain.User {
	t.Helper()
	id, err := s.CreateUser(username, "John", "Doe", username+"@email.com", "+441234567890", "password")
	if err != nil {
		t.Fatalf("CreateUser(%q) failed: %v", username, err)
	}
	user, err := s.ReadUser(id)
	if err != nil {
		t.Fatalf("ReadUser(%d) failed: %v", id, err)
	}
	return user
}

func TestCreateBookAssignsSequentialIDs(t *testing.T) {
	s := newTestStore(t)

	first := addBook(t, s, "1984", "George Orwell", "9780451524935", 1949)
	second := addBook(t, s, "Animal Farm", "George Orwell", "9780452284241", 1945)

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("expected IDs 1 and 2, got %d and %d", first.ID, second.ID)
	}

	// IDs are never reused, even after a delete.
	if err := s.DeleteBook(second.ID); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}
	third := addBook(t, s, "Homage to Catalonia", "George Orwell", "9780156421171", 1938)
	if third.ID != 3 {
		t.Errorf("deleted IDs must not be reused, got %d", third.ID)
	}
}

func TestCreateBookInvalidISBN(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateBook("1984", "George Orwell", "123", 1949); !errors.Is(err, domain.ErrInvalidISBN) {
		t.Errorf("expected ErrInvalidISBN, got %v", err)
	}
	if len(s.Books()) != 0 {
		t.Error("failed create must not insert anything")
	}
}

func TestReadNotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.ReadBook(42); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
	if _, err := s.ReadUser(42); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := s.ReadTransaction(42); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestUpdateBook(t *testing.T) {
	s := newTestStore(t)
	book := addBook(t, s, "1983", "George Orwell", "9780451524935", 1949)

	tests := []struct {
		name    string
		field   string
		value   string
		wantErr error
	}{
		{"title", "title", "1984", nil},
		{"author", "author", "Eric Blair", nil},
		{"valid isbn", "isbn", "9780141036144", nil},
		{"invalid isbn", "isbn", "123", domain.ErrInvalidISBN},
		{"year", "year_published", "1950", nil},
		{"bad year", "year_published", "nineteen-fifty", domain.ErrInvalidValue},
		{"available", "available", "false", nil},
		{"unknown field", "publisher", "Penguin", domain.ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdateBook(book.ID, tt.field, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("UpdateBook(%s) error = %v, want %v", tt.field, err, tt.wantErr)
			}
		})
	}

	if book.Title != "1984" || book.Author != "Eric Blair" || book.YearPublished != 1950 {
		t.Errorf("updates not applied: %+v", book)
	}
	if book.Available {
		t.Error("available should have been set to false")
	}

	// Any value other than "true" disables availability.
	if err := s.UpdateBook(book.ID, "available", "true"); err != nil {
		t.Fatalf("UpdateBook(available) failed: %v", err)
	}
	if !book.Available {
		t.Error("available should have been set to true")
	}
}

func TestUpdateBookKeepsStaleIndexKey(t *testing.T) {
	s := newTestStore(t)
	book := addBook(t, s, "1983", "George Orwell", "9780451524935", 1949)

	if err := s.UpdateBook(book.ID, "title", "1984"); err != nil {
		t.Fatalf("UpdateBook failed: %v", err)
	}

	// Index updates are additive: the book is findable under both the old
	// and the new title until it is deleted.
	if got := s.QueryBooks("1984", 0); len(got) != 1 {
		t.Errorf("expected the book under its new title, got %d results", len(got))
	}
	if got := s.QueryBooks("1983", 0); len(got) != 1 {
		t.Errorf("expected the book still reachable under its old title, got %d results", len(got))
	}
}

func TestDeleteBookPurgesAllIndexKeys(t *testing.T) {
	s := newTestStore(t)
	book := addBook(t, s, "1983", "George Orwell", "9780451524935", 1949)
	if err := s.UpdateBook(book.ID, "title", "1984"); err != nil {
		t.Fatalf("UpdateBook failed: %v", err)
	}

	if err := s.DeleteBook(book.ID); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}

	// A deleted book must vanish from every index bucket, stale keys
	// included.
	for _, term := range []string{"1983", "1984", "George Orwell", "9780451524935"} {
		if got := s.QueryBooks(term, 0); len(got) != 0 {
			t.Errorf("deleted book still reachable via %q", term)
		}
	}
	if _, err := s.ReadBook(book.ID); !errors.Is(err, domain.ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestDeleteBookCascadesTransactions(t *testing.T) {
	s := newTestStore(t)
	book := addBook(t, s, "1984", "George Orwell", "9780451524935", 1949)
	other := addBook(t, s, "Animal Farm", "George Orwell", "9780452284241", 1945)
	user := addUser(t, s, "john_doe")

	txnID, err := s.CreateTransaction(domain.TransactionBorrow, book, user)
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}
	otherTxnID, err := s.CreateTransaction(domain.TransactionBorrow, other, user)
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if err := s.DeleteBook(book.ID); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}

	if _, err := s.ReadTransaction(txnID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("transaction referencing the deleted book should be gone, got %v", err)
	}
	if _, err := s.ReadTransaction(otherTxnID); err != nil {
		t.Errorf("unrelated transaction should survive, got %v", err)
	}
	if got := s.QueryTransactionsByBookID(book.ID); len(got) != 0 {
		t.Errorf("expected no transactions for the deleted book, got %d", len(got))
	}
}

func TestDeleteUserCascadesTransactions(t *testing.T) {
	s := newTestStore(t)
	book := addBook(t, s, "1984", "George Orwell", "9780451524935", 1949)
	user := addUser(t, s, "john_doe")

	txnID, err := s.CreateTransaction(domain.TransactionBorrow, book, user)
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if err := s.DeleteUser(user.ID); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if _, err := s.ReadTransaction(txnID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("transaction referencing the deleted user should be gone, got %v", err)
	}
	if got := s.QueryUsers("john_doe", 0); len(got) != 0 {
		t.Errorf("deleted user still reachable, got %d results", len(got))
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	user := addUser(t, s, "john_doe")

	tests := []struct {
		field   string
		value   string
		wantErr error
	}{
		{"username", "johnny", nil},
		{"forename", "Jon", nil},
		{"surname", "Dough", nil},
		{"email", "new@email.com", nil},
		{"email", "not-an-email", domain.ErrInvalidEmail},
		{"phone_number", "+441234567891", nil},
		{"phone_number", "nope", domain.ErrInvalidPhone},
		{"password", "hunter2", nil},
		{"nickname", "jd", domain.ErrUnknownField},
	}

	for _, tt := range tests {
		if err := s.UpdateUser(user.ID, tt.field, tt.value); !errors.Is(err, tt.wantErr) {
			t.Errorf("UpdateUser(%s) error = %v, want %v", tt.field, err, tt.wantErr)
		}
	}

	if user.Username != "johnny" || user.Email != "new@email.com" || user.Password != "hunter2" {
		t.Errorf("updates not applied: %+v", user)
	}
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestStore(t)
	book := addBook(t, s, "1984", "George Orwell", "9780451524935", 1949)
	user := addUser(t, s, "john_doe")

	txnID, err := s.CreateTransaction(domain.TransactionBorrow, book, user)
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if err := s.DeleteTransaction(txnID); err != nil {
		t.Fatalf("DeleteTransaction failed: %v", err)
	}
	if got := s.QueryTransactionsByBookID(book.ID); len(got) != 0 {
		t.Errorf("deleted transaction still in book posting list")
	}
	if got := s.QueryTransactionsByUserID(user.ID); len(got) != 0 {
		t.Errorf("deleted transaction still in user posting list")
	}
	if err := s.DeleteTransaction(txnID); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("deleting twice should fail with ErrTransactionNotFound, got %v", err)
	}
}

func TestAuthenticateUser(t *testing.T) {
	s := newTestStore(t)
	addUser(t, s, "john_doe")

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "john_doe", "password", nil},
		{"case-insensitive username", "John_Doe", "password", nil},
		{"wrong password", "john_doe", "Password", domain.ErrInvalidCredentials},
		{"unknown user", "jane_doe", "password", domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := s.AuthenticateUser(tt.username, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && user == nil {
				t.Fatal("expected a user on success")
			}
		})
	}
}

func TestAuthenticateAdmin(t *testing.T) {
	s := NewStore("s3cret")
	if !s.AuthenticateAdmin("s3cret") {
		t.Error("correct admin password should authenticate")
	}
	if s.AuthenticateAdmin("S3cret") {
		t.Error("admin password comparison must be exact")
	}
	if s.AuthenticateAdmin("") {
		t.Error("empty password should not authenticate")
	}
}

func TestCountersRoundTrip(t *testing.T) {
	s := newTestStore(t)
	addBook(t, s, "1984", "George Orwell", "9780451524935", 1949)
	addUser(t, s, "john_doe")

	bookID, userID, txnID := s.Counters()
	if bookID != 1 || userID != 1 || txnID != 0 {
		t.Errorf("unexpected counters: %d %d %d", bookID, userID, txnID)
	}

	s.SetCounters(10, 20, 30)
	next := addBook(t, s, "Animal Farm", "George Orwell", "9780452284241", 1945)
	if next.ID != 11 {
		t.Errorf("expected next book ID 11 after SetCounters, got %d", next.ID)
	}
}
