// Package persistence saves and loads catalogue snapshots.
//
// A snapshot is one document with four top-level parts: the books, users and
// transactions arrays plus the three ID counters. The json backend writes it
// verbatim; the sqlite, postgres and s3 backends store the same data in their
// own shape and reproduce the document on load.
package persistence

import (
	"fmt"

	"github.com/openshelf/openshelf/internal/catalog"
	"github.com/openshelf/openshelf/internal/domain"
)

// BookRecord is the persisted form of a book.
type BookRecord struct {
	ID            int64  `json:"book_id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	ISBN          string `json:"isbn"`
	YearPublished int    `json:"year_published"`
	Available     bool   `json:"available"`
}

// UserRecord is the persisted form of a user.
type UserRecord struct {
	ID          int64  `json:"user_id"`
	Username    string `json:"username"`
	Forename    string `json:"forename"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// TransactionRecord is the persisted form of a transaction. Book and user
// are stored by ID and resolved against already-loaded entities on restore.
type TransactionRecord struct {
	ID       int64  `json:"transaction_id"`
	Type     string `json:"type"`
	Status   string `json:"status"`
	BookID   int64  `json:"book_id"`
	UserID   int64  `json:"user_id"`
	Datetime string `json:"datetime"`
}

// Snapshot is the complete persisted catalogue state.
type Snapshot struct {
	Books                []BookRecord        `json:"books"`
	Users                []UserRecord        `json:"users"`
	Transactions         []TransactionRecord `json:"transactions"`
	BookIDCounter        int64               `json:"book_id_counter"`
	UserIDCounter        int64               `json:"user_id_counter"`
	TransactionIDCounter int64               `json:"transaction_id_counter"`
}

// Capture copies the store's current state into a Snapshot.
func Capture(store *catalog.Store) *Snapshot {
	snap := &Snapshot{}
	snap.BookIDCounter, snap.UserIDCounter, snap.TransactionIDCounter = store.Counters()

	for _, b := range store.Books() {
		snap.Books = append(snap.Books, BookRecord{
			ID:            b.ID,
			Title:         b.Title,
			Author:        b.Author,
			ISBN:          b.ISBN,
			YearPublished: b.YearPublished,
			Available:     b.Available,
		})
	}
	for _, u := range store.Users() {
		snap.Users = append(snap.Users, UserRecord{
			ID:          u.ID,
			Username:    u.Username,
			Forename:    u.Forename,
			Surname:     u.Surname,
			Email:       u.Email,
			PhoneNumber: u.PhoneNumber,
			Password:    u.Password,
		})
	}
	for _, t := range store.Transactions() {
		snap.Transactions = append(snap.Transactions, TransactionRecord{
			ID:       t.ID,
			Type:     string(t.Type),
			Status:   string(t.Status),
			BookID:   t.Book.ID,
			UserID:   t.User.ID,
			Datetime: t.Datetime,
		})
	}
	return snap
}

// Apply replaces the store's state with the snapshot, rebuilding every
// secondary index and posting list exactly as the create path would.
// Load order is books, then users, then transactions, so each transaction's
// book and user resolve against entities already in the store.
func Apply(snap *Snapshot, store *catalog.Store) error {
	store.Reset()

	for _, rec := range snap.Books {
		book, err := domain.NewBook(rec.ID, rec.Title, rec.Author, rec.ISBN, rec.YearPublished)
		if err != nil {
			return fmt.Errorf("restoring book %d: %w", rec.ID, err)
		}
		book.Available = rec.Available
		store.RestoreBook(book)
	}

	for _, rec := range snap.Users {
		user, err := domain.NewUser(rec.ID, rec.Username, rec.Forename, rec.Surname, rec.Email, rec.PhoneNumber, rec.Password)
		if err != nil {
			return fmt.Errorf("restoring user %d: %w", rec.ID, err)
		}
		store.RestoreUser(user)
	}

	for _, rec := range snap.Transactions {
		book, err := store.ReadBook(rec.BookID)
		if err != nil {
			return fmt.Errorf("restoring transaction %d: %w", rec.ID, err)
		}
		user, err := store.ReadUser(rec.UserID)
		if err != nil {
			return fmt.Errorf("restoring transaction %d: %w", rec.ID, err)
		}
		txn, err := domain.NewTransaction(rec.ID, domain.TransactionType(rec.Type), book, user)
		if err != nil {
			return fmt.Errorf("restoring transaction %d: %w", rec.ID, err)
		}
		txn.Status = domain.TransactionStatus(rec.Status)
		txn.Datetime = rec.Datetime
		store.RestoreTransaction(txn)
	}

	store.SetCounters(snap.BookIDCounter, snap.UserIDCounter, snap.TransactionIDCounter)
	return nil
}
