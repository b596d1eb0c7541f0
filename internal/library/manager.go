// Package library provides the concurrency facade over the catalogue store.
//
// The store itself is not thread-safe; Manager serialises every operation
// behind one coarse mutex, so create/read/update/delete/query are each
// atomic with respect to each other. This bounds throughput but is correct
// by construction: no method releases the lock mid-operation.
package library

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/catalog"
	"github.com/openshelf/openshelf/internal/domain"
	"github.com/openshelf/openshelf/internal/metrics"
	"github.com/openshelf/openshelf/internal/persistence"
)

// Manager guards the shared catalogue store and owns the save/load path.
type Manager struct {
	mu          sync.Mutex
	db          *catalog.Store
	pm          *persistence.Manager
	saveRetries int
	logger      zerolog.Logger
}

// NewManager creates the facade over a store and a persistence manager.
func NewManager(db *catalog.Store, pm *persistence.Manager, saveRetries int, logger zerolog.Logger) *Manager {
	if saveRetries < 1 {
		saveRetries = 1
	}
	return &Manager{
		db:          db,
		pm:          pm,
		saveRetries: saveRetries,
		logger:      logger.With().Str("component", "library").Logger(),
	}
}

// ===========================================
// Borrow / return
// ===========================================

// BorrowBook records a borrow transaction for the pair and executes it.
// On a refused side effect (book unavailable) the transaction stays open
// and its ID is still returned, leaving an auditable record.
func (m *Manager) BorrowBook(bookID, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkout(domain.TransactionBorrow, bookID, userID)
}

// ReturnBook records a return transaction for the pair and executes it.
func (m *Manager) ReturnBook(bookID, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkout(domain.TransactionReturn, bookID, userID)
}

func (m *Manager) checkout(typ domain.TransactionType, bookID, userID int64) (int64, error) {
	book, err := m.db.ReadBook(bookID)
	if err != nil {
		metrics.ObserveOp(string(typ), err)
		return 0, err
	}
	user, err := m.db.ReadUser(userID)
	if err != nil {
		metrics.ObserveOp(string(typ), err)
		return 0, err
	}

	id, err := m.db.CreateTransaction(typ, book, user)
	if err != nil {
		metrics.ObserveOp(string(typ), err)
		return 0, err
	}

	txn, err := m.db.ReadTransaction(id)
	if err != nil {
		metrics.ObserveOp(string(typ), err)
		return 0, err
	}

	if err := txn.Execute(); err != nil {
		m.logger.Warn().
			Int64("transaction_id", id).
			Int64("book_id", bookID).
			Int64("user_id", userID).
			Str("type", string(typ)).
			Err(err).
			Msg("transaction left open after failed execute")
		metrics.ObserveOp(string(typ), err)
		return id, err
	}

	m.logger.Info().
		Int64("transaction_id", id).
		Int64("book_id", bookID).
		Int64("user_id", userID).
		Str("type", string(typ)).
		Msg("transaction completed")
	metrics.ObserveOp(string(typ), nil)
	return id, nil
}

// ===========================================
// Books
// ===========================================

// CreateBook adds a book to the catalogue.
func (m *Manager) CreateBook(title, author, isbn string, yearPublished int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.db.CreateBook(title, author, isbn, yearPublished)
	metrics.ObserveOp("create_book", err)
	if err != nil {
		return 0, err
	}
	m.logger.Info().Int64("book_id", id).Str("title", title).Msg("book created")
	return id, nil
}

// ReadBook returns the book with the given ID.
func (m *Manager) ReadBook(id int64) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.ReadBook(id)
}

// UpdateBook mutates one named field of a book.
func (m *Manager) UpdateBook(id int64, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.UpdateBook(id, field, value)
	metrics.ObserveOp("update_book", err)
	if err == nil {
		m.logger.Info().Int64("book_id", id).Str("field", field).Msg("book updated")
	}
	return err
}

// DeleteBook removes a book and the transactions referencing it.
func (m *Manager) DeleteBook(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.DeleteBook(id)
	metrics.ObserveOp("delete_book", err)
	if err == nil {
		m.logger.Info().Int64("book_id", id).Msg("book deleted")
	}
	return err
}

// ===========================================
// Users
// ===========================================

// CreateUser adds a user to the catalogue.
func (m *Manager) CreateUser(username, forename, surname, email, phone, password string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := m.db.CreateUser(username, forename, surname, email, phone, password)
	metrics.ObserveOp("create_user", err)
	if err != nil {
		return 0, err
	}
	m.logger.Info().Int64("user_id", id).Str("username", username).Msg("user created")
	return id, nil
}

// ReadUser returns the user with the given ID.
func (m *Manager) ReadUser(id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.ReadUser(id)
}

// UpdateUser mutates one named field of a user.
func (m *Manager) UpdateUser(id int64, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.UpdateUser(id, field, value)
	metrics.ObserveOp("update_user", err)
	if err == nil {
		m.logger.Info().Int64("user_id", id).Str("field", field).Msg("user updated")
	}
	return err
}

// DeleteUser removes a user and the transactions referencing them.
func (m *Manager) DeleteUser(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.DeleteUser(id)
	metrics.ObserveOp("delete_user", err)
	if err == nil {
		m.logger.Info().Int64("user_id", id).Msg("user deleted")
	}
	return err
}

// ===========================================
// Transactions
// ===========================================

// CreateTransaction records an open transaction without executing it.
func (m *Manager) CreateTransaction(typ string, bookID, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	parsed, err := domain.ParseTransactionType(typ)
	if err != nil {
		metrics.ObserveOp("create_transaction", err)
		return 0, err
	}
	book, err := m.db.ReadBook(bookID)
	if err != nil {
		metrics.ObserveOp("create_transaction", err)
		return 0, err
	}
	user, err := m.db.ReadUser(userID)
	if err != nil {
		metrics.ObserveOp("create_transaction", err)
		return 0, err
	}

	id, err := m.db.CreateTransaction(parsed, book, user)
	metrics.ObserveOp("create_transaction", err)
	if err != nil {
		return 0, err
	}
	m.logger.Info().Int64("transaction_id", id).Str("type", typ).Msg("transaction created")
	return id, nil
}

// ReadTransaction returns the transaction with the given ID.
func (m *Manager) ReadTransaction(id int64) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.ReadTransaction(id)
}

// UpdateTransaction mutates one named field of a transaction.
func (m *Manager) UpdateTransaction(id int64, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.UpdateTransaction(id, field, value)
	metrics.ObserveOp("update_transaction", err)
	if err == nil {
		m.logger.Info().Int64("transaction_id", id).Str("field", field).Msg("transaction updated")
	}
	return err
}

// DeleteTransaction removes a transaction.
func (m *Manager) DeleteTransaction(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.db.DeleteTransaction(id)
	metrics.ObserveOp("delete_transaction", err)
	if err == nil {
		m.logger.Info().Int64("transaction_id", id).Msg("transaction deleted")
	}
	return err
}

// ExecuteTransaction executes an open transaction by ID.
func (m *Manager) ExecuteTransaction(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txn, err := m.db.ReadTransaction(id)
	if err != nil {
		metrics.ObserveOp("execute_transaction", err)
		return err
	}
	err = txn.Execute()
	metrics.ObserveOp("execute_transaction", err)
	return err
}

// CancelTransaction cancels an open transaction by ID.
func (m *Manager) CancelTransaction(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	txn, err := m.db.ReadTransaction(id)
	if err != nil {
		metrics.ObserveOp("cancel_transaction", err)
		return err
	}
	err = txn.Cancel()
	metrics.ObserveOp("cancel_transaction", err)
	return err
}

// ===========================================
// Queries
// ===========================================

// QueryBooks runs approximate search over the book indexes with the
// default threshold.
func (m *Manager) QueryBooks(term string) []*domain.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.QueryBooks(term, catalog.DefaultQueryThreshold)
}

// QueryUsers runs approximate search over the user indexes with the
// default threshold.
func (m *Manager) QueryUsers(term string) []*domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.QueryUsers(term, catalog.DefaultQueryThreshold)
}

// QueryTransactionsByBookID returns all transactions for a book.
func (m *Manager) QueryTransactionsByBookID(id int64) []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.QueryTransactionsByBookID(id)
}

// QueryTransactionsByUserID returns all transactions for a user.
func (m *Manager) QueryTransactionsByUserID(id int64) []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.QueryTransactionsByUserID(id)
}

// Books returns all books in insertion order.
func (m *Manager) Books() []*domain.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Books()
}

// Users returns all users in insertion order.
func (m *Manager) Users() []*domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Users()
}

// Transactions returns all transactions in insertion order.
func (m *Manager) Transactions() []*domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Transactions()
}

// ===========================================
// Authentication
// ===========================================

// AuthenticateUser verifies a username/password pair.
func (m *Manager) AuthenticateUser(username, password string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := m.db.AuthenticateUser(username, password)
	if err != nil {
		m.logger.Debug().Str("username", username).Msg("failed login attempt")
		return nil, err
	}
	m.logger.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user authenticated")
	return user, nil
}

// AuthenticateAdmin verifies the admin credential.
func (m *Manager) AuthenticateAdmin(password string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.AuthenticateAdmin(password)
}

// ===========================================
// Persistence
// ===========================================

// SaveDatabase captures a consistent snapshot and writes it through the
// persistence manager, retrying a bounded number of times. After the
// retries are exhausted it logs and gives up; it never crashes the process.
func (m *Manager) SaveDatabase(ctx context.Context) error {
	m.mu.Lock()
	snap := persistence.Capture(m.db)
	m.mu.Unlock()

	var lastErr error
	for attempt := 1; attempt <= m.saveRetries; attempt++ {
		if lastErr = m.pm.Save(ctx, snap); lastErr == nil {
			metrics.SnapshotSaves.WithLabelValues("ok").Inc()
			return nil
		}
		m.logger.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", m.saveRetries).
			Msg("snapshot save failed")
	}

	metrics.SnapshotSaves.WithLabelValues("error").Inc()
	m.logger.Error().Err(lastErr).Msg("giving up on snapshot save")
	return fmt.Errorf("saving snapshot after %d attempts: %w", m.saveRetries, lastErr)
}

// LoadDatabase replaces the catalogue state with the latest snapshot.
// Returns persistence.ErrSnapshotNotFound when nothing has been saved yet.
func (m *Manager) LoadDatabase(ctx context.Context) error {
	snap, err := m.pm.Load(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return persistence.Apply(snap, m.db)
}

// SeedDemoData populates an empty catalogue with a handful of books and a
// demo user so a fresh deployment has something to browse.
func (m *Manager) SeedDemoData() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.db.Empty() {
		return
	}

	seedBooks := []struct {
		title, author, isbn string
		year                int
	}{
		{"1984", "George Orwell", "9780451524935", 1949},
		{"Brave New World", "Aldous Huxley", "9780060850524", 1932},
		{"Fahrenheit 451", "Ray Bradbury", "9781451673319", 1953},
		{"The Dispossessed", "Ursula K. Le Guin", "9780061054884", 1974},
	}
	for _, b := range seedBooks {
		if _, err := m.db.CreateBook(b.title, b.author, b.isbn, b.year); err != nil {
			m.logger.Error().Err(err).Str("title", b.title).Msg("failed to seed book")
		}
	}

	if _, err := m.db.CreateUser("john_doe", "John", "Doe", "johndoe@email.com", "+441234567890", "password"); err != nil {
		m.logger.Error().Err(err).Msg("failed to seed user")
	}

	m.logger.Info().Msg("seeded demo catalogue")
}
