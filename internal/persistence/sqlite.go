package persistence

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/config"
)

// sqliteSchema creates the snapshot tables. One row per entity plus a small
// counters table; a save replaces the whole snapshot in one transaction.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS books (
	book_id        INTEGER PRIMARY KEY,
	title          TEXT NOT NULL,
	author         TEXT NOT NULL,
	isbn           TEXT NOT NULL,
	year_published INTEGER NOT NULL,
	available      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	user_id      INTEGER PRIMARY KEY,
	username     TEXT NOT NULL,
	forename     TEXT NOT NULL,
	surname      TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	password     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	transaction_id INTEGER PRIMARY KEY,
	type           TEXT NOT NULL,
	status         TEXT NOT NULL,
	book_id        INTEGER NOT NULL,
	user_id        INTEGER NOT NULL,
	datetime       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);
`

// SQLiteStore persists snapshots in an embedded SQLite database.
// Uses modernc.org/sqlite, a pure Go driver, so the server stays a
// single CGO-free binary.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (and if needed initialises) the snapshot database.
func NewSQLiteStore(ctx context.Context, cfg config.SQLiteConfig, logger zerolog.Logger) (*SQLiteStore, error) {
	connStr := fmt.Sprintf(
		"%s?_journal_mode=%s&_busy_timeout=%d",
		cfg.Path, cfg.JournalMode, cfg.BusyTimeout,
	)

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Single writer; the snapshot is written as one transaction.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
	}

	logger.Info().Str("path", cfg.Path).Str("journal_mode", cfg.JournalMode).Msg("connected to SQLite snapshot store")

	return &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "persistence").Str("backend", "sqlite").Logger(),
	}, nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"books", "users", "transactions", "counters"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, b := range snap.Books {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO books (book_id, title, author, isbn, year_published, available) VALUES (?, ?, ?, ?, ?, ?)`,
			b.ID, b.Title, b.Author, b.ISBN, b.YearPublished, b.Available,
		); err != nil {
			return fmt.Errorf("inserting book %d: %w", b.ID, err)
		}
	}
	for _, u := range snap.Users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (user_id, username, forename, surname, email, phone_number, password) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Username, u.Forename, u.Surname, u.Email, u.PhoneNumber, u.Password,
		); err != nil {
			return fmt.Errorf("inserting user %d: %w", u.ID, err)
		}
	}
	for _, t := range snap.Transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (transaction_id, type, status, book_id, user_id, datetime) VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Type, t.Status, t.BookID, t.UserID, t.Datetime,
		); err != nil {
			return fmt.Errorf("inserting transaction %d: %w", t.ID, err)
		}
	}

	counters := map[string]int64{
		"book_id_counter":        snap.BookIDCounter,
		"user_id_counter":        snap.UserIDCounter,
		"transaction_id_counter": snap.TransactionIDCounter,
	}
	for name, value := range counters {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO counters (name, value) VALUES (?, ?)`, name, value,
		); err != nil {
			return fmt.Errorf("inserting counter %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.logger.Info().
		Int("books", len(snap.Books)).
		Int("users", len(snap.Users)).
		Int("transactions", len(snap.Transactions)).
		Msg("snapshot saved")
	return nil
}

// Load reads the stored snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM counters`).Scan(&count); err != nil {
		return nil, fmt.Errorf("checking counters: %w", err)
	}
	if count == 0 {
		return nil, ErrSnapshotNotFound
	}

	snap := &Snapshot{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, title, author, isbn, year_published, available FROM books ORDER BY book_id`)
	if err != nil {
		return nil, fmt.Errorf("loading books: %w", err)
	}
	for rows.Next() {
		var b BookRecord
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &b.YearPublished, &b.Available); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning book: %w", err)
		}
		snap.Books = append(snap.Books, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating books: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT user_id, username, forename, surname, email, phone_number, password FROM users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("loading users: %w", err)
	}
	for rows.Next() {
		var u UserRecord
		if err := rows.Scan(&u.ID, &u.Username, &u.Forename, &u.Surname, &u.Email, &u.PhoneNumber, &u.Password); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		snap.Users = append(snap.Users, u)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx,
		`SELECT transaction_id, type, status, book_id, user_id, datetime FROM transactions ORDER BY transaction_id`)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	for rows.Next() {
		var t TransactionRecord
		if err := rows.Scan(&t.ID, &t.Type, &t.Status, &t.BookID, &t.UserID, &t.Datetime); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		snap.Transactions = append(snap.Transactions, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	rows.Close()

	counterRows, err := s.db.QueryContext(ctx, `SELECT name, value FROM counters`)
	if err != nil {
		return nil, fmt.Errorf("loading counters: %w", err)
	}
	defer counterRows.Close()
	for counterRows.Next() {
		var name string
		var value int64
		if err := counterRows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning counter: %w", err)
		}
		switch name {
		case "book_id_counter":
			snap.BookIDCounter = value
		case "user_id_counter":
			snap.UserIDCounter = value
		case "transaction_id_counter":
			snap.TransactionIDCounter = value
		}
	}
	if err := counterRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counters: %w", err)
	}

	return snap, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.logger.Info().Msg("closing SQLite snapshot store")
	return s.db.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
