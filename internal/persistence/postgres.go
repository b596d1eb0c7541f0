package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/openshelf/openshelf/internal/config"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS books (
	book_id        BIGINT PRIMARY KEY,
	title          TEXT NOT NULL,
	author         TEXT NOT NULL,
	isbn           TEXT NOT NULL,
	year_published INTEGER NOT NULL,
	available      BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS users (
	user_id      BIGINT PRIMARY KEY,
	username     TEXT NOT NULL,
	forename     TEXT NOT NULL,
	surname      TEXT NOT NULL,
	email        TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	password     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	transaction_id BIGINT PRIMARY KEY,
	type           TEXT NOT NULL,
	status         TEXT NOT NULL,
	book_id        BIGINT NOT NULL,
	user_id        BIGINT NOT NULL,
	datetime       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`

// PostgresStore persists snapshots in PostgreSQL. Useful when several
// deployments want their snapshots in one managed database.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore connects to PostgreSQL and initialises the schema.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger zerolog.Logger) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create snapshot schema: %w", err)
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to PostgreSQL snapshot store")

	return &PostgresStore{
		pool:   pool,
		logger: logger.With().Str("component", "persistence").Str("backend", "postgres").Logger(),
	}, nil
}

// Save replaces the stored snapshot in a single transaction.
func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"books", "users", "transactions", "counters"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, b := range snap.Books {
		if _, err := tx.Exec(ctx,
			`INSERT INTO books (book_id, title, author, isbn, year_published, available) VALUES ($1, $2, $3, $4, $5, $6)`,
			b.ID, b.Title, b.Author, b.ISBN, b.YearPublished, b.Available,
		); err != nil {
			return fmt.Errorf("inserting book %d: %w", b.ID, err)
		}
	}
	for _, u := range snap.Users {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (user_id, username, forename, surname, email, phone_number, password) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			u.ID, u.Username, u.Forename, u.Surname, u.Email, u.PhoneNumber, u.Password,
		); err != nil {
			return fmt.Errorf("inserting user %d: %w", u.ID, err)
		}
	}
	for _, t := range snap.Transactions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO transactions (transaction_id, type, status, book_id, user_id, datetime) VALUES ($1, $2, $3, $4, $5, $6)`,
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
		if _, err := tx.Exec(ctx,
			`INSERT INTO counters (name, value) VALUES ($1, $2)`, name, value,
		); err != nil {
			return fmt.Errorf("inserting counter %s: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
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
func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM counters`).Scan(&count); err != nil {
		return nil, fmt.Errorf("checking counters: %w", err)
	}
	if count == 0 {
		return nil, ErrSnapshotNotFound
	}

	snap := &Snapshot{}

	rows, err := s.pool.Query(ctx,
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
		return nil, fmt.Errorf("iterating books: %w", err)
	}

	rows, err = s.pool.Query(ctx,
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
		return nil, fmt.Errorf("iterating users: %w", err)
	}

	rows, err = s.pool.Query(ctx,
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
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}

	counterRows, err := s.pool.Query(ctx, `SELECT name, value FROM counters`)
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

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	s.logger.Info().Msg("postgres snapshot store closed")
	return nil
}

// Ensure PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
