// Package sqlite is the embedded-store backend for credentials, for
// deployments that outgrow the flat record file. It honors the same
// contract: writers are serialized and uniqueness is re-checked at the
// moment of the write.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/barleygate/barleygate/internal/store"
)

// Store is a CredentialStore backed by an embedded SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (creating if absent) the database at the given path and ensures
// the schema exists.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening credential database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening credential database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating credential database: %w", err)
	}
	return &Store{db: db}, nil
}

// migrate runs the SQL statements to set up the schema.
func migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS accounts (
		username TEXT NOT NULL PRIMARY KEY,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// Exists reports whether an account with the given username is present.
func (s *Store) Exists(username string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM accounts WHERE username = ?", username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying account: %w", err)
	}
	return true, nil
}

// Lookup returns the stored password hash for the username.
func (s *Store) Lookup(username string) (string, error) {
	var hash string
	err := s.db.QueryRow("SELECT password_hash FROM accounts WHERE username = ?", username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying account: %w", err)
	}
	return hash, nil
}

// Insert adds a new account, re-checking uniqueness under the store lock.
func (s *Store) Insert(username, passwordHash string) error {
	if username == "" {
		return store.ErrDuplicateUsername
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := s.Exists(username)
	if err != nil {
		return err
	}
	if taken {
		return store.ErrDuplicateUsername
	}
	if _, err := s.db.Exec("INSERT INTO accounts(username, password_hash) VALUES(?, ?)", username, passwordHash); err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

// Update replaces the stored hash for an existing account.
func (s *Store) Update(username, newPasswordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE accounts SET password_hash = ? WHERE username = ?", newPasswordHash, username)
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating account: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }
