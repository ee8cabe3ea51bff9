// Package flatfile persists credentials as username:password_hash lines in a
// single text file, created empty on first use.
package flatfile

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/barleygate/barleygate/internal/models"
	"github.com/barleygate/barleygate/internal/store"
)

// Store is a CredentialStore backed by a flat record file. The file is the
// single source of truth: every operation re-reads it, and one mutex
// serializes the whole check-then-write sequence of each writer so two
// concurrent registrations of the same name cannot both pass the existence
// check.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates a flat-file store at the given path. The file itself is
// created lazily on the first write.
func New(path string) *Store {
	return &Store{path: path}
}

// Exists reports whether an account with the given username is present.
func (s *Store) Exists(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found, err := s.find(username)
	return found, err
}

// Lookup returns the stored password hash for the username.
func (s *Store) Lookup(username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, found, err := s.find(username)
	if err != nil {
		return "", err
	}
	if !found {
		return "", store.ErrNotFound
	}
	return account.PasswordHash, nil
}

// Insert appends a new account record. The existence check and the append
// happen under the same lock, against freshly read state.
func (s *Store) Insert(username, passwordHash string) error {
	if username == "" {
		return store.ErrDuplicateUsername
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.readAll()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a.Username == username {
			return store.ErrDuplicateUsername
		}
	}
	accounts = append(accounts, models.Account{Username: username, PasswordHash: passwordHash})
	return s.writeAll(accounts)
}

// Update rewrites the record set with the target account's hash replaced.
func (s *Store) Update(username, newPasswordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.readAll()
	if err != nil {
		return err
	}
	found := false
	for i, a := range accounts {
		if a.Username == username {
			accounts[i].PasswordHash = newPasswordHash
			found = true
			break
		}
	}
	if !found {
		return store.ErrNotFound
	}
	return s.writeAll(accounts)
}

// Close is a no-op; the store holds no open handles between operations.
func (s *Store) Close() error { return nil }

// find re-reads the file and scans for the username. Callers hold s.mu.
func (s *Store) find(username string) (models.Account, bool, error) {
	accounts, err := s.readAll()
	if err != nil {
		return models.Account{}, false, err
	}
	for _, a := range accounts {
		if a.Username == username {
			return a, true, nil
		}
	}
	return models.Account{}, false, nil
}

// readAll parses the whole record file. A missing file is an empty store.
func (s *Store) readAll() ([]models.Account, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening credential file: %w", err)
	}
	defer f.Close()

	var accounts []models.Account
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}
		account, err := store.DecodeRecord(line)
		if err != nil {
			return nil, fmt.Errorf("reading credential file: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading credential file: %w", err)
	}
	return accounts, nil
}

// writeAll commits the full record set in one step: write to a temp file in
// the same directory, then rename over the original. A crash mid-write can
// never leave a half-written record behind.
func (s *Store) writeAll(accounts []models.Account) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("writing credential file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, a := range accounts {
		if _, err := w.WriteString(store.EncodeRecord(a) + "\n"); err != nil {
			tmp.Close()
			return fmt.Errorf("writing credential file: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing credential file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing credential file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing credential file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("committing credential file: %w", err)
	}
	return nil
}
