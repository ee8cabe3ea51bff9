package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/barleygate/barleygate/internal/models"
)

var (
	// ErrDuplicateUsername is returned when inserting a username that is
	// already present, or a blank one (blank is always "taken").
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrNotFound is returned when updating an account that does not exist.
	ErrNotFound = errors.New("account not found")
)

// Separator delimits the two fields of a persisted credential record and is
// therefore barred from both of them.
const Separator = ":"

// CredentialStore is the system of record for accounts. Implementations must
// re-read durable state inside every operation and serialize writers so that
// check-then-write sequences are atomic.
type CredentialStore interface {
	// Exists reports whether an account with the given username is present.
	Exists(username string) (bool, error)

	// Lookup returns the stored password hash for the username.
	// Returns ErrNotFound if no such account exists.
	Lookup(username string) (string, error)

	// Insert durably appends a new account. Returns ErrDuplicateUsername if
	// the username is blank or already present at the moment of the write.
	Insert(username, passwordHash string) error

	// Update replaces the stored hash for an existing account, leaving all
	// other records unchanged and in their original order. Returns
	// ErrNotFound if the account is absent; it never creates one.
	Update(username, newPasswordHash string) error

	// Close releases any resources held by the store.
	Close() error
}

// EncodeRecord renders an account as a single credential record line.
func EncodeRecord(a models.Account) string {
	return a.Username + Separator + a.PasswordHash
}

// DecodeRecord parses one credential record line.
func DecodeRecord(line string) (models.Account, error) {
	username, hash, ok := strings.Cut(line, Separator)
	if !ok || username == "" || hash == "" {
		return models.Account{}, fmt.Errorf("malformed credential record %q", line)
	}
	return models.Account{Username: username, PasswordHash: hash}, nil
}
