package services

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/barleygate/barleygate/internal/audit"
	"github.com/barleygate/barleygate/internal/auth"
	"github.com/barleygate/barleygate/internal/models"
	"github.com/barleygate/barleygate/internal/policy"
	"github.com/barleygate/barleygate/internal/store"
)

var (
	// ErrAuthFailed is the generic login failure. Unknown usernames and
	// wrong passwords both map here so callers cannot probe for account
	// existence.
	ErrAuthFailed = errors.New("invalid username or password")

	// ErrUnauthenticated is returned for protected operations invoked with
	// an anonymous session.
	ErrUnauthenticated = errors.New("not logged in")

	// ErrAlreadyAnonymous is returned when logging out an anonymous
	// session. A user error, not a crash.
	ErrAlreadyAnonymous = errors.New("already logged out")
)

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	Register(username, password string) error
	Login(username, password, origin string) (models.Session, error)
	ChangePassword(session models.Session, newPassword string) error
	Logout(session models.Session) error
	IsAuthorized(session models.Session, operation string) bool
}

// AccountService provides the credential-management boundary operations
// over an injected store, policy validator, and audit reporter.
type AccountService struct {
	store     store.CredentialStore
	validator *policy.Validator
	reporter  audit.Reporter
	events    EventServiceProvider
	hashCost  int
}

// NewAccountService creates a new AccountService.
func NewAccountService(st store.CredentialStore, validator *policy.Validator, reporter audit.Reporter, events EventServiceProvider) *AccountService {
	return &AccountService{
		store:     st,
		validator: validator,
		reporter:  reporter,
		events:    events,
		hashCost:  bcrypt.DefaultCost,
	}
}

// Register creates a new account. Uniqueness is checked up front for a fast
// user-facing answer and re-checked by the store at the moment of the
// write, under its lock.
func (s *AccountService) Register(username, password string) error {
	if username == "" {
		return store.ErrDuplicateUsername
	}
	taken, err := s.store.Exists(username)
	if err != nil {
		return fmt.Errorf("checking username: %w", err)
	}
	if taken {
		return store.ErrDuplicateUsername
	}

	if err := s.validator.Validate(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.store.Insert(username, string(hash)); err != nil {
		return err
	}

	s.events.CreateEvent("auth.register", "info", fmt.Sprintf("Account '%s' created", username), nil)
	return nil
}

// Login verifies the credentials and returns a session bound to the
// username. Every rejection, for whatever cause, reports to the audit sink
// with the caller's origin address.
func (s *AccountService) Login(username, password, origin string) (models.Session, error) {
	hash, err := s.store.Lookup(username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.rejectLogin(origin)
			return models.Anonymous, ErrAuthFailed
		}
		return models.Anonymous, fmt.Errorf("looking up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		s.rejectLogin(origin)
		return models.Anonymous, ErrAuthFailed
	}

	s.events.CreateEvent("auth.login.success", "info", fmt.Sprintf("'%s' logged in", username), &origin)
	return models.Session{Username: username}, nil
}

// rejectLogin records the failed attempt in the audit sink and the event
// feed. The audit line deliberately does not say why the attempt failed.
func (s *AccountService) rejectLogin(origin string) {
	s.reporter.Report(origin)
	s.events.CreateEvent("auth.login.fail", "warn", "Failed login attempt", &origin)
}

// ChangePassword validates and sets a new password for the session's
// account. The session identity referencing a missing account is an
// internal inconsistency: logged, surfaced as a generic failure, and it
// never creates a phantom account.
func (s *AccountService) ChangePassword(session models.Session, newPassword string) error {
	if !session.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if err := s.validator.Validate(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.hashCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.store.Update(session.Username, string(hash)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Error().Str("username", session.Username).Msg("Session references an account missing from the store")
			return fmt.Errorf("updating credentials for %q: %w", session.Username, err)
		}
		return fmt.Errorf("updating credentials: %w", err)
	}

	s.events.CreateEvent("auth.password.change", "info", fmt.Sprintf("'%s' changed their password", session.Username), nil)
	return nil
}

// Logout ends the session. Logging out while anonymous is reported as a
// user error.
func (s *AccountService) Logout(session models.Session) error {
	if !session.IsAuthenticated() {
		return ErrAlreadyAnonymous
	}
	s.events.CreateEvent("auth.logout", "info", fmt.Sprintf("'%s' logged out", session.Username), nil)
	return nil
}

// IsAuthorized reports whether the session may perform the named operation.
func (s *AccountService) IsAuthorized(session models.Session, operation string) bool {
	return auth.Authorize(session, operation)
}
