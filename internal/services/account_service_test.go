package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/barleygate/barleygate/internal/models"
	"github.com/barleygate/barleygate/internal/policy"
	"github.com/barleygate/barleygate/internal/store"
)

// --- fakes ---

type fakeStore struct {
	accounts  map[string]string
	failWith  error
	mutations int
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]string)}
}

func (f *fakeStore) Exists(username string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	_, found := f.accounts[username]
	return found, nil
}

func (f *fakeStore) Lookup(username string) (string, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	hash, found := f.accounts[username]
	if !found {
		return "", store.ErrNotFound
	}
	return hash, nil
}

func (f *fakeStore) Insert(username, passwordHash string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if username == "" {
		return store.ErrDuplicateUsername
	}
	if _, found := f.accounts[username]; found {
		return store.ErrDuplicateUsername
	}
	f.accounts[username] = passwordHash
	f.mutations++
	return nil
}

func (f *fakeStore) Update(username, newPasswordHash string) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, found := f.accounts[username]; !found {
		return store.ErrNotFound
	}
	f.accounts[username] = newPasswordHash
	f.mutations++
	return nil
}

func (f *fakeStore) Close() error { return nil }

type fakeReporter struct {
	origins []string
}

func (f *fakeReporter) Report(origin string) { f.origins = append(f.origins, origin) }

type fakeEvents struct {
	types []string
}

func (f *fakeEvents) CreateEvent(eventType, level, message string, origin *string) {
	f.types = append(f.types, eventType)
}
func (f *fakeEvents) GetRecentEvents(limit int) []models.Event     { return nil }
func (f *fakeEvents) CountSince(eventType string, _ time.Time) int { return 0 }

// --- helpers ---

const goodPassword = "Aa1!aaaaaaaa"

func newTestService(t *testing.T, st store.CredentialStore) (*AccountService, *fakeReporter, *fakeEvents) {
	t.Helper()
	blocklist := filepath.Join(t.TempDir(), "CommonPassword.txt")
	require.NoError(t, os.WriteFile(blocklist, []byte("Password123!\n"), 0o644))

	reporter := &fakeReporter{}
	events := &fakeEvents{}
	s := NewAccountService(st, policy.NewValidator(blocklist), reporter, events)
	s.hashCost = bcrypt.MinCost // keep tests fast
	return s, reporter, events
}

// --- tests ---

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	st := newFakeStore()
	s, reporter, events := newTestService(t, st)

	require.NoError(t, s.Register("alice", goodPassword))

	session, err := s.Login("alice", goodPassword, "10.0.0.7")
	require.NoError(t, err)
	assert.Equal(t, "alice", session.Username)
	assert.True(t, session.IsAuthenticated())
	assert.Empty(t, reporter.origins)
	assert.Contains(t, events.types, "auth.register")
	assert.Contains(t, events.types, "auth.login.success")

	// The stored hash is never the plaintext.
	assert.NotEqual(t, goodPassword, st.accounts["alice"])
}

func TestLoginWrongPassword(t *testing.T) {
	s, reporter, _ := newTestService(t, newFakeStore())
	require.NoError(t, s.Register("alice", goodPassword))

	_, err := s.Login("alice", "wrong", "10.0.0.7")
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, []string{"10.0.0.7"}, reporter.origins)
}

func TestLoginUnknownUserIsIndistinguishable(t *testing.T) {
	s, reporter, _ := newTestService(t, newFakeStore())
	require.NoError(t, s.Register("alice", goodPassword))

	_, errUnknown := s.Login("ghost", goodPassword, "10.0.0.7")
	_, errWrong := s.Login("alice", "wrong", "10.0.0.8")

	// Same generic failure either way, both audited.
	assert.ErrorIs(t, errUnknown, ErrAuthFailed)
	assert.ErrorIs(t, errWrong, ErrAuthFailed)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, []string{"10.0.0.7", "10.0.0.8"}, reporter.origins)
}

func TestRegisterDuplicate(t *testing.T) {
	st := newFakeStore()
	s, _, _ := newTestService(t, st)

	require.NoError(t, s.Register("alice", goodPassword))
	before := st.mutations

	// Duplicate wins over password validation: any password is rejected
	// with the duplicate error.
	assert.ErrorIs(t, s.Register("alice", "short"), store.ErrDuplicateUsername)
	assert.ErrorIs(t, s.Register("alice", goodPassword), store.ErrDuplicateUsername)
	assert.Equal(t, before, st.mutations)
}

func TestRegisterBlankUsername(t *testing.T) {
	s, _, _ := newTestService(t, newFakeStore())
	assert.ErrorIs(t, s.Register("", goodPassword), store.ErrDuplicateUsername)
}

func TestRegisterWeakPassword(t *testing.T) {
	st := newFakeStore()
	s, _, _ := newTestService(t, st)

	var policyErr *policy.ValidationError
	require.ErrorAs(t, s.Register("bob", "short1!A"), &policyErr)
	assert.Equal(t, policy.ReasonTooShort, policyErr.Reason)
	assert.Zero(t, st.mutations)
}

func TestChangePassword(t *testing.T) {
	st := newFakeStore()
	s, _, events := newTestService(t, st)
	require.NoError(t, s.Register("alice", goodPassword))
	require.NoError(t, s.Register("bob", goodPassword))
	bobHash := st.accounts["bob"]

	const newPassword = "Bb2?bbbbbbbb"
	require.NoError(t, s.ChangePassword(models.Session{Username: "alice"}, newPassword))

	// Old password no longer works, new one does.
	_, err := s.Login("alice", goodPassword, "10.0.0.7")
	assert.ErrorIs(t, err, ErrAuthFailed)
	_, err = s.Login("alice", newPassword, "10.0.0.7")
	assert.NoError(t, err)

	// Other accounts' hashes are untouched.
	assert.Equal(t, bobHash, st.accounts["bob"])
	assert.Contains(t, events.types, "auth.password.change")
}

func TestChangePasswordUnauthenticated(t *testing.T) {
	st := newFakeStore()
	s, _, _ := newTestService(t, st)
	require.NoError(t, s.Register("alice", goodPassword))
	before := st.mutations

	err := s.ChangePassword(models.Anonymous, goodPassword)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, before, st.mutations)
}

func TestChangePasswordWeak(t *testing.T) {
	st := newFakeStore()
	s, _, _ := newTestService(t, st)
	require.NoError(t, s.Register("alice", goodPassword))

	var policyErr *policy.ValidationError
	require.ErrorAs(t, s.ChangePassword(models.Session{Username: "alice"}, "weak"), &policyErr)
	assert.Equal(t, policy.ReasonTooShort, policyErr.Reason)
}

func TestChangePasswordMissingAccount(t *testing.T) {
	s, _, _ := newTestService(t, newFakeStore())

	// Session references an account absent from the store: fails safely,
	// creates nothing.
	err := s.ChangePassword(models.Session{Username: "ghost"}, goodPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLogout(t *testing.T) {
	s, _, events := newTestService(t, newFakeStore())

	assert.NoError(t, s.Logout(models.Session{Username: "alice"}))
	assert.Contains(t, events.types, "auth.logout")

	assert.ErrorIs(t, s.Logout(models.Anonymous), ErrAlreadyAnonymous)
}

func TestIsAuthorized(t *testing.T) {
	s, _, _ := newTestService(t, newFakeStore())

	for _, op := range []string{"home", "about", "contact", "menu", "password-change"} {
		assert.False(t, s.IsAuthorized(models.Anonymous, op))
		assert.True(t, s.IsAuthorized(models.Session{Username: "alice"}, op))
	}
}

func TestStorageErrorAborts(t *testing.T) {
	st := newFakeStore()
	st.failWith = errors.New("disk on fire")
	s, reporter, _ := newTestService(t, st)

	err := s.Register("alice", goodPassword)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrDuplicateUsername)

	// A storage failure is not an auth failure and is not audited as one.
	_, err = s.Login("alice", goodPassword, "10.0.0.7")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAuthFailed)
	assert.Empty(t, reporter.origins)
}
