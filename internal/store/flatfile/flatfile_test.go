package flatfile

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barleygate/barleygate/internal/store"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passfile.txt")
	return New(path), path
}

func TestInsertAndLookup(t *testing.T) {
	s, _ := newTestStore(t)

	require.NoError(t, s.Insert("alice", "$2a$10$hash-a"))

	exists, err := s.Exists("alice")
	require.NoError(t, err)
	assert.True(t, exists)

	hash, err := s.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash-a", hash)
}

func TestLookupAbsent(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Lookup("ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)

	exists, err := s.Exists("ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUsernamesAreCaseSensitive(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Insert("alice", "h"))

	exists, err := s.Exists("Alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInsertDuplicate(t *testing.T) {
	s, path := newTestStore(t)

	require.NoError(t, s.Insert("alice", "h1"))
	assert.ErrorIs(t, s.Insert("alice", "h2"), store.ErrDuplicateUsername)

	// Exactly one record stored, with the original hash.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice:h1\n", string(data))
}

func TestInsertBlankUsername(t *testing.T) {
	s, _ := newTestStore(t)
	assert.ErrorIs(t, s.Insert("", "h"), store.ErrDuplicateUsername)
}

func TestUpdateReplacesOnlyTargetHash(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.Insert("alice", "ha"))
	require.NoError(t, s.Insert("bob", "hb"))
	require.NoError(t, s.Insert("carol", "hc"))

	require.NoError(t, s.Update("bob", "hb2"))

	// All records present, original order, only bob's hash changed.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice:ha\nbob:hb2\ncarol:hc\n", string(data))
}

func TestUpdateAbsentDoesNotCreatePhantom(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.Insert("alice", "ha"))

	assert.ErrorIs(t, s.Update("ghost", "hg"), store.ErrNotFound)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice:ha\n", string(data))
}

func TestMalformedRecordFailsCleanly(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("alice:ha\ngarbage-without-separator\n"), 0o644))

	_, err := s.Lookup("alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestConcurrentRegistrationsOfSameUsername(t *testing.T) {
	s, path := newTestStore(t)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Insert("alice", "h")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, store.ErrDuplicateUsername)
		}
	}
	assert.Equal(t, 1, succeeded)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "alice:"))
}

func TestConcurrentUpdatesAndInsertsLoseNothing(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.Insert("alice", "ha"))
	require.NoError(t, s.Insert("bob", "hb"))

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); _ = s.Update("alice", "ha2") }()
	go func() { defer wg.Done(); _ = s.Update("bob", "hb2") }()
	go func() { defer wg.Done(); _ = s.Insert("carol", "hc") }()
	wg.Wait()

	for name, want := range map[string]string{"alice": "ha2", "bob": "hb2", "carol": "hc"} {
		hash, err := s.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, want, hash)
	}
}

func TestMissingFileIsEmptyStore(t *testing.T) {
	s, path := newTestStore(t)

	exists, err := s.Exists("anyone")
	require.NoError(t, err)
	assert.False(t, exists)

	// Still not created by reads.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
