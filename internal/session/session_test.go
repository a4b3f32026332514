package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRoster() *Roster {
	return NewRoster(map[string]string{
		"usuario1": "contraseña1",
		"usuario2": "contraseña2",
	})
}

func TestLoginSuccess(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(defaultRoster(), storage, DefaultKey)

	user, err := s.Login(ctx, "usuario1", "contraseña1")
	require.NoError(t, err)
	assert.Equal(t, "usuario1", user.Username)

	ok, err := s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	raw, found, _ := storage.Get(ctx, DefaultKey)
	assert.True(t, found)
	assert.JSONEq(t, `{"username":"usuario1"}`, raw)

	current, found, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "usuario1", current.Username)
}

func TestLoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	s := New(defaultRoster(), NewMemoryStorage(), DefaultKey)

	cases := [][2]string{
		{"usuario1", "wrong"},
		{"Usuario1", "contraseña1"},
		{"nobody", "contraseña1"},
		{"", ""},
	}
	for _, c := range cases {
		_, err := s.Login(ctx, c[0], c[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	ok, err := s.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLogoutIsUnconditional(t *testing.T) {
	ctx := context.Background()
	s := New(defaultRoster(), NewMemoryStorage(), DefaultKey)

	require.NoError(t, s.Logout(ctx))

	_, err := s.Login(ctx, "usuario2", "contraseña2")
	require.NoError(t, err)
	require.NoError(t, s.Logout(ctx))

	ok, _ := s.IsAuthenticated(ctx)
	assert.False(t, ok)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	roster := defaultRoster()
	s := New(roster, NewMemoryStorage(), DefaultKey)

	require.NoError(t, s.Register(ctx, "nuevo", "secreto"))
	assert.Equal(t, 3, roster.Len())

	ok, _ := s.IsAuthenticated(ctx)
	assert.False(t, ok, "registering does not log in")

	_, err := s.Login(ctx, "nuevo", "secreto")
	assert.NoError(t, err)
}

func TestRegisterDuplicate(t *testing.T) {
	s := New(defaultRoster(), NewMemoryStorage(), DefaultKey)

	err := s.Register(context.Background(), "usuario1", "otra")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = s.Login(context.Background(), "usuario1", "otra")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterIsCaseSensitive(t *testing.T) {
	s := New(defaultRoster(), NewMemoryStorage(), DefaultKey)
	assert.NoError(t, s.Register(context.Background(), "USUARIO1", "x"))
}

func TestSessionsShareRosterButNotStorageKeys(t *testing.T) {
	ctx := context.Background()
	roster := defaultRoster()
	storage := NewMemoryStorage()

	a := New(roster, storage, KeyFor("a"))
	b := New(roster, storage, KeyFor("b"))

	require.NoError(t, a.Register(ctx, "compartido", "pw"))
	_, err := b.Login(ctx, "compartido", "pw")
	require.NoError(t, err)

	okA, _ := a.IsAuthenticated(ctx)
	okB, _ := b.IsAuthenticated(ctx)
	assert.False(t, okA)
	assert.True(t, okB)
}

func TestKeyFor(t *testing.T) {
	assert.Equal(t, DefaultKey, KeyFor(""))
	assert.Equal(t, "session:abc:user", KeyFor("abc"))
}

type failingStorage struct{}

func (failingStorage) Get(ctx context.Context, key string) (string, bool, error) {
	return "", false, errors.New("storage down")
}
func (failingStorage) Set(ctx context.Context, key, value string) error {
	return errors.New("storage down")
}
func (failingStorage) Delete(ctx context.Context, key string) error {
	return errors.New("storage down")
}

func TestStorageErrorsAreReturned(t *testing.T) {
	ctx := context.Background()
	s := New(defaultRoster(), failingStorage{}, DefaultKey)

	_, err := s.Login(ctx, "usuario1", "contraseña1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.IsAuthenticated(ctx)
	assert.Error(t, err)
	assert.Error(t, s.Logout(ctx))
}
