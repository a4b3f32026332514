// Package session simulates login, logout and registration against a Roster.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"sweetshop/internal/models"
	"sweetshop/internal/util"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUsername  = errors.New("username already exists")
)

// DefaultKey is the storage key used when there is a single browsing session
const DefaultKey = "user"

// KeyFor returns the storage key holding the current user of a browsing session
func KeyFor(sessionID string) string {
	if sessionID == "" {
		return DefaultKey
	}
	return fmt.Sprintf("session:%s:user", sessionID)
}

// Session is the authentication state of one browsing session
type Session struct {
	roster  *Roster
	storage Storage
	key     string
	logger  *zap.Logger
}

// New creates a session storing its current user under key
func New(roster *Roster, storage Storage, key string) *Session {
	return &Session{
		roster:  roster,
		storage: storage,
		key:     key,
		logger:  util.GetLogger(),
	}
}

// Login checks the pair against the roster and, on a match, records the
// current user in storage
func (s *Session) Login(ctx context.Context, username, password string) (models.User, error) {
	ctx, span := util.StartSpan(ctx, "Session.Login")
	defer span.End()

	if !s.roster.Authenticate(username, password) {
		util.SessionLoginsTotal.WithLabelValues("invalid").Inc()
		s.logger.Info("Login rejected", zap.String("username", username))
		return models.User{}, ErrInvalidCredentials
	}

	user := models.User{Username: username}
	record, err := json.Marshal(user)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to marshal user: %w", err)
	}

	if err := s.storage.Set(ctx, s.key, string(record)); err != nil {
		util.SessionLoginsTotal.WithLabelValues("error").Inc()
		return models.User{}, fmt.Errorf("failed to store current user: %w", err)
	}

	util.SessionLoginsTotal.WithLabelValues("success").Inc()
	s.logger.Info("User logged in", zap.String("username", username))
	return user, nil
}

// Logout clears the current user record unconditionally
func (s *Session) Logout(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("failed to clear current user: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a current user record is present
func (s *Session) IsAuthenticated(ctx context.Context) (bool, error) {
	_, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return false, fmt.Errorf("failed to read current user: %w", err)
	}
	return ok, nil
}

// CurrentUser decodes the stored record
func (s *Session) CurrentUser(ctx context.Context) (models.User, bool, error) {
	raw, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return models.User{}, false, fmt.Errorf("failed to read current user: %w", err)
	}
	if !ok {
		return models.User{}, false, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return models.User{}, false, fmt.Errorf("failed to decode current user: %w", err)
	}
	return user, true, nil
}

// Register adds the pair to the roster. It does not log the user in.
func (s *Session) Register(ctx context.Context, username, password string) error {
	if err := s.roster.Add(username, password); err != nil {
		util.SessionRegistrationsTotal.WithLabelValues("duplicate").Inc()
		return err
	}

	util.SessionRegistrationsTotal.WithLabelValues("success").Inc()
	s.logger.Info("User registered", zap.String("username", username))
	return nil
}
