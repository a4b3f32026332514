package session

import (
	"fmt"
	"sync"
)

// Roster is the set of known username/password pairs.
// It lives for the lifetime of the process; additions are never written
// anywhere else, so registrations are lost on restart.
type Roster struct {
	mu    sync.RWMutex
	users map[string]string
}

// NewRoster creates a roster seeded with the given pairs
func NewRoster(seed map[string]string) *Roster {
	users := make(map[string]string, len(seed))
	for username, password := range seed {
		users[username] = password
	}
	return &Roster{users: users}
}

// Authenticate reports whether username and password match exactly
func (r *Roster) Authenticate(username, password string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.users[username]
	return ok && stored == password
}

// Contains reports whether username is taken (case-sensitive)
func (r *Roster) Contains(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[username]
	return ok
}

// Add appends a new pair, failing if the username already exists
func (r *Roster) Add(username, password string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[username]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateUsername, username)
	}
	r.users[username] = password
	return nil
}

// Len returns the number of users
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
