// Package memusers is an in-memory goSession.UserProvider for development
// servers, load tests and tests.
package memusers

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/mail"
)

// ErrEmailTaken is returned by Create for an address already in use.
var ErrEmailTaken = errors.New("memusers: email already registered")

// Store holds users in maps guarded by a mutex.
type Store struct {
	mu         sync.RWMutex
	byID       map[string]goSession.User
	byEmail    map[string]string
	byProvider map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:       make(map[string]goSession.User),
		byEmail:    make(map[string]string),
		byProvider: make(map[string]string),
	}
}

// Create registers a user under a normalized email and returns it.
// passwordHash may be empty.
func (s *Store) Create(email, passwordHash string) (goSession.User, error) {
	addr, err := mail.NormalizeAddress(email)
	if err != nil {
		return goSession.User{}, goSession.ErrInvalidEmail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[addr]; ok {
		return goSession.User{}, ErrEmailTaken
	}
	u := goSession.User{
		ID:           uuid.NewString(),
		Email:        addr,
		PasswordHash: passwordHash,
	}
	s.byID[u.ID] = u
	s.byEmail[addr] = u.ID
	return u, nil
}

// LinkProvider attaches an external identity to userID.
func (s *Store) LinkProvider(userID, provider, providerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[userID]; !ok {
		return goSession.ErrUserNotFound
	}
	s.byProvider[provider+"\x00"+providerUserID] = userID
	return nil
}

// Len returns the number of users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) GetUser(_ context.Context, lookup goSession.UserLookup) (goSession.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var id string
	switch l := lookup.(type) {
	case goSession.LookupByID:
		id = l.ID
	case goSession.LookupByEmail:
		id = s.byEmail[l.Email]
	case goSession.LookupByProviderID:
		id = s.byProvider[l.Provider+"\x00"+l.ProviderUserID]
	}

	u, ok := s.byID[id]
	if !ok {
		return goSession.User{}, goSession.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) SetPasswordHash(_ context.Context, userID, hash string) error {
	return s.update(userID, func(u *goSession.User) { u.PasswordHash = hash })
}

func (s *Store) MarkEmailVerified(_ context.Context, userID string) error {
	return s.update(userID, func(u *goSession.User) { u.EmailVerified = true })
}

func (s *Store) update(userID string, fn func(*goSession.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return goSession.ErrUserNotFound
	}
	fn(&u)
	s.byID[userID] = u
	return nil
}
