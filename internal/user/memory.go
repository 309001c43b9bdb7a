package user

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/scribewiki/scribe/internal/errors"
)

type account struct {
	name  string
	email string
	hash  []byte
}

// MemoryStore is an in-memory Store with bcrypt-hashed passwords. It is the
// default backend and the one the tests use.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

// NewMemoryStore creates an empty account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*account)}
}

// Find implements Store.
func (s *MemoryStore) Find(ctx context.Context, name string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[name]
	if !ok {
		return nil, apperrors.NotFound("user %q", name)
	}
	return &User{Name: a.name, Email: a.email}, nil
}

// Authenticate implements Store.
func (s *MemoryStore) Authenticate(ctx context.Context, name, password string) (*User, error) {
	s.mu.RLock()
	a, ok := s.accounts[name]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.Recoverable("wrong username or password")
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return nil, apperrors.Recoverable("wrong username or password")
	}
	return &User{Name: a.name, Email: a.email}, nil
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, name, password, email string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[name]; ok {
		return nil, apperrors.Recoverable("user already exists")
	}
	s.accounts[name] = &account{name: name, email: email, hash: hash}
	return &User{Name: name, Email: email}, nil
}

// ChangePassword implements Store.
func (s *MemoryStore) ChangePassword(ctx context.Context, name, oldPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[name]
	if !ok {
		return apperrors.NotFound("user %q", name)
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(oldPassword)); err != nil {
		return apperrors.Recoverable("wrong old password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.hash = hash
	return nil
}

// UpdateEmail implements Store.
func (s *MemoryStore) UpdateEmail(ctx context.Context, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[name]
	if !ok {
		return apperrors.NotFound("user %q", name)
	}
	a.email = email
	return nil
}
