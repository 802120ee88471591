package aisleauth

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is the in-process Store used by default and in tests. Email
// lookups are case-insensitive; records are copied on the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string
	session *Session
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

func memoryKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *MemoryStore) GetByEmail(_ context.Context, email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[memoryKey(email)]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) GetByID(_ context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byID[id]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *MemoryStore) Create(_ context.Context, account Account) error {
	key := memoryKey(account.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[key]; exists {
		return ErrDuplicateEmail
	}
	if _, exists := s.byID[account.ID]; exists {
		return ErrDuplicateEmail
	}
	s.byID[account.ID] = account
	s.byEmail[key] = account.ID
	return nil
}

func (s *MemoryStore) Update(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, ok := s.byID[account.ID]
	if !ok {
		return ErrAccountNotFound
	}

	oldKey := memoryKey(previous.Email)
	newKey := memoryKey(account.Email)
	if oldKey != newKey {
		if _, exists := s.byEmail[newKey]; exists {
			return ErrDuplicateEmail
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = account.ID
	}
	s.byID[account.ID] = account
	return nil
}

func (s *MemoryStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := session
	s.session = &copied
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, ErrSessionNotFound
	}
	return *s.session, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

var _ Store = (*MemoryStore)(nil)
