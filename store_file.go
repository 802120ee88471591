package aisleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// fileDocument is the on-disk shape of a FileStore. Session stays raw so a
// corrupt session blob can be discarded without losing the account records
// next to it.
type fileDocument struct {
	Accounts []Account       `json:"accounts"`
	Session  json.RawMessage `json:"session,omitempty"`
}

// FileStore is a Store persisted as a single JSON document, standing in for
// the client-local storage a desktop or browser shell would use. Writes
// rewrite the whole document via a temp file and rename. An unreadable
// document is treated as empty; a readable document with a malformed session
// blob keeps its accounts and reports the session as absent.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path. The file is created lazily on
// first write.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path must not be empty")
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) GetByEmail(_ context.Context, email string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Account{}, err
	}
	key := strings.ToLower(strings.TrimSpace(email))
	for _, account := range doc.Accounts {
		if strings.ToLower(account.Email) == key {
			return account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (s *FileStore) GetByID(_ context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Account{}, err
	}
	for _, account := range doc.Accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return Account{}, ErrAccountNotFound
}

func (s *FileStore) Create(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	key := strings.ToLower(strings.TrimSpace(account.Email))
	for _, existing := range doc.Accounts {
		if strings.ToLower(existing.Email) == key || existing.ID == account.ID {
			return ErrDuplicateEmail
		}
	}
	doc.Accounts = append(doc.Accounts, account)
	return s.write(doc)
}

func (s *FileStore) Update(_ context.Context, account Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	for i, existing := range doc.Accounts {
		if existing.ID == account.ID {
			doc.Accounts[i] = account
			return s.write(doc)
		}
	}
	return ErrAccountNotFound
}

func (s *FileStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: encode session: %v", ErrStoreUnavailable, err)
	}
	doc.Session = raw
	return s.write(doc)
}

func (s *FileStore) Load(_ context.Context) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return Session{}, err
	}
	if len(doc.Session) == 0 {
		return Session{}, ErrSessionNotFound
	}

	var session Session
	if err := json.Unmarshal(doc.Session, &session); err != nil || session.Token == "" {
		// Malformed persisted state reads as absence and is scrubbed so the
		// next start does not trip over it again.
		doc.Session = nil
		if writeErr := s.write(doc); writeErr != nil {
			return Session{}, writeErr
		}
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	if len(doc.Session) == 0 {
		return nil
	}
	doc.Session = nil
	return s.write(doc)
}

func (s *FileStore) read() (fileDocument, error) {
	var doc fileDocument

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		// The whole document is unreadable. Start over rather than wedge
		// every operation behind a decode error.
		return fileDocument{}, nil
	}
	return doc, nil
}

func (s *FileStore) write(doc fileDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", ErrStoreUnavailable, err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".aisleauth-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
