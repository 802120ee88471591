package aisleauth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aisleauth.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store, path
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()

	account := Account{ID: "a-1", Email: "sam@example.com", PasswordHash: "h"}
	if err := store.Create(ctx, account); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Save(ctx, Session{Profile: Profile{ID: "a-1"}, Token: "tok"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A second store over the same file sees everything.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got, err := reopened.GetByEmail(ctx, "SAM@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != "a-1" {
		t.Fatalf("ID = %q", got.ID)
	}
	session, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if session.Token != "tok" {
		t.Fatalf("Token = %q", session.Token)
	}
}

func TestFileStoreDuplicateEmail(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, Account{ID: "a-1", Email: "sam@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := store.Create(ctx, Account{ID: "a-2", Email: "Sam@Example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestFileStoreCorruptSessionClearedKeepsAccounts(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, Account{ID: "a-1", Email: "sam@example.com"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Corrupt only the session blob inside an otherwise valid document.
	doc := `{"accounts":[{"id":"a-1","email":"sam@example.com","first_name":"","last_name":"","password_hash":""}],"session":{"profile":12}}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := store.Load(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected corrupt session to read as absent, got %v", err)
	}
	// The scrub is durable and the account records survive.
	if _, err := store.Load(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected absent session on second load, got %v", err)
	}
	if _, err := store.GetByEmail(ctx, "sam@example.com"); err != nil {
		t.Fatalf("accounts must survive a session scrub: %v", err)
	}
}

func TestFileStoreUnreadableDocumentStartsEmpty(t *testing.T) {
	store, path := newFileStore(t)
	ctx := context.Background()

	if err := os.WriteFile(path, []byte("not json at all"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.GetByEmail(ctx, "any@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestFileStoreSessionWithoutTokenIsCorrupt(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Session{Profile: Profile{ID: "a-1"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected tokenless session to read as absent, got %v", err)
	}
}
