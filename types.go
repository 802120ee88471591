package aisleauth

import "context"

// Account is a registered identity persisted by a [CredentialStore].
// Email is the unique lookup key. The password credential is stored as an
// argon2id PHC string, never in plaintext. The built-in administrator account
// is implicit and never appears in a store.
type Account struct {
	ID           string `json:"id" bson:"_id"`
	Email        string `json:"email" bson:"email"`
	FirstName    string `json:"first_name" bson:"first_name"`
	LastName     string `json:"last_name" bson:"last_name"`
	PasswordHash string `json:"password_hash" bson:"password_hash"`
	DateOfBirth  string `json:"date_of_birth,omitempty" bson:"date_of_birth,omitempty"`
	Gender       string `json:"gender,omitempty" bson:"gender,omitempty"`
	Pronoun      string `json:"pronoun,omitempty" bson:"pronoun,omitempty"`
	ProfileImage string `json:"profile_image,omitempty" bson:"profile_image,omitempty"`
}

// Profile returns the account's public fields, i.e. everything a Session may
// carry. The password credential is deliberately excluded.
func (a Account) Profile() Profile {
	return Profile{
		ID:           a.ID,
		Email:        a.Email,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Gender:       a.Gender,
		Pronoun:      a.Pronoun,
		ProfileImage: a.ProfileImage,
	}
}

// Profile is the public projection of an Account.
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Gender       string `json:"gender,omitempty"`
	Pronoun      string `json:"pronoun,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Session is the currently authenticated identity of the running client:
// the account's public fields plus an opaque access token. At most one
// Session exists per client instance.
type Session struct {
	Profile   Profile `json:"profile"`
	Token     string  `json:"token"`
	CreatedAt int64   `json:"created_at"`
}

// SignupRequest carries the fields collected by the signup form.
type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Pronoun     string `json:"pronoun,omitempty"`
}

// ProfileUpdate carries the mutable profile fields. Empty strings leave the
// corresponding field unchanged.
type ProfileUpdate struct {
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Pronoun      string `json:"pronoun,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

// Result is the settled outcome of Login and Signup. Operations never panic
// or leak transport errors across this boundary; expected business failures
// arrive as OK=false with a human-readable Message.
type Result struct {
	OK      bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CredentialStore persists registered local accounts for the fallback path.
// Implementations must return [ErrAccountNotFound] for unknown lookups,
// [ErrDuplicateEmail] when Create would violate email uniqueness, and wrap
// backend transport failures with [ErrStoreUnavailable].
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
	Create(ctx context.Context, account Account) error
	Update(ctx context.Context, account Account) error
}

// SessionStore persists the single current-session record. Load must return
// [ErrSessionNotFound] when nothing is persisted; a malformed persisted record
// is cleared and likewise reported as not found, never as an error.
type SessionStore interface {
	Save(ctx context.Context, session Session) error
	Load(ctx context.Context) (Session, error)
	Clear(ctx context.Context) error
}

// Store is the combination implemented by the bundled backends
// ([MemoryStore], [FileStore], [RedisStore]).
type Store interface {
	CredentialStore
	SessionStore
}
