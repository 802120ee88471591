package aisleauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoStore is a CredentialStore over a MongoDB collection. Emails are
// stored lowercased; uniqueness is enforced by a pre-insert check plus the
// collection's unique index on email when one is present. MongoStore carries
// no session record, so pair it with a [SessionStore] in the builder.
type MongoStore struct {
	accounts *mongo.Collection
}

// NewMongoStore creates a MongoStore over the given collection.
func NewMongoStore(accounts *mongo.Collection) *MongoStore {
	return &MongoStore{accounts: accounts}
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (Account, error) {
	var account Account
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}

	err := s.accounts.FindOne(ctx, filter).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return account, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (Account, error) {
	var account Account

	err := s.accounts.FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return account, nil
}

func (s *MongoStore) Create(ctx context.Context, account Account) error {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))

	err := s.accounts.FindOne(ctx, bson.M{"email": account.Email}).Err()
	switch {
	case err == nil:
		return ErrDuplicateEmail
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if _, err := s.accounts.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, account Account) error {
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))

	result, err := s.accounts.ReplaceOne(ctx, bson.M{"_id": account.ID}, account)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if result.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

var _ CredentialStore = (*MongoStore)(nil)
