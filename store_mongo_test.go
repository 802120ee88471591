package aisleauth

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func sampleAccountDoc() bson.D {
	return bson.D{
		{Key: "_id", Value: "a-1"},
		{Key: "email", Value: "sam@example.com"},
		{Key: "first_name", Value: "Sam"},
		{Key: "last_name", Value: "Doe"},
		{Key: "password_hash", Value: "h"},
	}
}

func TestMongoStoreGetByEmail(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "aisleauth.accounts", mtest.FirstBatch, sampleAccountDoc()))

		account, err := store.GetByEmail(context.Background(), "SAM@example.com")
		if err != nil {
			mt.Fatalf("GetByEmail: %v", err)
		}
		if account.ID != "a-1" || account.Email != "sam@example.com" {
			mt.Fatalf("account = %+v", account)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "aisleauth.accounts", mtest.FirstBatch))

		if _, err := store.GetByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, ErrAccountNotFound) {
			mt.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}

func TestMongoStoreCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	account := Account{ID: "a-1", Email: "Sam@Example.com", PasswordHash: "h"}

	mt.Run("ok", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "aisleauth.accounts", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		if err := store.Create(context.Background(), account); err != nil {
			mt.Fatalf("Create: %v", err)
		}
	})

	mt.Run("existing email", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "aisleauth.accounts", mtest.FirstBatch, sampleAccountDoc()))

		if err := store.Create(context.Background(), account); !errors.Is(err, ErrDuplicateEmail) {
			mt.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	mt.Run("index violation", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "aisleauth.accounts", mtest.FirstBatch),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key"}),
		)

		if err := store.Create(context.Background(), account); !errors.Is(err, ErrDuplicateEmail) {
			mt.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}
	})
}

func TestMongoStoreUpdate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	account := Account{ID: "a-1", Email: "sam@example.com", FirstName: "Samuel", PasswordHash: "h2"}

	mt.Run("ok", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		if err := store.Update(context.Background(), account); err != nil {
			mt.Fatalf("Update: %v", err)
		}
	})

	mt.Run("missing", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		if err := store.Update(context.Background(), account); !errors.Is(err, ErrAccountNotFound) {
			mt.Fatalf("expected ErrAccountNotFound, got %v", err)
		}
	})
}
