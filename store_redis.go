package aisleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by Redis. Accounts are JSON blobs keyed by id
// with a separate email index; the single session record lives under one
// fixed key. Transport failures wrap [ErrStoreUnavailable].
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisStore creates a RedisStore. prefix namespaces every key; it
// defaults to "aa" when empty.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "aa"
	}
	return &RedisStore{redis: client, prefix: prefix}
}

func (s *RedisStore) accountKey(id string) string {
	return s.prefix + ":acct:" + id
}

func (s *RedisStore) emailKey(email string) string {
	return s.prefix + ":email:" + strings.ToLower(strings.TrimSpace(email))
}

func (s *RedisStore) sessionKey() string {
	return s.prefix + ":session"
}

func (s *RedisStore) GetByEmail(ctx context.Context, email string) (Account, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

func (s *RedisStore) GetByID(ctx context.Context, id string) (Account, error) {
	data, err := s.redis.Get(ctx, s.accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var account Account
	if err := json.Unmarshal(data, &account); err != nil {
		return Account{}, fmt.Errorf("%w: decode account: %v", ErrStoreUnavailable, err)
	}
	return account, nil
}

func (s *RedisStore) Create(ctx context.Context, account Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("%w: encode account: %v", ErrStoreUnavailable, err)
	}

	// SetNX on the email index is the uniqueness gate; the record write
	// follows only after the claim succeeds.
	claimed, err := s.redis.SetNX(ctx, s.emailKey(account.Email), account.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !claimed {
		return ErrDuplicateEmail
	}

	if err := s.redis.Set(ctx, s.accountKey(account.ID), data, 0).Err(); err != nil {
		// Roll the index claim back so a retry is not wedged behind a
		// half-created account.
		s.redis.Del(ctx, s.emailKey(account.Email))
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, account Account) error {
	previous, err := s.GetByID(ctx, account.ID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("%w: encode account: %v", ErrStoreUnavailable, err)
	}

	oldKey := s.emailKey(previous.Email)
	newKey := s.emailKey(account.Email)
	if oldKey != newKey {
		claimed, err := s.redis.SetNX(ctx, newKey, account.ID, 0).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if !claimed {
			return ErrDuplicateEmail
		}
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accountKey(account.ID), data, 0)
		if oldKey != newKey {
			pipe.Del(ctx, oldKey)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Save(ctx context.Context, session Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("%w: encode session: %v", ErrStoreUnavailable, err)
	}
	if err := s.redis.Set(ctx, s.sessionKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context) (Session, error) {
	data, err := s.redis.Get(ctx, s.sessionKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil || session.Token == "" {
		// Malformed persisted state reads as absence; scrub it so the next
		// load is clean.
		if delErr := s.redis.Del(ctx, s.sessionKey()).Err(); delErr != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, delErr)
		}
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.sessionKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
