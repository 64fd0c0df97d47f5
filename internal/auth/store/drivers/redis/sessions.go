// Package redis keeps session records in redis so replicas share them without
// touching the SQL store on every request.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"

	goredis "github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "gatekeep:"

	// DefaultGrace keeps a record around after expiry so resolution can
	// still tell "expired" apart from "unknown".
	DefaultGrace = time.Hour
)

// Writes the record and indexes it only if the hash was free. Returns 1 when
// created.
var createSessionScript = goredis.NewScript(`
if not redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2], "NX") then
  return 0
end
redis.call("SADD", KEYS[2], ARGV[3])
return 1
`)

type record struct {
	UserID     string `json:"user_id"`
	AuthMethod string `json:"auth_method"`
	CreatedAt  int64  `json:"created_at"` // unix ms
	ExpiresAt  int64  `json:"expires_at"` // unix ms
}

// SessionStore implements store.Sessions.
//
// Layout:
//
//	<prefix>session:<hash>        JSON record, PX = time to expiry + Grace
//	<prefix>user_sessions:<uid>   SET of hashes owned by the user
type SessionStore struct {
	client goredis.UniversalClient
	prefix string

	Grace time.Duration
	Now   func() time.Time
}

var _ store.Sessions = (*SessionStore)(nil)

func NewSessionStore(client goredis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &SessionStore{
		client: client,
		prefix: prefix,
		Grace:  DefaultGrace,
		Now:    time.Now,
	}
}

func (s *SessionStore) sessionKey(hash string) string { return s.prefix + "session:" + hash }
func (s *SessionStore) userKey(userID string) string  { return s.prefix + "user_sessions:" + userID }

func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) Close() error { return s.client.Close() }

func (s *SessionStore) CreateSession(ctx context.Context, sess domain.Session) error {
	raw, err := json.Marshal(record{
		UserID:     sess.UserID,
		AuthMethod: string(sess.AuthMethod),
		CreatedAt:  sess.CreatedAt.UnixMilli(),
		ExpiresAt:  sess.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return err
	}

	ttl := sess.ExpiresAt.Sub(s.Now()) + s.Grace
	if ttl <= 0 {
		ttl = s.Grace
	}

	created, err := createSessionScript.Run(ctx, s.client,
		[]string{s.sessionKey(sess.Hash), s.userKey(sess.UserID)},
		raw, ttl.Milliseconds(), sess.Hash,
	).Int()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if created == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, hash string) (domain.Session, error) {
	rec, err := s.get(ctx, hash)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		Hash:       hash,
		UserID:     rec.UserID,
		AuthMethod: domain.AuthMethod(rec.AuthMethod),
		CreatedAt:  time.UnixMilli(rec.CreatedAt).UTC(),
		ExpiresAt:  time.UnixMilli(rec.ExpiresAt).UTC(),
	}, nil
}

func (s *SessionStore) get(ctx context.Context, hash string) (record, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(hash)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return record{}, store.ErrNotFound
	}
	if err != nil {
		return record{}, err
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, hash string) error {
	rec, err := s.get(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.sessionKey(hash))
		p.SRem(ctx, s.userKey(rec.UserID), hash)
		return nil
	})
	return err
}

func (s *SessionStore) DeleteUserSessions(ctx context.Context, userID, exceptHash string) (int64, error) {
	hashes, err := s.client.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, err
	}

	var dels []*goredis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		for _, h := range hashes {
			if h == exceptHash {
				continue
			}
			dels = append(dels, p.Del(ctx, s.sessionKey(h)))
			p.SRem(ctx, s.userKey(userID), h)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	var n int64
	for _, d := range dels {
		n += d.Val()
	}
	return n, nil
}

// DeleteExpiredSessions walks the per-user index sets, dropping records past
// their expiry and index entries whose record redis already evicted.
func (s *SessionStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	var (
		removed int64
		cursor  uint64
		pattern = s.userKey("*")
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, err
		}
		for _, key := range keys {
			n, err := s.sweepUser(ctx, key, now)
			removed += n
			if err != nil {
				return removed, err
			}
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (s *SessionStore) sweepUser(ctx context.Context, userKey string, now time.Time) (int64, error) {
	hashes, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, h := range hashes {
		rec, err := s.get(ctx, h)
		switch {
		case errors.Is(err, store.ErrNotFound):
			if err := s.client.SRem(ctx, userKey, h).Err(); err != nil {
				return removed, err
			}
		case err != nil:
			return removed, err
		case rec.ExpiresAt <= now.UnixMilli():
			_, err := s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
				p.Del(ctx, s.sessionKey(h))
				p.SRem(ctx, userKey, h)
				return nil
			})
			if err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
