package redis

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, "test:"), mr
}

func session(hash, userID string, now time.Time, ttl time.Duration) domain.Session {
	return domain.Session{
		Hash:       hash,
		UserID:     userID,
		AuthMethod: domain.AuthMethodPassword,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}
}

func TestSessionStore_CreateGetDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	s.Now = func() time.Time { return now }

	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.CreateSession(ctx, session("h1", "u1", now, time.Hour)))
	require.ErrorIs(t, s.CreateSession(ctx, session("h1", "u1", now, time.Hour)), store.ErrAlreadyExists)

	got, err := s.GetSession(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, now.Add(time.Hour), got.ExpiresAt)
	require.Equal(t, 2*time.Hour, mr.TTL("test:session:h1"))

	require.NoError(t, s.DeleteSession(ctx, "h1"))
	require.NoError(t, s.DeleteSession(ctx, "h1"))
	_, err = s.GetSession(ctx, "h1")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.False(t, mr.Exists("test:session:h1"))
}

func TestSessionStore_CollisionLeavesIndexUntouched(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, session("h1", "u1", now, time.Hour)))
	require.ErrorIs(t, s.CreateSession(ctx, session("h1", "u2", now, time.Hour)), store.ErrAlreadyExists)

	members, err := s.client.SMembers(ctx, s.userKey("u2")).Result()
	require.NoError(t, err)
	require.Empty(t, members)

	got, err := s.GetSession(ctx, "h1")
	require.NoError(t, err)
	require.Equal(t, "u1", got.UserID)

	n, err := s.DeleteUserSessions(ctx, "u2", "")
	require.NoError(t, err)
	require.Zero(t, n)
	_, err = s.GetSession(ctx, "h1")
	require.NoError(t, err)
}

func TestSessionStore_RecordOutlivesExpiryByGrace(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	s.Now = func() time.Time { return now }

	require.NoError(t, s.CreateSession(ctx, session("h1", "u1", now, time.Minute)))

	mr.FastForward(2 * time.Minute)
	got, err := s.GetSession(ctx, "h1")
	require.NoError(t, err, "expired records stay readable during the grace period")
	require.True(t, got.ExpiredAt(now.Add(2*time.Minute)))

	mr.FastForward(DefaultGrace)
	_, err = s.GetSession(ctx, "h1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSessionStore_DeleteUserSessions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, h := range []string{"a", "b", "c"} {
		require.NoError(t, s.CreateSession(ctx, session(h, "u1", now, time.Hour)))
	}
	require.NoError(t, s.CreateSession(ctx, session("other", "u2", now, time.Hour)))

	n, err := s.DeleteUserSessions(ctx, "u1", "b")
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = s.GetSession(ctx, "b")
	require.NoError(t, err)
	_, err = s.GetSession(ctx, "other")
	require.NoError(t, err)

	n, err = s.DeleteUserSessions(ctx, "u1", "")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestSessionStore_DeleteExpiredSessions(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.CreateSession(ctx, session("live", "u1", now, time.Hour)))
	require.NoError(t, s.CreateSession(ctx, session("dead", "u1", now, -time.Minute)))
	require.NoError(t, s.CreateSession(ctx, session("gone", "u2", now, time.Hour)))
	mr.Del("test:session:gone")

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	members, err := mr.Members("test:user_sessions:u1")
	require.NoError(t, err)
	require.Equal(t, []string{"live"}, members)

	require.Zero(t, s.client.SCard(ctx, "test:user_sessions:u2").Val())
}
