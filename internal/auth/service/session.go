package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

const DefaultSessionTTL = 24 * time.Hour

// SessionService mints and resolves opaque session ids. Only the SHA-256
// fingerprint of an id reaches the Sessions backend.
type SessionService struct {
	Users    store.Users
	Sessions store.Sessions
	TTL      time.Duration
	Now      func() time.Time
	Metrics  *metrics.Metrics
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SessionService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultSessionTTL
	}
	return s.TTL
}

// Create issues a new session for user. The returned Session carries the raw
// id; it cannot be recovered later.
func (s *SessionService) Create(ctx context.Context, user domain.User, method domain.AuthMethod) (domain.Session, error) {
	id, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now()
	sess := domain.Session{
		ID:         id,
		Hash:       cryptox.FingerprintToken(id),
		UserID:     user.ID,
		AuthMethod: method,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl()),
	}
	if err := s.Sessions.CreateSession(ctx, sess); err != nil {
		return domain.Session{}, fmt.Errorf("store session: %w", err)
	}

	s.Metrics.SessionIssued(string(method))
	slogx.FromContext(ctx).Info("session issued",
		"user_id", user.ID,
		"auth_method", method,
		"expires_at", sess.ExpiresAt,
	)
	return sess, nil
}

// Resolve maps a session id to its user. It returns ErrSessionNotFound for
// unknown ids and ErrSessionExpired once now >= expires_at; expired records
// are removed on the way out.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (domain.User, domain.Session, error) {
	if sessionID == "" {
		s.Metrics.ResolveFailed("missing")
		return domain.User{}, domain.Session{}, ErrSessionNotFound
	}

	hash := cryptox.FingerprintToken(sessionID)
	sess, err := s.Sessions.GetSession(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		s.Metrics.ResolveFailed("not_found")
		return domain.User{}, domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	sess.ID = sessionID

	if sess.ExpiredAt(s.now()) {
		s.Metrics.ResolveFailed("expired")
		if err := s.Sessions.DeleteSession(ctx, hash); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete expired session", "user_id", sess.UserID, "err", err)
		}
		return domain.User{}, domain.Session{}, ErrSessionExpired
	}

	user, err := s.Users.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		s.Metrics.ResolveFailed("orphaned")
		_ = s.Sessions.DeleteSession(ctx, hash)
		return domain.User{}, domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.User{}, domain.Session{}, fmt.Errorf("load session user: %w", err)
	}
	return user, sess, nil
}

// Invalidate removes a session. Unknown or empty ids are not an error.
func (s *SessionService) Invalidate(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.Sessions.DeleteSession(ctx, cryptox.FingerprintToken(sessionID)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.Metrics.SessionsRevoked(1)
	return nil
}

// InvalidateOthers revokes every session of userID except keepSessionID.
func (s *SessionService) InvalidateOthers(ctx context.Context, userID, keepSessionID string) (int64, error) {
	n, err := s.Sessions.DeleteUserSessions(ctx, userID, cryptox.FingerprintToken(keepSessionID))
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	s.Metrics.SessionsRevoked(n)
	return n, nil
}

// InvalidateAll revokes every session of userID.
func (s *SessionService) InvalidateAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.Sessions.DeleteUserSessions(ctx, userID, "")
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	s.Metrics.SessionsRevoked(n)
	return n, nil
}

// Purge deletes every expired session from the backend.
func (s *SessionService) Purge(ctx context.Context) (int64, error) {
	return s.Sessions.DeleteExpiredSessions(ctx, s.now())
}
