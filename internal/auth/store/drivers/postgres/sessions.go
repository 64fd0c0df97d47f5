package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (hash, user_id, auth_method, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		s.Hash, s.UserID, string(s.AuthMethod), s.CreatedAt, s.ExpiresAt)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, hash string) (domain.Session, error) {
	var (
		s      domain.Session
		method string
	)
	err := r.db.QueryRow(ctx,
		`SELECT hash, user_id, auth_method, created_at, expires_at FROM sessions WHERE hash = $1`,
		hash,
	).Scan(&s.Hash, &s.UserID, &method, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.AuthMethod = domain.AuthMethod(method)
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, hash string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE hash = $1`, hash)
	return err
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID, exceptHash string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM sessions WHERE user_id = $1 AND hash <> $2`, userID, exceptHash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
