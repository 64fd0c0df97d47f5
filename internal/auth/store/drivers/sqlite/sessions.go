package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (hash, user_id, auth_method, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.Hash, s.UserID, string(s.AuthMethod), toMillis(s.CreatedAt), toMillis(s.ExpiresAt))
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, hash string) (domain.Session, error) {
	var (
		s                domain.Session
		method           string
		created, expires int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT hash, user_id, auth_method, created_at, expires_at FROM sessions WHERE hash = ?`,
		hash,
	).Scan(&s.Hash, &s.UserID, &method, &created, &expires)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.AuthMethod = domain.AuthMethod(method)
	s.CreatedAt = fromMillis(created)
	s.ExpiresAt = fromMillis(expires)
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE hash = ?`, hash)
	return err
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID, exceptHash string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ? AND hash <> ?`, userID, exceptHash)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
