package sqlite

import (
	"context"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

type identitiesRepo struct {
	db dbtx
}

func (r *identitiesRepo) GetIdentity(ctx context.Context, provider domain.AuthMethod, externalID string) (domain.OAuthIdentity, error) {
	var (
		id      domain.OAuthIdentity
		method  string
		created int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT provider, external_id, user_id, created_at
		FROM oauth_identities WHERE provider = ? AND external_id = ?`,
		string(provider), externalID,
	).Scan(&method, &id.ExternalID, &id.UserID, &created)
	if err != nil {
		return domain.OAuthIdentity{}, mapNotFound(err)
	}

	id.Provider = domain.AuthMethod(method)
	id.CreatedAt = fromMillis(created)
	return id, nil
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, id domain.OAuthIdentity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO oauth_identities (provider, external_id, user_id, created_at)
		VALUES (?, ?, ?, ?)`,
		string(id.Provider), id.ExternalID, id.UserID, toMillis(id.CreatedAt))
	return mapConstraint(err)
}

func (r *identitiesRepo) ListUserIdentities(ctx context.Context, userID string) ([]domain.OAuthIdentity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT provider, external_id, user_id, created_at
		FROM oauth_identities WHERE user_id = ? ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OAuthIdentity
	for rows.Next() {
		var (
			id      domain.OAuthIdentity
			method  string
			created int64
		)
		if err := rows.Scan(&method, &id.ExternalID, &id.UserID, &created); err != nil {
			return nil, err
		}
		id.Provider = domain.AuthMethod(method)
		id.CreatedAt = fromMillis(created)
		out = append(out, id)
	}
	return out, rows.Err()
}
