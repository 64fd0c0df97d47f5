package postgres

import (
	"context"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

type identitiesRepo struct {
	db dbtx
}

func (r *identitiesRepo) GetIdentity(ctx context.Context, provider domain.AuthMethod, externalID string) (domain.OAuthIdentity, error) {
	var (
		id     domain.OAuthIdentity
		method string
	)
	err := r.db.QueryRow(ctx, `
		SELECT provider, external_id, user_id, created_at
		FROM oauth_identities WHERE provider = $1 AND external_id = $2`,
		string(provider), externalID,
	).Scan(&method, &id.ExternalID, &id.UserID, &id.CreatedAt)
	if err != nil {
		return domain.OAuthIdentity{}, mapNotFound(err)
	}
	id.Provider = domain.AuthMethod(method)
	id.CreatedAt = id.CreatedAt.UTC()
	return id, nil
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, id domain.OAuthIdentity) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO oauth_identities (provider, external_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		string(id.Provider), id.ExternalID, id.UserID, id.CreatedAt)
	return mapConstraint(err)
}

func (r *identitiesRepo) ListUserIdentities(ctx context.Context, userID string) ([]domain.OAuthIdentity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT provider, external_id, user_id, created_at
		FROM oauth_identities WHERE user_id = $1 ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.OAuthIdentity
	for rows.Next() {
		var (
			id     domain.OAuthIdentity
			method string
		)
		if err := rows.Scan(&method, &id.ExternalID, &id.UserID, &id.CreatedAt); err != nil {
			return nil, err
		}
		id.Provider = domain.AuthMethod(method)
		id.CreatedAt = id.CreatedAt.UTC()
		out = append(out, id)
	}
	return out, rows.Err()
}
