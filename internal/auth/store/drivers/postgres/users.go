package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, name, avatar, password_hash, auth_method,
	two_factor_secret, two_factor_enabled, two_factor_last_step,
	subscription_tier, credits, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u            domain.User
		passwordHash *string
		method       string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Avatar, &passwordHash, &method,
		&u.TwoFactorSecret, &u.TwoFactorEnabled, &u.TwoFactorLastStep,
		&u.SubscriptionTier, &u.Credits, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.PasswordHash = derefString(passwordHash)
	u.AuthMethod = domain.AuthMethod(method)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	tier := u.SubscriptionTier
	if tier == "" {
		tier = domain.DefaultSubscriptionTier
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, name, avatar, password_hash, auth_method,
			subscription_tier, credits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.Name, u.Avatar, optString(u.PasswordHash), string(u.AuthMethod),
		tier, u.Credits, u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, name, avatar string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET name = $1, avatar = $2, updated_at = $3 WHERE id = $4`,
		name, avatar, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return mustAffect(tag, store.ErrNotFound)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return mustAffect(tag, store.ErrNotFound)
}

func (r *usersRepo) UpdateSubscription(ctx context.Context, userID, tier string, credits int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET subscription_tier = $1, credits = $2, updated_at = $3 WHERE id = $4`,
		tier, credits, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return mustAffect(tag, store.ErrNotFound)
}

func (r *usersRepo) SetPendingTwoFactor(ctx context.Context, userID, sealedSecret string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET two_factor_secret = $1, two_factor_last_step = NULL, updated_at = $2
		WHERE id = $3 AND NOT two_factor_enabled`,
		sealedSecret, time.Now().UTC(), userID)
	if err != nil {
		return err
	}
	return mustAffect(tag, store.ErrConflict)
}

func (r *usersRepo) EnableTwoFactor(ctx context.Context, userID, sealedSecret string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET two_factor_enabled = TRUE, updated_at = $1
		WHERE id = $2 AND NOT two_factor_enabled AND two_factor_secret = $3`,
		time.Now().UTC(), userID, sealedSecret)
	if err != nil {
		return err
	}
	return mustAffect(tag, store.ErrConflict)
}

func (r *usersRepo) DisableTwoFactor(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET two_factor_secret = NULL, two_factor_enabled = FALSE,
			two_factor_last_step = NULL, updated_at = $1
		WHERE id = $2`,
		time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) ClaimTwoFactorStep(ctx context.Context, userID string, step int64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET two_factor_last_step = $1
		WHERE id = $2 AND two_factor_enabled
			AND (two_factor_last_step IS NULL OR two_factor_last_step < $1)`,
		step, userID)
	if err != nil {
		return err
	}
	return mustAffect(tag, store.ErrConflict)
}
