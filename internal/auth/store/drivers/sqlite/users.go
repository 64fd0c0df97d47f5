package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
)

const userColumns = `id, email, name, avatar, password_hash, auth_method,
	two_factor_secret, two_factor_enabled, two_factor_last_step,
	subscription_tier, credits, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u                    domain.User
		passwordHash, secret sql.NullString
		lastStep             sql.NullInt64
		method               string
		created, updated     int64
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Avatar, &passwordHash, &method,
		&secret, &u.TwoFactorEnabled, &lastStep,
		&u.SubscriptionTier, &u.Credits, &created, &updated,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.PasswordHash = mapNullString(passwordHash)
	u.AuthMethod = domain.AuthMethod(method)
	u.TwoFactorSecret = mapNullStringPtr(secret)
	u.TwoFactorLastStep = mapNullInt64Ptr(lastStep)
	u.CreatedAt = fromMillis(created)
	u.UpdatedAt = fromMillis(updated)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	tier := u.SubscriptionTier
	if tier == "" {
		tier = domain.DefaultSubscriptionTier
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, avatar, password_hash, auth_method,
			subscription_tier, credits, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Avatar, mapStringNull(u.PasswordHash), string(u.AuthMethod),
		tier, u.Credits, toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, name, avatar string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, avatar = ?, updated_at = ? WHERE id = ?`,
		name, avatar, nowMillis(), userID)
	if err != nil {
		return err
	}
	return mustAffect(res, store.ErrNotFound)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, nowMillis(), userID)
	if err != nil {
		return err
	}
	return mustAffect(res, store.ErrNotFound)
}

func (r *usersRepo) UpdateSubscription(ctx context.Context, userID, tier string, credits int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET subscription_tier = ?, credits = ?, updated_at = ? WHERE id = ?`,
		tier, credits, nowMillis(), userID)
	if err != nil {
		return err
	}
	return mustAffect(res, store.ErrNotFound)
}

func (r *usersRepo) SetPendingTwoFactor(ctx context.Context, userID, sealedSecret string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET two_factor_secret = ?, two_factor_last_step = NULL, updated_at = ?
		WHERE id = ? AND two_factor_enabled = 0`,
		sealedSecret, nowMillis(), userID)
	if err != nil {
		return err
	}
	return mustAffect(res, store.ErrConflict)
}

func (r *usersRepo) EnableTwoFactor(ctx context.Context, userID, sealedSecret string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET two_factor_enabled = 1, updated_at = ?
		WHERE id = ? AND two_factor_enabled = 0 AND two_factor_secret = ?`,
		nowMillis(), userID, sealedSecret)
	if err != nil {
		return err
	}
	return mustAffect(res, store.ErrConflict)
}

func (r *usersRepo) DisableTwoFactor(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET two_factor_secret = NULL, two_factor_enabled = 0,
			two_factor_last_step = NULL, updated_at = ?
		WHERE id = ?`,
		nowMillis(), userID)
	return err
}

func (r *usersRepo) ClaimTwoFactorStep(ctx context.Context, userID string, step int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET two_factor_last_step = ?
		WHERE id = ? AND two_factor_enabled = 1
			AND (two_factor_last_step IS NULL OR two_factor_last_step < ?)`,
		step, userID, step)
	if err != nil {
		return err
	}
	return mustAffect(res, store.ErrConflict)
}

func nowMillis() int64 { return toMillis(time.Now()) }
