package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
)

// MigrationsTable records the applied schema version in every SQL driver.
const MigrationsTable = "gatekeep_schema_migrations"

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by conditional updates whose precondition no
	// longer holds (the row changed under us).
	ErrConflict = errors.New("store: conditional update not applied")

	ErrNestedTx = errors.New("store: nested transaction")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. Sub-repositories are exposed as methods so a Tx-scoped store
// hands out the same repos bound to the transaction.
type Store interface {
	Users() Users
	Sessions() Sessions
	Identities() Identities

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects an already normalised address.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. ErrAlreadyExists on duplicate email.
	CreateUser(ctx context.Context, u domain.User) error

	UpdateProfile(ctx context.Context, userID, name, avatar string) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	UpdateSubscription(ctx context.Context, userID, tier string, credits int64) error

	// SetPendingTwoFactor stores a sealed secret for an enrollment in
	// progress and resets the replay marker. ErrConflict when 2FA is already
	// enabled.
	SetPendingTwoFactor(ctx context.Context, userID, sealedSecret string) error

	// EnableTwoFactor flips the enabled flag only if the stored pending
	// secret still equals sealedSecret. ErrConflict otherwise.
	EnableTwoFactor(ctx context.Context, userID, sealedSecret string) error

	// DisableTwoFactor clears secret, flag and replay marker. Idempotent.
	DisableTwoFactor(ctx context.Context, userID string) error

	// ClaimTwoFactorStep records step as used. ErrConflict when 2FA is not
	// enabled or a step >= step was already claimed.
	ClaimTwoFactorStep(ctx context.Context, userID string, step int64) error
}

// Sessions persists session records keyed by token fingerprint. It is also
// implemented by the redis driver.
type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, hash string) (domain.Session, error)

	// DeleteSession is a no-op for unknown hashes.
	DeleteSession(ctx context.Context, hash string) error

	// DeleteUserSessions removes every session of userID except exceptHash
	// (pass "" to remove all). Returns the number removed.
	DeleteUserSessions(ctx context.Context, userID, exceptHash string) (int64, error)

	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type Identities interface {
	GetIdentity(ctx context.Context, provider domain.AuthMethod, externalID string) (domain.OAuthIdentity, error)

	// CreateIdentity inserts a link. ErrAlreadyExists if the external
	// account is already linked.
	CreateIdentity(ctx context.Context, id domain.OAuthIdentity) error

	ListUserIdentities(ctx context.Context, userID string) ([]domain.OAuthIdentity, error)
}
