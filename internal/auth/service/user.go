package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/idx"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"
)

const MinPasswordLength = 8

type UserService struct {
	Store   store.Store
	Hasher  *cryptox.PasswordHasher
	Now     func() time.Time
	Metrics *metrics.Metrics
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// GetUserByEmail normalises email before the lookup.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
}

// Register creates a password account.
func (s *UserService) Register(ctx context.Context, email, password, name string) (domain.User, error) {
	email, err := validateEmail(email)
	if err != nil {
		return domain.User{}, err
	}
	if len(password) < MinPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := domain.User{
		ID:               idx.NewAt(now).String(),
		Email:            email,
		Name:             name,
		PasswordHash:     hash,
		AuthMethod:       domain.AuthMethodPassword,
		SubscriptionTier: domain.DefaultSubscriptionTier,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login checks an email/password pair. Unknown emails, OAuth-only accounts
// and wrong passwords all return ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		s.Metrics.Login(string(domain.AuthMethodPassword), false)
		return domain.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !u.HasPassword() {
		s.Metrics.Login(string(domain.AuthMethodPassword), false)
		return domain.User{}, ErrInvalidCredentials
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		s.Metrics.Login(string(domain.AuthMethodPassword), false)
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("verify password: %w", err)
	}

	s.Metrics.Login(string(domain.AuthMethodPassword), true)
	return u, nil
}

// FindOrCreateOAuthUser resolves a provider profile to a local user: an
// existing identity link wins, then an account with the same verified email
// is linked, otherwise a new user and link are created together. An
// unverified email that belongs to another account fails with ErrEmailTaken.
func (s *UserService) FindOrCreateOAuthUser(ctx context.Context, p domain.OAuthProfile) (domain.User, error) {
	u, err := s.findOrCreateOAuthUser(ctx, p)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a race with a concurrent callback for the same person.
		u, err = s.findOrCreateOAuthUser(ctx, p)
	}
	if err != nil {
		s.Metrics.Login(string(p.Provider), false)
		return domain.User{}, err
	}
	s.Metrics.Login(string(p.Provider), true)
	return u, nil
}

func (s *UserService) findOrCreateOAuthUser(ctx context.Context, p domain.OAuthProfile) (domain.User, error) {
	log := slogx.FromContext(ctx)

	link, err := s.Store.Identities().GetIdentity(ctx, p.Provider, p.ExternalID)
	switch {
	case err == nil:
		return s.Store.Users().GetUserByID(ctx, link.UserID)
	case !errors.Is(err, store.ErrNotFound):
		return domain.User{}, fmt.Errorf("load identity: %w", err)
	}

	email := domain.NormalizeEmail(p.Email)
	if email == "" {
		return domain.User{}, ErrEmailRequired
	}

	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		now := s.now()

		// A concurrent callback may have linked this identity already.
		if link, err := tx.Identities().GetIdentity(ctx, p.Provider, p.ExternalID); err == nil {
			user, err = tx.Users().GetUserByID(ctx, link.UserID)
			if err != nil {
				return err
			}
			return errIdentityLinked
		}

		existing, err := tx.Users().GetUserByEmail(ctx, email)
		switch {
		case err == nil && !p.EmailVerified:
			log.Warn("refusing to link unverified oauth email", "user_id", existing.ID, "provider", p.Provider)
			return ErrEmailTaken
		case err == nil:
			user = existing
		case errors.Is(err, store.ErrNotFound):
			user = domain.User{
				ID:               idx.NewAt(now).String(),
				Email:            email,
				Name:             p.Name,
				Avatar:           p.Avatar,
				AuthMethod:       p.Provider,
				SubscriptionTier: domain.DefaultSubscriptionTier,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := tx.Users().CreateUser(ctx, user); err != nil {
				return err
			}
			log.Info("user created from oauth profile", "user_id", user.ID, "provider", p.Provider)
		default:
			return err
		}

		return tx.Identities().CreateIdentity(ctx, domain.OAuthIdentity{
			Provider:   p.Provider,
			ExternalID: p.ExternalID,
			UserID:     user.ID,
			CreatedAt:  now,
		})
	})
	if errors.Is(err, errIdentityLinked) {
		return user, nil
	}
	if err != nil {
		return domain.User{}, err
	}

	log.Info("oauth identity linked", "user_id", user.ID, "provider", p.Provider)
	return user, nil
}

// UpdateProfile applies the non-nil fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, name, avatar *string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if name != nil {
		u.Name = *name
	}
	if avatar != nil {
		u.Avatar = *avatar
	}
	if err := s.Store.Users().UpdateProfile(ctx, userID, u.Name, u.Avatar); err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return s.Store.Users().GetUserByID(ctx, userID)
}

// SetPassword replaces the password hash, turning an OAuth-only account into
// one that can also log in with a password.
func (s *UserService) SetPassword(ctx context.Context, userID, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

// Identities lists the provider accounts linked to userID.
func (s *UserService) Identities(ctx context.Context, userID string) ([]domain.OAuthIdentity, error) {
	return s.Store.Identities().ListUserIdentities(ctx, userID)
}

// SetSubscription records the plan and credit balance decided by billing.
func (s *UserService) SetSubscription(ctx context.Context, userID, tier string, credits int64) error {
	if tier == "" {
		tier = domain.DefaultSubscriptionTier
	}
	return s.Store.Users().UpdateSubscription(ctx, userID, tier, credits)
}

func validateEmail(raw string) (string, error) {
	email := domain.NormalizeEmail(raw)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
