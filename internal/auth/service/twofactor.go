package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/aussiebroadwan/gatekeep/internal/auth/domain"
	"github.com/aussiebroadwan/gatekeep/internal/auth/metrics"
	"github.com/aussiebroadwan/gatekeep/internal/auth/store"
	"github.com/aussiebroadwan/gatekeep/pkg/cryptox"
	"github.com/aussiebroadwan/gatekeep/pkg/slogx"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	totpPeriod = 30
	totpDigits = otp.DigitsSix
	qrSize     = 256
)

// Steps checked around the current one, nearest first.
var stepOffsets = [...]int64{0, -1, 1}

// TwoFactorService runs the TOTP lifecycle:
//
//	NOT_ENROLLED -> PENDING_VERIFICATION (BeginSetup)
//	PENDING_VERIFICATION -> ENROLLED (VerifySetup)
//	ENROLLED -> NOT_ENROLLED (Disable)
//
// Secrets are sealed with Box before they are stored. Every method reloads the
// user so decisions are made on current state, and every transition is a
// conditional update in the store.
type TwoFactorService struct {
	Users   store.Users
	Box     *cryptox.SecretBox
	Issuer  string
	Now     func() time.Time
	Metrics *metrics.Metrics
}

func (s *TwoFactorService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// BeginSetup generates a fresh secret, stores it as pending and returns the
// enrollment material. Calling it again replaces an unverified secret.
func (s *TwoFactorService) BeginSetup(ctx context.Context, user domain.User) (domain.TwoFactorEnrollment, error) {
	u, err := s.Users.GetUserByID(ctx, user.ID)
	if err != nil {
		return domain.TwoFactorEnrollment{}, fmt.Errorf("load user: %w", err)
	}
	if u.TwoFactorEnabled {
		return domain.TwoFactorEnrollment{}, ErrAlreadyEnrolled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: u.Email,
		Period:      totpPeriod,
		Digits:      totpDigits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.TwoFactorEnrollment{}, fmt.Errorf("generate TOTP key: %w", err)
	}

	image, err := qrDataURI(key)
	if err != nil {
		return domain.TwoFactorEnrollment{}, err
	}

	sealed, err := s.Box.Seal(key.Secret())
	if err != nil {
		return domain.TwoFactorEnrollment{}, fmt.Errorf("seal TOTP secret: %w", err)
	}
	if err := s.Users.SetPendingTwoFactor(ctx, u.ID, sealed); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.TwoFactorEnrollment{}, ErrAlreadyEnrolled
		}
		return domain.TwoFactorEnrollment{}, fmt.Errorf("store TOTP secret: %w", err)
	}

	s.Metrics.TwoFactor(metrics.TwoFactorSetup)
	slogx.FromContext(ctx).Info("two-factor setup started", "user_id", u.ID)

	return domain.TwoFactorEnrollment{
		Secret:  key.Secret(),
		URI:     key.URL(),
		Image:   image,
		Issuer:  s.Issuer,
		Account: u.Email,
	}, nil
}

// VerifySetup checks code against the pending secret and enables 2FA. The
// step is not consumed; a code used here may still pass Validate once.
func (s *TwoFactorService) VerifySetup(ctx context.Context, user domain.User, code string) error {
	u, err := s.Users.GetUserByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if u.TwoFactorEnabled {
		return ErrAlreadyEnrolled
	}
	if !u.TwoFactorPending() {
		return ErrNotEnrolled
	}

	secret, err := s.Box.Open(*u.TwoFactorSecret)
	if err != nil {
		return fmt.Errorf("open TOTP secret: %w", err)
	}
	if _, ok := s.match(secret, code); !ok {
		s.Metrics.TwoFactor(metrics.TwoFactorInvalid)
		return ErrInvalidCode
	}

	// The pending ciphertext doubles as a version: a BeginSetup that raced
	// us has replaced it and the code we checked belongs to a dead secret.
	if err := s.Users.EnableTwoFactor(ctx, u.ID, *u.TwoFactorSecret); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrInvalidCode
		}
		return fmt.Errorf("enable two-factor: %w", err)
	}

	s.Metrics.TwoFactor(metrics.TwoFactorEnabled)
	slogx.FromContext(ctx).Info("two-factor enabled", "user_id", u.ID)
	return nil
}

// Validate checks code against the enrolled secret and claims its time step,
// so the same code cannot authorize a second request.
func (s *TwoFactorService) Validate(ctx context.Context, user domain.User, code string) error {
	u, err := s.Users.GetUserByID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !u.TwoFactorEnabled || u.TwoFactorSecret == nil {
		return ErrNotEnrolled
	}

	secret, err := s.Box.Open(*u.TwoFactorSecret)
	if err != nil {
		return fmt.Errorf("open TOTP secret: %w", err)
	}
	step, ok := s.match(secret, code)
	if !ok {
		s.Metrics.TwoFactor(metrics.TwoFactorInvalid)
		return ErrInvalidCode
	}

	if err := s.Users.ClaimTwoFactorStep(ctx, u.ID, step); err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.Metrics.TwoFactor(metrics.TwoFactorReplayed)
			slogx.FromContext(ctx).Warn("two-factor code replay rejected", "user_id", u.ID, "step", step)
			return ErrCodeReplayed
		}
		return fmt.Errorf("claim TOTP step: %w", err)
	}

	s.Metrics.TwoFactor(metrics.TwoFactorValid)
	return nil
}

// Disable clears the secret and turns 2FA off. Idempotent.
func (s *TwoFactorService) Disable(ctx context.Context, user domain.User) error {
	if err := s.Users.DisableTwoFactor(ctx, user.ID); err != nil {
		return fmt.Errorf("disable two-factor: %w", err)
	}
	s.Metrics.TwoFactor(metrics.TwoFactorDisabled)
	slogx.FromContext(ctx).Info("two-factor disabled", "user_id", user.ID)
	return nil
}

// match returns the time step code belongs to, trying the current step and
// then its neighbours.
func (s *TwoFactorService) match(secret, code string) (int64, bool) {
	code = strings.TrimSpace(code)
	if len(code) != totpDigits.Length() {
		return 0, false
	}

	now := s.now()
	for _, off := range stepOffsets {
		at := now.Add(time.Duration(off*totpPeriod) * time.Second)
		ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
			Period:    totpPeriod,
			Skew:      0,
			Digits:    totpDigits,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err == nil && ok {
			return at.Unix() / totpPeriod, true
		}
	}
	return 0, false
}

func qrDataURI(key *otp.Key) (string, error) {
	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return "", fmt.Errorf("render QR code: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode QR code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
