package service

import "errors"

// Session layer.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

// Two-factor setup and validation.
var (
	ErrAlreadyEnrolled = errors.New("two-factor authentication already enabled")
	ErrInvalidCode     = errors.New("invalid two-factor code")
	ErrNotEnrolled     = errors.New("two-factor authentication not enrolled")
	ErrCodeReplayed    = errors.New("two-factor code already used")
)

// Request-time gate.
var (
	ErrMFARequired = errors.New("two-factor code required")
	ErrMFAInvalid  = errors.New("two-factor code rejected")
)

// Primary authentication and accounts.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailRequired      = errors.New("provider did not return an email address")

	// errIdentityLinked ends the link transaction early without writing.
	errIdentityLinked = errors.New("identity already linked")
)
