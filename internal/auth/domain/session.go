package domain

import "time"

// Session is an opaque bearer credential minted after primary authentication.
// Only the fingerprint of ID is persisted.
type Session struct {
	ID         string // raw token, only known at creation time and to the client
	Hash       string // cryptox.FingerprintToken(ID), the storage key
	UserID     string
	AuthMethod AuthMethod
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// ExpiredAt reports whether the session is no longer valid at now.
func (s Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
