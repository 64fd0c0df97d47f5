package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Argon2id parameters.
const (
	memory      = 19 * 1024 // KiB
	iterations  = 2
	parallelism = 1
	keyLength   = 32
	saltLength  = 16
)

// LoadPepper reads the password pepper from path, generating a random one on
// first start. Losing the file invalidates every stored password hash.
func LoadPepper(path string) ([]byte, error) {
	return loadOrCreateFile(path, func() ([]byte, error) {
		raw := make([]byte, keyLength)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("cryptox: generate pepper: %w", err)
		}
		return []byte(base64.RawURLEncoding.EncodeToString(raw)), nil
	})
}
