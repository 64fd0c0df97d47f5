package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const sealedPrefix = "v1:"

var ErrSealed = errors.New("cryptox: sealed value is malformed")

// SecretBox encrypts short secrets (TOTP seeds) with AES-256-GCM before they
// reach the database. Sealed values look like "v1:<base64(nonce|ciphertext|tag)>".
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox derives a 256-bit key from keyMaterial with SHA-256.
func NewSecretBox(keyMaterial []byte) (*SecretBox, error) {
	if len(keyMaterial) == 0 {
		return nil, errors.New("cryptox: empty secret box key")
	}
	key := sha256.Sum256(keyMaterial)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("cryptox: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptox: create GCM: %w", err)
	}
	return &SecretBox{aead: aead}, nil
}

// LoadSecretBox reads key material from path, creating a random key on first use.
func LoadSecretBox(path string) (*SecretBox, error) {
	material, err := loadOrCreateFile(path, func() ([]byte, error) {
		raw := make([]byte, 32)
		if _, err := rand.Read(raw); err != nil {
			return nil, fmt.Errorf("cryptox: generate secret key: %w", err)
		}
		return []byte(base64.RawStdEncoding.EncodeToString(raw)), nil
	})
	if err != nil {
		return nil, err
	}
	return NewSecretBox([]byte(strings.TrimSpace(string(material))))
}

// Seal encrypts plaintext with a fresh random nonce.
func (b *SecretBox) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("cryptox: generate nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Tampered or foreign values return an error.
func (b *SecretBox) Open(sealed string) (string, error) {
	encoded, ok := strings.CutPrefix(sealed, sealedPrefix)
	if !ok {
		return "", ErrSealed
	}
	raw, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil || len(raw) < b.aead.NonceSize() {
		return "", ErrSealed
	}

	nonce, ciphertext := raw[:b.aead.NonceSize()], raw[b.aead.NonceSize():]
	plain, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("cryptox: decrypt: %w", err)
	}
	return string(plain), nil
}
