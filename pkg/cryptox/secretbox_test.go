package cryptox

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecretBoxSealOpen(t *testing.T) {
	box, err := NewSecretBox([]byte("master key material"))
	require.NoError(t, err)

	sealed, err := box.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(sealed, "v1:"))
	require.NotContains(t, sealed, "JBSWY3DPEHPK3PXP")

	again, err := box.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	require.NotEqual(t, sealed, again, "nonce must be random")

	plain, err := box.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "JBSWY3DPEHPK3PXP", plain)
}

func TestSecretBoxRejectsForeignValues(t *testing.T) {
	box, err := NewSecretBox([]byte("key-a"))
	require.NoError(t, err)
	other, err := NewSecretBox([]byte("key-b"))
	require.NoError(t, err)

	sealed, err := box.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	require.Error(t, err, "wrong key must fail authentication")

	_, err = box.Open("JBSWY3DPEHPK3PXP")
	require.ErrorIs(t, err, ErrSealed)

	_, err = box.Open("v1:AAAA")
	require.ErrorIs(t, err, ErrSealed)

	_, err = NewSecretBox(nil)
	require.Error(t, err)
}

func TestLoadSecretBoxPersistsKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")

	first, err := LoadSecretBox(path)
	require.NoError(t, err)
	sealed, err := first.Seal("value")
	require.NoError(t, err)

	second, err := LoadSecretBox(path)
	require.NoError(t, err)
	plain, err := second.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "value", plain)
}
