package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestTokenSealerRoundTrip(t *testing.T) {
	sealer, err := NewTokenSealer(testKey)
	require.NoError(t, err)

	sealed, err := sealer.Seal("access-sandbox-abc123")
	require.NoError(t, err)
	require.NotEqual(t, "access-sandbox-abc123", sealed)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, "access-sandbox-abc123", opened)
}

func TestTokenSealerFreshNoncePerSeal(t *testing.T) {
	sealer, err := NewTokenSealer(testKey)
	require.NoError(t, err)

	first, err := sealer.Seal("token")
	require.NoError(t, err)
	second, err := sealer.Seal("token")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestTokenSealerWrongKey(t *testing.T) {
	sealer, err := NewTokenSealer(testKey)
	require.NoError(t, err)
	other, err := NewTokenSealer(strings.Repeat("ff", 32))
	require.NoError(t, err)

	sealed, err := sealer.Seal("token")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	require.Error(t, err)
}

func TestNewTokenSealerRejectsBadKeys(t *testing.T) {
	_, err := NewTokenSealer("not-hex")
	require.Error(t, err)

	_, err = NewTokenSealer("abcd")
	require.Error(t, err)
}

func TestTokenSealerRejectsGarbage(t *testing.T) {
	sealer, err := NewTokenSealer(testKey)
	require.NoError(t, err)

	_, err = sealer.Open("!!!not-base64!!!")
	require.Error(t, err)

	_, err = sealer.Open("c2hvcnQ=") // valid base64, shorter than a nonce
	require.Error(t, err)
}
