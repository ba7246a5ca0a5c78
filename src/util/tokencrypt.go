package util

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

// TokenSealer encrypts provider access tokens before they are written to the
// database. Tokens grant full read access to a user's financial accounts, so
// they never touch disk in the clear.
type TokenSealer struct {
	key [32]byte
}

// NewTokenSealer builds a sealer from a 64-character hex key.
func NewTokenSealer(hexKey string) (*TokenSealer, error) {
	raw, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, errors.New("token key must be hex")
	}
	if len(raw) != 32 {
		return nil, errors.New("token key must be 32 bytes")
	}
	s := &TokenSealer{}
	copy(s.key[:], raw)
	return s, nil
}

func (s *TokenSealer) Seal(token string) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *TokenSealer) Open(sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	if len(raw) < 24 {
		return "", errors.New("sealed token too short")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	opened, ok := secretbox.Open(nil, raw[24:], &nonce, &s.key)
	if !ok {
		return "", errors.New("sealed token failed to open")
	}
	return string(opened), nil
}
