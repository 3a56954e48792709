package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	KeySize   = 32
	NonceSize = 24
	Overhead  = box.Overhead
)

// KeyPair is a Curve25519 key pair. The secret half must stay inside the
// process that generated it.
type KeyPair struct {
	PublicKey [KeySize]byte
	SecretKey [KeySize]byte
}

// GenerateKeyPair returns a fresh key pair drawn from crypto/rand.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate key pair: %w", err)
	}
	kp := KeyPair{PublicKey: *pub, SecretKey: *priv}
	zeroBytes(priv[:])
	return kp, nil
}

// KeyPairFromSecret recomputes the public key for an existing secret key.
func KeyPairFromSecret(secret [KeySize]byte) (KeyPair, error) {
	pub, err := curve25519.X25519(secret[:], curve25519.Basepoint)
	if err != nil {
		return KeyPair{}, fmt.Errorf("derive public key: %w", err)
	}
	kp := KeyPair{SecretKey: secret}
	copy(kp.PublicKey[:], pub)
	return kp, nil
}

// Wipe zeroes the secret key in place. The public key is left intact.
func (k *KeyPair) Wipe() {
	if k == nil {
		return
	}
	zeroBytes(k.SecretKey[:])
}

// EncodeKey renders raw key bytes as standard base64.
func EncodeKey(key [KeySize]byte) string {
	return base64.StdEncoding.EncodeToString(key[:])
}

// DecodeKey parses base64 key text. Surrounding whitespace from copy/paste is
// tolerated; anything that is not exactly KeySize bytes is rejected.
func DecodeKey(text string) ([KeySize]byte, error) {
	var key [KeySize]byte
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(text))
	if err != nil {
		return key, fmt.Errorf("%w: not base64", ErrInvalidKeyEncoding)
	}
	defer zeroBytes(raw)
	if len(raw) != KeySize {
		return key, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidKeyEncoding, KeySize, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}

// FormatKey shortens key text for display.
func FormatKey(text string) string {
	if len(text) <= 14 {
		return text
	}
	return text[:8] + "..." + text[len(text)-6:]
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
