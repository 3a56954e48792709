package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/mr-tron/base58/base58"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// AddressFromPublicKey renders a signing key as a base58 wallet address.
func AddressFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: public key size %d", ErrInvalidAddress, len(pub))
	}
	return base58.Encode(pub), nil
}

// PublicKeyFromAddress is the inverse of AddressFromPublicKey.
func PublicKeyFromAddress(address string) (ed25519.PublicKey, error) {
	raw, err := base58.Decode(address)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidAddress
	}
	return ed25519.PublicKey(raw), nil
}

// GenerateAddress returns a random address not tied to any key, used for mock
// counterparties.
func GenerateAddress() (string, error) {
	buf := make([]byte, ed25519.PublicKeySize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base58.Encode(buf), nil
}

// VerifySignature checks sig over payload against the key behind address.
func VerifySignature(address string, payload, sig []byte) error {
	pub, err := PublicKeyFromAddress(address)
	if err != nil {
		return err
	}
	if len(sig) != ed25519.SignatureSize || !ed25519.Verify(pub, payload, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// FormatAddress shortens an address for display.
func FormatAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}
