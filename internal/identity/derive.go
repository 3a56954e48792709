package identity

import (
	"crypto/ed25519"
	"crypto/sha256"
	"errors"
	"io"
	"strings"

	"stealth-payroll/go-backend/internal/crypto"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/hkdf"
)

const (
	hkdfInfoSigning    = "stealth-payroll/identity/signing/v1"
	hkdfInfoEncryption = "stealth-payroll/identity/encryption/v1"
	mnemonicEntropy    = 256
)

var (
	ErrInvalidMnemonic  = errors.New("invalid mnemonic")
	ErrMnemonicRequired = errors.New("mnemonic is required")
)

// NewMnemonic returns a fresh 24-word BIP-39 phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropy)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// KeysFromMnemonic derives identity keys from a BIP-39 phrase.
func KeysFromMnemonic(mnemonic string) (*DerivedKeys, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if mnemonic == "" {
		return nil, ErrMnemonicRequired
	}
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, "")
	defer zeroBytes(seed)
	return DeriveKeys(seed)
}

// DeriveKeys splits seed material into separate signing and encryption keys so
// the wallet identity never doubles as the encryption key.
func DeriveKeys(seed []byte) (*DerivedKeys, error) {
	signingSeed, err := hkdfExpand(seed, hkdfInfoSigning, ed25519.SeedSize)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(signingSeed)
	encryptionSeed, err := hkdfExpand(seed, hkdfInfoEncryption, crypto.KeySize)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(encryptionSeed)

	var secret [crypto.KeySize]byte
	copy(secret[:], encryptionSeed)
	encryption, err := crypto.KeyPairFromSecret(secret)
	zeroBytes(secret[:])
	if err != nil {
		return nil, err
	}

	signingPriv := ed25519.NewKeyFromSeed(signingSeed)
	return &DerivedKeys{
		SigningPrivateKey: signingPriv,
		SigningPublicKey:  signingPriv.Public().(ed25519.PublicKey),
		Encryption:        encryption,
	}, nil
}

func hkdfExpand(seed []byte, info string, outLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, seed, nil, []byte(info))
	out := make([]byte, outLen)
	if _, err := io.ReadFull(reader, out); err != nil {
		return nil, err
	}
	return out, nil
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
