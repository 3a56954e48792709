package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"stealth-payroll/go-backend/internal/payload"
	"stealth-payroll/go-backend/pkg/models"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

// Envelope is everything a recipient needs, besides their own secret key, to
// recover a sealed payload. Ciphertext carries the Poly1305 tag.
type Envelope struct {
	Nonce              [NonceSize]byte
	EphemeralPublicKey [KeySize]byte
	Ciphertext         []byte
}

// Encrypt seals a payroll record to the recipient's public key.
func Encrypt(record models.PayrollRecord, recipientPublicKey [KeySize]byte) (Envelope, error) {
	plaintext, err := payload.Encode(record)
	if err != nil {
		return Envelope{}, err
	}
	defer zeroBytes(plaintext)
	return Seal(plaintext, recipientPublicKey)
}

// Decrypt opens an envelope and decodes the payroll record inside it.
// ErrDecryptionFailed means authentication failed; payload.ErrMalformedPayload
// means the sender sealed something that is not a payroll record.
func Decrypt(env Envelope, recipientSecretKey [KeySize]byte) (models.PayrollRecord, error) {
	plaintext, err := Open(env, recipientSecretKey)
	if err != nil {
		return models.PayrollRecord{}, err
	}
	defer zeroBytes(plaintext)
	return payload.Decode(plaintext)
}

// Seal encrypts plaintext with NaCl box using a single-use ephemeral key pair
// and a random nonce. Every call is independent.
func Seal(plaintext []byte, recipientPublicKey [KeySize]byte) (Envelope, error) {
	ephemeral, err := GenerateKeyPair()
	if err != nil {
		return Envelope{}, err
	}
	defer ephemeral.Wipe()

	shared, err := sharedKey(&recipientPublicKey, &ephemeral.SecretKey)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	defer zeroBytes(shared[:])

	env := Envelope{EphemeralPublicKey: ephemeral.PublicKey}
	if _, err := io.ReadFull(rand.Reader, env.Nonce[:]); err != nil {
		return Envelope{}, fmt.Errorf("generate nonce: %w", err)
	}
	env.Ciphertext = box.SealAfterPrecomputation(nil, plaintext, &env.Nonce, shared)
	return env, nil
}

// Open authenticates and decrypts an envelope. It either returns the full
// plaintext or ErrDecryptionFailed, never partial output.
func Open(env Envelope, recipientSecretKey [KeySize]byte) ([]byte, error) {
	// X25519 masks the top bit of a u-coordinate; honest keys never set it.
	if env.EphemeralPublicKey[KeySize-1]&0x80 != 0 {
		return nil, ErrDecryptionFailed
	}
	if len(env.Ciphertext) < Overhead {
		return nil, ErrDecryptionFailed
	}
	shared, err := sharedKey(&env.EphemeralPublicKey, &recipientSecretKey)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	defer zeroBytes(shared[:])

	plaintext, ok := box.OpenAfterPrecomputation(nil, env.Ciphertext, &env.Nonce, shared)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func sharedKey(peerPublic, secret *[KeySize]byte) (*[KeySize]byte, error) {
	// Low-order peer keys produce an all-zero secret, which X25519 reports.
	dh, err := curve25519.X25519(secret[:], peerPublic[:])
	if err != nil {
		return nil, err
	}
	zeroBytes(dh)
	shared := new([KeySize]byte)
	box.Precompute(shared, peerPublic, secret)
	return shared, nil
}
