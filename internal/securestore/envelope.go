// Package securestore encrypts local snapshots at rest with a passphrase.
package securestore

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	filePrefix      = "SPAYENC1\n"
	kdfName         = "argon2id"

	defaultKDFTime     = uint32(2)
	defaultKDFMemoryKB = uint32(64 * 1024)
	defaultKDFThreads  = uint8(1)

	maxKDFTime     = uint32(16)
	maxKDFMemoryKB = uint32(1024 * 1024)
)

var (
	ErrAuthFailed         = errors.New("securestore authentication failed")
	ErrInvalid            = errors.New("securestore envelope is invalid")
	ErrPlaintextData      = errors.New("securestore data is not encrypted")
	ErrPassphraseRequired = errors.New("securestore passphrase is required")
)

// Envelope is the on-disk form of an encrypted snapshot. KDF parameters travel
// with the data so they can be raised without breaking old files.
type Envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

func Encrypt(passphrase string, plaintext []byte) ([]byte, error) {
	env, err := EncryptEnvelope(passphrase, plaintext)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(filePrefix), raw...), nil
}

func EncryptEnvelope(passphrase string, plaintext []byte) (*Envelope, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	env := &Envelope{
		Version:     envelopeVersion,
		KDF:         kdfName,
		KDFTime:     defaultKDFTime,
		KDFMemoryKB: defaultKDFMemoryKB,
		KDFThreads:  defaultKDFThreads,
		Salt:        make([]byte, saltSize),
		Nonce:       make([]byte, chacha20poly1305.NonceSizeX),
	}
	if _, err := rand.Read(env.Salt); err != nil {
		return nil, fmt.Errorf("securestore salt: %w", err)
	}
	if _, err := rand.Read(env.Nonce); err != nil {
		return nil, fmt.Errorf("securestore nonce: %w", err)
	}

	key := deriveKey(passphrase, env)
	defer zeroBytes(key)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	env.Ciphertext = aead.Seal(nil, env.Nonce, plaintext, headerAAD(env))
	return env, nil
}

// Decrypt reverses Encrypt. Data without the file prefix yields
// ErrPlaintextData so callers can decide whether to accept it.
func Decrypt(passphrase string, data []byte) ([]byte, error) {
	if !strings.HasPrefix(string(data), filePrefix) {
		return nil, ErrPlaintextData
	}
	var env Envelope
	if err := json.Unmarshal(data[len(filePrefix):], &env); err != nil {
		return nil, ErrInvalid
	}
	return DecryptEnvelope(passphrase, &env)
}

func DecryptEnvelope(passphrase string, env *Envelope) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}
	if err := validate(env); err != nil {
		return nil, err
	}
	key := deriveKey(passphrase, env)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, headerAAD(env))
	if err != nil {
		return nil, ErrAuthFailed
	}
	return plaintext, nil
}

// IsEncrypted reports whether data carries the securestore file prefix.
func IsEncrypted(data []byte) bool {
	return strings.HasPrefix(string(data), filePrefix)
}

func validate(env *Envelope) error {
	switch {
	case env == nil, env.Version != envelopeVersion, env.KDF != kdfName:
		return ErrInvalid
	case env.KDFTime == 0 || env.KDFTime > maxKDFTime:
		return ErrInvalid
	case env.KDFMemoryKB == 0 || env.KDFMemoryKB > maxKDFMemoryKB:
		return ErrInvalid
	case env.KDFThreads == 0:
		return ErrInvalid
	case len(env.Salt) != saltSize, len(env.Nonce) != chacha20poly1305.NonceSizeX:
		return ErrInvalid
	}
	return nil
}

// headerAAD binds the KDF parameters to the ciphertext.
func headerAAD(env *Envelope) []byte {
	return []byte(fmt.Sprintf("%s|v%d|%s|%d|%d|%d", strings.TrimSpace(filePrefix), env.Version, env.KDF, env.KDFTime, env.KDFMemoryKB, env.KDFThreads))
}

func deriveKey(passphrase string, env *Envelope) []byte {
	return argon2.IDKey([]byte(passphrase), env.Salt, env.KDFTime, env.KDFMemoryKB, env.KDFThreads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
