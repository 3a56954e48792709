package crypto

import (
	"errors"

	"stealth-payroll/go-backend/internal/payload"
)

var (
	ErrDecryptionFailed   = errors.New("decryption failed")
	ErrInvalidKeyEncoding = errors.New("invalid key encoding")
	ErrInvalidPublicKey   = errors.New("invalid public key")
	ErrInvalidEnvelope    = errors.New("invalid envelope")
)

// UserMessage maps a core failure to text that is safe to show an end user.
// It never includes cryptographic detail.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecryptionFailed):
		return "cannot decrypt: wrong key or corrupted data"
	case errors.Is(err, payload.ErrMalformedPayload):
		return "payroll data could not be read"
	case errors.Is(err, payload.ErrInvalidRecord):
		return "payroll details are incomplete"
	case errors.Is(err, ErrInvalidKeyEncoding), errors.Is(err, ErrInvalidPublicKey):
		return "invalid public key"
	case errors.Is(err, ErrInvalidEnvelope):
		return "encrypted payroll data is corrupted"
	default:
		return "unexpected error"
	}
}
