package crypto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

type wireEnvelope struct {
	Nonce              string `json:"nonce"`
	EphemeralPublicKey string `json:"ephemeralPublicKey"`
	Ciphertext         string `json:"ciphertext"`
}

// MarshalEnvelope renders an envelope as the opaque JSON blob handed to the
// ledger.
func MarshalEnvelope(env Envelope) ([]byte, error) {
	return json.Marshal(wireEnvelope{
		Nonce:              base64.StdEncoding.EncodeToString(env.Nonce[:]),
		EphemeralPublicKey: base64.StdEncoding.EncodeToString(env.EphemeralPublicKey[:]),
		Ciphertext:         base64.StdEncoding.EncodeToString(env.Ciphertext),
	})
}

// ParseEnvelope is the inverse of MarshalEnvelope.
func ParseEnvelope(data []byte) (Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(data, &wire); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	var env Envelope
	if err := decodeFixed("nonce", wire.Nonce, env.Nonce[:]); err != nil {
		return Envelope{}, err
	}
	if err := decodeFixed("ephemeralPublicKey", wire.EphemeralPublicKey, env.EphemeralPublicKey[:]); err != nil {
		return Envelope{}, err
	}
	if wire.Ciphertext == "" {
		return Envelope{}, fmt.Errorf("%w: missing ciphertext", ErrInvalidEnvelope)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(wire.Ciphertext)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: ciphertext is not base64", ErrInvalidEnvelope)
	}
	if len(ciphertext) < Overhead {
		return Envelope{}, fmt.Errorf("%w: ciphertext shorter than authentication tag", ErrInvalidEnvelope)
	}
	env.Ciphertext = ciphertext
	return env, nil
}

func decodeFixed(field, text string, dst []byte) error {
	if text == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidEnvelope, field)
	}
	raw, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return fmt.Errorf("%w: %s is not base64", ErrInvalidEnvelope, field)
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("%w: %s must be %d bytes, got %d", ErrInvalidEnvelope, field, len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}
