package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
)

func TestGenerateKeyPairPublicMatchesSecret(t *testing.T) {
	kp := mustKeyPair(t)
	derived, err := KeyPairFromSecret(kp.SecretKey)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if derived.PublicKey != kp.PublicKey {
		t.Fatal("public key is not computable from secret key")
	}
	other := mustKeyPair(t)
	if other.PublicKey == kp.PublicKey || other.SecretKey == kp.SecretKey {
		t.Fatal("two generated key pairs must differ")
	}
}

func TestWipeClearsSecretOnly(t *testing.T) {
	kp := mustKeyPair(t)
	pub := kp.PublicKey
	kp.Wipe()
	if kp.SecretKey != ([KeySize]byte{}) {
		t.Fatal("secret key must be zeroed")
	}
	if kp.PublicKey != pub {
		t.Fatal("public key must survive wipe")
	}
	var nilPair *KeyPair
	nilPair.Wipe()
}

func TestKeyEncodingRoundTrip(t *testing.T) {
	samples := [][KeySize]byte{{}, {0xff}}
	for i := range samples[1] {
		samples[1][i] = 0xff
	}
	for i := 0; i < 32; i++ {
		var key [KeySize]byte
		if _, err := rand.Read(key[:]); err != nil {
			t.Fatalf("rand failed: %v", err)
		}
		samples = append(samples, key)
	}
	for _, key := range samples {
		got, err := DecodeKey(EncodeKey(key))
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if got != key {
			t.Fatalf("round trip mismatch: %x != %x", got, key)
		}
	}
}

func TestDecodeKeyToleratesSurroundingWhitespace(t *testing.T) {
	kp := mustKeyPair(t)
	got, err := DecodeKey("  " + EncodeKey(kp.PublicKey) + "\n")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != kp.PublicKey {
		t.Fatal("decoded key mismatch")
	}
}

func TestDecodeKeyRejectsWrongLengthAndGarbage(t *testing.T) {
	cases := map[string]string{
		"31 bytes":  base64.StdEncoding.EncodeToString(make([]byte, 31)),
		"33 bytes":  base64.StdEncoding.EncodeToString(make([]byte, 33)),
		"empty":     "",
		"not b64":   "not-a-key!!",
		"url b64":   "-_" + EncodeKey([KeySize]byte{})[2:],
		"truncated": EncodeKey([KeySize]byte{1})[:20],
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeKey(text); !errors.Is(err, ErrInvalidKeyEncoding) {
				t.Fatalf("expected ErrInvalidKeyEncoding, got %v", err)
			}
		})
	}
}

func TestFormatKeyTruncates(t *testing.T) {
	text := EncodeKey([KeySize]byte{1, 2, 3})
	got := FormatKey(text)
	if got != text[:8]+"..."+text[len(text)-6:] {
		t.Fatalf("unexpected format: %q", got)
	}
	if FormatKey("short") != "short" {
		t.Fatal("short keys must be shown unchanged")
	}
}
