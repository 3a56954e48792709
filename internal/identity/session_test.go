package identity

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"stealth-payroll/go-backend/internal/crypto"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func TestDeriveKeysDeterministicAndSeparated(t *testing.T) {
	seed := []byte("test-seed-material")
	k1, err := DeriveKeys(seed)
	if err != nil {
		t.Fatalf("derive keys 1 failed: %v", err)
	}
	k2, err := DeriveKeys(seed)
	if err != nil {
		t.Fatalf("derive keys 2 failed: %v", err)
	}
	if !bytes.Equal(k1.SigningPublicKey, k2.SigningPublicKey) {
		t.Fatal("signing public keys should be deterministic")
	}
	if k1.Encryption != k2.Encryption {
		t.Fatal("encryption keys should be deterministic")
	}
	if bytes.Equal(k1.SigningPrivateKey.Seed(), k1.Encryption.SecretKey[:]) {
		t.Fatal("signing and encryption secrets must differ")
	}
	derived, err := crypto.KeyPairFromSecret(k1.Encryption.SecretKey)
	if err != nil {
		t.Fatalf("derive public failed: %v", err)
	}
	if derived.PublicKey != k1.Encryption.PublicKey {
		t.Fatal("encryption public key must match its secret")
	}
}

func TestConnectProducesRestorableSession(t *testing.T) {
	s, mnemonic, err := Connect(RoleRecipient, ModeMock)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if words := strings.Fields(mnemonic); len(words) != 24 {
		t.Fatalf("expected 24-word mnemonic, got %d", len(words))
	}
	if !s.Connected() || s.Role() != RoleRecipient || s.Mode() != ModeMock {
		t.Fatalf("unexpected session state: connected=%v role=%s mode=%s", s.Connected(), s.Role(), s.Mode())
	}
	if s.ConnectedAt().IsZero() {
		t.Fatal("connected_at must be set")
	}

	restored, err := Restore("  "+strings.ReplaceAll(mnemonic, " ", "  ")+"\n", RoleRecipient, ModeDevnet)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Address() != s.Address() {
		t.Fatal("restored address mismatch")
	}
	a, _ := s.PublicKeyText()
	b, _ := restored.PublicKeyText()
	if a == "" || a != b {
		t.Fatalf("restored encryption key mismatch: %q vs %q", a, b)
	}
}

func TestSessionKeysWorkWithEncryptionEngine(t *testing.T) {
	sender, _, err := Connect(RoleSender, ModeMock)
	if err != nil {
		t.Fatalf("connect sender failed: %v", err)
	}
	recipient, err := Restore(testMnemonic, RoleRecipient, ModeMock)
	if err != nil {
		t.Fatalf("restore recipient failed: %v", err)
	}
	text, err := recipient.PublicKeyText()
	if err != nil {
		t.Fatalf("public key text failed: %v", err)
	}
	pub, err := crypto.DecodeKey(text)
	if err != nil {
		t.Fatalf("decode key failed: %v", err)
	}
	env, err := crypto.Seal([]byte("hello"), pub)
	if err != nil {
		t.Fatalf("seal failed: %v", err)
	}
	sk, err := recipient.SecretKey()
	if err != nil {
		t.Fatalf("secret key failed: %v", err)
	}
	plain, err := crypto.Open(env, sk)
	if err != nil || string(plain) != "hello" {
		t.Fatalf("open failed: %v %q", err, plain)
	}
	senderSK, _ := sender.SecretKey()
	if _, err := crypto.Open(env, senderSK); !errors.Is(err, crypto.ErrDecryptionFailed) {
		t.Fatalf("sender must not open recipient envelope, got %v", err)
	}
}

func TestSignAndVerifyAgainstAddress(t *testing.T) {
	s, err := Restore(testMnemonic, RoleSender, ModeMock)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	sig, err := s.Sign([]byte("transfer"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if err := VerifySignature(s.Address(), []byte("transfer"), sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if err := VerifySignature(s.Address(), []byte("transfer!"), sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if err := VerifySignature("not-base58-0OIl", []byte("transfer"), sig); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestDisconnectWipesKeys(t *testing.T) {
	s, err := Restore(testMnemonic, RoleRecipient, ModeMock)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	address := s.Address()
	s.Disconnect()
	s.Disconnect()
	if s.Connected() {
		t.Fatal("session must report disconnected")
	}
	if _, err := s.SecretKey(); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
	if _, err := s.PublicKeyText(); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
	if _, err := s.Sign([]byte("x")); !errors.Is(err, ErrDisconnected) {
		t.Fatalf("expected ErrDisconnected, got %v", err)
	}
	if s.Address() != address {
		t.Fatal("address must remain readable after disconnect")
	}
	if err := s.SetMode(ModeDevnet); err != nil || s.Mode() != ModeDevnet {
		t.Fatalf("set mode after disconnect failed: %v", err)
	}
}

func TestConnectAndRestoreValidation(t *testing.T) {
	if _, _, err := Connect(Role("employer"), ModeMock); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, _, err := Connect(RoleSender, Mode("mainnet")); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
	if _, err := Restore("", RoleSender, ModeMock); !errors.Is(err, ErrMnemonicRequired) {
		t.Fatalf("expected ErrMnemonicRequired, got %v", err)
	}
	if _, err := Restore("abandon abandon abandon", RoleSender, ModeMock); !errors.Is(err, ErrInvalidMnemonic) {
		t.Fatalf("expected ErrInvalidMnemonic, got %v", err)
	}
}

func TestAddressHelpers(t *testing.T) {
	addr, err := GenerateAddress()
	if err != nil {
		t.Fatalf("generate address failed: %v", err)
	}
	if _, err := PublicKeyFromAddress(addr); err != nil {
		t.Fatalf("generated address must decode: %v", err)
	}
	if got := FormatAddress(addr); got != addr[:6]+"..."+addr[len(addr)-4:] {
		t.Fatalf("unexpected formatted address %q", got)
	}
	if FormatAddress("short") != "short" {
		t.Fatal("short address must be unchanged")
	}
}

func TestDerivedKeysWipeZeroesBothSecrets(t *testing.T) {
	keys, err := KeysFromMnemonic(testMnemonic)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	pub := keys.Encryption.PublicKey
	keys.Wipe()
	for _, b := range keys.SigningPrivateKey {
		if b != 0 {
			t.Fatal("signing key not wiped")
		}
	}
	if keys.Encryption.SecretKey != ([crypto.KeySize]byte{}) {
		t.Fatal("encryption secret not wiped")
	}
	if keys.Encryption.PublicKey != pub {
		t.Fatal("public key must survive wipe")
	}
	var nilKeys *DerivedKeys
	nilKeys.Wipe()
}
