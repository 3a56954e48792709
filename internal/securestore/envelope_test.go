package securestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"stealth-payroll/go-backend/internal/testutil/fsperm"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	data, err := Encrypt("pass", []byte("ledger snapshot"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if !IsEncrypted(data) {
		t.Fatal("encrypted data must carry the file prefix")
	}
	plain, err := Decrypt("pass", data)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(plain) != "ledger snapshot" {
		t.Fatalf("unexpected plaintext: %q", string(plain))
	}
}

func TestDecryptWrongPassphraseFails(t *testing.T) {
	data, err := Encrypt("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := Decrypt("other", data); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestDecryptTamperedFailsDeterministically(t *testing.T) {
	data, err := Encrypt("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	data[len(data)-4] ^= 0xFF
	_, err = Decrypt("pass", data)
	if !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrAuthFailed or ErrInvalid, got %v", err)
	}
}

func TestDecryptRejectsDowngradedKDFParams(t *testing.T) {
	env, err := EncryptEnvelope("pass", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	env.KDFTime = 1
	if _, err := DecryptEnvelope("pass", env); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed for altered kdf params, got %v", err)
	}
	env.KDFMemoryKB = maxKDFMemoryKB + 1
	if _, err := DecryptEnvelope("pass", env); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for excessive kdf memory, got %v", err)
	}
}

func TestPlaintextAndEmptyPassphrase(t *testing.T) {
	if _, err := Decrypt("pass", []byte(`{"receipts":{}}`)); !errors.Is(err, ErrPlaintextData) {
		t.Fatalf("expected ErrPlaintextData, got %v", err)
	}
	if _, err := Encrypt("", []byte("x")); !errors.Is(err, ErrPassphraseRequired) {
		t.Fatalf("expected ErrPassphraseRequired, got %v", err)
	}
}

func TestWriteJSONCreatesPrivateFileAndReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secure", "ledger.enc")
	if err := WriteJSON(path, "pass", map[string]int{"n": 7}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	plain, err := ReadFile(path, "pass")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(plain) != `{"n":7}` {
		t.Fatalf("unexpected content: %s", plain)
	}
	fsperm.AssertPrivateFilePerm(t, path)
	fsperm.AssertPrivateDirPerm(t, filepath.Dir(path))
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}
