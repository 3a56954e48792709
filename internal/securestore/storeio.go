package securestore

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ReadFile returns the decrypted content of path. An empty secret reads the
// file as plain JSON; a missing file yields os.ErrNotExist.
func ReadFile(path, secret string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if secret == "" || len(raw) == 0 {
		return raw, nil
	}
	return Decrypt(secret, raw)
}

// WriteJSON marshals v, encrypts it when a secret is set and replaces path
// via a temp file rename so readers never see a half-written snapshot.
func WriteJSON(path, secret string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if secret != "" {
		data, err = Encrypt(secret, data)
		if err != nil {
			return err
		}
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
