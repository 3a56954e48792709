package identity

import (
	"crypto/ed25519"
	"errors"
	"sync"
	"time"

	"stealth-payroll/go-backend/internal/crypto"
)

var (
	ErrDisconnected = errors.New("session is disconnected")
	ErrInvalidRole  = errors.New("invalid role")
	ErrInvalidMode  = errors.New("invalid wallet mode")
)

// Session is one connected wallet. It owns its keys exclusively and is handed
// explicitly to whatever needs them; keys are read-only until Disconnect wipes
// them.
type Session struct {
	mu          sync.RWMutex
	address     string
	role        Role
	mode        Mode
	keys        *DerivedKeys
	connectedAt time.Time
}

// Connect creates a brand-new identity and returns its recovery mnemonic.
func Connect(role Role, mode Mode) (*Session, string, error) {
	if err := checkRoleMode(role, mode); err != nil {
		return nil, "", err
	}
	mnemonic, err := NewMnemonic()
	if err != nil {
		return nil, "", err
	}
	s, err := Restore(mnemonic, role, mode)
	if err != nil {
		return nil, "", err
	}
	return s, mnemonic, nil
}

// Restore reconnects the identity behind a mnemonic.
func Restore(mnemonic string, role Role, mode Mode) (*Session, error) {
	if err := checkRoleMode(role, mode); err != nil {
		return nil, err
	}
	keys, err := KeysFromMnemonic(mnemonic)
	if err != nil {
		return nil, err
	}
	address, err := AddressFromPublicKey(keys.SigningPublicKey)
	if err != nil {
		keys.Wipe()
		return nil, err
	}
	return &Session{
		address:     address,
		role:        role,
		mode:        mode,
		keys:        keys,
		connectedAt: time.Now().UTC(),
	}, nil
}

func (s *Session) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

func (s *Session) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.role
}

func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

func (s *Session) ConnectedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectedAt
}

func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys != nil
}

// SetMode switches between mock and devnet. The mode survives reconnects in
// the UI, so it is allowed on a disconnected session too.
func (s *Session) SetMode(mode Mode) error {
	if !mode.Valid() {
		return ErrInvalidMode
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	return nil
}

// PublicKey returns the encryption public key senders address payroll to.
func (s *Session) PublicKey() ([crypto.KeySize]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.keys == nil {
		return [crypto.KeySize]byte{}, ErrDisconnected
	}
	return s.keys.Encryption.PublicKey, nil
}

// PublicKeyText is the shareable base64 form of PublicKey.
func (s *Session) PublicKeyText() (string, error) {
	pub, err := s.PublicKey()
	if err != nil {
		return "", err
	}
	return crypto.EncodeKey(pub), nil
}

// SecretKey returns a copy of the encryption secret key for decryption.
func (s *Session) SecretKey() ([crypto.KeySize]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.keys == nil {
		return [crypto.KeySize]byte{}, ErrDisconnected
	}
	return s.keys.Encryption.SecretKey, nil
}

// Sign signs payload with the wallet's signing key.
func (s *Session) Sign(payload []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.keys == nil {
		return nil, ErrDisconnected
	}
	return ed25519.Sign(s.keys.SigningPrivateKey, payload), nil
}

// Disconnect wipes all key material. The address and mode stay readable.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys == nil {
		return
	}
	s.keys.Wipe()
	s.keys = nil
}

func checkRoleMode(role Role, mode Mode) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if !mode.Valid() {
		return ErrInvalidMode
	}
	return nil
}
