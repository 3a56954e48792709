package identity

import (
	"crypto/ed25519"

	"stealth-payroll/go-backend/internal/crypto"
)

type Role string

const (
	RoleSender    Role = "sender"
	RoleRecipient Role = "recipient"
)

func (r Role) Valid() bool {
	return r == RoleSender || r == RoleRecipient
}

type Mode string

const (
	ModeMock   Mode = "mock"
	ModeDevnet Mode = "devnet"
)

func (m Mode) Valid() bool {
	return m == ModeMock || m == ModeDevnet
}

// DerivedKeys holds the two independent key pairs of one identity: an Ed25519
// pair that backs the wallet address and a Curve25519 pair for payroll
// encryption.
type DerivedKeys struct {
	SigningPrivateKey ed25519.PrivateKey
	SigningPublicKey  ed25519.PublicKey
	Encryption        crypto.KeyPair
}

// Wipe zeroes both secret keys. Safe on a nil receiver.
func (k *DerivedKeys) Wipe() {
	if k == nil {
		return
	}
	for i := range k.SigningPrivateKey {
		k.SigningPrivateKey[i] = 0
	}
	k.Encryption.Wipe()
}
