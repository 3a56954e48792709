package models

import "time"

// PayrollRecord is the plaintext salary statement addressed to one recipient.
// It only ever exists transiently on the sender side before encryption and on
// the recipient side after decryption.
type PayrollRecord struct {
	RecipientIdentifier string  `json:"recipientIdentifier"`
	Amount              float64 `json:"amount"`
	Currency            string  `json:"currency"`
	Period              string  `json:"period"`
	Notes               string  `json:"notes,omitempty"`
	Timestamp           int64   `json:"timestamp"`
}

const (
	ReceiptStatusPending   = "pending"
	ReceiptStatusConfirmed = "confirmed"
	ReceiptStatusFailed    = "failed"
)

// PlaceholderTransferAmount is the public on-ledger amount of every payroll
// transfer. The real amount only exists inside the encrypted envelope.
const PlaceholderTransferAmount = 1

// Receipt is the ledger's record of a submitted transfer carrying an opaque
// encrypted blob.
type Receipt struct {
	Signature        string    `json:"signature"`
	From             string    `json:"from"`
	To               string    `json:"to"`
	Amount           int64     `json:"amount"`
	Timestamp        time.Time `json:"timestamp"`
	Status           string    `json:"status"`
	EncryptedDataRef string    `json:"encrypted_data_ref"`
}

// Transfer is what a sender hands to the ledger. Signature is the sender's
// Ed25519 signature over the transfer's signing bytes.
type Transfer struct {
	From      string
	To        string
	Blob      []byte
	Signature []byte
}
