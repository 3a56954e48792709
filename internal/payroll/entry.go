package payroll

import (
	"time"

	"stealth-payroll/go-backend/pkg/models"
)

// EntryStatus follows pending -> sending -> confirmed | failed. An entry is
// pending from encryption until its transfer is signed.
type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusSending   EntryStatus = "sending"
	StatusConfirmed EntryStatus = "confirmed"
	StatusFailed    EntryStatus = "failed"
)

// Draft is what the sender fills in. The recipient identifier and timestamp
// are stamped by the service.
type Draft struct {
	Amount   float64
	Currency string
	Period   string
	Notes    string
}

// Entry tracks one payroll payment from encryption to confirmation.
type Entry struct {
	ID                 string          `json:"id"`
	Envelope           []byte          `json:"encrypted_payload"`
	Receipt            *models.Receipt `json:"transaction,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	RecipientWallet    string          `json:"recipient_wallet"`
	RecipientPublicKey string          `json:"recipient_public_key"`
	Status             EntryStatus     `json:"status"`
}

// Payslip is one ledger transfer as seen by its recipient. Err is set when
// the blob could not be opened; Record is valid only when Err is nil.
type Payslip struct {
	Receipt models.Receipt
	Record  models.PayrollRecord
	Err     error
}

func (e Entry) clone() Entry {
	e.Envelope = append([]byte(nil), e.Envelope...)
	if e.Receipt != nil {
		r := *e.Receipt
		e.Receipt = &r
	}
	return e
}
