// Package payroll ties the encryption engine to a ledger: senders create
// encrypted payroll entries, recipients open what was addressed to them.
package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"stealth-payroll/go-backend/internal/crypto"
	"stealth-payroll/go-backend/internal/ledger"
	"stealth-payroll/go-backend/internal/payload"
	"stealth-payroll/go-backend/internal/platform/ratelimiter"
	"stealth-payroll/go-backend/pkg/models"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ErrRateLimited      = errors.New("payroll submission rate exceeded")
	ErrRecipientMissing = errors.New("recipient wallet is required")
	ErrEntryNotFound    = errors.New("payroll entry not found")
)

// Signer is the sender side of a wallet session.
type Signer interface {
	Address() string
	Sign(payload []byte) ([]byte, error)
}

// Opener is the recipient side of a wallet session.
type Opener interface {
	Address() string
	SecretKey() ([crypto.KeySize]byte, error)
}

type ServiceDeps struct {
	Ledger     ledger.Ledger
	Limiter    *ratelimiter.MapLimiter
	Logger     *slog.Logger
	Registerer prometheus.Registerer

	Now   func() time.Time
	NewID func() string
}

type Service struct {
	deps    ServiceDeps
	metrics *metrics

	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
}

func NewService(deps ServiceDeps) (*Service, error) {
	if deps.Ledger == nil {
		return nil, errors.New("payroll: ledger is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	m, err := newMetrics(deps.Registerer)
	if err != nil {
		return nil, err
	}
	return &Service{deps: deps, metrics: m, byID: make(map[string]int)}, nil
}

// Create encrypts draft for the recipient and submits it to the ledger. The
// returned entry is confirmed on success. When the submission itself fails
// the entry is kept as failed and returned together with the error.
func (s *Service) Create(ctx context.Context, sender Signer, recipientWallet, recipientPublicKey string, draft Draft) (Entry, error) {
	recipientWallet = strings.TrimSpace(recipientWallet)
	if recipientWallet == "" {
		return Entry{}, ErrRecipientMissing
	}
	pub, err := crypto.DecodeKey(recipientPublicKey)
	if err != nil {
		return Entry{}, err
	}
	now := s.deps.Now()
	if !s.deps.Limiter.Allow(sender.Address(), now) {
		return Entry{}, ErrRateLimited
	}

	env, err := crypto.Encrypt(models.PayrollRecord{
		RecipientIdentifier: recipientWallet,
		Amount:              draft.Amount,
		Currency:            strings.TrimSpace(draft.Currency),
		Period:              strings.TrimSpace(draft.Period),
		Notes:               strings.TrimSpace(draft.Notes),
		Timestamp:           now.UnixMilli(),
	}, pub)
	if err != nil {
		return Entry{}, err
	}
	s.metrics.encryptions.Inc()
	blob, err := crypto.MarshalEnvelope(env)
	if err != nil {
		return Entry{}, err
	}

	entry := s.add(Entry{
		ID:                 s.deps.NewID(),
		Envelope:           blob,
		CreatedAt:          now.UTC(),
		RecipientWallet:    recipientWallet,
		RecipientPublicKey: strings.TrimSpace(recipientPublicKey),
		Status:             StatusPending,
	})

	started := time.Now()
	receipt, err := s.submit(ctx, sender, entry.ID, recipientWallet, blob)
	if err != nil {
		s.metrics.submissions.WithLabelValues(string(StatusFailed)).Inc()
		s.deps.Logger.Warn("payroll submission failed",
			"entry_id", entry.ID,
			"recipient_wallet", recipientWallet,
			"error", err,
		)
		failed, _ := s.update(entry.ID, func(e *Entry) { e.Status = StatusFailed })
		return failed, err
	}
	s.metrics.submitLatency.Observe(time.Since(started).Seconds())
	s.metrics.submissions.WithLabelValues(string(StatusConfirmed)).Inc()
	s.deps.Logger.Info("payroll confirmed",
		"entry_id", entry.ID,
		"recipient_wallet", recipientWallet,
		"signature", receipt.Signature,
	)
	return s.update(entry.ID, func(e *Entry) {
		e.Receipt = &receipt
		e.Status = StatusConfirmed
	})
}

// submit signs the transfer and hands it to the ledger. The entry moves from
// pending to sending only once a signed transfer exists.
func (s *Service) submit(ctx context.Context, sender Signer, entryID, to string, blob []byte) (models.Receipt, error) {
	from := sender.Address()
	sig, err := sender.Sign(ledger.SigningBytes(from, to, blob))
	if err != nil {
		return models.Receipt{}, fmt.Errorf("sign transfer: %w", err)
	}
	if _, err := s.update(entryID, func(e *Entry) { e.Status = StatusSending }); err != nil {
		return models.Receipt{}, err
	}
	return s.deps.Ledger.Submit(ctx, models.Transfer{From: from, To: to, Blob: blob, Signature: sig})
}

// Entries returns every entry created by this service, oldest first.
func (s *Service) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.clone())
	}
	return out
}

func (s *Service) EntriesForRecipient(wallet string) []Entry {
	wallet = strings.TrimSpace(wallet)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0)
	for _, e := range s.entries {
		if e.RecipientWallet == wallet {
			out = append(out, e.clone())
		}
	}
	return out
}

func (s *Service) Entry(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return s.entries[i].clone(), nil
}

// Open fetches the blob behind a transaction signature and decrypts it with
// the recipient's key. Opening is read-only and may be repeated.
func (s *Service) Open(ctx context.Context, recipient Opener, signature string) (models.PayrollRecord, error) {
	blob, err := s.deps.Ledger.Fetch(ctx, signature)
	if err != nil {
		return models.PayrollRecord{}, err
	}
	return s.openBlob(recipient, blob)
}

// Inbox opens every transfer addressed to the recipient's wallet. Per-transfer
// failures are reported on the payslip, not as the call's error.
func (s *Service) Inbox(ctx context.Context, recipient Opener) ([]Payslip, error) {
	wallet := recipient.Address()
	receipts, err := s.deps.Ledger.ForWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	out := make([]Payslip, 0, len(receipts))
	for _, r := range receipts {
		if r.To != wallet {
			continue
		}
		record, err := s.openBlob(recipient, []byte(r.EncryptedDataRef))
		out = append(out, Payslip{Receipt: r, Record: record, Err: err})
	}
	return out, nil
}

func (s *Service) openBlob(recipient Opener, blob []byte) (models.PayrollRecord, error) {
	env, err := crypto.ParseEnvelope(blob)
	if err != nil {
		s.metrics.decryptions.WithLabelValues(resultLabel(err)).Inc()
		return models.PayrollRecord{}, err
	}
	secret, err := recipient.SecretKey()
	if err != nil {
		return models.PayrollRecord{}, err
	}
	record, err := crypto.Decrypt(env, secret)
	clear(secret[:])
	s.metrics.decryptions.WithLabelValues(resultLabel(err)).Inc()
	return record, err
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, crypto.ErrDecryptionFailed):
		return "decryption_failed"
	case errors.Is(err, payload.ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, crypto.ErrInvalidEnvelope):
		return "invalid_envelope"
	default:
		return "error"
	}
}

func (s *Service) add(e Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	s.byID[e.ID] = len(s.entries) - 1
	return e.clone()
}

func (s *Service) update(id string, apply func(*Entry)) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	apply(&s.entries[i])
	return s.entries[i].clone(), nil
}
