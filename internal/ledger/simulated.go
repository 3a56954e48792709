package ledger

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"os"
	"strings"
	"sync"
	"time"

	"stealth-payroll/go-backend/internal/identity"
	"stealth-payroll/go-backend/internal/securestore"
	"stealth-payroll/go-backend/pkg/models"

	"github.com/mr-tron/base58/base58"
)

const signatureBytes = 64

type snapshot struct {
	Receipts []models.Receipt `json:"receipts"`
}

// Options tunes the simulated confirmation delay.
type Options struct {
	MinLatency time.Duration
	Jitter     time.Duration
	Now        func() time.Time
}

// Simulated is an in-process ledger. With a path it snapshots every accepted
// transfer to disk, optionally encrypted with securestore.
type Simulated struct {
	mu       sync.RWMutex
	receipts []models.Receipt
	index    map[string]int
	path     string
	secret   string
	opts     Options
}

var _ Ledger = (*Simulated)(nil)

func NewMemory(opts Options) *Simulated {
	return &Simulated{index: make(map[string]int), opts: withDefaults(opts)}
}

func NewPersistent(path string, opts Options) (*Simulated, error) {
	return NewEncryptedPersistent(path, "", opts)
}

func NewEncryptedPersistent(path, passphrase string, opts Options) (*Simulated, error) {
	s := &Simulated{
		index:  make(map[string]int),
		path:   strings.TrimSpace(path),
		secret: strings.TrimSpace(passphrase),
		opts:   withDefaults(opts),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulated) Submit(ctx context.Context, transfer models.Transfer) (models.Receipt, error) {
	if err := validateTransfer(transfer); err != nil {
		return models.Receipt{}, err
	}
	if err := s.wait(ctx); err != nil {
		return models.Receipt{}, err
	}
	signature, err := newSignature()
	if err != nil {
		return models.Receipt{}, err
	}
	receipt := models.Receipt{
		Signature:        signature,
		From:             transfer.From,
		To:               transfer.To,
		Amount:           models.PlaceholderTransferAmount,
		Timestamp:        s.opts.Now().UTC(),
		Status:           models.ReceiptStatusConfirmed,
		EncryptedDataRef: string(transfer.Blob),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := append(append([]models.Receipt(nil), s.receipts...), receipt)
	if err := s.persistLocked(next); err != nil {
		return models.Receipt{}, err
	}
	s.receipts = next
	s.index[signature] = len(next) - 1
	return receipt, nil
}

func (s *Simulated) Fetch(ctx context.Context, signature string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[strings.TrimSpace(signature)]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(s.receipts[i].EncryptedDataRef), nil
}

func (s *Simulated) ForWallet(ctx context.Context, wallet string) ([]models.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Receipt, 0)
	for _, r := range s.receipts {
		if r.From == wallet || r.To == wallet {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Simulated) All(ctx context.Context) ([]models.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Receipt(nil), s.receipts...), nil
}

func (s *Simulated) wait(ctx context.Context) error {
	delay := s.opts.MinLatency
	if s.opts.Jitter > 0 {
		delay += mrand.N(s.opts.Jitter)
	}
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Simulated) load() error {
	if s.path == "" {
		return nil
	}
	data, err := securestore.ReadFile(s.path, s.secret)
	if errors.Is(err, securestore.ErrPlaintextData) {
		// Snapshot written before encryption was configured; rewritten encrypted on next submit.
		data, err = os.ReadFile(s.path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if s.secret == "" && securestore.IsEncrypted(data) {
		return securestore.ErrPassphraseRequired
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("ledger snapshot %s: %w", s.path, err)
	}
	s.receipts = snap.Receipts
	for i, r := range s.receipts {
		s.index[r.Signature] = i
	}
	return nil
}

func (s *Simulated) persistLocked(receipts []models.Receipt) error {
	if s.path == "" {
		return nil
	}
	return securestore.WriteJSON(s.path, s.secret, snapshot{Receipts: receipts})
}

func validateTransfer(t models.Transfer) error {
	switch {
	case strings.TrimSpace(t.From) == "":
		return fmt.Errorf("%w: sender is required", ErrInvalidTransfer)
	case strings.TrimSpace(t.To) == "":
		return fmt.Errorf("%w: recipient is required", ErrInvalidTransfer)
	case len(t.Blob) == 0:
		return fmt.Errorf("%w: encrypted data is required", ErrInvalidTransfer)
	}
	if err := identity.VerifySignature(t.From, SigningBytes(t.From, t.To, t.Blob), t.Signature); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTransfer, err)
	}
	return nil
}

func newSignature() (string, error) {
	buf := make([]byte, signatureBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base58.Encode(buf), nil
}

func withDefaults(opts Options) Options {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}
