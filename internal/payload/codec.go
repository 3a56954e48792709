// Package payload maps payroll records to and from the byte form that gets
// encrypted. The encoding is compact JSON with a fixed field order, so the same
// record always produces the same bytes.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"unicode/utf8"

	"stealth-payroll/go-backend/pkg/models"
)

var (
	ErrMalformedPayload = errors.New("malformed payroll payload")
	ErrInvalidRecord    = errors.New("invalid payroll record")
)

// wireRecord mirrors models.PayrollRecord with pointer fields so that absent
// keys can be told apart from zero values.
type wireRecord struct {
	RecipientIdentifier *string  `json:"recipientIdentifier"`
	Amount              *float64 `json:"amount"`
	Currency            *string  `json:"currency"`
	Period              *string  `json:"period"`
	Notes               *string  `json:"notes"`
	Timestamp           *int64   `json:"timestamp"`
}

// Encode serializes a record. Notes are omitted when empty.
func Encode(record models.PayrollRecord) ([]byte, error) {
	if err := Validate(record); err != nil {
		return nil, err
	}
	return json.Marshal(record)
}

// Decode parses bytes produced by Encode. Any shape problem is reported as
// ErrMalformedPayload.
func Decode(data []byte) (models.PayrollRecord, error) {
	if err := checkKeys(data); err != nil {
		return models.PayrollRecord{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	var wire wireRecord
	if err := dec.Decode(&wire); err != nil {
		return models.PayrollRecord{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return models.PayrollRecord{}, fmt.Errorf("%w: trailing data", ErrMalformedPayload)
	}

	switch {
	case wire.RecipientIdentifier == nil:
		return models.PayrollRecord{}, missing("recipientIdentifier")
	case wire.Amount == nil:
		return models.PayrollRecord{}, missing("amount")
	case wire.Currency == nil:
		return models.PayrollRecord{}, missing("currency")
	case wire.Period == nil:
		return models.PayrollRecord{}, missing("period")
	case wire.Timestamp == nil:
		return models.PayrollRecord{}, missing("timestamp")
	}

	record := models.PayrollRecord{
		RecipientIdentifier: *wire.RecipientIdentifier,
		Amount:              *wire.Amount,
		Currency:            *wire.Currency,
		Period:              *wire.Period,
		Timestamp:           *wire.Timestamp,
	}
	if wire.Notes != nil {
		record.Notes = *wire.Notes
	}
	if err := Validate(record); err != nil {
		return models.PayrollRecord{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return record, nil
}

// Validate checks the data-model invariants of a record.
func Validate(record models.PayrollRecord) error {
	for name, v := range map[string]string{
		"recipient identifier": record.RecipientIdentifier,
		"currency":             record.Currency,
		"period":               record.Period,
		"notes":                record.Notes,
	} {
		if !utf8.ValidString(v) {
			return fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidRecord, name)
		}
	}
	if strings.TrimSpace(record.RecipientIdentifier) == "" {
		return fmt.Errorf("%w: recipient identifier is required", ErrInvalidRecord)
	}
	if math.IsNaN(record.Amount) || math.IsInf(record.Amount, 0) || record.Amount <= 0 {
		return fmt.Errorf("%w: amount must be a finite positive number", ErrInvalidRecord)
	}
	if strings.TrimSpace(record.Currency) == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidRecord)
	}
	if record.Timestamp < 0 {
		return fmt.Errorf("%w: timestamp must not be negative", ErrInvalidRecord)
	}
	return nil
}

var recordKeys = []string{"recipientIdentifier", "amount", "currency", "period", "notes", "timestamp"}

// checkKeys walks the top-level object once. encoding/json matches keys
// case-insensitively and keeps the last duplicate, so both are refused here.
// Non-object input is left for the main decode to report.
func checkKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil
	}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		for _, name := range recordKeys {
			if key != name && strings.EqualFold(key, name) {
				return fmt.Errorf("key %q must be spelled %q", key, name)
			}
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = struct{}{}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return err
		}
	}
	return nil
}

func missing(field string) error {
	return fmt.Errorf("%w: missing %s", ErrMalformedPayload, field)
}
