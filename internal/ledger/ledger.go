// Package ledger is the stand-in for the chain that carries payroll transfers.
// The chain only ever sees an opaque encrypted blob per transfer.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"stealth-payroll/go-backend/pkg/models"
)

var (
	ErrNotFound        = errors.New("transaction not found")
	ErrInvalidTransfer = errors.New("invalid transfer")
)

// Ledger accepts opaque payroll blobs and hands them back unchanged.
type Ledger interface {
	Submit(ctx context.Context, transfer models.Transfer) (models.Receipt, error)
	Fetch(ctx context.Context, signature string) ([]byte, error)
	ForWallet(ctx context.Context, wallet string) ([]models.Receipt, error)
	All(ctx context.Context) ([]models.Receipt, error)
}

// SigningBytes is the canonical byte form a sender signs for a transfer.
func SigningBytes(from, to string, blob []byte) []byte {
	const domain = "stealth-payroll/transfer/v1"
	b := make([]byte, 0, len(domain)+len(from)+len(to)+len(blob)+3)
	b = append(b, domain...)
	b = append(b, 0)
	b = append(b, from...)
	b = append(b, 0)
	b = append(b, to...)
	b = append(b, 0)
	b = append(b, blob...)
	return b
}

// ExplorerURL links a transaction signature on Solscan.
func ExplorerURL(signature string, devnet bool) string {
	url := fmt.Sprintf("https://solscan.io/tx/%s", signature)
	if devnet {
		url += "?cluster=devnet"
	}
	return url
}
