// Package token declares the fungible-token collaborator interface.
// The pool never reimplements the token ledger; it consumes it at this
// boundary. Transfers must be treated as possibly reentrant and as
// all-or-nothing primitives.
package token

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTransferFailed wraps any token-side rejection (insufficient balance
// or allowance). A failed transfer has no effect on the token ledger.
var ErrTransferFailed = errors.New("token transfer failed")

// Ledger is the external fungible-token contract.
type Ledger interface {
	// BalanceOf reports the holder's current balance in base units.
	BalanceOf(ctx context.Context, holder uuid.UUID) (int64, error)

	// TransferFrom moves amount from payer to recipient using the pool's
	// allowance. Fails atomically if allowance or balance is insufficient.
	TransferFrom(ctx context.Context, payer, recipient uuid.UUID, amount int64) error

	// Transfer moves amount from the pool's own holdings to recipient.
	// Fails atomically if the pool balance is insufficient.
	Transfer(ctx context.Context, recipient uuid.UUID, amount int64) error
}
