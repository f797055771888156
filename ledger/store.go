// Package ledger maintains the record of granted access: an append-only log
// of payment records with a derived current-access view, plus the set of
// transfer references that have already been admitted.
package ledger

import (
	"context"
	"time"

	"github.com/solgate/solgate/types"
)

// Store is the persistence boundary of the ledger. A durable backend can be
// substituted without touching verification logic.
type Store interface {
	// Append adds a record to the log. Records are never updated.
	Append(ctx context.Context, record types.PaymentRecord) error

	// QueryByPayer returns all records for a payer in append order,
	// including expired ones.
	QueryByPayer(ctx context.Context, payer string) ([]types.PaymentRecord, error)

	// SweepExpired removes records whose expiry is strictly before cutoff
	// and returns how many were removed. Must be safe to run concurrently
	// with Append and QueryByPayer.
	SweepExpired(ctx context.Context, cutoff time.Time) (int, error)

	// Consume atomically marks a transfer reference as admitted. It
	// returns false when the reference was already consumed. The check
	// and the mark form a single critical section; this is the core race
	// the store must close.
	Consume(ctx context.Context, reference string) (bool, error)

	// IsConsumed reports whether a reference has been admitted before.
	// Consumed references are never forgotten, even after the grant they
	// funded expires.
	IsConsumed(ctx context.Context, reference string) (bool, error)
}
