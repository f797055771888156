package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/solgate/solgate/types"
)

// Ledger is the access ledger: every access decision in the system derives
// from its current record set, never from a hardcoded outcome.
type Ledger struct {
	store Store
	now   func() time.Time
}

// New creates a Ledger over the given store.
func New(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// SetClock overrides the time source. Test hook.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Store exposes the underlying store, which also serves as the consumed
// reference set for the verifier.
func (l *Ledger) Store() Store {
	return l.store
}

// Record appends a grant for a verified transfer. A record appended here has
// expires_at in the future and can never be immediately eligible for sweep.
func (l *Ledger) Record(ctx context.Context, verified types.VerifiedTransfer, resourceID string, ttl time.Duration) (types.PaymentRecord, error) {
	now := l.now()
	record := types.PaymentRecord{
		Payer:      verified.Payer,
		ResourceID: resourceID,
		Amount:     verified.Amount,
		Reference:  verified.Reference,
		GrantedAt:  now,
		ExpiresAt:  now.Add(ttl),
	}

	if err := l.store.Append(ctx, record); err != nil {
		return types.PaymentRecord{}, err
	}
	return record, nil
}

// HasAccess reports whether a non-expired record exists for the pair.
func (l *Ledger) HasAccess(ctx context.Context, payer, resourceID string) (bool, *types.PaymentRecord, error) {
	records, err := l.store.QueryByPayer(ctx, payer)
	if err != nil {
		return false, nil, err
	}

	now := l.now()
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		if r.ResourceID == resourceID && !r.Expired(now) {
			return true, &r, nil
		}
	}
	return false, nil, nil
}

// History returns all records for the payer ordered by granted_at ascending,
// expired entries included: it is an audit log, not a current-state view.
// An empty resourceID returns every resource.
func (l *Ledger) History(ctx context.Context, payer, resourceID string) ([]types.PaymentRecord, error) {
	records, err := l.store.QueryByPayer(ctx, payer)
	if err != nil {
		return nil, err
	}

	out := records[:0:0]
	for _, r := range records {
		if resourceID != "" && r.ResourceID != resourceID {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GrantedAt.Before(out[j].GrantedAt)
	})
	return out, nil
}

// SweepExpired purges records strictly past expiry.
func (l *Ledger) SweepExpired(ctx context.Context) (int, error) {
	return l.store.SweepExpired(ctx, l.now())
}
