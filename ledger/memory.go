package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/solgate/solgate/types"
)

// DefaultHistoryLimit caps how many records the in-memory store keeps per
// payer. Oldest entries are evicted first.
const DefaultHistoryLimit = 1000

// MemoryStore is the in-process Store. Reads take a shared lock and may
// proceed concurrently with each other; Append, SweepExpired and Consume
// take the exclusive lock, so a reader never observes a partially written
// record.
type MemoryStore struct {
	mu           sync.RWMutex
	records      map[string][]types.PaymentRecord
	consumed     map[string]struct{}
	historyLimit int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store with the default per-payer
// history limit.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:      make(map[string][]types.PaymentRecord),
		consumed:     make(map[string]struct{}),
		historyLimit: DefaultHistoryLimit,
	}
}

// SetHistoryLimit overrides the per-payer history cap. Zero disables it.
func (s *MemoryStore) SetHistoryLimit(limit int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyLimit = limit
}

func (s *MemoryStore) Append(_ context.Context, record types.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := append(s.records[record.Payer], record)
	if s.historyLimit > 0 && len(recs) > s.historyLimit {
		recs = recs[len(recs)-s.historyLimit:]
	}
	s.records[record.Payer] = recs
	return nil
}

func (s *MemoryStore) QueryByPayer(_ context.Context, payer string) ([]types.PaymentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.records[payer]
	out := make([]types.PaymentRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *MemoryStore) SweepExpired(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for payer, recs := range s.records {
		kept := recs[:0]
		for _, r := range recs {
			if r.ExpiresAt.Before(cutoff) {
				removed++
				continue
			}
			kept = append(kept, r)
		}
		if len(kept) == 0 {
			delete(s.records, payer)
			continue
		}
		s.records[payer] = kept
	}
	return removed, nil
}

func (s *MemoryStore) Consume(_ context.Context, reference string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.consumed[reference]; exists {
		return false, nil
	}
	s.consumed[reference] = struct{}{}
	return true, nil
}

func (s *MemoryStore) IsConsumed(_ context.Context, reference string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.consumed[reference]
	return exists, nil
}
