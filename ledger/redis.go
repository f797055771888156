package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solgate/solgate/types"
)

// RedisStore is a durable Store for deployments where records and consumed
// references must survive process restarts.
//
// Layout:
//
//	<prefix>:consumed          set of admitted references
//	<prefix>:records:<payer>   zset of record JSON, scored by granted_at
//	<prefix>:expiry            zset of record JSON, scored by expires_at
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing Redis client.
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "solgate"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) recordsKey(payer string) string {
	return fmt.Sprintf("%s:records:%s", s.prefix, payer)
}

func (s *RedisStore) consumedKey() string { return s.prefix + ":consumed" }
func (s *RedisStore) expiryKey() string   { return s.prefix + ":expiry" }

func (s *RedisStore) Append(ctx context.Context, record types.PaymentRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return types.NewError(types.ErrStoreUnavailable, fmt.Sprintf("failed to encode record: %v", err))
	}

	pipe := s.rdb.TxPipeline()
	pipe.ZAdd(ctx, s.recordsKey(record.Payer), redis.Z{
		Score:  float64(record.GrantedAt.UnixNano()),
		Member: string(raw),
	})
	pipe.ZAdd(ctx, s.expiryKey(), redis.Z{
		Score:  float64(record.ExpiresAt.UnixNano()),
		Member: string(raw),
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return types.NewError(types.ErrStoreUnavailable, fmt.Sprintf("redis append failed: %v", err))
	}
	return nil
}

func (s *RedisStore) QueryByPayer(ctx context.Context, payer string) ([]types.PaymentRecord, error) {
	members, err := s.rdb.ZRange(ctx, s.recordsKey(payer), 0, -1).Result()
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, fmt.Sprintf("redis query failed: %v", err))
	}

	records := make([]types.PaymentRecord, 0, len(members))
	for _, m := range members {
		var rec types.PaymentRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			return nil, types.NewError(types.ErrStoreUnavailable, fmt.Sprintf("corrupt record: %v", err))
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *RedisStore) SweepExpired(ctx context.Context, cutoff time.Time) (int, error) {
	// Strictly-past-expiry only: exclusive upper bound on the score.
	max := fmt.Sprintf("(%d", cutoff.UnixNano())

	members, err := s.rdb.ZRangeByScore(ctx, s.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: max,
	}).Result()
	if err != nil {
		return 0, types.NewError(types.ErrStoreUnavailable, fmt.Sprintf("redis sweep scan failed: %v", err))
	}
	if len(members) == 0 {
		return 0, nil
	}

	removed := 0
	for _, m := range members {
		var rec types.PaymentRecord
		if err := json.Unmarshal([]byte(m), &rec); err != nil {
			continue
		}
		pipe := s.rdb.TxPipeline()
		pipe.ZRem(ctx, s.recordsKey(rec.Payer), m)
		pipe.ZRem(ctx, s.expiryKey(), m)
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, types.NewError(types.ErrStoreUnavailable, fmt.Sprintf("redis sweep failed: %v", err))
		}
		removed++
	}
	return removed, nil
}

func (s *RedisStore) Consume(ctx context.Context, reference string) (bool, error) {
	// SADD is atomic: a return of 1 means this call admitted the
	// reference, 0 means someone already had.
	added, err := s.rdb.SAdd(ctx, s.consumedKey(), reference).Result()
	if err != nil {
		return false, types.NewError(types.ErrStoreUnavailable, fmt.Sprintf("redis consume failed: %v", err))
	}
	return added == 1, nil
}

func (s *RedisStore) IsConsumed(ctx context.Context, reference string) (bool, error) {
	exists, err := s.rdb.SIsMember(ctx, s.consumedKey(), reference).Result()
	if err != nil {
		return false, types.NewError(types.ErrStoreUnavailable, fmt.Sprintf("redis lookup failed: %v", err))
	}
	return exists, nil
}
