package solgate

import (
	"time"

	"github.com/solgate/solgate/ledger"
	"github.com/solgate/solgate/logger"
	"github.com/solgate/solgate/metrics"
)

type Option func(*Service)

// WithLogger replaces the default noop logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// WithMetrics replaces the default noop recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		s.metrics = r
	}
}

// WithStore overrides the store chosen from configuration.
func WithStore(store ledger.Store) Option {
	return func(s *Service) {
		s.ledger = ledger.New(store)
		s.verifier.SetConsumedSet(store)
	}
}

// WithTTL overrides the grant TTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock overrides the time source. Test hook.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}
