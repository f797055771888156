// Package solgate gates access to digital resources behind on-chain
// payments: it builds unsigned transfer transactions, verifies submitted
// transaction references against the ledger, and keeps a concurrency-safe
// record of granted access with expiry.
package solgate

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/solgate/solgate/builder"
	"github.com/solgate/solgate/catalog"
	"github.com/solgate/solgate/clients"
	"github.com/solgate/solgate/config"
	"github.com/solgate/solgate/ledger"
	"github.com/solgate/solgate/logger"
	"github.com/solgate/solgate/metrics"
	"github.com/solgate/solgate/types"
	"github.com/solgate/solgate/utils"
	"github.com/solgate/solgate/verification"
)

// Service is the access control facade the request-dispatch layer calls.
// It composes the catalog, ledger, verifier and builder; the transport layer
// stays an external collaborator.
type Service struct {
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	verifier *verification.Verifier
	builder  *builder.Builder
	client   clients.Client

	wallet string
	ttl    time.Duration
	now    func() time.Time

	log     logger.Logger
	metrics metrics.Recorder

	sweepCancel context.CancelFunc
}

// New wires a Service from configuration and a ledger client. The builder is
// only available on Solana networks; the rest of the service works on any
// supported ledger.
func New(cfg *config.Config, client clients.Client, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := utils.ValidateAddress(cfg.PaymentWallet, client.Network()); err != nil {
		return nil, types.NewError(types.ErrInvalidAddress, err.Error())
	}

	cat, err := catalog.New(catalog.DefaultResources(), cfg.MinAmount, cfg.MaxAmount)
	if err != nil {
		return nil, err
	}

	var store ledger.Store
	if cfg.RedisAddr != "" {
		store = ledger.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), "solgate")
	} else {
		mem := ledger.NewMemoryStore()
		mem.SetHistoryLimit(cfg.HistoryLimit)
		store = mem
	}

	s := &Service{
		catalog: cat,
		ledger:  ledger.New(store),
		client:  client,
		wallet:  cfg.PaymentWallet,
		ttl:     cfg.GrantTTL,
		now:     time.Now,
		log:     logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
	}
	s.verifier = verification.New(client, store, cfg.Commitment, cfg.RequestTimeout)

	if client.Network().IsSolana() {
		s.builder, err = builder.New(client, cat, cfg.PaymentWallet)
		if err != nil {
			return nil, err
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	s.verifier.SetLogger(s.log)
	s.verifier.SetMetrics(s.metrics)
	s.ledger.SetClock(s.now)

	return s, nil
}

// CheckAccess reports whether payer currently holds a live grant for the
// resource. When not granted, the result carries the price and the build
// hint the caller needs to request construction.
func (s *Service) CheckAccess(ctx context.Context, payer, resourceID string) (*types.AccessStatus, error) {
	// Unknown resources are rejected regardless of payer validity.
	resource, err := s.catalog.Get(resourceID)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateAddress(payer, s.client.Network()); err != nil {
		return nil, types.NewError(types.ErrInvalidAddress, err.Error())
	}

	granted, record, err := s.ledger.HasAccess(ctx, payer, resourceID)
	if err != nil {
		return nil, err
	}

	if granted {
		expires := record.ExpiresAt
		return &types.AccessStatus{
			Granted:    true,
			ResourceID: resourceID,
			ExpiresAt:  &expires,
		}, nil
	}

	price := resource.Price
	decimals := s.client.Network().BaseUnitDecimals()
	return &types.AccessStatus{
		Granted:    false,
		ResourceID: resourceID,
		Price:      &price,
		Hint: &types.BuildHint{
			Destination: s.wallet,
			Amount:      price,
			BaseUnits:   utils.ToBaseUnits(price, decimals),
		},
	}, nil
}

// ProcessPayment verifies a submitted transfer reference and, on success,
// records a grant for the payer. Validation failures are rejected before any
// network or lock activity.
func (s *Service) ProcessPayment(ctx context.Context, req types.PaymentRequest) (*types.PaymentReceipt, error) {
	network := s.client.Network()

	if err := utils.ValidateAddress(req.Payer, network); err != nil {
		return nil, types.NewError(types.ErrInvalidAddress, err.Error())
	}
	if err := utils.ValidateReference(req.Reference, network); err != nil {
		return nil, types.NewError(types.ErrInvalidReference, err.Error())
	}
	if err := s.catalog.ValidateAmount(req.ResourceID, req.Amount); err != nil {
		return nil, err
	}

	resource, err := s.catalog.Get(req.ResourceID)
	if err != nil {
		return nil, err
	}

	required := utils.ToBaseUnits(resource.Price, network.BaseUnitDecimals())

	verified, err := s.verifier.Verify(ctx, req.Reference, s.wallet, required)
	if err != nil {
		return nil, err
	}

	record, err := s.ledger.Record(ctx, *verified, req.ResourceID, s.ttl)
	if err != nil {
		return nil, err
	}

	s.metrics.IncCounter("payment_granted", map[string]string{
		"network":  network.String(),
		"resource": req.ResourceID,
	})
	s.log.Info("payment processed", map[string]any{
		"payer":     utils.TruncateKey(record.Payer, 8),
		"resource":  req.ResourceID,
		"reference": utils.TruncateKey(req.Reference, 8),
		"expiresAt": record.ExpiresAt,
	})

	return &types.PaymentReceipt{
		Granted:    true,
		ResourceID: req.ResourceID,
		Reference:  req.Reference,
		Amount:     record.Amount,
		ExpiresAt:  record.ExpiresAt,
	}, nil
}

// ResourceInfo returns one descriptor, or all of them when resourceID is
// empty, ordered by id.
func (s *Service) ResourceInfo(resourceID string) ([]types.ResourceDescriptor, error) {
	if resourceID == "" {
		return s.catalog.All(), nil
	}
	r, err := s.catalog.Get(resourceID)
	if err != nil {
		return nil, err
	}
	return []types.ResourceDescriptor{r}, nil
}

// PaymentHistory returns the payer's audit log, ordered by granted_at
// ascending, expired entries included. resourceID filters when non-empty.
func (s *Service) PaymentHistory(ctx context.Context, payer, resourceID string) ([]types.PaymentRecord, error) {
	if err := utils.ValidateAddress(payer, s.client.Network()); err != nil {
		return nil, types.NewError(types.ErrInvalidAddress, err.Error())
	}
	return s.ledger.History(ctx, payer, resourceID)
}

// BuildTransfer constructs an unsigned transfer of amount (display units)
// for a resource. Only available on Solana networks.
func (s *Service) BuildTransfer(ctx context.Context, payer, resourceID string, amount decimal.Decimal) (*types.UnsignedTransaction, error) {
	if s.builder == nil {
		return nil, types.NewError(types.ErrUnsupportedNetwork,
			"transaction construction is only available on Solana networks")
	}
	return s.builder.BuildTransfer(ctx, payer, resourceID, amount)
}

// SweepExpired purges records strictly past expiry and returns the count.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	return s.ledger.SweepExpired(ctx)
}

// StartSweeper launches a background goroutine purging expired records every
// interval, until ctx is canceled or Close is called.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ctx, s.sweepCancel = context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.ledger.SweepExpired(ctx)
				if err != nil {
					s.log.Error("sweep failed", map[string]any{"error": err.Error()})
					continue
				}
				if removed > 0 {
					s.log.Debug("swept expired grants", map[string]any{"removed": removed})
				}
			}
		}
	}()
}

// Metadata returns the construction endpoint's discovery document. Nil when
// the service runs on a network without a builder.
func (s *Service) Metadata() *types.ActionMetadata {
	if s.builder == nil {
		return nil
	}
	md := s.builder.Metadata()
	return &md
}

// Close stops the background sweeper and closes the ledger client.
func (s *Service) Close() {
	if s.sweepCancel != nil {
		s.sweepCancel()
	}
	s.client.Close()
}
