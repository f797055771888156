// Package verification validates submitted transfer references against the
// ledger and enforces single admission per reference.
package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/solgate/solgate/clients"
	"github.com/solgate/solgate/logger"
	"github.com/solgate/solgate/metrics"
	"github.com/solgate/solgate/types"
	"github.com/solgate/solgate/utils"
)

// ConsumedSet tracks transfer references that have been admitted. Consume is
// an atomic check-and-mark; a reference is admitted at most once, ever.
type ConsumedSet interface {
	Consume(ctx context.Context, reference string) (bool, error)
	IsConsumed(ctx context.Context, reference string) (bool, error)
}

// Verifier checks a transfer reference against the ledger and a required
// (destination, minimum amount) pair.
type Verifier struct {
	client   clients.Client
	consumed ConsumedSet
	finality types.Finality
	timeout  time.Duration
	log      logger.Logger
	metrics  metrics.Recorder
}

// New creates a Verifier. finality is the confirmation threshold a transfer
// must reach before it is admitted.
func New(client clients.Client, consumed ConsumedSet, finality types.Finality, timeout time.Duration) *Verifier {
	if !finality.Valid() {
		finality = types.FinalityConfirmed
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Verifier{
		client:   client,
		consumed: consumed,
		finality: finality,
		timeout:  timeout,
		log:      logger.NoopLogger{},
		metrics:  metrics.NoopRecorder{},
	}
}

// SetConsumedSet replaces the consumed reference set. Used when the store is
// swapped after construction.
func (v *Verifier) SetConsumedSet(consumed ConsumedSet) { v.consumed = consumed }

// SetLogger replaces the verifier's logger.
func (v *Verifier) SetLogger(l logger.Logger) { v.log = l }

// SetMetrics replaces the verifier's metrics recorder.
func (v *Verifier) SetMetrics(r metrics.Recorder) { v.metrics = r }

// Verify runs the admission checks for a reference. expectedDestination must
// match the on-chain destination byte for byte; requiredAmount is in integer
// base units and compared as integers, never floating point.
//
// The ledger fetch happens without holding any lock; consumption is
// re-checked atomically at the final admission step, so two concurrent
// verifications of the same reference can never both succeed.
func (v *Verifier) Verify(ctx context.Context, reference, expectedDestination string, requiredAmount decimal.Decimal) (*types.VerifiedTransfer, error) {
	start := time.Now()
	result, err := v.verify(ctx, reference, expectedDestination, requiredAmount)
	v.observe(start, err)
	return result, err
}

func (v *Verifier) verify(ctx context.Context, reference, expectedDestination string, requiredAmount decimal.Decimal) (*types.VerifiedTransfer, error) {
	// Fast reject before any network activity.
	already, err := v.consumed.IsConsumed(ctx, reference)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, types.NewError(types.ErrAlreadyConsumed,
			fmt.Sprintf("reference %s already consumed", utils.TruncateKey(reference, 8)))
	}

	fetchCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	transfer, err := v.client.FetchConfirmed(fetchCtx, reference)
	if err != nil {
		if fetchCtx.Err() != nil && types.CodeOf(err) == "" {
			return nil, types.NewError(types.ErrRPC, "ledger fetch timed out")
		}
		return nil, err
	}

	if transfer.Destination != expectedDestination {
		return nil, types.NewError(types.ErrWrongDestination,
			fmt.Sprintf("payment sent to %s, expected %s",
				utils.TruncateKey(transfer.Destination, 8), utils.TruncateKey(expectedDestination, 8)))
	}

	if transfer.Amount.LessThan(requiredAmount) {
		return nil, types.NewError(types.ErrInsufficientAmount,
			fmt.Sprintf("insufficient payment: %s < %s base units", transfer.Amount, requiredAmount))
	}

	if !transfer.Finality.AtLeast(v.finality) {
		return nil, types.NewError(types.ErrNotYetConfirmed,
			fmt.Sprintf("transfer at %s, requires %s", transfer.Finality, v.finality))
	}

	// Single critical section: the store's Consume is an atomic
	// check-and-mark, so exactly one of N concurrent verifications of the
	// same reference reaches this point first and wins.
	admitted, err := v.consumed.Consume(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !admitted {
		return nil, types.NewError(types.ErrAlreadyConsumed,
			fmt.Sprintf("reference %s already consumed", utils.TruncateKey(reference, 8)))
	}

	v.log.Info("transfer verified", map[string]any{
		"reference": utils.TruncateKey(reference, 8),
		"payer":     utils.TruncateKey(transfer.Source, 8),
		"amount":    transfer.Amount.String(),
		"slot":      transfer.Slot,
	})

	return &types.VerifiedTransfer{
		Payer:     transfer.Source,
		Amount:    transfer.Amount,
		Reference: reference,
		Slot:      transfer.Slot,
	}, nil
}

func (v *Verifier) observe(start time.Time, err error) {
	labels := map[string]string{"network": v.client.Network().String()}
	v.metrics.ObserveLatency("verify", time.Since(start), labels)

	switch {
	case err == nil:
		v.metrics.IncCounter("verify_ok", labels)
	case types.IsInfrastructure(err):
		v.metrics.IncCounter("verify_infra_error", labels)
		v.log.Error("ledger fetch failed", map[string]any{"error": err.Error()})
	default:
		v.metrics.IncCounter("verify_rejected", labels)
		v.log.Warn("verification rejected", map[string]any{
			"code":  types.CodeOf(err),
			"error": err.Error(),
		})
	}
}
