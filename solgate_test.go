package solgate

import (
	"context"
	"encoding/base64"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solgate/solgate/config"
	"github.com/solgate/solgate/types"
)

const (
	// Real base58 keys so the builder can decode them.
	testWallet = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	testPayer  = "4Nd1mYvM7K5Y3RrXbcYHMvyM8aRCoGU9nSRVKior9vF3"

	// Well-formed transaction signatures.
	sig123       = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	sigUnrelated = "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUV"

	blockhash = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
)

type stubLedger struct {
	transfers map[string]*types.ConfirmedTransfer
	fetches   atomic.Int64
}

func (c *stubLedger) FetchConfirmed(_ context.Context, reference string) (*types.ConfirmedTransfer, error) {
	c.fetches.Add(1)
	if tr, ok := c.transfers[reference]; ok {
		cp := *tr
		return &cp, nil
	}
	return nil, types.NewError(types.ErrTxNotFound, "transaction not found")
}

func (c *stubLedger) LatestCheckpoint(context.Context) (*types.Checkpoint, error) {
	return &types.Checkpoint{Slot: 5000, Blockhash: blockhash, LastValidBlockHeight: 5150}, nil
}

func (c *stubLedger) Network() types.Network { return types.NetworkSolanaDevnet }
func (c *stubLedger) Close()                 {}

func testConfig() *config.Config {
	return &config.Config{
		RPCEndpoint:    "http://localhost:8899",
		PaymentWallet:  testWallet,
		Network:        types.NetworkSolanaDevnet,
		Commitment:     types.FinalityConfirmed,
		GrantTTL:       24 * time.Hour,
		RequestTimeout: 5 * time.Second,
		MinAmount:      decimal.RequireFromString("0.001"),
		MaxAmount:      decimal.NewFromInt(1000),
		HistoryLimit:   1000,
	}
}

func solTransfer(amountSOL string) *types.ConfirmedTransfer {
	return &types.ConfirmedTransfer{
		Source:      testPayer,
		Destination: testWallet,
		Amount:      decimal.RequireFromString(amountSOL).Shift(9),
		Finality:    types.FinalityConfirmed,
		Slot:        4990,
	}
}

func newTestService(t *testing.T, client *stubLedger, opts ...Option) *Service {
	t.Helper()
	svc, err := New(testConfig(), client, opts...)
	require.NoError(t, err)
	return svc
}

// The full premium_content scenario: payment grants access until now+TTL,
// resubmitting the same signature is rejected.
func TestProcessPaymentScenario(t *testing.T) {
	ctx := context.Background()
	client := &stubLedger{transfers: map[string]*types.ConfirmedTransfer{
		sig123: solTransfer("1.0"),
	}}

	current := time.Now()
	svc := newTestService(t, client, WithClock(func() time.Time { return current }))

	status, err := svc.CheckAccess(ctx, testPayer, "premium_content")
	require.NoError(t, err)
	assert.False(t, status.Granted)
	require.NotNil(t, status.Price)
	assert.True(t, status.Price.Equal(decimal.RequireFromString("1.0")))
	require.NotNil(t, status.Hint)
	assert.Equal(t, testWallet, status.Hint.Destination)
	assert.True(t, status.Hint.BaseUnits.Equal(decimal.NewFromInt(1_000_000_000)))

	receipt, err := svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer:      testPayer,
		ResourceID: "premium_content",
		Reference:  sig123,
		Amount:     decimal.RequireFromString("1.0"),
	})
	require.NoError(t, err)
	assert.True(t, receipt.Granted)
	assert.Equal(t, current.Add(24*time.Hour), receipt.ExpiresAt)

	status, err = svc.CheckAccess(ctx, testPayer, "premium_content")
	require.NoError(t, err)
	assert.True(t, status.Granted)

	// replay of the same signature
	_, err = svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer:      testPayer,
		ResourceID: "premium_content",
		Reference:  sig123,
		Amount:     decimal.RequireFromString("1.0"),
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrAlreadyConsumed, types.CodeOf(err))

	// grant lapses after the TTL
	current = current.Add(24*time.Hour + time.Minute)
	status, err = svc.CheckAccess(ctx, testPayer, "premium_content")
	require.NoError(t, err)
	assert.False(t, status.Granted)
}

func TestCheckAccessUnknownResource(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, &stubLedger{})

	_, err := svc.CheckAccess(ctx, testPayer, "no_such_resource")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownResource, types.CodeOf(err))

	// unknown resource wins even when the payer is malformed
	_, err = svc.CheckAccess(ctx, "not-an-address", "no_such_resource")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownResource, types.CodeOf(err))

	_, err = svc.CheckAccess(ctx, "not-an-address", "premium_content")
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidAddress, types.CodeOf(err))
}

func TestProcessPaymentValidatesBeforeFetching(t *testing.T) {
	ctx := context.Background()
	client := &stubLedger{}
	svc := newTestService(t, client)

	// amount above the global maximum is rejected before verification
	_, err := svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer:      testPayer,
		ResourceID: "premium_content",
		Reference:  sig123,
		Amount:     decimal.NewFromInt(1001),
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrAmountTooHigh, types.CodeOf(err))

	// malformed reference
	_, err = svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer:      testPayer,
		ResourceID: "premium_content",
		Reference:  "sig123",
		Amount:     decimal.RequireFromString("1.0"),
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidReference, types.CodeOf(err))

	// malformed payer
	_, err = svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer:      "bad",
		ResourceID: "premium_content",
		Reference:  sig123,
		Amount:     decimal.RequireFromString("1.0"),
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidAddress, types.CodeOf(err))

	assert.Zero(t, client.fetches.Load(), "validation failures must not reach the ledger")
}

// Round trip: a transfer built at the listed price verifies successfully
// once the ledger reports it confirmed at that destination and amount.
func TestBuildThenVerifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := &stubLedger{transfers: map[string]*types.ConfirmedTransfer{}}
	svc := newTestService(t, client)

	unsigned, err := svc.BuildTransfer(ctx, testPayer, "premium_content", decimal.RequireFromString("1.0"))
	require.NoError(t, err)
	assert.Equal(t, testPayer, unsigned.Payer)
	assert.Equal(t, testWallet, unsigned.Destination)
	assert.True(t, unsigned.BaseUnits.Equal(decimal.NewFromInt(1_000_000_000)))
	assert.Equal(t, uint64(5000), unsigned.Checkpoint.Slot)

	raw, err := base64.StdEncoding.DecodeString(unsigned.TxBase64)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	// the payer signs and broadcasts off-system; the ledger then reports
	// the exact destination and amount the builder emitted
	client.transfers[sig123] = &types.ConfirmedTransfer{
		Source:      testPayer,
		Destination: unsigned.Destination,
		Amount:      unsigned.BaseUnits,
		Finality:    types.FinalityConfirmed,
		Slot:        5001,
	}

	receipt, err := svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer:      testPayer,
		ResourceID: "premium_content",
		Reference:  sig123,
		Amount:     decimal.RequireFromString("1.0"),
	})
	require.NoError(t, err)
	assert.True(t, receipt.Granted)
}

func TestPaymentHistory(t *testing.T) {
	ctx := context.Background()
	client := &stubLedger{transfers: map[string]*types.ConfirmedTransfer{
		sig123:       solTransfer("1.0"),
		sigUnrelated: solTransfer("0.05"),
	}}

	current := time.Now()
	svc := newTestService(t, client, WithClock(func() time.Time { return current }))

	_, err := svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer: testPayer, ResourceID: "premium_content", Reference: sig123,
		Amount: decimal.RequireFromString("1.0"),
	})
	require.NoError(t, err)

	current = current.Add(time.Minute)
	_, err = svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer: testPayer, ResourceID: "basic_content", Reference: sigUnrelated,
		Amount: decimal.RequireFromString("0.05"),
	})
	require.NoError(t, err)

	history, err := svc.PaymentHistory(ctx, testPayer, "")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, sig123, history[0].Reference)
	assert.Equal(t, sigUnrelated, history[1].Reference)

	history, err = svc.PaymentHistory(ctx, testPayer, "basic_content")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, sigUnrelated, history[0].Reference)

	_, err = svc.PaymentHistory(ctx, "not-an-address", "")
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidAddress, types.CodeOf(err))
}

func TestResourceInfo(t *testing.T) {
	svc := newTestService(t, &stubLedger{})

	all, err := svc.ResourceInfo("")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	one, err := svc.ResourceInfo("pro_content")
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.True(t, one[0].Price.Equal(decimal.RequireFromString("2.0")))

	_, err = svc.ResourceInfo("no_such_resource")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownResource, types.CodeOf(err))
}

func TestMetadata(t *testing.T) {
	svc := newTestService(t, &stubLedger{})

	md := svc.Metadata()
	require.NotNil(t, md)
	assert.Equal(t, "action", md.Type)
	assert.Len(t, md.Resources, 5)
	assert.True(t, md.MinAmount.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, md.MaxAmount.Equal(decimal.NewFromInt(1000)))
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	client := &stubLedger{transfers: map[string]*types.ConfirmedTransfer{
		sig123: solTransfer("1.0"),
	}}

	current := time.Now()
	svc := newTestService(t, client, WithClock(func() time.Time { return current }))

	_, err := svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer: testPayer, ResourceID: "premium_content", Reference: sig123,
		Amount: decimal.RequireFromString("1.0"),
	})
	require.NoError(t, err)

	removed, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	current = current.Add(25 * time.Hour)
	removed, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	// the swept grant stays consumed: the reference cannot be replayed
	_, err = svc.ProcessPayment(ctx, types.PaymentRequest{
		Payer: testPayer, ResourceID: "premium_content", Reference: sig123,
		Amount: decimal.RequireFromString("1.0"),
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrAlreadyConsumed, types.CodeOf(err))
}
