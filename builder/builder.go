// Package builder constructs unsigned transfer transactions for the
// configured receiving address. It never signs, broadcasts, or stores
// anything; signing happens off-system on the payer's side.
package builder

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/shopspring/decimal"

	"github.com/solgate/solgate/catalog"
	"github.com/solgate/solgate/clients"
	"github.com/solgate/solgate/types"
	"github.com/solgate/solgate/utils"
)

// Builder assembles unsigned SOL transfers toward a fixed destination,
// anchored at the latest ledger checkpoint so each built transaction is
// valid only for a bounded window.
type Builder struct {
	client      clients.Client
	catalog     *catalog.Catalog
	destination solana.PublicKey
}

// New creates a Builder paying into destination.
func New(client clients.Client, cat *catalog.Catalog, destination string) (*Builder, error) {
	if !client.Network().IsSolana() {
		return nil, types.NewError(types.ErrUnsupportedNetwork,
			fmt.Sprintf("transaction construction requires a Solana ledger, got %s", client.Network()))
	}

	dest, err := solana.PublicKeyFromBase58(destination)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidAddress,
			fmt.Sprintf("invalid destination address: %v", err))
	}

	return &Builder{
		client:      client,
		catalog:     cat,
		destination: dest,
	}, nil
}

// BuildTransfer produces a serialized, unsigned transfer of amount (display
// units) from payer to the configured destination, for the given resource.
// The amount must pass catalog validation before any network activity.
func (b *Builder) BuildTransfer(ctx context.Context, payer, resourceID string, amount decimal.Decimal) (*types.UnsignedTransaction, error) {
	if err := b.catalog.ValidateAmount(resourceID, amount); err != nil {
		return nil, err
	}

	from, err := solana.PublicKeyFromBase58(payer)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidAddress,
			fmt.Sprintf("invalid payer address: %v", err))
	}

	checkpoint, err := b.client.LatestCheckpoint(ctx)
	if err != nil {
		return nil, err
	}
	blockhash, err := solana.HashFromBase58(checkpoint.Blockhash)
	if err != nil {
		return nil, types.NewError(types.ErrLedgerUnavailable,
			fmt.Sprintf("invalid checkpoint blockhash: %v", err))
	}

	lamports := utils.ToBaseUnits(amount, b.client.Network().BaseUnitDecimals())

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(
				uint64(lamports.IntPart()),
				from,
				b.destination,
			).Build(),
		},
		blockhash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, types.NewError(types.ErrRPC,
			fmt.Sprintf("failed to assemble transaction: %v", err))
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, types.NewError(types.ErrRPC,
			fmt.Sprintf("failed to serialize transaction: %v", err))
	}

	return &types.UnsignedTransaction{
		TxBase64:    base64.StdEncoding.EncodeToString(raw),
		Payer:       payer,
		Destination: b.destination.String(),
		BaseUnits:   lamports,
		Checkpoint:  *checkpoint,
	}, nil
}

// Metadata returns the discovery document for the construction endpoint:
// accepted amount range plus the resource enumeration. Pure data, no
// verification logic.
func (b *Builder) Metadata() types.ActionMetadata {
	min, max := b.catalog.Bounds()
	return types.ActionMetadata{
		Type:        "action",
		Title:       "Process Payment",
		Description: "Make a SOL payment to access content.",
		Label:       "Pay with SOL",
		Inputs: []types.ActionMetadataInput{
			{Name: "amount", Type: "number", Label: "Amount of SOL to pay"},
			{Name: "resource_id", Type: "string", Label: "Resource ID"},
		},
		MinAmount: min,
		MaxAmount: max,
		Resources: b.catalog.All(),
	}
}

// Destination returns the receiving address payments must be sent to.
func (b *Builder) Destination() string {
	return b.destination.String()
}
