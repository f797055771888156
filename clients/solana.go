package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/solgate/solgate/types"
)

// SolanaClient reads confirmed transfers and checkpoints from a Solana
// JSON-RPC endpoint.
type SolanaClient struct {
	network types.Network
	rpcURL  string
	client  *rpc.Client
}

var _ Client = (*SolanaClient)(nil)

// NewSolanaClient creates a Solana ledger client.
func NewSolanaClient(network types.Network, rpcURL string) (*SolanaClient, error) {
	if !network.IsSolana() {
		return nil, types.NewError(types.ErrUnsupportedNetwork,
			fmt.Sprintf("network %s is not a Solana network", network))
	}
	return &SolanaClient{
		network: network,
		rpcURL:  rpcURL,
		client:  rpc.New(rpcURL),
	}, nil
}

// FetchConfirmed looks up a transaction signature and extracts the system
// program SOL transfer it carries.
func (c *SolanaClient) FetchConfirmed(ctx context.Context, reference string) (*types.ConfirmedTransfer, error) {
	sig, err := solana.SignatureFromBase58(reference)
	if err != nil {
		return nil, types.NewError(types.ErrInvalidReference,
			fmt.Sprintf("invalid transaction signature: %v", err))
	}

	statuses, err := c.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, types.NewError(types.ErrRPC, fmt.Sprintf("getSignatureStatuses failed: %v", err))
	}
	if len(statuses.Value) == 0 || statuses.Value[0] == nil {
		return nil, types.NewError(types.ErrTxNotFound, "transaction not found")
	}

	status := statuses.Value[0]
	if status.Err != nil {
		return nil, types.NewError(types.ErrTxFailed,
			fmt.Sprintf("transaction failed on chain: %v", status.Err))
	}

	finality := finalityFromStatus(status.ConfirmationStatus)

	maxVersion := uint64(0)
	out, err := c.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			// Signature is known but the transaction is not yet visible
			// at confirmed commitment.
			return nil, types.NewError(types.ErrNotYetConfirmed, "transaction not yet confirmed")
		}
		return nil, types.NewError(types.ErrRPC, fmt.Sprintf("getTransaction failed: %v", err))
	}
	if out.Meta != nil && out.Meta.Err != nil {
		return nil, types.NewError(types.ErrTxFailed,
			fmt.Sprintf("transaction failed on chain: %v", out.Meta.Err))
	}

	tx, err := out.Transaction.GetTransaction()
	if err != nil {
		return nil, types.NewError(types.ErrRPC, fmt.Sprintf("failed to decode transaction: %v", err))
	}

	transfer, err := extractSystemTransfer(tx)
	if err != nil {
		return nil, err
	}

	transfer.Finality = finality
	transfer.Slot = out.Slot
	return transfer, nil
}

// extractSystemTransfer walks the instructions for the first system program
// SOL transfer. Anything else (token transfers, contract calls) is rejected.
func extractSystemTransfer(tx *solana.Transaction) (*types.ConfirmedTransfer, error) {
	for _, inst := range tx.Message.Instructions {
		prog, err := tx.Message.Program(inst.ProgramIDIndex)
		if err != nil || !prog.Equals(solana.SystemProgramID) {
			continue
		}

		accountMetas := make([]*solana.AccountMeta, len(inst.Accounts))
		ok := true
		for i, accIdx := range inst.Accounts {
			if int(accIdx) >= len(tx.Message.AccountKeys) {
				ok = false
				break
			}
			pub := tx.Message.AccountKeys[accIdx]
			writable, werr := tx.Message.IsWritable(pub)
			if werr != nil {
				ok = false
				break
			}
			accountMetas[i] = &solana.AccountMeta{
				PublicKey:  pub,
				IsSigner:   tx.Message.IsSigner(pub),
				IsWritable: writable,
			}
		}
		if !ok || len(accountMetas) < 2 {
			continue
		}

		sysInst, err := system.DecodeInstruction(accountMetas, inst.Data)
		if err != nil {
			continue
		}
		transfer, isTransfer := sysInst.Impl.(*system.Transfer)
		if !isTransfer || transfer.Lamports == nil {
			continue
		}

		return &types.ConfirmedTransfer{
			Source:      accountMetas[0].PublicKey.String(),
			Destination: accountMetas[1].PublicKey.String(),
			Amount:      decimal.NewFromInt(int64(*transfer.Lamports)),
		}, nil
	}

	return nil, types.NewError(types.ErrNotATransfer, "no SOL transfer found in transaction")
}

// LatestCheckpoint returns the latest finalized blockhash and slot.
func (c *SolanaClient) LatestCheckpoint(ctx context.Context) (*types.Checkpoint, error) {
	out, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, types.NewError(types.ErrLedgerUnavailable,
			fmt.Sprintf("getLatestBlockhash failed: %v", err))
	}

	return &types.Checkpoint{
		Slot:                 out.Context.Slot,
		Blockhash:            out.Value.Blockhash.String(),
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

func finalityFromStatus(status rpc.ConfirmationStatusType) types.Finality {
	switch status {
	case rpc.ConfirmationStatusFinalized:
		return types.FinalityFinalized
	case rpc.ConfirmationStatusConfirmed:
		return types.FinalityConfirmed
	default:
		return types.FinalityProcessed
	}
}

func (c *SolanaClient) Network() types.Network { return c.network }

func (c *SolanaClient) Close() {}
