package clients

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/solgate/solgate/types"
	"github.com/solgate/solgate/utils"
)

// DefaultEVMFinalityDepth is the confirmation depth at which an EVM
// transaction is treated as finalized.
const DefaultEVMFinalityDepth = 12

// EVMClient reads confirmed transfers and checkpoints from an EVM JSON-RPC
// endpoint. Only plain value transfers are accepted; contract calls are
// rejected the same way non-transfer Solana transactions are.
type EVMClient struct {
	network       types.Network
	client        *ethclient.Client
	chainID       *big.Int
	finalityDepth uint64
}

var _ Client = (*EVMClient)(nil)

// NewEVMClient creates an EVM ledger client and resolves the chain id.
func NewEVMClient(network types.Network, rpcURL string) (*EVMClient, error) {
	if !network.IsEVM() {
		return nil, types.NewError(types.ErrUnsupportedNetwork,
			fmt.Sprintf("network %s is not an EVM network", network))
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, types.NewError(types.ErrLedgerUnavailable,
			fmt.Sprintf("failed to connect to %s: %v", rpcURL, err))
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		client.Close()
		return nil, types.NewError(types.ErrLedgerUnavailable,
			fmt.Sprintf("failed to resolve chain id: %v", err))
	}

	return &EVMClient{
		network:       network,
		client:        client,
		chainID:       chainID,
		finalityDepth: DefaultEVMFinalityDepth,
	}, nil
}

// FetchConfirmed looks up a transaction hash and returns the value transfer
// it carries.
func (c *EVMClient) FetchConfirmed(ctx context.Context, reference string) (*types.ConfirmedTransfer, error) {
	if err := utils.ValidateReference(reference, c.network); err != nil {
		return nil, types.NewError(types.ErrInvalidReference, err.Error())
	}
	hash := common.HexToHash(reference)

	tx, isPending, err := c.client.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, types.NewError(types.ErrTxNotFound, "transaction not found")
		}
		return nil, types.NewError(types.ErrRPC, fmt.Sprintf("eth_getTransactionByHash failed: %v", err))
	}
	if isPending {
		return nil, types.NewError(types.ErrNotYetConfirmed, "transaction not yet mined")
	}

	receipt, err := c.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, types.NewError(types.ErrNotYetConfirmed, "receipt not yet available")
		}
		return nil, types.NewError(types.ErrRPC, fmt.Sprintf("eth_getTransactionReceipt failed: %v", err))
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return nil, types.NewError(types.ErrTxFailed, "transaction reverted")
	}

	to := tx.To()
	if to == nil {
		return nil, types.NewError(types.ErrNotATransfer, "contract creation is not a transfer")
	}

	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return nil, types.NewError(types.ErrRPC, fmt.Sprintf("failed to recover sender: %v", err))
	}

	head, err := c.client.BlockNumber(ctx)
	if err != nil {
		return nil, types.NewError(types.ErrRPC, fmt.Sprintf("eth_blockNumber failed: %v", err))
	}

	mined := receipt.BlockNumber.Uint64()
	finality := types.FinalityConfirmed
	if head >= mined && head-mined+1 >= c.finalityDepth {
		finality = types.FinalityFinalized
	}

	return &types.ConfirmedTransfer{
		Source:      sender.Hex(),
		Destination: to.Hex(),
		Amount:      decimal.NewFromBigInt(tx.Value(), 0),
		Finality:    finality,
		Slot:        mined,
	}, nil
}

// LatestCheckpoint returns the head block number and hash.
func (c *EVMClient) LatestCheckpoint(ctx context.Context) (*types.Checkpoint, error) {
	header, err := c.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, types.NewError(types.ErrLedgerUnavailable,
			fmt.Sprintf("eth_getBlockByNumber failed: %v", err))
	}

	return &types.Checkpoint{
		Slot:      header.Number.Uint64(),
		Blockhash: header.Hash().Hex(),
	}, nil
}

// SetFinalityDepth overrides the confirmation depth required for the
// finalized level.
func (c *EVMClient) SetFinalityDepth(depth uint64) {
	if depth > 0 {
		c.finalityDepth = depth
	}
}

func (c *EVMClient) Network() types.Network { return c.network }

func (c *EVMClient) Close() { c.client.Close() }
