// Package clients contains the ledger boundary: read-only access to the
// chain the payments settle on. The core never re-implements consensus; it
// only consumes confirmed-transaction reads and checkpoint queries.
package clients

import (
	"context"

	"github.com/solgate/solgate/types"
)

// Client is the capability set the verifier and builder need from a ledger.
type Client interface {
	// FetchConfirmed returns the ledger's view of the transfer identified
	// by reference. Typed failures: transaction_not_found,
	// not_yet_confirmed, transaction_failed, not_a_transfer, rpc_error.
	FetchConfirmed(ctx context.Context, reference string) (*types.ConfirmedTransfer, error)

	// LatestCheckpoint returns the current ledger checkpoint, used as a
	// freshness token for built transactions.
	LatestCheckpoint(ctx context.Context) (*types.Checkpoint, error)

	Network() types.Network
	Close()
}
