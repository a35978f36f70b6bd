package ports

import (
	"context"

	"github.com/harborwallet/harbor/internal/core/domain"
)

// ChainSource is the abstraction for any kind of service supplying read-only
// chain data for the wallet accounts.
type ChainSource interface {
	// UnspentOutputs returns a fresh snapshot of the unspent outputs owned
	// by the given account.
	UnspentOutputs(
		ctx context.Context, account domain.AccountInfo,
	) ([]*domain.Utxo, error)
	// LatestBlockHeight returns the current chain tip height.
	LatestBlockHeight(ctx context.Context) (uint64, error)
}
