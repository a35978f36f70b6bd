package ports

import (
	"fmt"

	"github.com/harborwallet/harbor/internal/core/domain"
)

// ErrInsufficientFunds is returned by a selector whenever no subset of the
// given utxos can cover the target amount plus the fee it implies. Callers
// rely on it being distinguishable from any other failure.
var ErrInsufficientFunds = fmt.Errorf("insufficient funds to cover amount and fees")

// SelectionResult is the outcome of a coin selection: the chosen utxos, the
// exact fee implied by spending them and the change left over.
type SelectionResult struct {
	Utxos  []*domain.Utxo
	Fee    uint64
	Change uint64
}

// TotalValue returns the summed value of the selected utxos.
func (r SelectionResult) TotalValue() uint64 {
	var total uint64
	for _, u := range r.Utxos {
		total += u.Value
	}
	return total
}

// CoinSelector is the abstraction for any kind of service intended to return
// a subset of the given utxos covering a target amount under a fee-rate
// constraint. The fee is always a function of the estimated transaction
// size for the concrete selection, never a flat rate, and is rounded up to
// the next whole satoshi.
type CoinSelector interface {
	// SelectSpendable implements a certain coin selection strategy for the
	// given target amount and fee rate, expressed in sat/kvB.
	SelectSpendable(
		utxos []*domain.Utxo, targetAmount, feeRatePerKb uint64,
		targetType, changeType domain.OutputType,
	) (*SelectionResult, error)
	// MaxAvailable returns the maximum amount spendable after reserving the
	// fee for consuming all given utxos at the given rate, along with that
	// fee.
	MaxAvailable(
		utxos []*domain.Utxo, feeRatePerKb uint64, targetType domain.OutputType,
	) (maxAmount, feeForMax uint64)
}
