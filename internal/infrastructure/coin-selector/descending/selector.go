package descending_selector

import (
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
)

var (
	outputScriptSize = map[domain.OutputType]int{
		domain.OutputTypeP2PKH:        txsizes.P2PKHPkScriptSize,
		domain.OutputTypeNestedP2WPKH: txsizes.NestedP2WPKHPkScriptSize,
		domain.OutputTypeP2WPKH:       txsizes.P2WPKHPkScriptSize,
		domain.OutputTypeP2TR:         txsizes.P2TRPkScriptSize,
	}
)

type selector struct {
	relayFeePerKb uint64
}

// NewDescendingCoinSelector returns a selector accumulating utxos from the
// largest down, recomputing the exact size-based fee for every candidate
// set. Utxos that are dust at the given relay fee rate never take part in a
// selection.
func NewDescendingCoinSelector(relayFeePerKb uint64) ports.CoinSelector {
	return &selector{relayFeePerKb}
}

func (s *selector) SelectSpendable(
	utxos []*domain.Utxo, targetAmount, feeRatePerKb uint64,
	targetType, changeType domain.OutputType,
) (*ports.SelectionResult, error) {
	if targetAmount == 0 {
		return &ports.SelectionResult{}, nil
	}

	spendable := s.spendable(utxos)
	sort.Slice(spendable, func(i, j int) bool {
		return spendable[i].Value > spendable[j].Value
	})

	selected := make([]*domain.Utxo, 0, len(spendable))
	var totalValue uint64
	for _, utxo := range spendable {
		selected = append(selected, utxo)
		totalValue += utxo.Value

		feeWithChange := feeForSelection(
			selected, targetType, outputScriptSize[changeType], feeRatePerKb,
		)
		if totalValue >= targetAmount+feeWithChange {
			change := totalValue - targetAmount - feeWithChange
			if !isDustChange(change, changeType, s.relayFeePerKb) {
				return &ports.SelectionResult{
					Utxos:  selected,
					Fee:    feeWithChange,
					Change: change,
				}, nil
			}
		}

		feeNoChange := feeForSelection(selected, targetType, 0, feeRatePerKb)
		if totalValue >= targetAmount+feeNoChange {
			// change would be dust, its value is absorbed by the fee
			return &ports.SelectionResult{
				Utxos: selected,
				Fee:   totalValue - targetAmount,
			}, nil
		}
	}

	return nil, ports.ErrInsufficientFunds
}

func (s *selector) MaxAvailable(
	utxos []*domain.Utxo, feeRatePerKb uint64, targetType domain.OutputType,
) (uint64, uint64) {
	spendable := s.spendable(utxos)
	if len(spendable) <= 0 {
		return 0, 0
	}

	var totalValue uint64
	for _, utxo := range spendable {
		totalValue += utxo.Value
	}

	fee := feeForSelection(spendable, targetType, 0, feeRatePerKb)
	if fee >= totalValue {
		return 0, fee
	}
	return totalValue - fee, fee
}

func (s *selector) spendable(utxos []*domain.Utxo) []*domain.Utxo {
	spendable := make([]*domain.Utxo, 0, len(utxos))
	for _, utxo := range utxos {
		if utxo.IsDust(s.relayFeePerKb) {
			continue
		}
		spendable = append(spendable, utxo)
	}
	return spendable
}

// feeForSelection computes the exact fee implied by spending the given utxos
// towards a single output of the target type, with an optional change output
// of the given script size. The fee is rounded up to the next satoshi.
func feeForSelection(
	selected []*domain.Utxo, targetType domain.OutputType,
	changeScriptSize int, feeRatePerKb uint64,
) uint64 {
	var numP2PKH, numP2TR, numP2WPKH, numNestedP2WPKH int
	for _, utxo := range selected {
		switch utxo.Type {
		case domain.OutputTypeP2PKH:
			numP2PKH++
		case domain.OutputTypeP2TR:
			numP2TR++
		case domain.OutputTypeP2WPKH:
			numP2WPKH++
		case domain.OutputTypeNestedP2WPKH:
			numNestedP2WPKH++
		}
	}

	outputs := []*wire.TxOut{
		wire.NewTxOut(0, make([]byte, outputScriptSize[targetType])),
	}
	vsize := txsizes.EstimateVirtualSize(
		numP2PKH, numP2TR, numP2WPKH, numNestedP2WPKH, outputs, changeScriptSize,
	)
	return feeForVirtualSize(uint64(vsize), feeRatePerKb)
}

// feeForVirtualSize rounds up, differently from txrules.FeeForSerializeSize
// which truncates. A fee is never allowed to fall below what the rate
// mandates for the size.
func feeForVirtualSize(vsize, feeRatePerKb uint64) uint64 {
	return (vsize*feeRatePerKb + 999) / 1000
}

func isDustChange(
	change uint64, changeType domain.OutputType, relayFeePerKb uint64,
) bool {
	return txrules.IsDustAmount(
		btcutil.Amount(change), outputScriptSize[changeType],
		btcutil.Amount(relayFeePerKb),
	)
}
