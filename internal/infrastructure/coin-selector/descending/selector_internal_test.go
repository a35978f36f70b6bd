package descending_selector

import (
	"testing"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
	"github.com/stretchr/testify/require"
)

const (
	relayFeePerKb     = uint64(1000)
	regularFeePerKb   = uint64(5000)
	priorityFeePerKb  = uint64(11000)
	oneInOneOutChange = 141 // 1 p2wpkh in, 1 p2wpkh out, p2wpkh change
	twoInsOneOutNoChg = 179
	fiveBTC           = uint64(500_000_000)
	sixteenBTC        = uint64(1_600_000_000)
	twentyOneBTC      = fiveBTC + sixteenBTC
	twoBTC            = uint64(200_000_000)
)

func makeUtxos(values ...uint64) []*domain.Utxo {
	utxos := make([]*domain.Utxo, 0, len(values))
	for i, v := range values {
		utxos = append(utxos, &domain.Utxo{
			UtxoKey: domain.UtxoKey{
				TxID: "0000000000000000000000000000000000000000000000000000000000000000",
				VOut: uint32(i),
			},
			Value:         v,
			Script:        make([]byte, 22),
			Type:          domain.OutputTypeP2WPKH,
			Confirmations: 6,
		})
	}
	return utxos
}

func TestSelectSpendable(t *testing.T) {
	s := NewDescendingCoinSelector(relayFeePerKb)

	t.Run("covers amount with largest utxo and size based fee", func(t *testing.T) {
		utxos := makeUtxos(fiveBTC, sixteenBTC)
		result, err := s.SelectSpendable(
			utxos, twoBTC, regularFeePerKb,
			domain.OutputTypeP2WPKH, domain.OutputTypeP2WPKH,
		)
		require.NoError(t, err)
		require.Len(t, result.Utxos, 1)
		require.Equal(t, sixteenBTC, result.Utxos[0].Value)
		require.Equal(t, uint64(oneInOneOutChange*regularFeePerKb/1000), result.Fee)
		require.Equal(t, sixteenBTC-twoBTC-result.Fee, result.Change)
	})

	t.Run("fee grows with the rate for the same amount", func(t *testing.T) {
		utxos := makeUtxos(fiveBTC, sixteenBTC)
		regular, err := s.SelectSpendable(
			utxos, twoBTC, regularFeePerKb,
			domain.OutputTypeP2WPKH, domain.OutputTypeP2WPKH,
		)
		require.NoError(t, err)
		priority, err := s.SelectSpendable(
			utxos, twoBTC, priorityFeePerKb,
			domain.OutputTypeP2WPKH, domain.OutputTypeP2WPKH,
		)
		require.NoError(t, err)
		require.Greater(t, priority.Fee, regular.Fee)
	})

	t.Run("dust change is absorbed by the fee", func(t *testing.T) {
		utxos := makeUtxos(1_000_000)
		target := uint64(999_700)
		result, err := s.SelectSpendable(
			utxos, target, relayFeePerKb,
			domain.OutputTypeP2WPKH, domain.OutputTypeP2WPKH,
		)
		require.NoError(t, err)
		require.Len(t, result.Utxos, 1)
		require.Zero(t, result.Change)
		require.Equal(t, uint64(1_000_000)-target, result.Fee)
	})

	t.Run("dust utxos never take part in a selection", func(t *testing.T) {
		utxos := makeUtxos(fiveBTC, sixteenBTC, 400)
		result, err := s.SelectSpendable(
			utxos, twentyOneBTC-1_000_000, regularFeePerKb,
			domain.OutputTypeP2WPKH, domain.OutputTypeP2WPKH,
		)
		require.NoError(t, err)
		require.Len(t, result.Utxos, 2)
		for _, utxo := range result.Utxos {
			require.NotEqual(t, uint64(400), utxo.Value)
		}
	})

	t.Run("insufficient funds", func(t *testing.T) {
		utxos := makeUtxos(fiveBTC, sixteenBTC)
		result, err := s.SelectSpendable(
			utxos, twentyOneBTC+1, regularFeePerKb,
			domain.OutputTypeP2WPKH, domain.OutputTypeP2WPKH,
		)
		require.ErrorIs(t, err, ports.ErrInsufficientFunds)
		require.Nil(t, result)
	})

	t.Run("zero amount yields empty selection", func(t *testing.T) {
		utxos := makeUtxos(fiveBTC)
		result, err := s.SelectSpendable(
			utxos, 0, regularFeePerKb,
			domain.OutputTypeP2WPKH, domain.OutputTypeP2WPKH,
		)
		require.NoError(t, err)
		require.Empty(t, result.Utxos)
		require.Zero(t, result.Fee)
	})
}

func TestMaxAvailable(t *testing.T) {
	s := NewDescendingCoinSelector(relayFeePerKb)

	t.Run("sweep reserves the all inputs fee", func(t *testing.T) {
		utxos := makeUtxos(fiveBTC, sixteenBTC)
		max, fee := s.MaxAvailable(utxos, regularFeePerKb, domain.OutputTypeP2WPKH)
		require.Equal(t, uint64(twoInsOneOutNoChg*regularFeePerKb/1000), fee)
		require.Equal(t, twentyOneBTC-fee, max)
		require.Equal(t, twentyOneBTC, max+fee)
	})

	t.Run("dust utxos are excluded from the sweepable amount", func(t *testing.T) {
		utxos := makeUtxos(fiveBTC, sixteenBTC, 400)
		max, fee := s.MaxAvailable(utxos, regularFeePerKb, domain.OutputTypeP2WPKH)
		require.Equal(t, twentyOneBTC, max+fee)
	})

	t.Run("no spendable utxos", func(t *testing.T) {
		max, fee := s.MaxAvailable(nil, regularFeePerKb, domain.OutputTypeP2WPKH)
		require.Zero(t, max)
		require.Zero(t, fee)
	})

	t.Run("fee exceeding the total yields zero available", func(t *testing.T) {
		utxos := makeUtxos(600)
		max, fee := s.MaxAvailable(utxos, 100_000_000, domain.OutputTypeP2WPKH)
		require.Zero(t, max)
		require.Greater(t, fee, uint64(600))
	})
}

func TestFeeForVirtualSize(t *testing.T) {
	require.Equal(t, uint64(705), feeForVirtualSize(oneInOneOutChange, regularFeePerKb))
	require.Equal(t, uint64(1), feeForVirtualSize(1, 1))
	// rounding always goes up, never down
	require.Equal(t, uint64(2), feeForVirtualSize(1, 1001))
	require.Equal(t, uint64(142), feeForVirtualSize(oneInOneOutChange, 1001))
}
