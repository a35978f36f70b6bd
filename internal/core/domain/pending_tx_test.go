package domain_test

import (
	"testing"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func newPendingTx() domain.PendingTx {
	return domain.PendingTx{
		SelectedFiat: "USD",
		Limits:       domain.Limits{Min: 546, Max: 2_100_000_000_000_000},
		FeeSelection: domain.FeeSelection{
			SelectedLevel: domain.FeeLevelRegular,
			AvailableLevels: []domain.FeeLevel{
				domain.FeeLevelRegular, domain.FeeLevelPriority,
				domain.FeeLevelCustom,
			},
			CustomAmount: domain.CustomFeeSentinel,
			Asset:        "BTC",
		},
		ValidationState: domain.ValidationUninitialised,
	}
}

func TestPendingTxCopyOnWrite(t *testing.T) {
	tx := newPendingTx()

	updated := tx.WithAmounts(200_000_000, 2_100_000_000, 2_099_999_105, 705, 895)
	require.Zero(t, tx.Amount)
	require.Equal(t, uint64(200_000_000), updated.Amount)
	require.Equal(t, uint64(2_100_000_000), updated.TotalBalance)
	require.Equal(t, uint64(2_099_999_105), updated.AvailableBalance)
	require.Equal(t, uint64(705), updated.FeeAmount)
	require.Equal(t, uint64(895), updated.FeeForFullAvailable)

	validated := updated.WithValidationState(domain.ValidationCanExecute)
	require.Equal(t, domain.ValidationUninitialised, updated.ValidationState)
	require.Equal(t, domain.ValidationCanExecute, validated.ValidationState)
}

func TestPendingTxEngineState(t *testing.T) {
	tx := newPendingTx()

	withState := tx.WithEngineState("rate", uint64(5000))
	v, ok := withState.EngineValue("rate")
	require.True(t, ok)
	require.Equal(t, uint64(5000), v)

	// the scratch map of the receiver is never shared.
	_, ok = tx.EngineValue("rate")
	require.False(t, ok)

	overwritten := withState.WithEngineState("rate", uint64(11000))
	v, _ = withState.EngineValue("rate")
	require.Equal(t, uint64(5000), v)
	v, _ = overwritten.EngineValue("rate")
	require.Equal(t, uint64(11000), v)
}

func TestPendingTxEquals(t *testing.T) {
	tx := newPendingTx()

	t.Run("ignores_engine_state", func(t *testing.T) {
		withState := tx.WithEngineState("rate", uint64(5000))
		require.True(t, tx.Equals(withState))
	})

	t.Run("detects_amount_change", func(t *testing.T) {
		updated := tx.WithAmounts(100, 0, 0, 0, 0)
		require.False(t, tx.Equals(updated))
	})

	t.Run("detects_fee_selection_change", func(t *testing.T) {
		selection := tx.FeeSelection
		selection.SelectedLevel = domain.FeeLevelPriority
		require.False(t, tx.Equals(tx.WithFeeSelection(selection)))
	})

	t.Run("detects_custom_rate_change", func(t *testing.T) {
		selection := tx.FeeSelection
		selection.SelectedLevel = domain.FeeLevelCustom
		selection.CustomAmount = 12
		withCustom := tx.WithFeeSelection(selection)

		same := withCustom.WithFeeSelection(selection)
		require.True(t, withCustom.Equals(same))

		selection.CustomAmount = 13
		require.False(t, withCustom.Equals(tx.WithFeeSelection(selection)))
	})
}

func TestFeeSelectionIsAvailable(t *testing.T) {
	selection := newPendingTx().FeeSelection
	require.True(t, selection.IsAvailable(domain.FeeLevelRegular))
	require.True(t, selection.IsAvailable(domain.FeeLevelPriority))
	require.True(t, selection.IsAvailable(domain.FeeLevelCustom))
	require.False(t, selection.IsAvailable(domain.FeeLevelNone))
}
