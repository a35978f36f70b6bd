package application_test

import (
	"fmt"
	"testing"

	"github.com/harborwallet/harbor/internal/core/application"
	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
	descending_selector "github.com/harborwallet/harbor/internal/infrastructure/coin-selector/descending"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	relayFeePerKb      = uint64(1000)
	regularRatePerKb   = uint64(5000)
	priorityRatePerKb  = uint64(11000)
	targetAddress      = "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"
	oneInOneOutFee     = uint64(705)  // 141 vB at 5 sat/vB
	oneInOneOutFeePrio = uint64(1551) // 141 vB at 11 sat/vB
	sweepFee           = uint64(895)  // 179 vB, 2 inputs no change, at 5 sat/vB
)

var (
	testAccount = domain.AccountInfo{
		Name:  "bip84-account0",
		Label: "savings",
		Kind:  domain.AccountKindHD,
	}
	testTarget = application.TxTarget{
		Address: targetAddress,
		Asset:   application.AssetBTC,
		Type:    domain.OutputTypeP2WPKH,
	}
	feeBounds = &ports.FeeBounds{MinRatePerByte: 1, MaxRatePerByte: 200}
)

// testUtxos returns a snapshot of two spendable coins worth 21 BTC in total,
// plus a dust coin and an unconfirmed one that must never take part in a
// selection.
func testUtxos() []*domain.Utxo {
	script := make([]byte, 22)
	return []*domain.Utxo{
		{Value: 1_600_000_000, Script: script, Type: domain.OutputTypeP2WPKH, Confirmations: 1, FkAccountName: testAccount.Name},
		{Value: 500_000_000, Script: script, Type: domain.OutputTypeP2WPKH, Confirmations: 6, FkAccountName: testAccount.Name},
		{Value: 500, Script: script, Type: domain.OutputTypeP2WPKH, Confirmations: 10, FkAccountName: testAccount.Name},
		{Value: 100_000_000, Script: script, Type: domain.OutputTypeP2WPKH, Confirmations: 0, FkAccountName: testAccount.Name},
	}
}

func newTxService(
	t *testing.T, utxos []*domain.Utxo,
) (*application.TransactionService, ports.RepoManager, *mockRateSource) {
	repoManager, err := newRepoManager()
	require.NoError(t, err)

	chainSource := &mockChainSource{}
	chainSource.On("UnspentOutputs", mock.Anything, mock.Anything).Return(utxos, nil)

	feeOracle := &mockFeeOracle{}
	feeOracle.On("RegularFeeRatePerKb", mock.Anything).Return(regularRatePerKb, nil)
	feeOracle.On("PriorityFeeRatePerKb", mock.Anything).Return(priorityRatePerKb, nil)
	feeOracle.On("FeeBounds", mock.Anything).Return(feeBounds, nil)

	rateSource := &mockRateSource{}

	svc := application.NewTransactionService(
		repoManager, chainSource, feeOracle,
		descending_selector.NewDescendingCoinSelector(relayFeePerKb),
		rateSource, application.AssetBTC, "USD", false,
	)
	return svc, repoManager, rateSource
}

func TestInitialiseTx(t *testing.T) {
	svc, repoManager, _ := newTxService(t, testUtxos())

	engine := svc.NewEngine()
	engine.Start(testAccount, testTarget)

	tx, err := engine.InitialiseTx(ctx)
	require.NoError(t, err)
	require.NotNil(t, tx)
	require.Zero(t, tx.Amount)
	require.Equal(t, "USD", tx.SelectedFiat)
	require.Equal(t, application.DustFloor, tx.Limits.Min)
	require.Equal(t, application.MaxSpendableAmount, tx.Limits.Max)
	require.Equal(t, domain.FeeLevelRegular, tx.FeeSelection.SelectedLevel)
	require.Equal(t, domain.CustomFeeSentinel, tx.FeeSelection.CustomAmount)
	require.Len(t, tx.FeeSelection.AvailableLevels, 3)
	require.Equal(t, domain.ValidationUninitialised, tx.ValidationState)

	// a remembered preference survives across builder sessions.
	err = repoManager.FeePreferenceRepository().SetFeeLevel(
		ctx, application.AssetBTC, domain.FeeLevelPriority,
	)
	require.NoError(t, err)

	tx, err = engine.InitialiseTx(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.FeeLevelPriority, tx.FeeSelection.SelectedLevel)
}

func TestUpdateAmount(t *testing.T) {
	svc, _, _ := newTxService(t, testUtxos())

	engine := svc.NewEngine()
	engine.Start(testAccount, testTarget)

	tx, err := engine.InitialiseTx(ctx)
	require.NoError(t, err)

	updated, err := engine.UpdateAmount(ctx, 200_000_000, *tx)
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, uint64(200_000_000), updated.Amount)
	require.Equal(t, oneInOneOutFee, updated.FeeAmount)
	require.Equal(t, uint64(2_100_000_000), updated.TotalBalance)
	require.Equal(t, uint64(2_099_999_105), updated.AvailableBalance)
	require.Equal(t, sweepFee, updated.FeeForFullAvailable)
	require.Equal(t, domain.ValidationCanExecute, updated.ValidationState)
	// the total balance is always what the sweep would move plus its fee.
	require.Equal(
		t, updated.TotalBalance, updated.AvailableBalance+updated.FeeForFullAvailable,
	)

	t.Run("zero_amount", func(t *testing.T) {
		updated, err := engine.UpdateAmount(ctx, 0, *tx)
		require.NoError(t, err)
		require.Zero(t, updated.FeeAmount)
		require.Equal(t, domain.ValidationInvalidAmount, updated.ValidationState)
	})

	t.Run("under_min_limit", func(t *testing.T) {
		updated, err := engine.UpdateAmount(ctx, 100, *tx)
		require.NoError(t, err)
		require.Equal(t, domain.ValidationUnderMinLimit, updated.ValidationState)
	})

	t.Run("over_max_limit", func(t *testing.T) {
		updated, err := engine.UpdateAmount(ctx, application.MaxSpendableAmount+1, *tx)
		require.NoError(t, err)
		require.Equal(t, domain.ValidationOverMaxLimit, updated.ValidationState)
	})

	t.Run("insufficient_funds", func(t *testing.T) {
		// one satoshi more than the sweep can move.
		updated, err := engine.UpdateAmount(ctx, 2_099_999_106, *tx)
		require.NoError(t, err)
		require.Equal(t, domain.ValidationInsufficientFunds, updated.ValidationState)
	})

	t.Run("chain_source_failure", func(t *testing.T) {
		repoManager, err := newRepoManager()
		require.NoError(t, err)

		expectedErr := fmt.Errorf("chain source unreachable")
		chainSource := &mockChainSource{}
		chainSource.On("UnspentOutputs", mock.Anything, mock.Anything).
			Return(nil, expectedErr)

		svc := application.NewTransactionService(
			repoManager, chainSource, &mockFeeOracle{},
			descending_selector.NewDescendingCoinSelector(relayFeePerKb),
			&mockRateSource{}, application.AssetBTC, "USD", false,
		)
		engine := svc.NewEngine()
		engine.Start(testAccount, testTarget)

		updated, err := engine.UpdateAmount(ctx, 200_000_000, *tx)
		require.Nil(t, updated)
		require.EqualError(t, err, expectedErr.Error())
	})
}

func TestUpdateFeeLevel(t *testing.T) {
	svc, repoManager, _ := newTxService(t, testUtxos())

	engine := svc.NewEngine()
	engine.Start(testAccount, testTarget)

	tx, err := engine.InitialiseTx(ctx)
	require.NoError(t, err)
	regular, err := engine.UpdateAmount(ctx, 200_000_000, *tx)
	require.NoError(t, err)
	require.Equal(t, oneInOneOutFee, regular.FeeAmount)

	priority, err := engine.UpdateFeeLevel(
		ctx, *regular, domain.FeeLevelPriority, 0,
	)
	require.NoError(t, err)
	require.Equal(t, domain.FeeLevelPriority, priority.FeeSelection.SelectedLevel)
	require.Equal(t, oneInOneOutFeePrio, priority.FeeAmount)
	require.Greater(t, priority.FeeAmount, regular.FeeAmount)

	// the resolved level is remembered for the asset.
	level, err := repoManager.FeePreferenceRepository().GetFeeLevel(
		ctx, application.AssetBTC,
	)
	require.NoError(t, err)
	require.Equal(t, domain.FeeLevelPriority, level)

	t.Run("noop_switch", func(t *testing.T) {
		same, err := engine.UpdateFeeLevel(ctx, *priority, domain.FeeLevelPriority, 0)
		require.NoError(t, err)
		require.True(t, priority.Equals(*same))
	})

	t.Run("custom_rate", func(t *testing.T) {
		custom, err := engine.UpdateFeeLevel(ctx, *priority, domain.FeeLevelCustom, 12)
		require.NoError(t, err)
		require.Equal(t, domain.FeeLevelCustom, custom.FeeSelection.SelectedLevel)
		require.Equal(t, int64(12), custom.FeeSelection.CustomAmount)
		require.Equal(t, uint64(1692), custom.FeeAmount) // 141 vB at 12 sat/vB

		// switching away resets the custom rate to its sentinel.
		back, err := engine.UpdateFeeLevel(ctx, *custom, domain.FeeLevelRegular, 0)
		require.NoError(t, err)
		require.Equal(t, domain.CustomFeeSentinel, back.FeeSelection.CustomAmount)
		require.Equal(t, oneInOneOutFee, back.FeeAmount)

		// the custom rate never outlives the builder session.
		fresh, err := engine.InitialiseTx(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.CustomFeeSentinel, fresh.FeeSelection.CustomAmount)
	})

	t.Run("level_none", func(t *testing.T) {
		updated, err := engine.UpdateFeeLevel(ctx, *regular, domain.FeeLevelNone, 0)
		require.Nil(t, updated)
		require.EqualError(t, err, domain.ErrFeeLevelNotAvailable.Error())
	})

	t.Run("custom_without_rate", func(t *testing.T) {
		updated, err := engine.UpdateFeeLevel(ctx, *regular, domain.FeeLevelCustom, 0)
		require.Nil(t, updated)
		require.EqualError(t, err, domain.ErrFeeLevelMissingRate.Error())
	})

	t.Run("chain_source_failure", func(t *testing.T) {
		repoManager, err := newRepoManager()
		require.NoError(t, err)

		expectedErr := fmt.Errorf("chain source unreachable")
		chainSource := &mockChainSource{}
		chainSource.On("UnspentOutputs", mock.Anything, mock.Anything).
			Return(nil, expectedErr)

		svc := application.NewTransactionService(
			repoManager, chainSource, &mockFeeOracle{},
			descending_selector.NewDescendingCoinSelector(relayFeePerKb),
			&mockRateSource{}, application.AssetBTC, "USD", false,
		)
		engine := svc.NewEngine()
		engine.Start(testAccount, testTarget)

		updated, err := engine.UpdateFeeLevel(ctx, *regular, domain.FeeLevelPriority, 0)
		require.Nil(t, updated)
		require.EqualError(t, err, expectedErr.Error())

		// a failed switch must not advance the remembered preference.
		level, err := repoManager.FeePreferenceRepository().GetFeeLevel(
			ctx, application.AssetBTC,
		)
		require.NoError(t, err)
		require.Equal(t, domain.FeeLevelRegular, level)
	})
}

func TestValidateAll(t *testing.T) {
	svc, _, _ := newTxService(t, testUtxos())

	engine := svc.NewEngine()
	engine.Start(testAccount, testTarget)

	tx, err := engine.InitialiseTx(ctx)
	require.NoError(t, err)
	updated, err := engine.UpdateAmount(ctx, 200_000_000, *tx)
	require.NoError(t, err)

	validated, err := engine.ValidateAll(ctx, *updated)
	require.NoError(t, err)
	require.Equal(t, domain.ValidationCanExecute, validated.ValidationState)

	t.Run("custom_rate_within_bounds", func(t *testing.T) {
		custom, err := engine.UpdateFeeLevel(ctx, *updated, domain.FeeLevelCustom, 12)
		require.NoError(t, err)

		validated, err := engine.ValidateAll(ctx, *custom)
		require.NoError(t, err)
		require.Equal(t, domain.ValidationCanExecute, validated.ValidationState)
	})

	t.Run("custom_rate_out_of_bounds", func(t *testing.T) {
		custom, err := engine.UpdateFeeLevel(ctx, *updated, domain.FeeLevelCustom, 300)
		require.NoError(t, err)

		validated, err := engine.ValidateAll(ctx, *custom)
		require.NoError(t, err)
		require.Equal(t, domain.ValidationInvalidFee, validated.ValidationState)
	})
}

func TestBuildConfirmations(t *testing.T) {
	svc, _, rateSource := newTxService(t, testUtxos())
	rateSource.On("Rate", mock.Anything, application.AssetBTC).
		Return(decimal.RequireFromString("64000"), nil)

	engine := svc.NewEngine()
	engine.Start(testAccount, testTarget)

	tx, err := engine.InitialiseTx(ctx)
	require.NoError(t, err)
	updated, err := engine.UpdateAmount(ctx, 200_000_000, *tx)
	require.NoError(t, err)

	confirmed, err := engine.BuildConfirmations(ctx, *updated)
	require.NoError(t, err)
	require.Len(t, confirmed.Confirmations, 4)

	from := confirmed.Confirmations[0]
	require.Equal(t, domain.ConfirmationFrom, from.Kind)
	require.Equal(t, testAccount.Label, from.Label)

	to := confirmed.Confirmations[1]
	require.Equal(t, domain.ConfirmationTo, to.Kind)
	require.Equal(t, targetAddress, to.Label)

	fee := confirmed.Confirmations[2]
	require.Equal(t, domain.ConfirmationNetworkFee, fee.Kind)
	require.Equal(t, oneInOneOutFee, fee.Amount)
	require.NotNil(t, fee.Fiat)
	// 705 sats at 64000 USD/BTC.
	require.True(t, fee.Fiat.Equal(decimal.RequireFromString("0.4512")))

	total := confirmed.Confirmations[3]
	require.Equal(t, domain.ConfirmationTotal, total.Kind)
	require.Equal(t, uint64(200_000_705), total.Amount)
	require.NotNil(t, total.Fiat)
	require.True(t, total.Fiat.Equal(decimal.RequireFromString("128000.4512")))

	t.Run("rate_source_failure", func(t *testing.T) {
		svc, _, rateSource := newTxService(t, testUtxos())
		rateSource.On("Rate", mock.Anything, application.AssetBTC).
			Return(nil, fmt.Errorf("rate source unreachable"))

		engine := svc.NewEngine()
		engine.Start(testAccount, testTarget)

		confirmed, err := engine.BuildConfirmations(ctx, *updated)
		require.NoError(t, err)
		require.Len(t, confirmed.Confirmations, 4)
		for _, c := range confirmed.Confirmations {
			require.Nil(t, c.Fiat)
		}
	})
}

func TestBuildConfirmationsLargeTxWarning(t *testing.T) {
	// many small coins force a heavy transaction whose fee trips every
	// threshold of the large tx heuristic.
	script := make([]byte, 22)
	utxos := make([]*domain.Utxo, 0, 60)
	for i := 0; i < 60; i++ {
		utxos = append(utxos, &domain.Utxo{
			UtxoKey:       domain.UtxoKey{TxID: fmt.Sprintf("%064d", i), VOut: 0},
			Value:         100_000,
			Script:        script,
			Type:          domain.OutputTypeP2WPKH,
			Confirmations: 1,
			FkAccountName: testAccount.Name,
		})
	}

	svc, _, rateSource := newTxService(t, utxos)
	rateSource.On("Rate", mock.Anything, application.AssetBTC).
		Return(decimal.RequireFromString("64000"), nil)

	engine := svc.NewEngine()
	engine.Start(testAccount, testTarget)

	tx, err := engine.InitialiseTx(ctx)
	require.NoError(t, err)
	custom, err := engine.UpdateFeeLevel(ctx, *tx, domain.FeeLevelCustom, 50)
	require.NoError(t, err)
	updated, err := engine.UpdateAmount(ctx, 4_000_000, *custom)
	require.NoError(t, err)
	require.Equal(t, domain.ValidationCanExecute, updated.ValidationState)

	confirmed, err := engine.BuildConfirmations(ctx, *updated)
	require.NoError(t, err)
	require.Len(t, confirmed.Confirmations, 5)

	warning := confirmed.Confirmations[4]
	require.Equal(t, domain.ConfirmationWarningLargeTx, warning.Kind)
	require.Equal(t, updated.FeeAmount, warning.Amount)
	require.NotNil(t, warning.Fiat)
}

func TestEngineMisuse(t *testing.T) {
	svc, _, _ := newTxService(t, testUtxos())

	t.Run("operation_before_start", func(t *testing.T) {
		engine := svc.NewEngine()
		require.Panics(t, func() {
			engine.InitialiseTx(ctx)
		})
	})

	t.Run("target_asset_mismatch", func(t *testing.T) {
		engine := svc.NewEngine()
		require.Panics(t, func() {
			engine.Start(testAccount, application.TxTarget{
				Address: targetAddress,
				Asset:   application.AssetBCH,
				Type:    domain.OutputTypeP2WPKH,
			})
		})
	})
}
