package application

import (
	"context"
	"fmt"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Engine scratch space keys.
const (
	stateKeySelection   = "selection"
	stateKeyRegularFee  = "regularFee"
	stateKeyPriorityFee = "priorityFee"
	stateKeyFeeRate     = "feeRatePerKb"
)

var (
	// Large transaction warning thresholds: a confirmation gets flagged when
	// the fee is worth more than half a fiat unit, the tx is heavier than
	// 1 kvB and the fee eats more than 1% of the amount.
	largeTxFeeFiat  = decimal.NewFromFloat(0.5)
	largeTxSize     = uint64(1024)
	largeTxFeeRatio = uint64(100)

	satsPerCoin = decimal.NewFromInt(100_000_000)
)

// TransactionService is the factory of transaction engines. It holds the
// ports every builder session needs: the chain source for utxo snapshots,
// the fee oracle, the coin selector and the per-asset fee level store.
type TransactionService struct {
	repoManager  ports.RepoManager
	chainSource  ports.ChainSource
	feeOracle    ports.FeeOracle
	coinSelector ports.CoinSelector
	rateSource   ports.RateSource
	asset        string
	fiatCurrency string

	allowUnconfirmed bool

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewTransactionService(
	repoManager ports.RepoManager, chainSource ports.ChainSource,
	feeOracle ports.FeeOracle, coinSelector ports.CoinSelector,
	rateSource ports.RateSource, asset, fiatCurrency string,
	allowUnconfirmed bool,
) *TransactionService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("transaction service: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("transaction service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	return &TransactionService{
		repoManager, chainSource, feeOracle, coinSelector, rateSource,
		asset, fiatCurrency, allowUnconfirmed, logFn, warnFn,
	}
}

// NewEngine returns a fresh, unbound transaction engine. Start must be
// called exactly once before any other operation.
func (ts *TransactionService) NewEngine() *TransactionEngine {
	return &TransactionEngine{svc: ts}
}

// TransactionEngine is the state machine building one prospective
// transaction from one source account towards one target. Every operation
// is a synchronous pure transform returning a new PendingTx, I/O happens
// once per update call and is never cached within the engine. A single
// engine serves a single builder session and must not be shared across
// concurrent flows.
type TransactionEngine struct {
	svc     *TransactionService
	account domain.AccountInfo
	target  TxTarget
	started bool
}

// Start binds the engine to its source account and destination target.
// Binding a target of a different asset than the engine's is a wiring bug
// of the caller and aborts the process.
func (e *TransactionEngine) Start(account domain.AccountInfo, target TxTarget) {
	e.account = account
	e.target = target
	e.started = true
	e.assertInputsValid()
}

// InitialiseTx returns the zero-amount PendingTx a builder session starts
// from, carrying the wallet limits and the fee level remembered for the
// asset. Idempotent and side-effect free beyond reading the stored
// preference.
func (e *TransactionEngine) InitialiseTx(ctx context.Context) (*domain.PendingTx, error) {
	e.assertInputsValid()

	level, err := e.svc.repoManager.FeePreferenceRepository().GetFeeLevel(
		ctx, e.svc.asset,
	)
	if err != nil {
		return nil, err
	}

	return &domain.PendingTx{
		SelectedFiat: e.svc.fiatCurrency,
		Limits: domain.Limits{
			Min: DustFloor,
			Max: MaxSpendableAmount,
		},
		FeeSelection: domain.FeeSelection{
			SelectedLevel:   level,
			AvailableLevels: availableFeeLevels,
			CustomAmount:    domain.CustomFeeSentinel,
			Asset:           e.svc.asset,
		},
		ValidationState: domain.ValidationUninitialised,
	}, nil
}

// UpdateAmount fetches a fresh utxo snapshot and both network fee rates,
// reselects coins for the currently selected fee level and returns a
// PendingTx with refreshed amount, balance and fee figures. The available
// balance always answers "what could I send if I swept everything",
// independently of the requested amount. Any I/O failure propagates and
// leaves the given PendingTx as the last known good value.
func (e *TransactionEngine) UpdateAmount(
	ctx context.Context, amount uint64, tx domain.PendingTx,
) (*domain.PendingTx, error) {
	e.assertInputsValid()

	utxos, err := e.svc.chainSource.UnspentOutputs(ctx, e.account)
	if err != nil {
		return nil, err
	}
	spendable := e.spendable(utxos)

	regularRate, err := e.svc.feeOracle.RegularFeeRatePerKb(ctx)
	if err != nil {
		return nil, err
	}
	priorityRate, err := e.svc.feeOracle.PriorityFeeRatePerKb(ctx)
	if err != nil {
		return nil, err
	}

	selectedRate := resolveRatePerKb(tx.FeeSelection, regularRate, priorityRate)
	available, feeForFullAvailable := e.svc.coinSelector.MaxAvailable(
		spendable, selectedRate, e.target.Type,
	)
	totalBalance := available + feeForFullAvailable

	var feeAmount uint64
	selection := Utxos{}
	result, err := e.svc.coinSelector.SelectSpendable(
		spendable, amount, selectedRate, e.target.Type, e.changeType(),
	)
	if err != nil && err != ports.ErrInsufficientFunds {
		return nil, err
	}
	if err == nil {
		feeAmount = result.Fee
		selection = Utxos(result.Utxos)
	}

	// both tiers are always quoted so consumers can render them without
	// another round trip
	regularFee := e.quoteFee(spendable, amount, regularRate)
	priorityFee := e.quoteFee(spendable, amount, priorityRate)

	newTx := tx.
		WithAmounts(amount, totalBalance, available, feeAmount, feeForFullAvailable).
		WithEngineState(stateKeySelection, selection).
		WithEngineState(stateKeyRegularFee, regularFee).
		WithEngineState(stateKeyPriorityFee, priorityFee).
		WithEngineState(stateKeyFeeRate, selectedRate)
	newTx = newTx.WithValidationState(validateAmount(newTx, selection))
	return &newTx, nil
}

// UpdateFeeLevel switches the fee tier of the pending tx. Switching to the
// level already selected with the same custom rate is a structural no-op.
// The resolved level is persisted as the asset's remembered preference,
// while a custom rate only lives within the returned PendingTx. Every
// effective switch reselects coins at the new rate.
func (e *TransactionEngine) UpdateFeeLevel(
	ctx context.Context, tx domain.PendingTx,
	level domain.FeeLevel, customRatePerByte int64,
) (*domain.PendingTx, error) {
	e.assertInputsValid()

	if level == domain.FeeLevelNone || !tx.FeeSelection.IsAvailable(level) {
		return nil, domain.ErrFeeLevelNotAvailable
	}
	if level == domain.FeeLevelCustom && customRatePerByte <= 0 {
		return nil, domain.ErrFeeLevelMissingRate
	}
	if level != domain.FeeLevelCustom {
		customRatePerByte = domain.CustomFeeSentinel
	}
	if level == tx.FeeSelection.SelectedLevel &&
		customRatePerByte == tx.FeeSelection.CustomAmount {
		return &tx, nil
	}

	selection := tx.FeeSelection
	selection.SelectedLevel = level
	selection.CustomAmount = customRatePerByte

	newTx, err := e.UpdateAmount(ctx, tx.Amount, tx.WithFeeSelection(selection))
	if err != nil {
		return nil, err
	}

	// the preference advances only once the reselection at the new rate
	// succeeded, a failed switch leaves the remembered level untouched.
	if err := e.svc.repoManager.FeePreferenceRepository().SetFeeLevel(
		ctx, e.svc.asset, level,
	); err != nil {
		return nil, err
	}

	e.svc.log(
		"switched fee level to %s for asset %s", level, e.svc.asset,
	)
	return newTx, nil
}

// ValidateAll runs the full validation chain over the pending tx: amount
// bounds, sufficient funds and, for a custom fee, the network rate bounds.
// Custom rates outside the bounds are rejected, never clamped.
func (e *TransactionEngine) ValidateAll(
	ctx context.Context, tx domain.PendingTx,
) (*domain.PendingTx, error) {
	e.assertInputsValid()

	selection := e.selection(tx)
	state := validateAmount(tx, selection)

	if state == domain.ValidationCanExecute &&
		tx.FeeSelection.SelectedLevel == domain.FeeLevelCustom {
		bounds, err := e.svc.feeOracle.FeeBounds(ctx)
		if err != nil {
			return nil, err
		}
		custom := tx.FeeSelection.CustomAmount
		if custom == domain.CustomFeeSentinel || !bounds.Contains(uint64(custom)) {
			state = domain.ValidationInvalidFee
		}
	}

	newTx := tx.WithValidationState(state)
	return &newTx, nil
}

// BuildConfirmations assembles the ordered confirmation line items shown
// before signing, annotated with fiat values when a rate is available. A
// failed rate fetch only drops the annotation. Large transactions get an
// extra warning line.
func (e *TransactionEngine) BuildConfirmations(
	ctx context.Context, tx domain.PendingTx,
) (*domain.PendingTx, error) {
	e.assertInputsValid()

	var rate *decimal.Decimal
	if r, err := e.svc.rateSource.Rate(ctx, e.svc.asset); err != nil {
		e.svc.warn(err, "skipping fiat annotation for confirmations")
	} else {
		rate = &r
	}

	fiat := func(sats uint64) *decimal.Decimal {
		if rate == nil {
			return nil
		}
		v := rate.Mul(decimal.NewFromInt(int64(sats))).Div(satsPerCoin)
		return &v
	}

	confirmations := []domain.TxConfirmation{
		{Kind: domain.ConfirmationFrom, Label: e.account.Label},
		{Kind: domain.ConfirmationTo, Label: e.target.Address},
		{
			Kind:   domain.ConfirmationNetworkFee,
			Amount: tx.FeeAmount,
			Fiat:   fiat(tx.FeeAmount),
		},
		{
			Kind:   domain.ConfirmationTotal,
			Amount: tx.Amount + tx.FeeAmount,
			Fiat:   fiat(tx.Amount + tx.FeeAmount),
		},
	}
	if rate != nil && e.isLargeTransaction(tx, *rate) {
		confirmations = append(confirmations, domain.TxConfirmation{
			Kind:   domain.ConfirmationWarningLargeTx,
			Amount: tx.FeeAmount,
			Fiat:   fiat(tx.FeeAmount),
		})
	}

	newTx := tx.WithConfirmations(confirmations)
	return &newTx, nil
}

// assertInputsValid aborts on engine misuse: operating before Start or
// binding a target of the wrong asset indicates the caller wired the wrong
// engine, not a recoverable user error.
func (e *TransactionEngine) assertInputsValid() {
	if !e.started {
		panic("transaction engine: operation invoked before start")
	}
	if e.target.Asset != e.svc.asset {
		panic(fmt.Sprintf(
			"transaction engine: target asset %s does not match engine asset %s",
			e.target.Asset, e.svc.asset,
		))
	}
}

func (e *TransactionEngine) spendable(utxos []*domain.Utxo) []*domain.Utxo {
	if e.svc.allowUnconfirmed {
		return utxos
	}
	spendable := make([]*domain.Utxo, 0, len(utxos))
	for _, utxo := range utxos {
		if utxo.IsConfirmed() {
			spendable = append(spendable, utxo)
		}
	}
	return spendable
}

// quoteFee returns the absolute fee a selection at the given rate would
// imply, or zero when the amount cannot be covered.
func (e *TransactionEngine) quoteFee(
	utxos []*domain.Utxo, amount, feeRatePerKb uint64,
) uint64 {
	result, err := e.svc.coinSelector.SelectSpendable(
		utxos, amount, feeRatePerKb, e.target.Type, e.changeType(),
	)
	if err != nil {
		return 0
	}
	return result.Fee
}

func (e *TransactionEngine) changeType() domain.OutputType {
	if e.account.Kind == domain.AccountKindImported {
		return domain.OutputTypeP2PKH
	}
	return domain.OutputTypeP2WPKH
}

func (e *TransactionEngine) selection(tx domain.PendingTx) Utxos {
	if v, ok := tx.EngineValue(stateKeySelection); ok {
		if selection, ok := v.(Utxos); ok {
			return selection
		}
	}
	return nil
}

// isLargeTransaction mirrors the wallet heuristic flagging spends whose fee
// is expensive in fiat, heavy in size and over 1% of the moved amount.
func (e *TransactionEngine) isLargeTransaction(
	tx domain.PendingTx, rate decimal.Decimal,
) bool {
	if tx.Amount == 0 {
		return false
	}
	feeFiat := rate.Mul(decimal.NewFromInt(int64(tx.FeeAmount))).Div(satsPerCoin)

	var vsize uint64
	if v, ok := tx.EngineValue(stateKeyFeeRate); ok {
		if ratePerKb, ok := v.(uint64); ok && ratePerKb > 0 {
			vsize = tx.FeeAmount * 1000 / ratePerKb
		}
	}

	return feeFiat.GreaterThan(largeTxFeeFiat) &&
		vsize > largeTxSize &&
		tx.FeeAmount > tx.Amount/largeTxFeeRatio
}

// resolveRatePerKb maps the selected fee tier to a rate in sat/kvB. A
// custom tier without a rate yet falls back to the regular one until the
// caller provides it.
func resolveRatePerKb(
	selection domain.FeeSelection, regularRate, priorityRate uint64,
) uint64 {
	switch selection.SelectedLevel {
	case domain.FeeLevelPriority:
		return priorityRate
	case domain.FeeLevelCustom:
		if selection.CustomAmount > 0 {
			return uint64(selection.CustomAmount) * 1000
		}
		return regularRate
	default:
		return regularRate
	}
}

func validateAmount(tx domain.PendingTx, selection Utxos) domain.ValidationState {
	switch {
	case tx.Amount == 0:
		return domain.ValidationInvalidAmount
	case tx.Amount < tx.Limits.Min:
		return domain.ValidationUnderMinLimit
	case tx.Amount > tx.Limits.Max:
		return domain.ValidationOverMaxLimit
	case tx.AvailableBalance < tx.Amount || len(selection) == 0:
		return domain.ValidationInsufficientFunds
	default:
		return domain.ValidationCanExecute
	}
}
