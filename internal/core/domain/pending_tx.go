package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CustomFeeSentinel is the value carried by a fee selection whenever no
// custom rate has been provided.
const CustomFeeSentinel = int64(-1)

const (
	FeeLevelNone FeeLevel = iota
	FeeLevelRegular
	FeeLevelPriority
	FeeLevelCustom
)

const (
	ValidationUninitialised ValidationState = iota
	ValidationCanExecute
	ValidationInvalidAmount
	ValidationInsufficientFunds
	ValidationUnderMinLimit
	ValidationOverMaxLimit
	ValidationInvalidFee
)

var (
	ErrFeeLevelNotAvailable = fmt.Errorf("fee level not available for asset")
	ErrFeeLevelMissingRate  = fmt.Errorf("custom fee level requires a rate")

	feeLevelString = map[FeeLevel]string{
		FeeLevelNone:     "none",
		FeeLevelRegular:  "regular",
		FeeLevelPriority: "priority",
		FeeLevelCustom:   "custom",
	}
	validationStateString = map[ValidationState]string{
		ValidationUninitialised:     "uninitialised",
		ValidationCanExecute:        "can_execute",
		ValidationInvalidAmount:     "invalid_amount",
		ValidationInsufficientFunds: "insufficient_funds",
		ValidationUnderMinLimit:     "under_min_limit",
		ValidationOverMaxLimit:      "over_max_limit",
		ValidationInvalidFee:        "invalid_fee",
	}
)

// FeeLevel is a named fee-rate tier chosen by the user for a transaction.
type FeeLevel int

func (l FeeLevel) String() string {
	return feeLevelString[l]
}

// ValidationState tells whether a pending transaction is executable or why
// it is not.
type ValidationState int

func (s ValidationState) String() string {
	return validationStateString[s]
}

// FeeSelection carries the fee tier chosen for a pending transaction.
// CustomAmount is meaningful only when the selected level is custom,
// switching away from custom resets it to the sentinel.
type FeeSelection struct {
	SelectedLevel   FeeLevel
	AvailableLevels []FeeLevel
	CustomAmount    int64
	Asset           string
}

// IsAvailable returns whether the given level belongs to the selection's
// available set.
func (s FeeSelection) IsAvailable(level FeeLevel) bool {
	for _, l := range s.AvailableLevels {
		if l == level {
			return true
		}
	}
	return false
}

func (s FeeSelection) Equals(other FeeSelection) bool {
	if s.SelectedLevel != other.SelectedLevel ||
		s.CustomAmount != other.CustomAmount ||
		s.Asset != other.Asset ||
		len(s.AvailableLevels) != len(other.AvailableLevels) {
		return false
	}
	for i, l := range s.AvailableLevels {
		if other.AvailableLevels[i] != l {
			return false
		}
	}
	return true
}

// Limits bounds the amount a human is allowed to confirm, from the dust
// floor up to the network-wide maximum.
type Limits struct {
	Min uint64
	Max uint64
}

const (
	ConfirmationFrom ConfirmationKind = iota
	ConfirmationTo
	ConfirmationNetworkFee
	ConfirmationTotal
	ConfirmationWarningLargeTx
)

var confirmationKindString = map[ConfirmationKind]string{
	ConfirmationFrom:           "from",
	ConfirmationTo:             "to",
	ConfirmationNetworkFee:     "network_fee",
	ConfirmationTotal:          "total",
	ConfirmationWarningLargeTx: "warning_large_tx",
}

// ConfirmationKind identifies one line item of the confirmation screen.
type ConfirmationKind int

func (k ConfirmationKind) String() string {
	return confirmationKindString[k]
}

// TxConfirmation is one ordered line item shown to the user before signing.
// Fiat is an optional annotation and never affects selection.
type TxConfirmation struct {
	Kind   ConfirmationKind
	Label  string
	Amount uint64
	Fiat   *decimal.Decimal
}

// PendingTx is the immutable snapshot of a transaction being built. It is
// created once per flow and only superseded by new values returned from the
// engine's pure update operations.
type PendingTx struct {
	Amount              uint64
	TotalBalance        uint64
	AvailableBalance    uint64
	FeeAmount           uint64
	FeeForFullAvailable uint64
	SelectedFiat        string
	Limits              Limits
	FeeSelection        FeeSelection
	Confirmations       []TxConfirmation
	ValidationState     ValidationState
	EngineState         map[string]interface{}
}

// WithAmounts returns a copy of the pending tx with refreshed amount, balance
// and fee figures.
func (t PendingTx) WithAmounts(
	amount, totalBalance, availableBalance, feeAmount, feeForFullAvailable uint64,
) PendingTx {
	t.Amount = amount
	t.TotalBalance = totalBalance
	t.AvailableBalance = availableBalance
	t.FeeAmount = feeAmount
	t.FeeForFullAvailable = feeForFullAvailable
	return t
}

// WithFeeSelection returns a copy of the pending tx carrying the given fee
// selection.
func (t PendingTx) WithFeeSelection(selection FeeSelection) PendingTx {
	t.FeeSelection = selection
	return t
}

// WithValidationState returns a copy of the pending tx with the given
// validation outcome.
func (t PendingTx) WithValidationState(state ValidationState) PendingTx {
	t.ValidationState = state
	return t
}

// WithConfirmations returns a copy of the pending tx with the given ordered
// confirmation line items.
func (t PendingTx) WithConfirmations(confirmations []TxConfirmation) PendingTx {
	t.Confirmations = confirmations
	return t
}

// WithEngineState returns a copy of the pending tx with the given scratch
// value set. The underlying map is copied, the receiver is left untouched.
func (t PendingTx) WithEngineState(key string, value interface{}) PendingTx {
	state := make(map[string]interface{}, len(t.EngineState)+1)
	for k, v := range t.EngineState {
		state[k] = v
	}
	state[key] = value
	t.EngineState = state
	return t
}

// EngineValue returns the scratch value stored under the given key, if any.
func (t PendingTx) EngineValue(key string) (interface{}, bool) {
	v, ok := t.EngineState[key]
	return v, ok
}

// Equals compares two pending txs structurally, ignoring the engine scratch
// space. It is meant for UI diffing and for detecting no-op updates.
func (t PendingTx) Equals(other PendingTx) bool {
	if t.Amount != other.Amount ||
		t.TotalBalance != other.TotalBalance ||
		t.AvailableBalance != other.AvailableBalance ||
		t.FeeAmount != other.FeeAmount ||
		t.FeeForFullAvailable != other.FeeForFullAvailable ||
		t.SelectedFiat != other.SelectedFiat ||
		t.Limits != other.Limits ||
		t.ValidationState != other.ValidationState ||
		!t.FeeSelection.Equals(other.FeeSelection) ||
		len(t.Confirmations) != len(other.Confirmations) {
		return false
	}
	for i, c := range t.Confirmations {
		o := other.Confirmations[i]
		if c.Kind != o.Kind || c.Label != o.Label || c.Amount != o.Amount {
			return false
		}
		if (c.Fiat == nil) != (o.Fiat == nil) {
			return false
		}
		if c.Fiat != nil && !c.Fiat.Equal(*o.Fiat) {
			return false
		}
	}
	return true
}
