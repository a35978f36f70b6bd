package domain

import (
	"github.com/shopspring/decimal"
)

// Balance holds the confirmed/unconfirmed split of a list of utxos.
type Balance struct {
	Confirmed   uint64
	Unconfirmed uint64
}

func (b Balance) Total() uint64 {
	return b.Confirmed + b.Unconfirmed
}

// AccountBalance is the projection of an utxo snapshot exposed to consumers.
// ExchangeRate is attached opportunistically from the last fetched rate and
// may be nil, a missing rate never prevents balance computation.
type AccountBalance struct {
	Total        uint64
	Withdrawable uint64
	Pending      uint64
	ExchangeRate *decimal.Decimal
}

// ComputeBalance projects an utxo snapshot into an AccountBalance. Unless
// zero-conf spending is allowed, only confirmed utxos count as withdrawable.
// The result always satisfies withdrawable <= total and
// pending == total - withdrawable.
func ComputeBalance(utxos []*Utxo, allowUnconfirmed bool) AccountBalance {
	balance := Balance{}
	for _, utxo := range utxos {
		if utxo.IsConfirmed() {
			balance.Confirmed += utxo.Value
		} else {
			balance.Unconfirmed += utxo.Value
		}
	}

	withdrawable := balance.Confirmed
	if allowUnconfirmed {
		withdrawable = balance.Total()
	}

	return AccountBalance{
		Total:        balance.Total(),
		Withdrawable: withdrawable,
		Pending:      balance.Total() - withdrawable,
	}
}

// WithRate returns a copy of the balance annotated with the given rate.
func (b AccountBalance) WithRate(rate decimal.Decimal) AccountBalance {
	b.ExchangeRate = &rate
	return b
}
