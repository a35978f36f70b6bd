package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateSource is the abstraction for any kind of service supplying fiat
// exchange rates. Rates only annotate balances and pending transactions,
// they never affect coin selection.
type RateSource interface {
	// Rate returns the current fiat amount per whole unit of the given
	// asset.
	Rate(ctx context.Context, asset string) (decimal.Decimal, error)
}
