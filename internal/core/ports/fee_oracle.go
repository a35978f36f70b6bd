package ports

import (
	"context"
)

// FeeBounds delimits the custom fee rates, in sat/vB, a human is allowed to
// confirm. Rates outside the bounds are rejected at validation, never
// silently clamped.
type FeeBounds struct {
	MinRatePerByte uint64
	MaxRatePerByte uint64
}

// Contains returns whether the given rate falls within the bounds.
func (b FeeBounds) Contains(ratePerByte uint64) bool {
	return ratePerByte >= b.MinRatePerByte && ratePerByte <= b.MaxRatePerByte
}

// FeeOracle is the abstraction for any kind of service supplying current
// network fee rates. Rates are expressed in sat/kvB.
type FeeOracle interface {
	// RegularFeeRatePerKb returns the fee rate for confirmation within a few
	// blocks.
	RegularFeeRatePerKb(ctx context.Context) (uint64, error)
	// PriorityFeeRatePerKb returns the fee rate for next-block confirmation.
	PriorityFeeRatePerKb(ctx context.Context) (uint64, error)
	// RelayFeePerKb returns the minimum relay fee rate of the network, used
	// as the dust discriminator.
	RelayFeePerKb(ctx context.Context) (uint64, error)
	// FeeBounds returns the sane min/max custom rates for the network.
	FeeBounds(ctx context.Context) (*FeeBounds, error)
}
