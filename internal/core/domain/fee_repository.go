package domain

import (
	"context"
)

// FeePreferenceRepository is the abstraction for any kind of store keeping
// the fee level remembered per asset across transaction flows. When no
// preference has been stored yet, implementations return the regular level.
type FeePreferenceRepository interface {
	// GetFeeLevel returns the remembered fee level for the given asset.
	GetFeeLevel(ctx context.Context, asset string) (FeeLevel, error)
	// SetFeeLevel stores the fee level to remember for the given asset.
	SetFeeLevel(ctx context.Context, asset string, level FeeLevel) error
}
