package dbbadger

import (
	"context"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type feePreference struct {
	Asset string
	Level domain.FeeLevel
}

type feeRepository struct {
	store *badgerhold.Store
}

func NewFeePreferenceRepository(
	store *badgerhold.Store,
) domain.FeePreferenceRepository {
	return newFeeRepository(store)
}

func newFeeRepository(store *badgerhold.Store) *feeRepository {
	return &feeRepository{store}
}

func (r *feeRepository) GetFeeLevel(
	ctx context.Context, asset string,
) (domain.FeeLevel, error) {
	var pref feePreference
	if err := r.store.Get(asset, &pref); err != nil {
		if err == badgerhold.ErrNotFound {
			return domain.FeeLevelRegular, nil
		}
		return domain.FeeLevelNone, err
	}
	return pref.Level, nil
}

func (r *feeRepository) SetFeeLevel(
	ctx context.Context, asset string, level domain.FeeLevel,
) error {
	return r.store.Upsert(asset, feePreference{asset, level})
}

func (r *feeRepository) reset() {
	r.store.Badger().DropAll()
}

func (r *feeRepository) close() {
	r.store.Close()
}
