package inmemory

import (
	"context"
	"sync"

	"github.com/harborwallet/harbor/internal/core/domain"
)

type feeRepository struct {
	levelsByAsset map[string]domain.FeeLevel
	lock          *sync.RWMutex
}

func NewFeePreferenceRepository() domain.FeePreferenceRepository {
	return newFeeRepository()
}

func newFeeRepository() *feeRepository {
	return &feeRepository{
		levelsByAsset: make(map[string]domain.FeeLevel),
		lock:          &sync.RWMutex{},
	}
}

func (r *feeRepository) GetFeeLevel(
	ctx context.Context, asset string,
) (domain.FeeLevel, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	level, ok := r.levelsByAsset[asset]
	if !ok {
		return domain.FeeLevelRegular, nil
	}
	return level, nil
}

func (r *feeRepository) SetFeeLevel(
	ctx context.Context, asset string, level domain.FeeLevel,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.levelsByAsset[asset] = level
	return nil
}

func (r *feeRepository) reset() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.levelsByAsset = make(map[string]domain.FeeLevel)
}
