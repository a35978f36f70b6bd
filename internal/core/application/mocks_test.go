package application_test

import (
	"context"
	"strings"
	"sync"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ports.ChainSource
type mockChainSource struct {
	mock.Mock
}

func (m *mockChainSource) UnspentOutputs(
	ctx context.Context, account domain.AccountInfo,
) ([]*domain.Utxo, error) {
	args := m.Called(ctx, account)

	var res []*domain.Utxo
	if a := args.Get(0); a != nil {
		res = a.([]*domain.Utxo)
	}
	return res, args.Error(1)
}

func (m *mockChainSource) LatestBlockHeight(
	ctx context.Context,
) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

// ports.FeeOracle
type mockFeeOracle struct {
	mock.Mock
}

func (m *mockFeeOracle) RegularFeeRatePerKb(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockFeeOracle) PriorityFeeRatePerKb(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockFeeOracle) RelayFeePerKb(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockFeeOracle) FeeBounds(ctx context.Context) (*ports.FeeBounds, error) {
	args := m.Called(ctx)

	var res *ports.FeeBounds
	if a := args.Get(0); a != nil {
		res = a.(*ports.FeeBounds)
	}
	return res, args.Error(1)
}

// ports.RateSource
type mockRateSource struct {
	mock.Mock
}

func (m *mockRateSource) Rate(
	ctx context.Context, asset string,
) (decimal.Decimal, error) {
	args := m.Called(ctx, asset)

	var res decimal.Decimal
	if a := args.Get(0); a != nil {
		res = a.(decimal.Decimal)
	}
	return res, args.Error(1)
}

// domain.IMnemonicStore
type inMemoryMnemonicStore struct {
	mnemonic []string
	lock     *sync.RWMutex
}

func newInMemoryMnemonicStore() domain.IMnemonicStore {
	return &inMemoryMnemonicStore{
		lock: &sync.RWMutex{},
	}
}

func (s *inMemoryMnemonicStore) Set(mnemonic string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mnemonic = strings.Split(mnemonic, " ")
}

func (s *inMemoryMnemonicStore) Unset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.mnemonic = nil
}

func (s *inMemoryMnemonicStore) IsSet() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.mnemonic) > 0
}

func (s *inMemoryMnemonicStore) Get() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.mnemonic
}
