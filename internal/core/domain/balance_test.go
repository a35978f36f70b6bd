package domain_test

import (
	"testing"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestComputeBalance(t *testing.T) {
	utxos := []*domain.Utxo{
		{Value: 500_000_000, Confirmations: 6},
		{Value: 1_600_000_000, Confirmations: 1},
		{Value: 100_000_000, Confirmations: 0},
	}

	t.Run("confirmed_only", func(t *testing.T) {
		balance := domain.ComputeBalance(utxos, false)
		require.Equal(t, uint64(2_200_000_000), balance.Total)
		require.Equal(t, uint64(2_100_000_000), balance.Withdrawable)
		require.Equal(t, uint64(100_000_000), balance.Pending)
		require.True(t, balance.Withdrawable <= balance.Total)
		require.Equal(t, balance.Total-balance.Withdrawable, balance.Pending)
		require.Nil(t, balance.ExchangeRate)
	})

	t.Run("allow_unconfirmed", func(t *testing.T) {
		balance := domain.ComputeBalance(utxos, true)
		require.Equal(t, uint64(2_200_000_000), balance.Total)
		require.Equal(t, uint64(2_200_000_000), balance.Withdrawable)
		require.Zero(t, balance.Pending)
	})

	t.Run("empty_snapshot", func(t *testing.T) {
		balance := domain.ComputeBalance(nil, false)
		require.Zero(t, balance.Total)
		require.Zero(t, balance.Withdrawable)
		require.Zero(t, balance.Pending)
	})
}

func TestBalanceWithRate(t *testing.T) {
	balance := domain.ComputeBalance([]*domain.Utxo{
		{Value: 100_000_000, Confirmations: 3},
	}, false)

	rate := decimal.RequireFromString("64123.45")
	annotated := balance.WithRate(rate)
	require.NotNil(t, annotated.ExchangeRate)
	require.True(t, annotated.ExchangeRate.Equal(rate))
	// the receiver is left untouched.
	require.Nil(t, balance.ExchangeRate)
}
