package bip21_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/harborwallet/harbor/pkg/bip21"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("address with amount", func(t *testing.T) {
		uri, err := bip21.Parse(
			"bitcoin:17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C?amount=0.004409", "bitcoin",
		)
		require.NoError(t, err)
		require.Equal(t, "17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C", uri.Address)
		require.NotNil(t, uri.Amount)
		require.Equal(t, btcutil.Amount(440900), *uri.Amount)
	})

	t.Run("unrecognized query keys are ignored", func(t *testing.T) {
		uri, err := bip21.Parse(
			"bitcoin:17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C?merchant=memo", "bitcoin",
		)
		require.NoError(t, err)
		require.Equal(t, "17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C", uri.Address)
		require.Nil(t, uri.Amount)
	})

	t.Run("bare address without amount", func(t *testing.T) {
		uri, err := bip21.Parse("bitcoin:17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C", "bitcoin")
		require.NoError(t, err)
		require.Equal(t, "17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C", uri.Address)
		require.Nil(t, uri.Amount)
		require.Empty(t, uri.Label)
	})

	t.Run("label and message", func(t *testing.T) {
		uri, err := bip21.Parse(
			"bitcoin:17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C?label=shop&message=order%2042",
			"bitcoin",
		)
		require.NoError(t, err)
		require.Equal(t, "shop", uri.Label)
		require.Equal(t, "order 42", uri.Message)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := bip21.Parse("litecoin:17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C", "bitcoin")
		require.ErrorIs(t, err, bip21.ErrInvalidScheme)
	})

	t.Run("malformed amount", func(t *testing.T) {
		_, err := bip21.Parse(
			"bitcoin:17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C?amount=abc", "bitcoin",
		)
		require.ErrorIs(t, err, bip21.ErrInvalidAmount)

		_, err = bip21.Parse(
			"bitcoin:17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C?amount=-1", "bitcoin",
		)
		require.ErrorIs(t, err, bip21.ErrInvalidAmount)
	})

	t.Run("missing address", func(t *testing.T) {
		_, err := bip21.Parse("bitcoin:?amount=1", "bitcoin")
		require.ErrorIs(t, err, bip21.ErrMissingAddress)
	})
}

func TestString(t *testing.T) {
	amount, _ := btcutil.NewAmount(0.004409)
	uri := &bip21.PaymentURI{
		Scheme:  "bitcoin",
		Address: "17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C",
		Amount:  &amount,
	}
	require.Equal(
		t, "bitcoin:17GBRdfBHtEaBs7MesvMgob6YUEn5fFN4C?amount=0.004409",
		uri.String(),
	)

	parsed, err := bip21.Parse(uri.String(), "bitcoin")
	require.NoError(t, err)
	require.Equal(t, uri.Address, parsed.Address)
	require.Equal(t, *uri.Amount, *parsed.Amount)
}
