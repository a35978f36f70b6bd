package bitpay_rate_source_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	bitpay "github.com/harborwallet/harbor/internal/infrastructure/rate-source/bitpay"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/BTC/USD", r.URL.Path)
			fmt.Fprint(w, `{"data": {"code": "USD", "name": "US Dollar", "rate": 64123.45}}`)
		},
	))
	defer server.Close()

	svc, err := bitpay.NewService(server.URL, "USD")
	require.NoError(t, err)

	rate, err := svc.Rate(context.Background(), "BTC")
	require.NoError(t, err)
	require.True(t, rate.Equal(decimal.RequireFromString("64123.45")))
}

func TestFailingRate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed_response", `not a json payload`},
		{"zero_rate", `{"data": {"code": "USD", "rate": 0}}`},
		{"negative_rate", `{"data": {"code": "USD", "rate": -1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(
				func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, tt.body)
				},
			))
			defer server.Close()

			svc, err := bitpay.NewService(server.URL, "USD")
			require.NoError(t, err)

			rate, err := svc.Rate(context.Background(), "BTC")
			require.Error(t, err)
			require.True(t, rate.IsZero())
		})
	}
}
