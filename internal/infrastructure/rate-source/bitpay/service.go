package bitpay_rate_source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harborwallet/harbor/internal/core/ports"
	"github.com/shopspring/decimal"
)

type rateResponse struct {
	Data struct {
		Code string          `json:"code"`
		Rate decimal.Decimal `json:"rate"`
	} `json:"data"`
}

type service struct {
	baseUrl      string
	fiatCurrency string
	client       *http.Client
}

// NewService returns a bitpay-backed implementation of the ports.RateSource
// interface, quoting assets against the given fiat currency.
func NewService(baseUrl, fiatCurrency string) (ports.RateSource, error) {
	if len(baseUrl) <= 0 {
		return nil, fmt.Errorf("missing rate provider url")
	}
	if len(fiatCurrency) <= 0 {
		return nil, fmt.Errorf("missing fiat currency")
	}

	return &service{
		baseUrl:      baseUrl,
		fiatCurrency: fiatCurrency,
		client:       &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (s *service) Rate(
	ctx context.Context, asset string,
) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/%s", s.baseUrl, asset, s.fiatCurrency)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, err
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%s: %s", url, string(body))
	}

	rate := rateResponse{}
	if err := json.Unmarshal(body, &rate); err != nil {
		return decimal.Zero, fmt.Errorf("invalid rate for asset %s: %w", asset, err)
	}
	if rate.Data.Rate.IsNegative() || rate.Data.Rate.IsZero() {
		return decimal.Zero, fmt.Errorf(
			"invalid rate for asset %s: must be a positive amount", asset,
		)
	}
	return rate.Data.Rate, nil
}
