package bip21

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

var (
	ErrMissingAddress = fmt.Errorf("missing address")
	ErrInvalidScheme  = fmt.Errorf("invalid payment uri scheme")
	ErrInvalidAmount  = fmt.Errorf("invalid amount parameter")
)

// PaymentURI is the decoded form of a BIP21 payment uri like
// scheme:address?amount=0.001&label=merchant. Amount is nil when the uri
// carries none. Query parameters other than the known ones are ignored.
type PaymentURI struct {
	Scheme  string
	Address string
	Amount  *btcutil.Amount
	Label   string
	Message string
}

// Parse decodes a payment uri with the given expected scheme. The address is
// returned as-is, validating it against the asset's format rules is up to
// the caller.
func Parse(raw, scheme string) (*PaymentURI, error) {
	prefix := scheme + ":"
	if !strings.HasPrefix(raw, prefix) {
		return nil, ErrInvalidScheme
	}

	rest := strings.TrimPrefix(raw, prefix)
	address := rest
	query := ""
	if i := strings.Index(rest, "?"); i >= 0 {
		address = rest[:i]
		query = rest[i+1:]
	}
	if address == "" {
		return nil, ErrMissingAddress
	}

	uri := &PaymentURI{Scheme: scheme, Address: address}
	if query == "" {
		return uri, nil
	}

	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	if v := params.Get("amount"); v != "" {
		coins, err := strconv.ParseFloat(v, 64)
		if err != nil || coins < 0 {
			return nil, ErrInvalidAmount
		}
		amount, err := btcutil.NewAmount(coins)
		if err != nil {
			return nil, ErrInvalidAmount
		}
		uri.Amount = &amount
	}
	uri.Label = params.Get("label")
	uri.Message = params.Get("message")
	return uri, nil
}

// String encodes the payment uri back to its string form.
func (u *PaymentURI) String() string {
	s := fmt.Sprintf("%s:%s", u.Scheme, u.Address)
	params := url.Values{}
	if u.Amount != nil {
		params.Set("amount", strconv.FormatFloat(u.Amount.ToBTC(), 'f', -1, 64))
	}
	if u.Label != "" {
		params.Set("label", u.Label)
	}
	if u.Message != "" {
		params.Set("message", u.Message)
	}
	if encoded := params.Encode(); encoded != "" {
		s += "?" + encoded
	}
	return s
}
