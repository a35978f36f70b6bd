package esplora_explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const (
	// number of consecutive unused addresses after which the xpub scan stops.
	gapLimit = 20

	externalChain = 0
	internalChain = 1

	regularConfTarget  = "6"
	priorityConfTarget = "1"

	minCustomRatePerByte = 1
	maxCustomRatePerByte = 200
)

type service struct {
	baseUrl       string
	client        *http.Client
	network       *chaincfg.Params
	relayFeePerKb uint64

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

// Service is the composition of the two chain-facing ports an esplora
// endpoint is able to serve at once.
type Service interface {
	ports.ChainSource
	ports.FeeOracle
}

// NewService returns an esplora-backed implementation of both the
// ports.ChainSource and ports.FeeOracle interfaces.
// Unspent outputs of HD accounts are discovered by deriving addresses from
// the account xpub on both chains until the gap limit is reached, imported
// accounts are looked up by their single address.
func NewService(
	baseUrl string, network *chaincfg.Params, relayFeePerKb uint64,
) (Service, error) {
	if len(baseUrl) <= 0 {
		return nil, fmt.Errorf("missing esplora url")
	}
	if relayFeePerKb <= 0 {
		return nil, fmt.Errorf("relay fee rate must be a positive amount")
	}

	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("chain source: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("chain source: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	return &service{
		baseUrl:       baseUrl,
		client:        &http.Client{Timeout: 15 * time.Second},
		network:       network,
		relayFeePerKb: relayFeePerKb,
		log:           logFn,
		warn:          warnFn,
	}, nil
}

func (s *service) UnspentOutputs(
	ctx context.Context, account domain.AccountInfo,
) ([]*domain.Utxo, error) {
	tipHeight, err := s.LatestBlockHeight(ctx)
	if err != nil {
		return nil, err
	}

	if account.Kind == domain.AccountKindImported {
		return s.addressUtxos(ctx, account.Name, account.Address, tipHeight)
	}
	return s.xpubUtxos(ctx, account, tipHeight)
}

func (s *service) LatestBlockHeight(ctx context.Context) (uint64, error) {
	body, err := s.get(ctx, "/blocks/tip/height")
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(body), 10, 64)
}

func (s *service) RegularFeeRatePerKb(ctx context.Context) (uint64, error) {
	return s.feeRatePerKb(ctx, regularConfTarget)
}

func (s *service) PriorityFeeRatePerKb(ctx context.Context) (uint64, error) {
	return s.feeRatePerKb(ctx, priorityConfTarget)
}

func (s *service) RelayFeePerKb(ctx context.Context) (uint64, error) {
	return s.relayFeePerKb, nil
}

func (s *service) FeeBounds(ctx context.Context) (*ports.FeeBounds, error) {
	return &ports.FeeBounds{
		MinRatePerByte: minCustomRatePerByte,
		MaxRatePerByte: maxCustomRatePerByte,
	}, nil
}

func (s *service) feeRatePerKb(
	ctx context.Context, confTarget string,
) (uint64, error) {
	body, err := s.get(ctx, "/fee-estimates")
	if err != nil {
		return 0, err
	}

	estimates := make(map[string]float64)
	if err := json.Unmarshal(body, &estimates); err != nil {
		return 0, fmt.Errorf("invalid fee estimates: %w", err)
	}

	ratePerByte, ok := estimates[confTarget]
	if !ok {
		return 0, fmt.Errorf("missing fee estimate for target %s", confTarget)
	}

	ratePerKb := uint64(math.Ceil(ratePerByte * 1000))
	if ratePerKb < s.relayFeePerKb {
		ratePerKb = s.relayFeePerKb
	}
	return ratePerKb, nil
}

func (s *service) addressUtxos(
	ctx context.Context, accountName, address string, tipHeight uint64,
) ([]*domain.Utxo, error) {
	decoded, err := btcutil.DecodeAddress(address, s.network)
	if err != nil {
		return nil, err
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, err
	}

	list, err := s.fetchAddressUtxos(ctx, address)
	if err != nil {
		return nil, err
	}

	utxos := make([]*domain.Utxo, 0, len(list))
	for _, u := range list {
		utxos = append(utxos, u.toDomain(
			accountName, script, outputTypeForAddress(decoded), tipHeight,
		))
	}
	return utxos, nil
}

func (s *service) xpubUtxos(
	ctx context.Context, account domain.AccountInfo, tipHeight uint64,
) ([]*domain.Utxo, error) {
	accountKey, err := hdkeychain.NewKeyFromString(account.Xpub)
	if err != nil {
		return nil, err
	}

	utxos := make([]*domain.Utxo, 0)
	for _, chain := range []uint32{externalChain, internalChain} {
		chainKey, err := accountKey.Derive(chain)
		if err != nil {
			return nil, err
		}

		gap := 0
		for index := uint32(0); gap < gapLimit; index++ {
			addrKey, err := chainKey.Derive(index)
			if err != nil {
				// unusable child keys are skipped per BIP32.
				continue
			}

			pubkey, err := addrKey.ECPubKey()
			if err != nil {
				continue
			}
			address, err := btcutil.NewAddressWitnessPubKeyHash(
				btcutil.Hash160(pubkey.SerializeCompressed()), s.network,
			)
			if err != nil {
				return nil, err
			}
			script, err := txscript.PayToAddrScript(address)
			if err != nil {
				return nil, err
			}

			list, err := s.fetchAddressUtxos(ctx, address.EncodeAddress())
			if err != nil {
				return nil, err
			}
			if len(list) <= 0 {
				gap++
				continue
			}

			gap = 0
			for _, u := range list {
				utxos = append(utxos, u.toDomain(
					account.Name, script, domain.OutputTypeP2WPKH, tipHeight,
				))
			}
		}
	}

	s.log(
		"found %d unspent output(s) for account %s", len(utxos), account.Name,
	)
	sort.Slice(utxos, func(i, j int) bool {
		return utxos[i].Value > utxos[j].Value
	})
	return utxos, nil
}

func (s *service) fetchAddressUtxos(
	ctx context.Context, address string,
) ([]esploraUtxo, error) {
	body, err := s.get(ctx, fmt.Sprintf("/address/%s/utxo", address))
	if err != nil {
		return nil, err
	}

	list := make([]esploraUtxo, 0)
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("invalid utxo list for address %s: %w", address, err)
	}
	return list, nil
}

func (s *service) get(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s%s", s.baseUrl, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %s", url, string(body))
	}
	return body, nil
}

func outputTypeForAddress(address btcutil.Address) domain.OutputType {
	switch address.(type) {
	case *btcutil.AddressWitnessPubKeyHash:
		return domain.OutputTypeP2WPKH
	case *btcutil.AddressTaproot:
		return domain.OutputTypeP2TR
	case *btcutil.AddressScriptHash:
		return domain.OutputTypeNestedP2WPKH
	default:
		return domain.OutputTypeP2PKH
	}
}
