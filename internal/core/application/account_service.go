package application

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
	"github.com/harborwallet/harbor/pkg/bip21"
	"github.com/harborwallet/harbor/pkg/keycoder"
	log "github.com/sirupsen/logrus"
)

// AccountService is responsible for operations related to wallet accounts:
//	* Create a new HD account.
//	* Import an account from external private key material.
//	* Rename, archive, unarchive an account and elect the default one.
//	* Get the balance of an account from a fresh utxo snapshot.
//	* Parse addresses and BIP21 payment uris out of scanned payloads.
//
// Balances are recomputed from scratch on every query, nothing is cached
// across chain events. The exchange rate annotation is opportunistic, a
// failed rate fetch is logged and the balance is returned without it.
type AccountService struct {
	repoManager ports.RepoManager
	chainSource ports.ChainSource
	rateSource  ports.RateSource
	network     *chaincfg.Params
	asset       string

	allowUnconfirmed bool

	log  func(format string, a ...interface{})
	warn func(err error, format string, a ...interface{})
}

func NewAccountService(
	repoManager ports.RepoManager, chainSource ports.ChainSource,
	rateSource ports.RateSource, network *chaincfg.Params,
	asset string, allowUnconfirmed bool,
) *AccountService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("account service: %s", format)
		log.Debugf(format, a...)
	}
	warnFn := func(err error, format string, a ...interface{}) {
		format = fmt.Sprintf("account service: %s", format)
		log.WithError(err).Warnf(format, a...)
	}

	return &AccountService{
		repoManager, chainSource, rateSource, network, asset,
		allowUnconfirmed, logFn, warnFn,
	}
}

// CreateAccount allocates the next HD account with the given label. The
// second password is required only when the wallet is double-encrypted.
func (as *AccountService) CreateAccount(
	ctx context.Context, label, secondPassword string,
) (*AccountInfo, error) {
	accountInfo, err := as.repoManager.WalletRepository().CreateAccount(
		ctx, label, secondPassword,
	)
	if err != nil {
		return nil, err
	}

	as.log("created account %s", accountInfo.Name)
	return (*AccountInfo)(accountInfo), nil
}

// ImportPrivateKey decodes the given key material, derives its address and
// registers an imported account for it. The resulting account is never an
// HD one.
func (as *AccountService) ImportPrivateKey(
	ctx context.Context, args ImportKeyArgs,
) (*AccountInfo, error) {
	key, compressed, err := keycoder.Decode(
		args.KeyData, args.Format, args.KeyPassword, as.network,
	)
	if err != nil {
		return nil, err
	}

	address, err := keycoder.AddressFromKey(key, compressed, as.network)
	if err != nil {
		return nil, err
	}

	accountInfo, err := as.repoManager.WalletRepository().ImportAccount(
		ctx, address, args.Label,
	)
	if err != nil {
		return nil, err
	}

	as.log("imported account %s for address %s", accountInfo.Name, address)
	return (*AccountInfo)(accountInfo), nil
}

// UpdateAccountLabel renames the given account.
func (as *AccountService) UpdateAccountLabel(
	ctx context.Context, accountName, label string,
) (*AccountInfo, error) {
	accountInfo, err := as.repoManager.WalletRepository().SetAccountLabel(
		ctx, accountName, label,
	)
	if err != nil {
		return nil, err
	}
	return (*AccountInfo)(accountInfo), nil
}

// SetDefaultAccount elects the given account as the wallet default. Legal
// only on active HD accounts.
func (as *AccountService) SetDefaultAccount(
	ctx context.Context, accountName string,
) error {
	return as.repoManager.WalletRepository().SetDefaultAccount(ctx, accountName)
}

// ArchiveAccount hides the given account from active use.
func (as *AccountService) ArchiveAccount(
	ctx context.Context, accountName string,
) error {
	return as.repoManager.WalletRepository().ArchiveAccount(ctx, accountName)
}

// UnarchiveAccount restores the given archived account.
func (as *AccountService) UnarchiveAccount(
	ctx context.Context, accountName string,
) error {
	return as.repoManager.WalletRepository().UnarchiveAccount(ctx, accountName)
}

// ListAccounts returns info about every account of the wallet.
func (as *AccountService) ListAccounts(ctx context.Context) ([]AccountInfo, error) {
	w, err := as.repoManager.WalletRepository().GetWallet(ctx)
	if err != nil {
		return nil, err
	}

	accounts := w.AllAccounts()
	list := make([]AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, AccountInfo(account.Info()))
	}
	return list, nil
}

// GetBalance projects a fresh utxo snapshot of the given account into its
// balance, annotated with the current exchange rate when available.
func (as *AccountService) GetBalance(
	ctx context.Context, accountName string,
) (*BalanceInfo, error) {
	account, err := as.repoManager.WalletRepository().GetAccount(ctx, accountName)
	if err != nil {
		return nil, err
	}

	utxos, err := as.chainSource.UnspentOutputs(ctx, account.Info())
	if err != nil {
		return nil, err
	}

	balance := domain.ComputeBalance(utxos, as.allowUnconfirmed)
	if rate, err := as.rateSource.Rate(ctx, as.asset); err != nil {
		as.warn(err, "skipping exchange rate for balance of account %s", accountName)
	} else {
		balance = balance.WithRate(rate)
	}

	info := BalanceInfo(balance)
	return &info, nil
}

// ParseAddress scans the given payload for a bare address or a BIP21 payment
// uri, validating the address against the network's format rules. A payload
// that does not decode to a valid address yields an empty result rather than
// an error, since callers scan heterogeneous QR payloads.
func (as *AccountService) ParseAddress(input string) (*ParsedAddress, error) {
	if input == "" {
		return nil, nil
	}

	scheme := assetScheme[as.asset]
	if uri, err := bip21.Parse(input, scheme); err == nil {
		if !as.isValidAddress(uri.Address) {
			return nil, nil
		}
		parsed := &ParsedAddress{Address: uri.Address, Label: uri.Label}
		if uri.Amount != nil {
			amount := uint64(*uri.Amount)
			parsed.Amount = &amount
		}
		return parsed, nil
	} else if err != bip21.ErrInvalidScheme {
		return nil, nil
	}

	if !as.isValidAddress(input) {
		return nil, nil
	}
	return &ParsedAddress{Address: input}, nil
}

func (as *AccountService) isValidAddress(address string) bool {
	decoded, err := btcutil.DecodeAddress(address, as.network)
	if err != nil {
		return false
	}
	return decoded.IsForNet(as.network)
}
