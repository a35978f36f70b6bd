package appconfig

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/harborwallet/harbor/internal/config"
	"github.com/harborwallet/harbor/internal/core/application"
	"github.com/harborwallet/harbor/internal/core/ports"
	descending_selector "github.com/harborwallet/harbor/internal/infrastructure/coin-selector/descending"
	esplora_explorer "github.com/harborwallet/harbor/internal/infrastructure/explorer/esplora"
	bitpay_rate_source "github.com/harborwallet/harbor/internal/infrastructure/rate-source/bitpay"
	dbbadger "github.com/harborwallet/harbor/internal/infrastructure/storage/db/badger"
	"github.com/harborwallet/harbor/internal/infrastructure/storage/db/inmemory"
	postgresdb "github.com/harborwallet/harbor/internal/infrastructure/storage/db/postgres"
	path "github.com/harborwallet/harbor/pkg/derivation-path"
	log "github.com/sirupsen/logrus"
)

// AppConfig is the struct holding all configuration options for every
// application service (wallet, account and transaction).
// This data structure acts also as a factory of the mentioned application
// services and the portable services used by them.
// Public config args:
//   - RootPath - (optional) Wallet root HD path (defaults to m/84'/0').
//   - Network - (required) The Bitcoin network (mainnet, testnet3, regtest).
//   - Asset - (required) The asset managed by the wallet (BTC, BCH).
//   - FiatCurrency - (required) The fiat currency used to annotate amounts.
//   - EsploraUrl - (required) The esplora endpoint serving chain data and fee estimates.
//   - RateUrl - (required) The exchange rate provider endpoint.
//   - RelayFeePerKb - (required) The relay fee rate used as dust discriminator.
//   - AllowUnconfirmed - whether unconfirmed utxos count as spendable funds.
//   - RepoManagerType - (required) One of the supported repository manager types.
//   - RepoManagerConfig - (optional) Custom config args for the repository manager based on its type.
type AppConfig struct {
	Version string
	Commit  string
	Date    string

	RootPath         string
	Network          *chaincfg.Params
	Asset            string
	FiatCurrency     string
	EsploraUrl       string
	RateUrl          string
	RelayFeePerKb    uint64
	AllowUnconfirmed bool

	RepoManagerType   string
	RepoManagerConfig interface{}

	rm         ports.RepoManager
	explorer   esplora_explorer.Service
	rateSource ports.RateSource
	selector   ports.CoinSelector
	walletSvc  *application.WalletService
	accountSvc *application.AccountService
	txSvc      *application.TransactionService
}

func (c *AppConfig) Validate() error {
	if c.Network == nil {
		return fmt.Errorf("missing network")
	}
	if len(c.Asset) == 0 {
		return fmt.Errorf("missing asset")
	}
	if len(c.FiatCurrency) == 0 {
		return fmt.Errorf("missing fiat currency")
	}
	if len(c.EsploraUrl) == 0 {
		return fmt.Errorf("missing esplora url")
	}
	if len(c.RateUrl) == 0 {
		return fmt.Errorf("missing rate provider url")
	}
	if c.RelayFeePerKb == 0 {
		return fmt.Errorf("missing relay fee rate")
	}
	if len(c.RepoManagerType) == 0 {
		return fmt.Errorf("missing repo manager type")
	}
	if _, ok := config.SupportedDbs[c.RepoManagerType]; !ok {
		return fmt.Errorf(
			"repo manager type not supported, must be one of: %s",
			config.SupportedDbs,
		)
	}
	if _, err := c.repoManager(); err != nil {
		return err
	}
	if _, err := c.chainExplorer(); err != nil {
		return err
	}
	if _, err := c.exchangeRateSource(); err != nil {
		return err
	}
	if c.RootPath == "" {
		return fmt.Errorf("missing root path")
	}
	if _, err := path.ParseRootDerivationPath(c.RootPath); err != nil {
		return err
	}

	return nil
}

func (c *AppConfig) RepoManager() ports.RepoManager {
	return c.rm
}

func (c *AppConfig) WalletService() *application.WalletService {
	return c.walletService()
}

func (c *AppConfig) AccountService() *application.AccountService {
	return c.accountService()
}

func (c *AppConfig) TransactionService() *application.TransactionService {
	return c.transactionService()
}

func (c *AppConfig) repoManager() (ports.RepoManager, error) {
	if c.rm != nil {
		return c.rm, nil
	}

	switch c.RepoManagerType {
	case "inmemory":
		c.rm = inmemory.NewRepoManager()
		return c.rm, nil
	case "badger":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		datadir, ok := c.RepoManagerConfig.(string)
		if !ok {
			return nil, fmt.Errorf("invalid repo manager config type, must be string")
		}
		rm, err := dbbadger.NewRepoManager(datadir, log.New())
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	case "postgres":
		if c.RepoManagerConfig == nil {
			return nil, fmt.Errorf("missing repo manager config args")
		}
		dbConfig, ok := c.RepoManagerConfig.(postgresdb.DbConfig)
		if !ok {
			return nil, fmt.Errorf(
				"invalid repo manager config type, must be postgresdb.DbConfig",
			)
		}
		rm, err := postgresdb.NewRepoManager(dbConfig)
		if err != nil {
			return nil, err
		}
		c.rm = rm
		return c.rm, nil
	default:
		return nil, fmt.Errorf("unknown repo manager type")
	}
}

func (c *AppConfig) chainExplorer() (esplora_explorer.Service, error) {
	if c.explorer != nil {
		return c.explorer, nil
	}

	explorer, err := esplora_explorer.NewService(
		c.EsploraUrl, c.Network, c.RelayFeePerKb,
	)
	if err != nil {
		return nil, err
	}
	c.explorer = explorer
	return c.explorer, nil
}

func (c *AppConfig) exchangeRateSource() (ports.RateSource, error) {
	if c.rateSource != nil {
		return c.rateSource, nil
	}

	rateSource, err := bitpay_rate_source.NewService(c.RateUrl, c.FiatCurrency)
	if err != nil {
		return nil, err
	}
	c.rateSource = rateSource
	return c.rateSource, nil
}

func (c *AppConfig) coinSelector() ports.CoinSelector {
	if c.selector != nil {
		return c.selector
	}

	c.selector = descending_selector.NewDescendingCoinSelector(c.RelayFeePerKb)
	return c.selector
}

func (c *AppConfig) walletService() *application.WalletService {
	if c.walletSvc != nil {
		return c.walletSvc
	}

	rm, _ := c.repoManager()
	c.walletSvc = application.NewWalletService(
		rm, c.RootPath, c.Network, c.buildInfo(),
	)
	return c.walletSvc
}

func (c *AppConfig) accountService() *application.AccountService {
	if c.accountSvc != nil {
		return c.accountSvc
	}

	rm, _ := c.repoManager()
	explorer, _ := c.chainExplorer()
	rateSource, _ := c.exchangeRateSource()
	c.accountSvc = application.NewAccountService(
		rm, explorer, rateSource, c.Network, c.Asset, c.AllowUnconfirmed,
	)
	return c.accountSvc
}

func (c *AppConfig) transactionService() *application.TransactionService {
	if c.txSvc != nil {
		return c.txSvc
	}

	rm, _ := c.repoManager()
	explorer, _ := c.chainExplorer()
	rateSource, _ := c.exchangeRateSource()
	c.txSvc = application.NewTransactionService(
		rm, explorer, explorer, c.coinSelector(), rateSource, c.Asset,
		c.FiatCurrency, c.AllowUnconfirmed,
	)
	return c.txSvc
}

func (c *AppConfig) buildInfo() application.BuildInfo {
	version := "dev"
	if c.Version != "" {
		version = c.Version
	}
	commit := "none"
	if c.Commit != "" {
		commit = c.Commit
	}
	date := "unknown"
	if c.Date != "" {
		date = c.Date
	}
	return application.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}
