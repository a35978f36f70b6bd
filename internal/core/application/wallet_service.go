package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
	log "github.com/sirupsen/logrus"
	"github.com/tyler-smith/go-bip39"
)

// WalletService is responsible for operations related to the management of the
// wallet:
//	* Generate a new random 24-words mnemonic.
//	* Create a new wallet from scratch with a given mnemonic.
//	* Enable or disable the optional second password (double encryption).
//	* Get the status of the wallet (initialized, double-encrypted).
//	* Get info about the wallet (network, root path, accounts).
//
// This service doesn't register any handler for wallet events, rather it
// allows its users to register their own to react to the wallet creation.
type WalletService struct {
	repoManager ports.RepoManager
	rootPath    string
	network     *chaincfg.Params
	buildInfo   BuildInfo

	initialized bool
	lock        *sync.RWMutex

	log func(format string, a ...interface{})
}

func NewWalletService(
	repoManager ports.RepoManager, rootPath string, net *chaincfg.Params,
	buildInfo BuildInfo,
) *WalletService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("wallet service: %s", format)
		log.Debugf(format, a...)
	}

	ws := &WalletService{
		repoManager: repoManager,
		rootPath:    rootPath,
		network:     net,
		buildInfo:   buildInfo,
		lock:        &sync.RWMutex{},
		log:         logFn,
	}
	if w, _ := repoManager.WalletRepository().GetWallet(
		context.Background(),
	); w != nil {
		ws.setInitialized()
	}
	return ws
}

func (ws *WalletService) BuildInfo() BuildInfo {
	return ws.buildInfo
}

// GenSeed returns a new random 24-words mnemonic.
func (ws *WalletService) GenSeed(ctx context.Context) ([]string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return strings.Split(mnemonic, " "), nil
}

// CreateWallet initializes the wallet with the given mnemonic. Fails if a
// wallet already exists.
func (ws *WalletService) CreateWallet(
	ctx context.Context, mnemonic []string,
) (err error) {
	defer func() {
		if err == nil {
			ws.setInitialized()
		}
	}()

	if ws.isInitialized() {
		return fmt.Errorf("wallet is already initialized")
	}

	newWallet, err := domain.NewWallet(mnemonic, ws.rootPath, ws.network.Name)
	if err != nil {
		return
	}

	ws.log("creating wallet for network %s", ws.network.Name)
	return ws.repoManager.WalletRepository().CreateWallet(ctx, newWallet)
}

// EnableSecondPassword turns on double encryption of the wallet seed with the
// given password.
func (ws *WalletService) EnableSecondPassword(
	ctx context.Context, password string,
) error {
	return ws.repoManager.WalletRepository().UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			if err := w.EnableSecondPassword(password); err != nil {
				return nil, err
			}
			return w, nil
		},
	)
}

// DisableSecondPassword turns off double encryption of the wallet seed. The
// current password is required.
func (ws *WalletService) DisableSecondPassword(
	ctx context.Context, password string,
) error {
	return ws.repoManager.WalletRepository().UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			if err := w.DisableSecondPassword(password); err != nil {
				return nil, err
			}
			return w, nil
		},
	)
}

// Status returns whether the wallet is initialized and double-encrypted.
func (ws *WalletService) Status(ctx context.Context) WalletStatus {
	status := WalletStatus{
		Initialized: ws.isInitialized(),
	}
	if !status.Initialized {
		return status
	}

	if w, _ := ws.repoManager.WalletRepository().GetWallet(ctx); w != nil {
		status.DoubleEncrypted = w.HasSecondPassword()
	}
	return status
}

// GetInfo returns info about the wallet and all of its accounts.
func (ws *WalletService) GetInfo(ctx context.Context) (*WalletInfo, error) {
	w, err := ws.repoManager.WalletRepository().GetWallet(ctx)
	if err != nil {
		return nil, err
	}

	accounts := w.AllAccounts()
	list := make([]AccountInfo, 0, len(accounts))
	for _, account := range accounts {
		list = append(list, AccountInfo(account.Info()))
	}
	return &WalletInfo{
		Network:  w.NetworkName,
		RootPath: w.RootPath,
		Accounts: list,
	}, nil
}

func (ws *WalletService) setInitialized() {
	ws.lock.Lock()
	defer ws.lock.Unlock()
	ws.initialized = true
}

func (ws *WalletService) isInitialized() bool {
	ws.lock.RLock()
	defer ws.lock.RUnlock()
	return ws.initialized
}
