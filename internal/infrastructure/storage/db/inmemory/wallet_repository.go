package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/harborwallet/harbor/internal/core/domain"
)

var (
	ErrWalletAlreadyExisting = fmt.Errorf("wallet already existing")
)

type walletInmemoryStore struct {
	wallet *domain.Wallet
	lock   *sync.RWMutex
}

type walletRepository struct {
	store            *walletInmemoryStore
	chEvents         chan domain.WalletEvent
	externalChEvents chan domain.WalletEvent
	chLock           *sync.Mutex
}

func NewWalletRepository() domain.WalletRepository {
	return newWalletRepository()
}

func newWalletRepository() *walletRepository {
	return &walletRepository{
		store: &walletInmemoryStore{
			lock: &sync.RWMutex{},
		},
		chEvents:         make(chan domain.WalletEvent),
		externalChEvents: make(chan domain.WalletEvent),
		chLock:           &sync.Mutex{},
	}
}

func (r *walletRepository) CreateWallet(
	ctx context.Context, wallet *domain.Wallet,
) error {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	if r.store.wallet != nil {
		return ErrWalletAlreadyExisting
	}

	r.store.wallet = wallet

	go r.publishEvent(domain.WalletEvent{
		EventType: domain.WalletCreated,
	})

	return nil
}

func (r *walletRepository) GetWallet(ctx context.Context) (*domain.Wallet, error) {
	r.store.lock.RLock()
	defer r.store.lock.RUnlock()

	if r.store.wallet == nil {
		return nil, fmt.Errorf("wallet is not initialized")
	}
	return r.store.wallet, nil
}

func (r *walletRepository) UpdateWallet(
	ctx context.Context, updateFn func(*domain.Wallet) (*domain.Wallet, error),
) error {
	wallet, err := r.GetWallet(ctx)
	if err != nil {
		return err
	}

	updatedWallet, err := updateFn(wallet)
	if err != nil {
		return err
	}

	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	r.store.wallet = updatedWallet
	return nil
}

func (r *walletRepository) CreateAccount(
	ctx context.Context, label, secondPassword string,
) (*domain.AccountInfo, error) {
	var accountInfo *domain.AccountInfo
	if err := r.UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			account, err := w.CreateAccount(label, secondPassword)
			if err != nil {
				return nil, err
			}
			info := account.Info()
			accountInfo = &info
			return w, nil
		},
	); err != nil {
		return nil, err
	}

	go r.publishEvent(domain.WalletEvent{
		EventType:   domain.WalletAccountCreated,
		AccountName: accountInfo.Name,
		AccountInfo: accountInfo,
	})

	return accountInfo, nil
}

func (r *walletRepository) ImportAccount(
	ctx context.Context, address, label string,
) (*domain.AccountInfo, error) {
	var accountInfo *domain.AccountInfo
	if err := r.UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			account, err := w.ImportAccount(address, label)
			if err != nil {
				return nil, err
			}
			info := account.Info()
			accountInfo = &info
			return w, nil
		},
	); err != nil {
		return nil, err
	}

	go r.publishEvent(domain.WalletEvent{
		EventType:   domain.WalletAccountImported,
		AccountName: accountInfo.Name,
		AccountInfo: accountInfo,
	})

	return accountInfo, nil
}

func (r *walletRepository) GetAccount(
	ctx context.Context, accountName string,
) (*domain.Account, error) {
	wallet, err := r.GetWallet(ctx)
	if err != nil {
		return nil, err
	}
	return wallet.GetAccount(accountName)
}

func (r *walletRepository) SetAccountLabel(
	ctx context.Context, accountName, label string,
) (*domain.AccountInfo, error) {
	var accountInfo *domain.AccountInfo
	if err := r.UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			// resolve by name before renaming, an archived account releases
			// its label and cannot be looked up by the new one.
			account, err := w.GetAccount(accountName)
			if err != nil {
				return nil, err
			}
			if err := w.SetLabelForAccount(accountName, label); err != nil {
				return nil, err
			}
			info := account.Info()
			accountInfo = &info
			return w, nil
		},
	); err != nil {
		return nil, err
	}

	go r.publishEvent(domain.WalletEvent{
		EventType:   domain.WalletAccountLabelChanged,
		AccountName: accountInfo.Name,
		AccountInfo: accountInfo,
	})

	return accountInfo, nil
}

func (r *walletRepository) SetDefaultAccount(
	ctx context.Context, accountName string,
) error {
	if err := r.UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			if err := w.SetDefaultAccount(accountName); err != nil {
				return nil, err
			}
			return w, nil
		},
	); err != nil {
		return err
	}

	go r.publishEvent(domain.WalletEvent{
		EventType:   domain.WalletAccountDefaultChanged,
		AccountName: accountName,
	})

	return nil
}

func (r *walletRepository) ArchiveAccount(
	ctx context.Context, accountName string,
) error {
	if err := r.UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			if err := w.ArchiveAccount(accountName); err != nil {
				return nil, err
			}
			return w, nil
		},
	); err != nil {
		return err
	}

	go r.publishEvent(domain.WalletEvent{
		EventType:   domain.WalletAccountArchived,
		AccountName: accountName,
	})

	return nil
}

func (r *walletRepository) UnarchiveAccount(
	ctx context.Context, accountName string,
) error {
	if err := r.UpdateWallet(
		ctx, func(w *domain.Wallet) (*domain.Wallet, error) {
			if err := w.UnarchiveAccount(accountName); err != nil {
				return nil, err
			}
			return w, nil
		},
	); err != nil {
		return err
	}

	go r.publishEvent(domain.WalletEvent{
		EventType:   domain.WalletAccountUnarchived,
		AccountName: accountName,
	})

	return nil
}

func (r *walletRepository) GetEventChannel() chan domain.WalletEvent {
	return r.externalChEvents
}

func (r *walletRepository) publishEvent(event domain.WalletEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	r.chEvents <- event
	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *walletRepository) reset() {
	r.store.lock.Lock()
	defer r.store.lock.Unlock()

	r.store.wallet = nil
}

func (r *walletRepository) close() {
	close(r.chEvents)
	close(r.externalChEvents)
}
