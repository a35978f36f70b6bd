package dbbadger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/harborwallet/harbor/internal/core/domain"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	// there can be only 1 wallet in database, the key is hardcoded for
	// easier retrieval
	walletKey = "wallet"
)

type walletRepository struct {
	store            *badgerhold.Store
	chEvents         chan domain.WalletEvent
	externalChEvents chan domain.WalletEvent
	lock             *sync.Mutex

	log func(format string, a ...interface{})
}

func NewWalletRepository(store *badgerhold.Store) domain.WalletRepository {
	return newWalletRepository(store)
}

func newWalletRepository(store *badgerhold.Store) *walletRepository {
	chEvents := make(chan domain.WalletEvent, 10)
	externalChEvents := make(chan domain.WalletEvent, 10)
	lock := &sync.Mutex{}
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("wallet repository: %s", format)
		log.Debugf(format, a...)
	}
	return &walletRepository{store, chEvents, externalChEvents, lock, logFn}
}

func (r *walletRepository) CreateWallet(
	ctx context.Context, wallet *domain.Wallet,
) error {
	if err := r.insertWallet(ctx, wallet); err != nil {
		return err
	}

	go r.publishEvent(domain.WalletEvent{
		EventType: domain.WalletCreated,
	})

	return nil
}

func (r *walletRepository) GetWallet(
	ctx context.Context,
) (*domain.Wallet, error) {
	return r.getWallet(ctx)
}

func (r *walletRepository) UpdateWallet(
	ctx context.Context, updateFn func(v *domain.Wallet) (*domain.Wallet, error),
) error {
	wallet, err := r.getWallet(ctx)
	if err != nil {
		return err
	}

	updatedWallet, err := updateFn(wallet)
	if err != nil {
		return err
	}

	return r.updateWallet(ctx, updatedWallet)
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
	wallet, err := r.getWallet(ctx)
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

func (r *walletRepository) insertWallet(
	ctx context.Context, wallet *domain.Wallet,
) error {
	var err error

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxInsert(tx, walletKey, *wallet)
	} else {
		err = r.store.Insert(walletKey, *wallet)
	}
	if err != nil {
		if err == badgerhold.ErrKeyExists {
			return fmt.Errorf("wallet is already initialized")
		}
		return err
	}

	return nil
}

func (r *walletRepository) getWallet(ctx context.Context) (*domain.Wallet, error) {
	var err error
	var wallet domain.Wallet

	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		err = r.store.TxGet(tx, walletKey, &wallet)
	} else {
		err = r.store.Get(walletKey, &wallet)
	}

	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("wallet is not initialized")
		}
		return nil, err
	}

	return &wallet, nil
}

func (r *walletRepository) updateWallet(
	ctx context.Context, wallet *domain.Wallet,
) error {
	if ctx.Value("tx") != nil {
		tx := ctx.Value("tx").(*badger.Txn)
		return r.store.TxUpdate(tx, walletKey, *wallet)
	}
	return r.store.Update(walletKey, *wallet)
}

func (r *walletRepository) publishEvent(event domain.WalletEvent) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.log("publish event %s", event.EventType)
	r.chEvents <- event

	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *walletRepository) reset() {
	r.store.Badger().DropAll()
}

func (r *walletRepository) close() {
	r.store.Close()
	close(r.chEvents)
	close(r.externalChEvents)
}
