package postgresdb

import (
	"context"
	"errors"
	"sync"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const (
	// there can be only one wallet per database, the key is hardcoded for
	// easier retrieval.
	walletKey = "wallet"
	// uniqueViolation is the postgres error code for unique constraint
	// violations.
	uniqueViolation = "23505"
)

var (
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrWalletAlreadyExisting = errors.New("wallet already existing")
)

type walletRepositoryPg struct {
	pgxPool          *pgxpool.Pool
	chLock           *sync.Mutex
	chEvents         chan domain.WalletEvent
	externalChEvents chan domain.WalletEvent
}

func NewWalletRepositoryPgImpl(pgxPool *pgxpool.Pool) domain.WalletRepository {
	return newWalletRepositoryPgImpl(pgxPool)
}

func newWalletRepositoryPgImpl(pgxPool *pgxpool.Pool) *walletRepositoryPg {
	return &walletRepositoryPg{
		pgxPool:          pgxPool,
		chLock:           &sync.Mutex{},
		chEvents:         make(chan domain.WalletEvent),
		externalChEvents: make(chan domain.WalletEvent),
	}
}

func (r *walletRepositoryPg) CreateWallet(
	ctx context.Context, wallet *domain.Wallet,
) error {
	if _, err := r.pgxPool.Exec(
		ctx,
		`INSERT INTO wallet (
			id, encrypted_mnemonic, second_password_hash, root_path,
			network_name, next_account_index, next_import_index
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		walletKey, wallet.EncryptedMnemonic, wallet.SecondPasswordHash,
		wallet.RootPath, wallet.NetworkName,
		int32(wallet.NextAccountIndex), int32(wallet.NextImportIndex),
	); err != nil {
		var pqErr *pgconn.PgError
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrWalletAlreadyExisting
		}
		return err
	}

	go r.publishEvent(domain.WalletEvent{
		EventType: domain.WalletCreated,
	})

	return nil
}

func (r *walletRepositoryPg) GetWallet(
	ctx context.Context,
) (*domain.Wallet, error) {
	return r.getWallet(ctx)
}

func (r *walletRepositoryPg) UpdateWallet(
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

	tx, err := r.pgxPool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(
		ctx,
		`UPDATE wallet SET
			encrypted_mnemonic = $2, second_password_hash = $3,
			next_account_index = $4, next_import_index = $5
		WHERE id = $1`,
		walletKey, updatedWallet.EncryptedMnemonic,
		updatedWallet.SecondPasswordHash,
		int32(updatedWallet.NextAccountIndex),
		int32(updatedWallet.NextImportIndex),
	); err != nil {
		return err
	}

	// accounts are never deleted, an upsert per account covers both the
	// freshly created ones and any label/default/archival change.
	for _, account := range updatedWallet.Accounts {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO account (
				name, label, kind, xpub, address, derivation_path,
				account_index, archived, is_default, fk_wallet_id
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (name) DO UPDATE SET
				label = $2, archived = $8, is_default = $9`,
			account.Name, account.Label, int32(account.Kind), account.Xpub,
			account.Address, account.DerivationPath, int32(account.Index),
			account.Archived, account.Default, walletKey,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *walletRepositoryPg) CreateAccount(
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

func (r *walletRepositoryPg) ImportAccount(
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

func (r *walletRepositoryPg) GetAccount(
	ctx context.Context, accountName string,
) (*domain.Account, error) {
	wallet, err := r.getWallet(ctx)
	if err != nil {
		return nil, err
	}
	return wallet.GetAccount(accountName)
}

func (r *walletRepositoryPg) SetAccountLabel(
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

func (r *walletRepositoryPg) SetDefaultAccount(
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

func (r *walletRepositoryPg) ArchiveAccount(
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

func (r *walletRepositoryPg) UnarchiveAccount(
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

func (r *walletRepositoryPg) GetEventChannel() chan domain.WalletEvent {
	return r.externalChEvents
}

func (r *walletRepositoryPg) publishEvent(event domain.WalletEvent) {
	r.chLock.Lock()
	defer r.chLock.Unlock()

	r.chEvents <- event
	// send over channel without blocking in case nobody is listening.
	select {
	case r.externalChEvents <- event:
	default:
	}
}

func (r *walletRepositoryPg) reset(ctx context.Context) {
	r.pgxPool.Exec(ctx, "DELETE FROM account")
	r.pgxPool.Exec(ctx, "DELETE FROM wallet")
}

func (r *walletRepositoryPg) close() {
	close(r.chEvents)
	close(r.externalChEvents)
}

// getWallet rebuilds the wallet aggregate from the wallet and account tables.
func (r *walletRepositoryPg) getWallet(
	ctx context.Context,
) (*domain.Wallet, error) {
	wallet := &domain.Wallet{
		Accounts:        make(map[string]*domain.Account),
		AccountsByLabel: make(map[string]string),
	}

	var nextAccountIndex, nextImportIndex int32
	if err := r.pgxPool.QueryRow(
		ctx,
		`SELECT encrypted_mnemonic, second_password_hash, root_path,
			network_name, next_account_index, next_import_index
		FROM wallet WHERE id = $1`,
		walletKey,
	).Scan(
		&wallet.EncryptedMnemonic, &wallet.SecondPasswordHash,
		&wallet.RootPath, &wallet.NetworkName,
		&nextAccountIndex, &nextImportIndex,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	wallet.NextAccountIndex = uint32(nextAccountIndex)
	wallet.NextImportIndex = uint32(nextImportIndex)

	rows, err := r.pgxPool.Query(
		ctx,
		`SELECT name, label, kind, xpub, address, derivation_path,
			account_index, archived, is_default
		FROM account WHERE fk_wallet_id = $1`,
		walletKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		account := &domain.Account{}
		var kind, index int32
		if err := rows.Scan(
			&account.Name, &account.Label, &kind, &account.Xpub,
			&account.Address, &account.DerivationPath, &index,
			&account.Archived, &account.Default,
		); err != nil {
			return nil, err
		}
		account.Kind = domain.AccountKind(kind)
		account.Index = uint32(index)

		wallet.Accounts[account.Name] = account
		// archived accounts release their label for reuse.
		if !account.Archived {
			wallet.AccountsByLabel[account.Label] = account.Name
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return wallet, nil
}
