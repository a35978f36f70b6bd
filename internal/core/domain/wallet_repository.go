package domain

import (
	"context"
)

const (
	WalletCreated WalletEventType = iota
	WalletAccountCreated
	WalletAccountImported
	WalletAccountLabelChanged
	WalletAccountDefaultChanged
	WalletAccountArchived
	WalletAccountUnarchived
)

var (
	walletTypeString = map[WalletEventType]string{
		WalletCreated:               "WalletCreated",
		WalletAccountCreated:        "WalletAccountCreated",
		WalletAccountImported:       "WalletAccountImported",
		WalletAccountLabelChanged:   "WalletAccountLabelChanged",
		WalletAccountDefaultChanged: "WalletAccountDefaultChanged",
		WalletAccountArchived:       "WalletAccountArchived",
		WalletAccountUnarchived:     "WalletAccountUnarchived",
	}
)

type WalletEventType int

func (t WalletEventType) String() string {
	return walletTypeString[t]
}

// WalletEvent holds info about an event occured within the repository.
type WalletEvent struct {
	EventType   WalletEventType
	AccountName string
	AccountInfo *AccountInfo
}

// WalletRepository is the abstraction for any kind of database intended to
// persist a Wallet.
type WalletRepository interface {
	// CreateWallet stores a new Wallet if not yet existing.
	// Generates a WalletCreated event if successful.
	CreateWallet(ctx context.Context, wallet *Wallet) error
	// GetWallet returns the stored wallet, if existing.
	GetWallet(ctx context.Context) (*Wallet, error)
	// UpdateWallet allows to make multiple changes to the Wallet in a
	// transactional way.
	UpdateWallet(
		ctx context.Context, updateFn func(v *Wallet) (*Wallet, error),
	) error
	// CreateAccount allocates a new HD account with the given label.
	// Generates a WalletAccountCreated event if successful.
	CreateAccount(
		ctx context.Context, label, secondPassword string,
	) (*AccountInfo, error)
	// ImportAccount registers an account for an external address.
	// Generates a WalletAccountImported event if successful.
	ImportAccount(
		ctx context.Context, address, label string,
	) (*AccountInfo, error)
	// GetAccount returns the account with the given name or label.
	GetAccount(ctx context.Context, accountName string) (*Account, error)
	// SetAccountLabel renames the given account.
	// Generates a WalletAccountLabelChanged event if successful.
	SetAccountLabel(
		ctx context.Context, accountName, label string,
	) (*AccountInfo, error)
	// SetDefaultAccount elects the given account as the wallet default.
	// Generates a WalletAccountDefaultChanged event if successful.
	SetDefaultAccount(ctx context.Context, accountName string) error
	// ArchiveAccount hides the given account from active use.
	// Generates a WalletAccountArchived event if successful.
	ArchiveAccount(ctx context.Context, accountName string) error
	// UnarchiveAccount restores the given archived account.
	// Generates a WalletAccountUnarchived event if successful.
	UnarchiveAccount(ctx context.Context, accountName string) error
	// GetEventChannel returns the channel of WalletEvents.
	GetEventChannel() chan WalletEvent
}
