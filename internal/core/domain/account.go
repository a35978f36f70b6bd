package domain

import (
	"fmt"
)

const (
	AccountKindHD AccountKind = iota
	AccountKindImported
)

var (
	accountKindString = map[AccountKind]string{
		AccountKindHD:       "hd",
		AccountKindImported: "imported",
	}

	ErrAccountArchived    = fmt.Errorf("account is archived")
	ErrAccountNotHD       = fmt.Errorf("operation allowed only on hd accounts")
	ErrAccountMissingXpub = fmt.Errorf("missing account xpub")
	ErrAccountMissingAddr = fmt.Errorf("missing account address")
)

// AccountKind is the closed set of account flavors. The kind of an account
// never changes for its whole lifetime.
type AccountKind int

func (k AccountKind) String() string {
	return accountKindString[k]
}

// AccountInfo holds the portable subset of account data exposed to consumers.
type AccountInfo struct {
	Name           string
	Label          string
	Kind           AccountKind
	Xpub           string
	Address        string
	DerivationPath string
}

// Account represents either an HD wallet account, derived from the wallet
// seed at a hardened index, or an account imported from an external private
// key with a single watched address.
type Account struct {
	AccountInfo
	Index    uint32
	Archived bool
	Default  bool
}

// NewHDAccount returns a derived account bound to the given hardened index.
func NewHDAccount(
	name, label, xpub, derivationPath string, index uint32,
) (*Account, error) {
	if xpub == "" {
		return nil, ErrAccountMissingXpub
	}
	return &Account{
		AccountInfo: AccountInfo{
			Name:           name,
			Label:          label,
			Kind:           AccountKindHD,
			Xpub:           xpub,
			DerivationPath: derivationPath,
		},
		Index: index,
	}, nil
}

// NewImportedAccount returns an account holding a single externally supplied
// address. Imported accounts are never eligible to become default.
func NewImportedAccount(name, label, address string) (*Account, error) {
	if address == "" {
		return nil, ErrAccountMissingAddr
	}
	return &Account{
		AccountInfo: AccountInfo{
			Name:    name,
			Label:   label,
			Kind:    AccountKindImported,
			Address: address,
		},
	}, nil
}

// IsHD returns whether the account is derived from the wallet seed.
func (a *Account) IsHD() bool {
	return a.Kind == AccountKindHD
}

// CanBeDefault returns whether the account is eligible to be elected as the
// wallet default. Only non-archived HD accounts qualify.
func (a *Account) CanBeDefault() bool {
	return a.IsHD() && !a.Archived
}

// Archive marks the account as archived. Archiving never destroys balance
// history, the account is only hidden from active use.
func (a *Account) Archive() {
	a.Archived = true
	a.Default = false
}

// Unarchive restores an archived account to active use.
func (a *Account) Unarchive() {
	a.Archived = false
}

func (a *Account) Info() AccountInfo {
	return a.AccountInfo
}
