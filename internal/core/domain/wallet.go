package domain

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	path "github.com/harborwallet/harbor/pkg/derivation-path"
	"github.com/tyler-smith/go-bip39"
)

const (
	namespaceFormat         = "bip%d-account%d"
	importedNamespaceFormat = "imported-account%d"
)

var (
	ErrWalletMissingMnemonic         = fmt.Errorf("missing mnemonic")
	ErrWalletMissingNetwork          = fmt.Errorf("missing network name")
	ErrWalletInvalidMnemonic         = fmt.Errorf("invalid mnemonic")
	ErrWalletInvalidNetwork          = fmt.Errorf("unknown network")
	ErrWalletMaxAccountNumberReached = fmt.Errorf("reached max number of accounts")
	ErrWalletInvalidSecondPassword   = fmt.Errorf("wrong second password")
	ErrWalletSecondPasswordSet       = fmt.Errorf("second password already set")
	ErrWalletSecondPasswordUnset     = fmt.Errorf("second password not set")
	ErrAccountNotFound               = fmt.Errorf("account not found in wallet")
	ErrAccountLabelEmpty             = fmt.Errorf("account label must not be empty")
	ErrAccountLabelInUse             = fmt.Errorf("account label already in use")

	networks = map[string]*chaincfg.Params{
		"mainnet":  &chaincfg.MainNetParams,
		"testnet":  &chaincfg.TestNet3Params,
		"testnet3": &chaincfg.TestNet3Params,
		"regtest":  &chaincfg.RegressionNetParams,
	}
)

// Wallet is the aggregate owning every account of the daemon, whether derived
// from the seed or imported from an external key. The mnemonic lives in
// plaintext in the process store unless the optional second password is
// enabled, in which case it is kept encrypted and every seed-touching
// operation requires the password.
type Wallet struct {
	EncryptedMnemonic  []byte
	SecondPasswordHash []byte
	RootPath           string
	NetworkName        string
	Accounts           map[string]*Account
	AccountsByLabel    map[string]string
	NextAccountIndex   uint32
	NextImportIndex    uint32
}

// NewWallet validates the given mnemonic and returns a Wallet without any
// account and with double encryption disabled.
func NewWallet(mnemonic []string, rootPath, network string) (*Wallet, error) {
	if len(mnemonic) <= 0 {
		return nil, ErrWalletMissingMnemonic
	}
	if !bip39.IsMnemonicValid(strings.Join(mnemonic, " ")) {
		return nil, ErrWalletInvalidMnemonic
	}
	if network == "" {
		return nil, ErrWalletMissingNetwork
	}
	if _, ok := networks[network]; !ok {
		return nil, ErrWalletInvalidNetwork
	}
	if _, err := path.ParseRootDerivationPath(rootPath); err != nil {
		return nil, err
	}

	MnemonicStore.Set(strings.Join(mnemonic, " "))

	return &Wallet{
		RootPath:        rootPath,
		NetworkName:     network,
		Accounts:        make(map[string]*Account),
		AccountsByLabel: make(map[string]string),
	}, nil
}

// HasSecondPassword returns whether the wallet mnemonic is double-encrypted.
func (w *Wallet) HasSecondPassword() bool {
	return len(w.SecondPasswordHash) > 0
}

// EnableSecondPassword encrypts the mnemonic with the given password and
// wipes the plaintext from the process store. From now on, every operation
// that needs the seed requires the password.
func (w *Wallet) EnableSecondPassword(password string) error {
	if w.HasSecondPassword() {
		return ErrWalletSecondPasswordSet
	}

	mnemonic := strings.Join(MnemonicStore.Get(), " ")
	encrypted, err := MnemonicCypher.Encrypt([]byte(mnemonic), []byte(password))
	if err != nil {
		return err
	}

	w.EncryptedMnemonic = encrypted
	w.SecondPasswordHash = btcutil.Hash160([]byte(password))
	MnemonicStore.Unset()
	return nil
}

// DisableSecondPassword decrypts the mnemonic back to the process store and
// drops the double encryption.
func (w *Wallet) DisableSecondPassword(password string) error {
	if !w.HasSecondPassword() {
		return ErrWalletSecondPasswordUnset
	}

	mnemonic, err := w.decryptMnemonic(password)
	if err != nil {
		return err
	}

	MnemonicStore.Set(strings.Join(mnemonic, " "))
	w.EncryptedMnemonic = nil
	w.SecondPasswordHash = nil
	return nil
}

// CreateAccount allocates the next HD account with the given label. The label
// must be unique across active accounts, the second password is mandatory
// when double encryption is enabled.
func (w *Wallet) CreateAccount(label, secondPassword string) (*Account, error) {
	if label == "" {
		return nil, ErrAccountLabelEmpty
	}
	if _, ok := w.AccountsByLabel[label]; ok {
		return nil, ErrAccountLabelInUse
	}
	if w.NextAccountIndex == hdkeychain.HardenedKeyStart {
		return nil, ErrWalletMaxAccountNumberReached
	}

	mnemonic, err := w.getMnemonic(secondPassword)
	if err != nil {
		return nil, err
	}

	xpub, err := deriveAccountXpub(
		mnemonic, w.RootPath, w.NextAccountIndex, networks[w.NetworkName],
	)
	if err != nil {
		return nil, err
	}

	rootPath, _ := path.ParseRootDerivationPath(w.RootPath)
	derivationPath := rootPath.ExtendWithHardened(w.NextAccountIndex)
	namespace := fmt.Sprintf(
		namespaceFormat, rootPath.Purpose(), w.NextAccountIndex,
	)

	account, err := NewHDAccount(
		namespace, label, xpub, derivationPath.String(), w.NextAccountIndex,
	)
	if err != nil {
		return nil, err
	}
	if w.defaultAccount() == nil {
		account.Default = true
	}

	w.Accounts[namespace] = account
	w.AccountsByLabel[label] = namespace
	w.NextAccountIndex++
	return account, nil
}

// ImportAccount registers an account for an externally supplied address. The
// resulting account is never an HD one and is not eligible to be default.
func (w *Wallet) ImportAccount(address, label string) (*Account, error) {
	if label == "" {
		return nil, ErrAccountLabelEmpty
	}
	if _, ok := w.AccountsByLabel[label]; ok {
		return nil, ErrAccountLabelInUse
	}

	namespace := fmt.Sprintf(importedNamespaceFormat, w.NextImportIndex)
	account, err := NewImportedAccount(namespace, label, address)
	if err != nil {
		return nil, err
	}

	w.Accounts[namespace] = account
	w.AccountsByLabel[label] = namespace
	w.NextImportIndex++
	return account, nil
}

// GetAccount safely returns the account identified by the given name, which
// can be either its namespace or its label.
func (w *Wallet) GetAccount(accountName string) (*Account, error) {
	return w.getAccount(accountName)
}

// GetDefaultAccount returns the current default HD account, if any.
func (w *Wallet) GetDefaultAccount() (*Account, error) {
	account := w.defaultAccount()
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// AllAccounts returns every account of the wallet, archived ones included.
func (w *Wallet) AllAccounts() []Account {
	accounts := make([]Account, 0, len(w.Accounts))
	for _, account := range w.Accounts {
		accounts = append(accounts, *account)
	}
	return accounts
}

// SetLabelForAccount changes the label of the given account, enforcing
// uniqueness across active accounts.
func (w *Wallet) SetLabelForAccount(accountName, label string) error {
	if label == "" {
		return ErrAccountLabelEmpty
	}
	account, err := w.getAccount(accountName)
	if err != nil {
		return err
	}
	if namespace, ok := w.AccountsByLabel[label]; ok {
		if namespace == account.Name {
			return nil
		}
		return ErrAccountLabelInUse
	}

	if !account.Archived {
		delete(w.AccountsByLabel, account.Label)
		w.AccountsByLabel[label] = account.Name
	}
	account.Label = label
	return nil
}

// SetDefaultAccount elects the given account as the wallet default. Legal
// only on active HD accounts.
func (w *Wallet) SetDefaultAccount(accountName string) error {
	account, err := w.getAccount(accountName)
	if err != nil {
		return err
	}
	if !account.IsHD() {
		return ErrAccountNotHD
	}
	if account.Archived {
		return ErrAccountArchived
	}

	if current := w.defaultAccount(); current != nil {
		current.Default = false
	}
	account.Default = true
	return nil
}

// ArchiveAccount hides the given account from active use and frees its label
// for reuse. If the account was the default one, the election is cleared.
func (w *Wallet) ArchiveAccount(accountName string) error {
	account, err := w.getAccount(accountName)
	if err != nil {
		return err
	}
	if account.Archived {
		return nil
	}

	account.Archive()
	delete(w.AccountsByLabel, account.Label)
	return nil
}

// UnarchiveAccount restores an archived account. It fails if the label has
// been reclaimed by another account in the meantime.
func (w *Wallet) UnarchiveAccount(accountName string) error {
	account, err := w.getAccount(accountName)
	if err != nil {
		return err
	}
	if !account.Archived {
		return nil
	}
	if _, ok := w.AccountsByLabel[account.Label]; ok {
		return ErrAccountLabelInUse
	}

	account.Unarchive()
	w.AccountsByLabel[account.Label] = account.Name
	return nil
}

// Network returns the chain parameters the wallet operates on.
func (w *Wallet) Network() *chaincfg.Params {
	return networks[w.NetworkName]
}

func (w *Wallet) isValidSecondPassword(password string) bool {
	return bytes.Equal(w.SecondPasswordHash, btcutil.Hash160([]byte(password)))
}

func (w *Wallet) getMnemonic(secondPassword string) ([]string, error) {
	if !w.HasSecondPassword() {
		return MnemonicStore.Get(), nil
	}
	return w.decryptMnemonic(secondPassword)
}

func (w *Wallet) decryptMnemonic(password string) ([]string, error) {
	if !w.isValidSecondPassword(password) {
		return nil, ErrWalletInvalidSecondPassword
	}
	mnemonic, err := MnemonicCypher.Decrypt(w.EncryptedMnemonic, []byte(password))
	if err != nil {
		return nil, err
	}
	return strings.Fields(string(mnemonic)), nil
}

func (w *Wallet) getAccount(accountName string) (*Account, error) {
	if namespace, ok := w.AccountsByLabel[accountName]; ok {
		return w.Accounts[namespace], nil
	}

	account, ok := w.Accounts[accountName]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (w *Wallet) defaultAccount() *Account {
	for _, account := range w.Accounts {
		if account.Default {
			return account
		}
	}
	return nil
}

func deriveAccountXpub(
	mnemonic []string, rootPath string, index uint32, net *chaincfg.Params,
) (string, error) {
	seed := bip39.NewSeed(strings.Join(mnemonic, " "), "")
	master, err := hdkeychain.NewMaster(seed, net)
	if err != nil {
		return "", err
	}

	derivationPath, _ := path.ParseRootDerivationPath(rootPath)
	key := master
	for _, step := range derivationPath.ExtendWithHardened(index) {
		key, err = key.Derive(step)
		if err != nil {
			return "", err
		}
	}

	xpub, err := key.Neuter()
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}
