package application

import (
	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/pkg/keycoder"
)

const (
	AssetBTC = "BTC"
	AssetBCH = "BCH"

	// MaxSpendableAmount is the network-wide cap on a single spend, in
	// satoshis (21 million coins).
	MaxSpendableAmount = uint64(2_100_000_000_000_000)
	// DustFloor is the minimum amount a human is allowed to send.
	DustFloor = uint64(546)
)

var (
	// assetScheme maps an asset to its BIP21 payment uri scheme.
	assetScheme = map[string]string{
		AssetBTC: "bitcoin",
		AssetBCH: "bitcoincash",
	}

	// availableFeeLevels is the set of fee tiers selectable by a user. None
	// is deliberately not part of it.
	availableFeeLevels = []domain.FeeLevel{
		domain.FeeLevelRegular, domain.FeeLevelPriority, domain.FeeLevelCustom,
	}
)

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type AccountInfo domain.AccountInfo

type BalanceInfo domain.AccountBalance

// WalletStatus reports whether the wallet is initialized and whether its seed
// is double-encrypted.
type WalletStatus struct {
	Initialized     bool
	DoubleEncrypted bool
}

// WalletInfo bundles non-sensitive info about the wallet and its accounts.
type WalletInfo struct {
	Network  string
	RootPath string
	Accounts []AccountInfo
}

type Utxos []*domain.Utxo

func (u Utxos) Keys() []domain.UtxoKey {
	keys := make([]domain.UtxoKey, 0, len(u))
	for _, utxo := range u {
		keys = append(keys, utxo.Key())
	}
	return keys
}

func (u Utxos) TotalValue() uint64 {
	var total uint64
	for _, utxo := range u {
		total += utxo.Value
	}
	return total
}

// ParsedAddress is the outcome of scanning a heterogeneous payload for an
// address or payment uri. Amount is in satoshis and nil when the payload
// carries none.
type ParsedAddress struct {
	Address string
	Amount  *uint64
	Label   string
}

// ImportKeyArgs bundles the arguments needed to import an account from
// external private key material.
type ImportKeyArgs struct {
	KeyData     string
	Format      keycoder.Format
	KeyPassword string
	Label       string
}

// TxTarget is the destination a transaction engine is bound to.
type TxTarget struct {
	Address string
	Asset   string
	Type    domain.OutputType
}
