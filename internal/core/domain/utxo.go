package domain

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcwallet/wallet/txrules"
)

const (
	OutputTypeP2PKH OutputType = iota
	OutputTypeNestedP2WPKH
	OutputTypeP2WPKH
	OutputTypeP2TR
)

var (
	outputTypeString = map[OutputType]string{
		OutputTypeP2PKH:        "p2pkh",
		OutputTypeNestedP2WPKH: "p2sh-p2wpkh",
		OutputTypeP2WPKH:       "p2wpkh",
		OutputTypeP2TR:         "p2tr",
	}
)

// OutputType is the script class of an output, driving the size its spending
// input adds to a transaction.
type OutputType int

func (t OutputType) String() string {
	return outputTypeString[t]
}

// UtxoKey represents the key of an Utxo, composed by its txid and vout.
type UtxoKey struct {
	TxID string
	VOut uint32
}

func (k UtxoKey) Hash() string {
	buf, _ := hex.DecodeString(k.TxID)
	buf = append(buf, byte(k.VOut))
	return hex.EncodeToString(btcutil.Hash160(buf))
}

func (k UtxoKey) String() string {
	return fmt.Sprintf("{%s: %d}", k.TxID, k.VOut)
}

// Utxo is a read-only snapshot of an unspent output owned by one of the
// wallet accounts. Snapshots are never mutated, only superseded by a fresh
// fetch from the chain source.
type Utxo struct {
	UtxoKey
	Value         uint64
	Script        []byte
	Type          OutputType
	Confirmations uint64
	FkAccountName string
}

// IsConfirmed returns whether the utxo is included in a block.
func (u *Utxo) IsConfirmed() bool {
	return u.Confirmations > 0
}

// IsDust returns whether the utxo value is too small to be economically
// spendable at the given relay fee rate.
func (u *Utxo) IsDust(relayFeePerKb uint64) bool {
	return txrules.IsDustAmount(
		btcutil.Amount(u.Value), len(u.Script),
		btcutil.Amount(relayFeePerKb),
	)
}

// Key returns the UtxoKey of the current utxo.
func (u *Utxo) Key() UtxoKey {
	return u.UtxoKey
}
