package esplora_explorer

import (
	"github.com/harborwallet/harbor/internal/core/domain"
)

type esploraUtxoStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint64 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	BlockTime   int64  `json:"block_time"`
}

type esploraUtxo struct {
	TxID   string            `json:"txid"`
	VOut   uint32            `json:"vout"`
	Value  uint64            `json:"value"`
	Status esploraUtxoStatus `json:"status"`
}

func (u esploraUtxo) toDomain(
	accountName string, script []byte, outType domain.OutputType,
	tipHeight uint64,
) *domain.Utxo {
	var confirmations uint64
	if u.Status.Confirmed && tipHeight >= u.Status.BlockHeight {
		confirmations = tipHeight - u.Status.BlockHeight + 1
	}
	return &domain.Utxo{
		UtxoKey: domain.UtxoKey{
			TxID: u.TxID,
			VOut: u.VOut,
		},
		Value:         u.Value,
		Script:        script,
		Type:          outType,
		Confirmations: confirmations,
		FkAccountName: accountName,
	}
}
