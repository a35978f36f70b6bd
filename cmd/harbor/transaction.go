package main

import (
	"context"
	"fmt"

	"github.com/harborwallet/harbor/internal/core/application"
	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/spf13/cobra"
)

var (
	txRecipient  string
	txAmount     uint64
	txFeeLevel   string
	txCustomRate int64

	txQuoteCmd = &cobra.Command{
		Use:   "quote",
		Short: "quote a prospective transaction",
		Long: "this command runs a full builder session for a prospective " +
			"transaction and prints the resulting amounts, fees, validation " +
			"outcome and confirmation summary. Nothing is signed or broadcast",
		RunE: txQuote,
	}
	txFeeLevelCmd = &cobra.Command{
		Use:   "fee-level",
		Short: "get or set the remembered fee level",
		Long: "this command prints the fee level remembered for the asset, " +
			"or sets it when one of regular | priority | custom is given",
		Args: cobra.MaximumNArgs(1),
		RunE: txSetFeeLevel,
	}
	txCmd = &cobra.Command{
		Use:   "tx",
		Short: "interact with the harbor transaction interface",
		Long: "this command lets you quote prospective transactions and " +
			"manage the remembered fee level",
	}
)

func init() {
	txQuoteCmd.Flags().StringVar(
		&accountName, "account-name", "", "account namespace or label",
	)
	txQuoteCmd.Flags().StringVar(
		&txRecipient, "to", "", "destination address or payment uri",
	)
	txQuoteCmd.Flags().Uint64Var(
		&txAmount, "amount", 0,
		"amount to send in satoshis, overridden by the payment uri amount",
	)
	txQuoteCmd.Flags().StringVar(
		&txFeeLevel, "fee-level", "",
		"fee level to quote at, one of: regular | priority | custom",
	)
	txQuoteCmd.Flags().Int64Var(
		&txCustomRate, "custom-rate", 0, "custom fee rate in sat/vB",
	)
	txQuoteCmd.MarkFlagRequired("account-name")
	txQuoteCmd.MarkFlagRequired("to")

	txCmd.AddCommand(txQuoteCmd, txFeeLevelCmd)
}

func txQuote(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()

	parsed, err := appCfg.AccountService().ParseAddress(txRecipient)
	if err != nil {
		printErr(err)
		return nil
	}
	if parsed == nil {
		printErr(fmt.Errorf("invalid destination address or payment uri"))
		return nil
	}

	amount := txAmount
	if parsed.Amount != nil {
		amount = *parsed.Amount
	}

	account, err := appCfg.RepoManager().WalletRepository().GetAccount(
		ctx, accountName,
	)
	if err != nil {
		printErr(err)
		return nil
	}

	targetType, err := outputTypeOf(parsed.Address, appCfg.Network)
	if err != nil {
		printErr(err)
		return nil
	}

	engine := appCfg.TransactionService().NewEngine()
	engine.Start(account.Info(), application.TxTarget{
		Address: parsed.Address,
		Asset:   appCfg.Asset,
		Type:    targetType,
	})

	tx, err := engine.InitialiseTx(ctx)
	if err != nil {
		printErr(err)
		return nil
	}

	tx, err = engine.UpdateAmount(ctx, amount, *tx)
	if err != nil {
		printErr(err)
		return nil
	}

	if len(txFeeLevel) > 0 {
		level, err := parseFeeLevel(txFeeLevel)
		if err != nil {
			printErr(err)
			return nil
		}
		tx, err = engine.UpdateFeeLevel(ctx, *tx, level, txCustomRate)
		if err != nil {
			printErr(err)
			return nil
		}
	}

	tx, err = engine.ValidateAll(ctx, *tx)
	if err != nil {
		printErr(err)
		return nil
	}

	tx, err = engine.BuildConfirmations(ctx, *tx)
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(quoteReply(*tx))
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func txSetFeeLevel(cmd *cobra.Command, args []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	feePrefs := appCfg.RepoManager().FeePreferenceRepository()

	if len(args) == 0 {
		level, err := feePrefs.GetFeeLevel(ctx, appCfg.Asset)
		if err != nil {
			printErr(err)
			return nil
		}
		fmt.Println(level)
		return nil
	}

	level, err := parseFeeLevel(args[0])
	if err != nil {
		printErr(err)
		return nil
	}
	if err := feePrefs.SetFeeLevel(ctx, appCfg.Asset, level); err != nil {
		printErr(err)
		return nil
	}

	fmt.Printf("fee level set to %s\n", level)
	return nil
}

// quoteReply flattens a PendingTx into the JSON document printed by the quote
// command, dropping the engine scratch space.
func quoteReply(tx domain.PendingTx) map[string]interface{} {
	confirmations := make([]map[string]interface{}, 0, len(tx.Confirmations))
	for _, c := range tx.Confirmations {
		entry := map[string]interface{}{
			"kind":   c.Kind.String(),
			"label":  c.Label,
			"amount": c.Amount,
		}
		if c.Fiat != nil {
			entry["fiat"] = c.Fiat.StringFixed(2)
		}
		confirmations = append(confirmations, entry)
	}

	reply := map[string]interface{}{
		"amount":                 tx.Amount,
		"total_balance":          tx.TotalBalance,
		"available_balance":      tx.AvailableBalance,
		"fee_amount":             tx.FeeAmount,
		"fee_for_full_available": tx.FeeForFullAvailable,
		"fee_level":              tx.FeeSelection.SelectedLevel.String(),
		"validation_state":       tx.ValidationState.String(),
		"confirmations":          confirmations,
	}
	if tx.FeeSelection.CustomAmount != domain.CustomFeeSentinel {
		reply["custom_rate_per_byte"] = tx.FeeSelection.CustomAmount
	}
	return reply
}
