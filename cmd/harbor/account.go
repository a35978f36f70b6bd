package main

import (
	"context"
	"fmt"

	"github.com/harborwallet/harbor/internal/core/application"
	"github.com/harborwallet/harbor/pkg/keycoder"
	"github.com/spf13/cobra"
)

var (
	accountName, accountLabel     string
	accountSecondPassword         string
	importKeyFormat, importKeyPwd string

	accountCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "create new wallet account",
		Long:  "this command lets you create a new wallet account",
		RunE:  accountCreate,
	}
	accountImportCmd = &cobra.Command{
		Use:   "import",
		Short: "import account from a private key",
		Long: "this command lets you import an account from external private " +
			"key material (WIF, hex, base64 or BIP38)",
		Args: cobra.ExactArgs(1),
		RunE: accountImport,
	}
	accountLabelCmd = &cobra.Command{
		Use:   "label",
		Short: "set label for a wallet account",
		Long: "this command lets you set a label for a wallet account " +
			"that you can then use to refer to it",
		Args: cobra.ExactArgs(1),
		RunE: accountSetLabel,
	}
	accountBalanceCmd = &cobra.Command{
		Use:   "balance",
		Short: "get account balance",
		Long: "this command returns info about the balance of the given " +
			"account (total, withdrawable and pending)",
		RunE: accountBalance,
	}
	accountListCmd = &cobra.Command{
		Use:   "list",
		Short: "list wallet accounts",
		Long:  "this command returns info about every account of the wallet",
		RunE:  accountList,
	}
	accountDefaultCmd = &cobra.Command{
		Use:   "default",
		Short: "elect account as the wallet default",
		Long: "this command elects the given account as the wallet default, " +
			"legal only on active HD accounts",
		RunE: accountSetDefault,
	}
	accountArchiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "archive account",
		Long: "this command hides the given account from active use and " +
			"frees its label for reuse",
		RunE: accountArchive,
	}
	accountUnarchiveCmd = &cobra.Command{
		Use:   "unarchive",
		Short: "restore archived account",
		Long:  "this command restores the given archived account",
		RunE:  accountUnarchive,
	}
	accountCmd = &cobra.Command{
		Use:   "account",
		Short: "interact with the harbor account interface",
		Long: "this command lets you create new or import existing wallet " +
			"accounts, rename or archive them, and get info like their balance",
	}
)

func init() {
	accountCreateCmd.Flags().StringVarP(
		&accountLabel, "label", "l", "", "label for wallet account",
	)
	accountCreateCmd.Flags().StringVar(
		&accountSecondPassword, "second-password", "",
		"second password, required if the wallet is double-encrypted",
	)
	accountCreateCmd.MarkFlagRequired("label")

	accountImportCmd.Flags().StringVarP(
		&accountLabel, "label", "l", "", "label for imported account",
	)
	accountImportCmd.Flags().StringVarP(
		&importKeyFormat, "format", "f", "wif",
		"key format, one of: wif | hex | base64 | bip38",
	)
	accountImportCmd.Flags().StringVarP(
		&importKeyPwd, "password", "p", "", "passphrase for BIP38 keys",
	)
	accountImportCmd.MarkFlagRequired("label")

	accountCmd.PersistentFlags().StringVar(
		&accountName, "account-name", "", "account namespace or label",
	)

	accountLabelCmd.MarkPersistentFlagRequired("account-name")
	accountBalanceCmd.MarkPersistentFlagRequired("account-name")
	accountDefaultCmd.MarkPersistentFlagRequired("account-name")
	accountArchiveCmd.MarkPersistentFlagRequired("account-name")
	accountUnarchiveCmd.MarkPersistentFlagRequired("account-name")

	accountCmd.AddCommand(
		accountCreateCmd, accountImportCmd, accountLabelCmd, accountBalanceCmd,
		accountListCmd, accountDefaultCmd, accountArchiveCmd,
		accountUnarchiveCmd,
	)
}

func accountCreate(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := appCfg.AccountService().CreateAccount(
		context.Background(), accountLabel, accountSecondPassword,
	)
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(info)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func accountImport(cmd *cobra.Command, args []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	format, err := keycoder.ParseFormat(importKeyFormat)
	if err != nil {
		printErr(err)
		return nil
	}

	info, err := appCfg.AccountService().ImportPrivateKey(
		context.Background(), application.ImportKeyArgs{
			KeyData:     args[0],
			Format:      format,
			KeyPassword: importKeyPwd,
			Label:       accountLabel,
		},
	)
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(info)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func accountSetLabel(cmd *cobra.Command, args []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := appCfg.AccountService().UpdateAccountLabel(
		context.Background(), accountName, args[0],
	)
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(info)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func accountBalance(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	balance, err := appCfg.AccountService().GetBalance(
		context.Background(), accountName,
	)
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(balance)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func accountList(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	accounts, err := appCfg.AccountService().ListAccounts(context.Background())
	if err != nil {
		printErr(err)
		return nil
	}

	jsonReply, err := jsonResponse(accounts)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func accountSetDefault(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := appCfg.AccountService().SetDefaultAccount(
		context.Background(), accountName,
	); err != nil {
		printErr(err)
		return nil
	}

	fmt.Println("account elected as default")
	return nil
}

func accountArchive(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := appCfg.AccountService().ArchiveAccount(
		context.Background(), accountName,
	); err != nil {
		printErr(err)
		return nil
	}

	fmt.Println("account archived")
	return nil
}

func accountUnarchive(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := appCfg.AccountService().UnarchiveAccount(
		context.Background(), accountName,
	); err != nil {
		printErr(err)
		return nil
	}

	fmt.Println("account unarchived")
	return nil
}
