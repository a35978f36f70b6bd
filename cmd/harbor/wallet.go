package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	walletMnemonic string
	walletPassword string

	walletGenSeedCmd = &cobra.Command{
		Use:   "genseed",
		Short: "generate a random mnemonic",
		Long:  "this command generates a new random 24-words mnemonic",
		RunE:  walletGenSeed,
	}
	walletCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "initialize the wallet",
		Long:  "this command initializes the wallet with the given mnemonic",
		RunE:  walletCreate,
	}
	walletStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "get wallet status",
		Long: "this command returns whether the wallet is initialized and " +
			"double-encrypted",
		RunE: walletStatus,
	}
	walletInfoCmd = &cobra.Command{
		Use:   "info",
		Short: "get wallet info",
		Long: "this command returns info about the wallet like the network " +
			"and the list of its accounts",
		RunE: walletInfo,
	}
	walletSecondPasswordCmd = &cobra.Command{
		Use:   "second-password",
		Short: "enable or disable the second password",
		Long: "this command turns on or off double encryption of the wallet " +
			"seed with the given password",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"enable", "disable"},
		RunE:      walletSecondPassword,
	}
	walletCmd = &cobra.Command{
		Use:   "wallet",
		Short: "interact with the harbor wallet interface",
		Long: "this command lets you initialize the wallet, manage its second " +
			"password and get info about its status and accounts",
	}
)

func init() {
	walletCreateCmd.Flags().StringVarP(
		&walletMnemonic, "mnemonic", "m", "", "space-separated mnemonic words",
	)
	walletCreateCmd.MarkFlagRequired("mnemonic")

	walletSecondPasswordCmd.Flags().StringVarP(
		&walletPassword, "password", "p", "", "second password",
	)
	walletSecondPasswordCmd.MarkFlagRequired("password")

	walletCmd.AddCommand(
		walletGenSeedCmd, walletCreateCmd, walletStatusCmd, walletInfoCmd,
		walletSecondPasswordCmd,
	)
}

func walletGenSeed(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	mnemonic, err := appCfg.WalletService().GenSeed(context.Background())
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(strings.Join(mnemonic, " "))
	return nil
}

func walletCreate(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	mnemonic := strings.Fields(walletMnemonic)
	if err := appCfg.WalletService().CreateWallet(
		context.Background(), mnemonic,
	); err != nil {
		printErr(err)
		return nil
	}

	fmt.Println("wallet initialized")
	return nil
}

func walletStatus(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	status := appCfg.WalletService().Status(context.Background())
	jsonReply, err := jsonResponse(status)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}

func walletInfo(cmd *cobra.Command, _ []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	info, err := appCfg.WalletService().GetInfo(context.Background())
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

func walletSecondPassword(cmd *cobra.Command, args []string) error {
	appCfg, cleanup, err := getAppConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	switch args[0] {
	case "enable":
		err = appCfg.WalletService().EnableSecondPassword(ctx, walletPassword)
	case "disable":
		err = appCfg.WalletService().DisableSecondPassword(ctx, walletPassword)
	default:
		return fmt.Errorf("unknown action, must be one of: enable | disable")
	}
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Printf("second password %sd\n", args[0])
	return nil
}
