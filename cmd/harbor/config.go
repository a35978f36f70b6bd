package main

import (
	"fmt"

	"github.com/harborwallet/harbor/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "print effective configuration",
	Long: "this command prints the configuration the CLI and the daemon " +
		"resolve from the environment (HARBOR_ prefixed variables)",
	RunE: configPrint,
}

func configPrint(_ *cobra.Command, _ []string) error {
	state := map[string]interface{}{
		"datadir":           config.GetDatadir(),
		"database_type":     config.GetString(config.DatabaseTypeKey),
		"network":           config.GetString(config.NetworkKey),
		"asset":             config.GetString(config.AssetKey),
		"fiat_currency":     config.GetString(config.FiatCurrencyKey),
		"root_path":         config.GetRootPath(),
		"esplora_url":       config.GetString(config.EsploraUrlKey),
		"rate_url":          config.GetString(config.RateUrlKey),
		"relay_fee_per_kb":  config.GetInt(config.RelayFeeKey),
		"allow_unconfirmed": config.GetBool(config.AllowUnconfirmedKey),
		"log_level":         config.GetInt(config.LogLevelKey),
	}

	jsonReply, err := jsonResponse(state)
	if err != nil {
		printErr(err)
		return nil
	}

	fmt.Println(jsonReply)
	return nil
}
