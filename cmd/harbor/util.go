package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	appconfig "github.com/harborwallet/harbor/internal/app-config"
	"github.com/harborwallet/harbor/internal/config"
	"github.com/harborwallet/harbor/internal/core/domain"
	cypher "github.com/harborwallet/harbor/internal/infrastructure/mnemonic-cypher/aes256"
	store "github.com/harborwallet/harbor/internal/infrastructure/mnemonic-store/in-memory"
	postgresdb "github.com/harborwallet/harbor/internal/infrastructure/storage/db/postgres"
)

var colorRed = string("\033[31m")

// getAppConfig wires the application services against the same datadir the
// daemon uses, so the CLI operates in-process on the shared database.
func getAppConfig() (*appconfig.AppConfig, func(), error) {
	domain.MnemonicCypher = cypher.NewAES256Cypher()
	domain.MnemonicStore = store.NewInMemoryMnemonicStore()

	appCfg := &appconfig.AppConfig{
		Version:           version,
		Commit:            commit,
		Date:              date,
		RootPath:          config.GetRootPath(),
		Network:           config.GetNetwork(),
		Asset:             config.GetString(config.AssetKey),
		FiatCurrency:      config.GetString(config.FiatCurrencyKey),
		EsploraUrl:        config.GetString(config.EsploraUrlKey),
		RateUrl:           config.GetString(config.RateUrlKey),
		RelayFeePerKb:     uint64(config.GetInt(config.RelayFeeKey)),
		AllowUnconfirmed:  config.GetBool(config.AllowUnconfirmedKey),
		RepoManagerType:   config.GetString(config.DatabaseTypeKey),
		RepoManagerConfig: repoManagerConfig(config.GetString(config.DatabaseTypeKey)),
	}
	if err := appCfg.Validate(); err != nil {
		return nil, nil, err
	}

	cleanup := func() { appCfg.RepoManager().Close() }
	return appCfg, cleanup, nil
}

// repoManagerConfig returns the config args expected by the repo manager of
// the given type: the db directory for badger, the connection params for
// postgres, nothing for inmemory.
func repoManagerConfig(dbType string) interface{} {
	switch dbType {
	case "badger":
		return filepath.Join(config.GetDatadir(), config.DbLocation)
	case "postgres":
		return postgresdb.DbConfig{
			DbUser:             config.GetString(config.DbUserKey),
			DbPassword:         config.GetString(config.DbPassKey),
			DbHost:             config.GetString(config.DbHostKey),
			DbPort:             config.GetInt(config.DbPortKey),
			DbName:             config.GetString(config.DbNameKey),
			MigrationSourceURL: config.GetString(config.DbMigrationPathKey),
		}
	default:
		return nil
	}
}

func jsonResponse(v interface{}) (string, error) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %s", err)
	}
	return string(buf), nil
}

func printErr(err error) {
	msg := fmt.Sprintf("%s%s", colorRed, capitalize(err.Error()))
	fmt.Fprintln(os.Stderr, msg)
}

func capitalize(s string) string {
	ss := strings.ToUpper(s[0:1])
	ss += s[1:]
	return ss
}

func formatVersion() string {
	return fmt.Sprintf(
		"\nVersion: %s\nCommit: %s\nDate: %s", version, commit, date,
	)
}

func parseFeeLevel(level string) (domain.FeeLevel, error) {
	switch strings.ToLower(level) {
	case "regular":
		return domain.FeeLevelRegular, nil
	case "priority":
		return domain.FeeLevelPriority, nil
	case "custom":
		return domain.FeeLevelCustom, nil
	default:
		return domain.FeeLevelNone, fmt.Errorf(
			"unknown fee level, must be one of: regular | priority | custom",
		)
	}
}

func outputTypeOf(
	address string, net *chaincfg.Params,
) (domain.OutputType, error) {
	decoded, err := btcutil.DecodeAddress(address, net)
	if err != nil {
		return 0, err
	}
	switch decoded.(type) {
	case *btcutil.AddressWitnessPubKeyHash:
		return domain.OutputTypeP2WPKH, nil
	case *btcutil.AddressTaproot:
		return domain.OutputTypeP2TR, nil
	case *btcutil.AddressScriptHash:
		return domain.OutputTypeNestedP2WPKH, nil
	default:
		return domain.OutputTypeP2PKH, nil
	}
}
