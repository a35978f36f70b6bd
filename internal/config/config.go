package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the key to customize the harbor datadir.
	DatadirKey = "DATADIR"
	// DatabaseTypeKey is the key to customize the type of database to use.
	DatabaseTypeKey = "DATABASE_TYPE"
	// NetworkKey is the key to customize the Bitcoin network.
	NetworkKey = "NETWORK"
	// AssetKey is the key to customize the asset managed by the wallet.
	AssetKey = "ASSET"
	// FiatCurrencyKey is the key to customize the fiat currency used to
	// annotate balances and fees.
	FiatCurrencyKey = "FIAT_CURRENCY"
	// LogLevelKey is the key to customize the log level to catch more specific
	// or more high level logs.
	LogLevelKey = "LOG_LEVEL"
	// AllowUnconfirmedKey is the key to let unconfirmed utxos count as
	// spendable funds.
	AllowUnconfirmedKey = "ALLOW_UNCONFIRMED"
	// EsploraUrlKey is the key for the esplora block explorer used as chain
	// source and fee oracle.
	EsploraUrlKey = "ESPLORA_URL"
	// RateUrlKey is the key for the exchange rate provider consumed to
	// annotate amounts in fiat terms.
	RateUrlKey = "RATE_URL"
	// RootPathKey is the key to use a custom root path for the wallet,
	// instead of the default m/84'/[0|1]' (depending on network).
	RootPathKey = "ROOT_PATH"
	// RelayFeeKey is the key to customize the relay fee rate (sats per kvB)
	// used as dust discriminator.
	RelayFeeKey = "RELAY_FEE_PER_KB"
	// DbUserKey is the key to set the user of the postgres database.
	DbUserKey = "DB_USER"
	// DbPassKey is the key to set the password of the postgres database.
	DbPassKey = "DB_PASS"
	// DbHostKey is the key to set the host of the postgres database.
	DbHostKey = "DB_HOST"
	// DbPortKey is the key to set the port of the postgres database.
	DbPortKey = "DB_PORT"
	// DbNameKey is the key to set the name of the postgres database.
	DbNameKey = "DB_NAME"
	// DbMigrationPathKey is the key to set the source url of the postgres
	// migration files.
	DbMigrationPathKey = "DB_MIGRATION_PATH"
	// NoProfilerKey is the key to disable the profiler webserver.
	NoProfilerKey = "NO_PROFILER"
	// ProfilerPortKey is the key to customize the port where the profiler will
	// listen to.
	ProfilerPortKey = "PROFILER_PORT"
	// StatsIntervalKey is the key to customize the interval, in seconds,
	// between two memory stats logs of the profiler.
	StatsIntervalKey = "STATS_INTERVAL"

	// DbLocation is the folder inside the datadir containing db files.
	DbLocation = "db"
	// ProfilerLocation is the folder inside the datadir containing profiler
	// stats files.
	ProfilerLocation = "stats"
)

var (
	vip *viper.Viper

	defaultDatadir       = btcutil.AppDataDir("harbord", false)
	defaultDbType        = "badger"
	defaultNetwork       = chaincfg.MainNetParams.Name
	defaultAsset         = "BTC"
	defaultFiatCurrency  = "USD"
	defaultLogLevel      = 4
	defaultEsploraUrl    = "https://blockstream.info/api"
	defaultRateUrl       = "https://bitpay.com/rates"
	defaultRelayFee      = 1000
	defaultMigrationPath = "file://internal/infrastructure/storage/db/postgres/migration"
	defaultProfilerPort  = 18001
	defaultStatsInterval = 600 // 10 minutes

	supportedNetworks = map[string]*chaincfg.Params{
		chaincfg.MainNetParams.Name:       &chaincfg.MainNetParams,
		chaincfg.TestNet3Params.Name:      &chaincfg.TestNet3Params,
		chaincfg.RegressionNetParams.Name: &chaincfg.RegressionNetParams,
	}
	coinTypeByNetwork = map[string]int{
		chaincfg.MainNetParams.Name:       0,
		chaincfg.TestNet3Params.Name:      1,
		chaincfg.RegressionNetParams.Name: 1,
	}
	SupportedDbs = supportedType{
		"badger":   {},
		"inmemory": {},
		"postgres": {},
	}
)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("HARBOR")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DatabaseTypeKey, defaultDbType)
	vip.SetDefault(NetworkKey, defaultNetwork)
	vip.SetDefault(AssetKey, defaultAsset)
	vip.SetDefault(FiatCurrencyKey, defaultFiatCurrency)
	vip.SetDefault(LogLevelKey, defaultLogLevel)
	vip.SetDefault(AllowUnconfirmedKey, false)
	vip.SetDefault(EsploraUrlKey, defaultEsploraUrl)
	vip.SetDefault(RateUrlKey, defaultRateUrl)
	vip.SetDefault(RelayFeeKey, defaultRelayFee)
	vip.SetDefault(DbUserKey, "harbor")
	vip.SetDefault(DbPassKey, "harbor")
	vip.SetDefault(DbHostKey, "127.0.0.1")
	vip.SetDefault(DbPortKey, 5432)
	vip.SetDefault(DbNameKey, "harbor")
	vip.SetDefault(DbMigrationPathKey, defaultMigrationPath)
	vip.SetDefault(NoProfilerKey, true)
	vip.SetDefault(ProfilerPortKey, defaultProfilerPort)
	vip.SetDefault(StatsIntervalKey, defaultStatsInterval)

	if err := validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	if err := initDatadir(); err != nil {
		log.Fatalf("config: error while creating datadir: %s", err)
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	net := GetString(NetworkKey)
	if len(net) == 0 {
		return fmt.Errorf("network must not be null")
	}
	if _, ok := supportedNetworks[net]; !ok {
		nets := make([]string, 0, len(supportedNetworks))
		for net := range supportedNetworks {
			nets = append(nets, net)
		}
		return fmt.Errorf("unknown network, must be one of: %v", nets)
	}

	dbType := GetString(DatabaseTypeKey)
	if _, ok := SupportedDbs[dbType]; !ok {
		return fmt.Errorf("unsupported database type, must be one of %s", SupportedDbs)
	}

	if relayFee := GetInt(RelayFeeKey); relayFee <= 0 {
		return fmt.Errorf("relay fee rate must be a positive amount of sats per kvB")
	}

	return nil
}

func GetDatadir() string {
	return filepath.Join(GetString(DatadirKey), GetString(NetworkKey))
}

func GetNetwork() *chaincfg.Params {
	return supportedNetworks[GetString(NetworkKey)]
}

func GetRootPath() string {
	rootPath := GetString(RootPathKey)
	if rootPath != "" {
		return rootPath
	}

	coinType := coinTypeByNetwork[GetString(NetworkKey)]
	return fmt.Sprintf("m/84'/%d'", coinType)
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetStringSlice(key string) []string {
	return vip.GetStringSlice(key)
}

func Set(key string, val interface{}) {
	vip.Set(key, val)
}

func Unset(key string) {
	vip.Set(key, nil)
}

func IsSet(key string) bool {
	return vip.IsSet(key)
}

func initDatadir() error {
	if err := makeDirectoryIfNotExists(
		filepath.Join(GetDatadir(), DbLocation),
	); err != nil {
		return err
	}

	if noProfiler := GetBool(NoProfilerKey); !noProfiler {
		if err := makeDirectoryIfNotExists(
			filepath.Join(GetDatadir(), ProfilerLocation),
		); err != nil {
			return err
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}
