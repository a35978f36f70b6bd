package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	appconfig "github.com/harborwallet/harbor/internal/app-config"
	"github.com/harborwallet/harbor/internal/config"
	"github.com/harborwallet/harbor/internal/core/domain"
	cypher "github.com/harborwallet/harbor/internal/infrastructure/mnemonic-cypher/aes256"
	store "github.com/harborwallet/harbor/internal/infrastructure/mnemonic-store/in-memory"
	postgresdb "github.com/harborwallet/harbor/internal/infrastructure/storage/db/postgres"
	"github.com/harborwallet/harbor/pkg/profiler"
	log "github.com/sirupsen/logrus"
)

var (
	// Build info.
	version string
	commit  string
	date    string

	// Config from env vars.
	dbType           = config.GetString(config.DatabaseTypeKey)
	logLevel         = config.GetInt(config.LogLevelKey)
	datadir          = config.GetDatadir()
	noProfiler       = config.GetBool(config.NoProfilerKey)
	profilerPort     = config.GetInt(config.ProfilerPortKey)
	profilerDir      = filepath.Join(datadir, config.ProfilerLocation)
	statsInterval    = time.Duration(config.GetInt(config.StatsIntervalKey)) * time.Second
	network          = config.GetNetwork()
	asset            = config.GetString(config.AssetKey)
	fiatCurrency     = config.GetString(config.FiatCurrencyKey)
	esploraUrl       = config.GetString(config.EsploraUrlKey)
	rateUrl          = config.GetString(config.RateUrlKey)
	relayFeePerKb    = uint64(config.GetInt(config.RelayFeeKey))
	allowUnconfirmed = config.GetBool(config.AllowUnconfirmedKey)
	dbDir            = filepath.Join(datadir, config.DbLocation)
	rootPath         = config.GetRootPath()
)

func main() {
	log.SetLevel(log.Level(logLevel))

	if profilerEnabled := !noProfiler; profilerEnabled {
		profilerSvc, err := profiler.NewService(profiler.ServiceOpts{
			Port:          profilerPort,
			StatsInterval: statsInterval,
			Datadir:       profilerDir,
		})
		if err != nil {
			log.WithError(err).Fatal("profiler: error while starting")
		}

		profilerSvc.Start()
		defer profilerSvc.Stop()
	}

	domain.MnemonicCypher = cypher.NewAES256Cypher()
	domain.MnemonicStore = store.NewInMemoryMnemonicStore()

	appCfg := &appconfig.AppConfig{
		Version:           version,
		Commit:            commit,
		Date:              date,
		RootPath:          rootPath,
		Network:           network,
		Asset:             asset,
		FiatCurrency:      fiatCurrency,
		EsploraUrl:        esploraUrl,
		RateUrl:           rateUrl,
		RelayFeePerKb:     relayFeePerKb,
		AllowUnconfirmed:  allowUnconfirmed,
		RepoManagerType:   dbType,
		RepoManagerConfig: repoManagerConfig(dbType),
	}
	if err := appCfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid application config")
	}

	buildInfo := appCfg.WalletService().BuildInfo()
	log.Infof(
		"harbord version %s (commit %s, date %s)",
		buildInfo.Version, buildInfo.Commit, buildInfo.Date,
	)
	log.Infof("network: %s, asset: %s, datadir: %s", network.Name, asset, datadir)

	rm := appCfg.RepoManager()
	defer rm.Close()

	for _, eventType := range []domain.WalletEventType{
		domain.WalletCreated,
		domain.WalletAccountCreated,
		domain.WalletAccountImported,
		domain.WalletAccountLabelChanged,
		domain.WalletAccountDefaultChanged,
		domain.WalletAccountArchived,
		domain.WalletAccountUnarchived,
	} {
		rm.RegisterHandlerForWalletEvent(
			eventType, func(event domain.WalletEvent) {
				log.Debugf(
					"received event %s for account %s",
					event.EventType, event.AccountName,
				)
			},
		)
	}

	log.Info("harbord is up and running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")
}

// repoManagerConfig returns the config args expected by the repo manager of
// the given type: the db directory for badger, the connection params for
// postgres, nothing for inmemory.
func repoManagerConfig(dbType string) interface{} {
	switch dbType {
	case "badger":
		return dbDir
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
