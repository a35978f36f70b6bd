package postgresdb

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
	"github.com/jackc/pgx/v4/pgxpool"

	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const (
	postgresDriver             = "pgx"
	insecureDataSourceTemplate = "postgresql://%s:%s@%s:%d/%s?sslmode=disable"
)

// DbConfig holds the postgres connection parameters plus the source url of
// the migration files, like file://path/to/migrations.
type DbConfig struct {
	DbUser             string
	DbPassword         string
	DbHost             string
	DbPort             int
	DbName             string
	MigrationSourceURL string
}

type repoManager struct {
	pgxPool *pgxpool.Pool

	walletRepository *walletRepositoryPg
	feeRepository    *feeRepositoryPg

	walletEventHandlers *handlerMap
}

// NewRepoManager is the factory for creating a new postgres implementation
// of the ports.RepoManager interface. It connects to the database and runs
// any pending migration before handing out the repositories.
func NewRepoManager(dbConfig DbConfig) (ports.RepoManager, error) {
	dataSource := insecureDataSourceStr(dbConfig)

	pgxPool, err := pgxpool.Connect(context.Background(), dataSource)
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	if err := migrateDb(dataSource, dbConfig.MigrationSourceURL); err != nil {
		return nil, fmt.Errorf("migrating db: %w", err)
	}

	rm := &repoManager{
		pgxPool:             pgxPool,
		walletRepository:    newWalletRepositoryPgImpl(pgxPool),
		feeRepository:       newFeeRepositoryPgImpl(pgxPool),
		walletEventHandlers: newHandlerMap(),
	}

	go rm.listenToWalletEvents()

	return rm, nil
}

func (rm *repoManager) WalletRepository() domain.WalletRepository {
	return rm.walletRepository
}

func (rm *repoManager) FeePreferenceRepository() domain.FeePreferenceRepository {
	return rm.feeRepository
}

func (rm *repoManager) RegisterHandlerForWalletEvent(
	eventType domain.WalletEventType, handler ports.WalletEventHandler,
) {
	rm.walletEventHandlers.set(int(eventType), handler)
}

func (rm *repoManager) Reset() {
	ctx := context.Background()
	rm.walletRepository.reset(ctx)
	rm.feeRepository.reset(ctx)
}

func (rm *repoManager) Close() {
	rm.walletRepository.close()
	rm.pgxPool.Close()
}

func (rm *repoManager) listenToWalletEvents() {
	for event := range rm.walletRepository.chEvents {
		if handlers, ok := rm.walletEventHandlers.get(int(event.EventType)); ok {
			for i := range handlers {
				handler := handlers[i]
				go handler.(ports.WalletEventHandler)(event)
			}
		}
	}
}

func migrateDb(dataSource, migrationSourceUrl string) error {
	pg := postgres.Postgres{}

	d, err := pg.Open(dataSource)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationSourceUrl, postgresDriver, d,
	)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}

	return nil
}

func insecureDataSourceStr(dbConfig DbConfig) string {
	return fmt.Sprintf(
		insecureDataSourceTemplate,
		dbConfig.DbUser,
		dbConfig.DbPassword,
		dbConfig.DbHost,
		dbConfig.DbPort,
		dbConfig.DbName,
	)
}

// handlerMap is a util type to prevent race conditions when registering
// or retrieving handlers for events.
type handlerMap struct {
	handlersByEventType map[int][]interface{}
	lock                *sync.RWMutex
}

func newHandlerMap() *handlerMap {
	return &handlerMap{
		handlersByEventType: make(map[int][]interface{}),
		lock:                &sync.RWMutex{},
	}
}

func (m *handlerMap) set(key int, val interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.handlersByEventType[key] = append(m.handlersByEventType[key], val)
}

func (m *handlerMap) get(key int) ([]interface{}, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	val, ok := m.handlersByEventType[key]
	return val, ok
}
