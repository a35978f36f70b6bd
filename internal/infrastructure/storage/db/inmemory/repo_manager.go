package inmemory

import (
	"sync"

	"github.com/harborwallet/harbor/internal/core/domain"
	"github.com/harborwallet/harbor/internal/core/ports"
)

type repoManager struct {
	walletRepository *walletRepository
	feeRepository    *feeRepository

	walletEventHandlers *handlerMap
}

// NewRepoManager is the factory for creating a new in-memory implementation
// of the ports.RepoManager interface. Data is gone as soon as the process
// exits, which makes this implementation suited only for testing purposes.
func NewRepoManager() ports.RepoManager {
	rm := &repoManager{
		walletRepository:    newWalletRepository(),
		feeRepository:       newFeeRepository(),
		walletEventHandlers: newHandlerMap(),
	}

	go rm.listenToWalletEvents()

	return rm
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
	rm.walletRepository.reset()
	rm.feeRepository.reset()
}

func (rm *repoManager) Close() {
	rm.walletRepository.close()
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
