package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/gasless-relay-go/pkg/persistence"
)

// MemoryPersistence is an in-memory implementation of ILedgerStore.
// This implementation is intended for TESTING ONLY.
//
// All data is stored in memory and will be lost when the process exits.
// Update holds the write lock for the whole transaction and applies its
// staged writes only when the transaction function succeeds.
type MemoryPersistence struct {
	mu sync.RWMutex

	// Committed state: key -> value
	data map[string][]byte

	// Closed flag
	closed bool
}

var _ persistence.ILedgerStore = (*MemoryPersistence)(nil)

// NewMemoryPersistence creates a new in-memory persistence layer.
// Prints a loud warning since this should only be used for testing.
func NewMemoryPersistence() *MemoryPersistence {
	fmt.Println("⚠️  WARNING: Using in-memory persistence - ALL DATA WILL BE LOST ON RESTART")

	return &MemoryPersistence{
		data: map[string][]byte{
			persistence.KeySchemaVersion: []byte(persistence.CurrentSchemaVersion),
		},
	}
}

// memoryTxn stages writes on top of the committed map
type memoryTxn struct {
	base     map[string][]byte
	writes   map[string][]byte
	writable bool
}

func (t *memoryTxn) Get(key string) ([]byte, bool, error) {
	if v, ok := t.writes[key]; ok {
		return append([]byte{}, v...), true, nil
	}
	v, ok := t.base[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte{}, v...), true, nil
}

func (t *memoryTxn) Set(key string, value []byte) error {
	if !t.writable {
		return persistence.ErrReadOnlyTxn
	}
	t.writes[key] = append([]byte{}, value...)
	return nil
}

// Update runs fn with exclusive access and commits its writes if it returns nil.
func (m *MemoryPersistence) Update(fn func(txn persistence.ILedgerTxn) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return persistence.ErrStoreClosed
	}

	txn := &memoryTxn{base: m.data, writes: make(map[string][]byte), writable: true}
	if err := fn(persistence.NewLedgerTxn(txn)); err != nil {
		return err
	}

	for k, v := range txn.writes {
		m.data[k] = v
	}
	return nil
}

// View runs fn against the committed state.
func (m *MemoryPersistence) View(fn func(txn persistence.ILedgerTxn) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrStoreClosed
	}

	return fn(persistence.NewLedgerTxn(&memoryTxn{base: m.data}))
}

// Close shuts down the persistence layer.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return persistence.ErrStoreClosed
	}

	return nil
}
