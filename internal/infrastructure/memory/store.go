// Package memory implementa los puertos de persistencia en memoria (STORAGE_DRIVER=memory y tests).
// Cada unidad de trabajo bloquea documentos y claves de saldo con mutex propios, escribe en
// un área temporal y publica todo bajo un único candado de commit: los lectores ven
// unidades completas o nada.
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// Store estado confirmado más los candados por clave y por documento.
type Store struct {
	mu         sync.RWMutex
	products   map[string]*entity.Product
	skuIndex   map[string]string
	warehouses map[string]*entity.Warehouse
	locations  map[string]*entity.StockLocation
	docs       map[string]*entity.Document
	ledger     []entity.LedgerEntry
	byKey      map[entity.StockKey][]int
	byDoc      map[string][]int
	balances   map[entity.StockKey]entity.StockBalance
	seq        atomic.Int64

	lockMu   sync.Mutex
	keyLocks map[entity.StockKey]*sync.Mutex
	docLocks map[string]*sync.Mutex
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		products:   map[string]*entity.Product{},
		skuIndex:   map[string]string{},
		warehouses: map[string]*entity.Warehouse{},
		locations:  map[string]*entity.StockLocation{},
		docs:       map[string]*entity.Document{},
		byKey:      map[entity.StockKey][]int{},
		byDoc:      map[string][]int{},
		balances:   map[entity.StockKey]entity.StockBalance{},
		keyLocks:   map[entity.StockKey]*sync.Mutex{},
		docLocks:   map[string]*sync.Mutex{},
	}
}

func (s *Store) keyLock(k entity.StockKey) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.keyLocks[k]
	if !ok {
		m = &sync.Mutex{}
		s.keyLocks[k] = m
	}
	return m
}

func (s *Store) docLock(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	m, ok := s.docLocks[id]
	if !ok {
		m = &sync.Mutex{}
		s.docLocks[id] = m
	}
	return m
}

// Products repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Warehouses repositorio de bodegas.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// Locations repositorio de ubicaciones.
func (s *Store) Locations() *LocationRepo { return &LocationRepo{s: s} }

// Documents repositorio de documentos fuera de transacción (cada escritura es su propia unidad).
func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{s: s} }

// Ledger repositorio de lectura del ledger fuera de transacción.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s: s} }

// Balances repositorio de lectura de saldos fuera de transacción.
func (s *Store) Balances() *StockBalanceRepo { return &StockBalanceRepo{s: s} }

// CorruptBalance sobrescribe un saldo sin pasar por el ledger. Solo para probar la reconciliación.
func (s *Store) CorruptBalance(k entity.StockKey, b entity.StockBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[k] = b
}

func cloneDoc(d *entity.Document) *entity.Document {
	if d == nil {
		return nil
	}
	c := *d
	c.Lines = append([]entity.DocumentLine(nil), d.Lines...)
	if d.PostedAt != nil {
		t := *d.PostedAt
		c.PostedAt = &t
	}
	if d.VoidedAt != nil {
		t := *d.VoidedAt
		c.VoidedAt = &t
	}
	return &c
}
