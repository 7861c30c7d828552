package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// unit escrituras pendientes y candados tomados por una unidad de trabajo.
type unit struct {
	s        *Store
	keys     map[entity.StockKey]*sync.Mutex
	docLocks map[string]*sync.Mutex
	ledger   []entity.LedgerEntry
	balances map[entity.StockKey]entity.StockBalance
	docs     map[string]*entity.Document
	deleted  map[string]bool
}

func (s *Store) begin() *unit {
	return &unit{
		s:        s,
		keys:     map[entity.StockKey]*sync.Mutex{},
		docLocks: map[string]*sync.Mutex{},
		balances: map[entity.StockKey]entity.StockBalance{},
		docs:     map[string]*entity.Document{},
		deleted:  map[string]bool{},
	}
}

func (u *unit) lockKey(k entity.StockKey) {
	if _, held := u.keys[k]; held {
		return
	}
	m := u.s.keyLock(k)
	m.Lock()
	u.keys[k] = m
}

func (u *unit) lockDoc(id string) {
	if _, held := u.docLocks[id]; held {
		return
	}
	m := u.s.docLock(id)
	m.Lock()
	u.docLocks[id] = m
}

func (u *unit) release() {
	for _, m := range u.keys {
		m.Unlock()
	}
	for _, m := range u.docLocks {
		m.Unlock()
	}
	u.keys, u.docLocks = nil, nil
}

// commit publica las escrituras pendientes bajo el candado global.
func (u *unit) commit() {
	s := u.s
	s.mu.Lock()
	for _, e := range u.ledger {
		idx := len(s.ledger)
		s.ledger = append(s.ledger, e)
		s.byKey[e.Key()] = append(s.byKey[e.Key()], idx)
		s.byDoc[e.DocumentID] = append(s.byDoc[e.DocumentID], idx)
	}
	for k, b := range u.balances {
		s.balances[k] = b
	}
	for id, d := range u.docs {
		s.docs[id] = d
	}
	for id := range u.deleted {
		delete(s.docs, id)
	}
	s.mu.Unlock()
}

func (u *unit) doc(id string) *entity.Document {
	if u.deleted[id] {
		return nil
	}
	if d, ok := u.docs[id]; ok {
		return d
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	return u.s.docs[id]
}

func (u *unit) balance(k entity.StockKey) entity.StockBalance {
	if b, ok := u.balances[k]; ok {
		return b
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	if b, ok := u.s.balances[k]; ok {
		return b
	}
	return entity.StockBalance{ProductID: k.ProductID, LocationID: k.LocationID}
}

// TxRunner ejecuta fn como unidad de trabajo en memoria: Commit si fn no falla, descarte si falla.
type TxRunner struct {
	s *Store
}

// NewTxRunner crea el runner sobre el almacenamiento.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repositorios atados a una nueva unidad de trabajo.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	stockRepo repository.StockBalanceRepository,
	docRepo repository.DocumentRepository,
) error) error {
	return r.s.run(func(u *unit) error {
		return fn(&LedgerRepo{s: r.s, u: u}, &StockBalanceRepo{s: r.s, u: u}, &DocumentRepo{s: r.s, u: u})
	})
}

func (s *Store) run(fn func(u *unit) error) error {
	u := s.begin()
	defer u.release()
	if err := fn(u); err != nil {
		return err
	}
	u.commit()
	return nil
}

var (
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.WarehouseRepository     = (*WarehouseRepo)(nil)
	_ repository.StockLocationRepository = (*LocationRepo)(nil)
	_ repository.DocumentRepository      = (*DocumentRepo)(nil)
	_ repository.LedgerRepository        = (*LedgerRepo)(nil)
	_ repository.StockBalanceRepository  = (*StockBalanceRepo)(nil)
)
