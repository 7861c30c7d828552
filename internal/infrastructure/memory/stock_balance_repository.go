package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// StockBalanceRepo implementa repository.StockBalanceRepository.
type StockBalanceRepo struct {
	s *Store
	u *unit
}

func (r *StockBalanceRepo) Get(_ context.Context, key entity.StockKey) (decimal.Decimal, error) {
	if r.u != nil {
		return r.u.balance(key).Quantity, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.balances[key].Quantity, nil
}

// LockForUpdate toma los candados de las claves en orden canónico.
func (r *StockBalanceRepo) LockForUpdate(_ context.Context, keys []entity.StockKey) (map[entity.StockKey]decimal.Decimal, error) {
	if r.u == nil {
		return nil, errNoUnit
	}
	sorted := append([]entity.StockKey(nil), keys...)
	inventory.SortKeys(sorted)
	if err := r.s.checkKeys(sorted); err != nil {
		return nil, err
	}
	out := make(map[entity.StockKey]decimal.Decimal, len(sorted))
	for _, k := range sorted {
		r.u.lockKey(k)
		out[k] = r.u.balance(k).Quantity
	}
	return out, nil
}

// checkKeys replica la FK de stock_balances: producto y ubicación deben existir.
func (s *Store) checkKeys(keys []entity.StockKey) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, k := range keys {
		if s.products[k.ProductID] == nil || s.locations[k.LocationID] == nil {
			return fmt.Errorf("clave %s/%s: producto o ubicación inexistente: %w", k.ProductID, k.LocationID, domain.ErrNotFound)
		}
	}
	return nil
}

func (r *StockBalanceRepo) ApplyDelta(_ context.Context, key entity.StockKey, delta decimal.Decimal) (decimal.Decimal, error) {
	if r.u == nil {
		return decimal.Zero, errNoUnit
	}
	r.u.lockKey(key)
	b := r.u.balance(key)
	next := b.Quantity.Add(delta)
	if next.IsNegative() {
		return b.Quantity, fmt.Errorf("producto %s ubicación %s: disponible %s, delta %s: %w",
			key.ProductID, key.LocationID, b.Quantity, delta, domain.ErrInsufficientStock)
	}
	b.Quantity = next
	b.UpdatedAt = time.Now().UTC()
	r.u.balances[key] = b
	return next, nil
}

func (r *StockBalanceRepo) Set(_ context.Context, key entity.StockKey, quantity decimal.Decimal) error {
	if r.u == nil {
		return errNoUnit
	}
	r.u.lockKey(key)
	r.u.balances[key] = entity.StockBalance{
		ProductID:  key.ProductID,
		LocationID: key.LocationID,
		Quantity:   quantity,
		UpdatedAt:  time.Now().UTC(),
	}
	return nil
}

func (r *StockBalanceRepo) ListByLocation(_ context.Context, locationID string) ([]entity.StockBalance, error) {
	return r.filter(func(k entity.StockKey) bool { return k.LocationID == locationID }), nil
}

func (r *StockBalanceRepo) ListByProduct(_ context.Context, productID string) ([]entity.StockBalance, error) {
	return r.filter(func(k entity.StockKey) bool { return k.ProductID == productID }), nil
}

func (r *StockBalanceRepo) filter(match func(entity.StockKey) bool) []entity.StockBalance {
	r.s.mu.RLock()
	out := make([]entity.StockBalance, 0)
	for k, b := range r.s.balances {
		if match(k) {
			out = append(out, b)
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}
