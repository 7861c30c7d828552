package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockBalanceRepository saldos materializados por (producto, ubicación).
// Solo el motor de contabilización escribe, siempre en la misma transacción que el ledger.
type StockBalanceRepository interface {
	// Get devuelve 0 si la clave nunca fue tocada.
	Get(ctx context.Context, key entity.StockKey) (decimal.Decimal, error)
	// LockForUpdate bloquea las claves en orden canónico y devuelve sus saldos actuales.
	LockForUpdate(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]decimal.Decimal, error)
	// ApplyDelta suma delta y devuelve el nuevo saldo; domain.ErrInsufficientStock si quedaría negativo.
	ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (decimal.Decimal, error)
	// Set sobrescribe el saldo; solo para reconciliación.
	Set(ctx context.Context, key entity.StockKey, quantity decimal.Decimal) error
	ListByLocation(ctx context.Context, locationID string) ([]entity.StockBalance, error)
	ListByProduct(ctx context.Context, productID string) ([]entity.StockBalance, error)
}
