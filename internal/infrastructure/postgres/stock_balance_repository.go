package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockBalanceRepository = (*StockBalanceRepo)(nil)

// StockBalanceRepo saldos materializados en stock_balances (usable con pool o tx).
type StockBalanceRepo struct {
	q Querier
}

// NewStockBalanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockBalanceRepository(q Querier) *StockBalanceRepo {
	return &StockBalanceRepo{q: q}
}

// Get obtiene el saldo de la clave; 0 si nunca se movió.
func (r *StockBalanceRepo) Get(ctx context.Context, key entity.StockKey) (decimal.Decimal, error) {
	if !isUUID(key.ProductID) || !isUUID(key.LocationID) {
		return decimal.Zero, nil
	}
	var qty decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT quantity FROM stock_balances WHERE product_id = $1 AND location_id = $2`,
		key.ProductID, key.LocationID,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, wrapErr("get stock balance", err)
	}
	return qty, nil
}

// LockForUpdate crea las filas que falten y las bloquea una a una en orden canónico
// (SELECT FOR UPDATE). El orden fijo evita interbloqueos entre traslados opuestos.
func (r *StockBalanceRepo) LockForUpdate(ctx context.Context, keys []entity.StockKey) (map[entity.StockKey]decimal.Decimal, error) {
	sorted := append([]entity.StockKey(nil), keys...)
	inventory.SortKeys(sorted)
	out := make(map[entity.StockKey]decimal.Decimal, len(sorted))
	for _, k := range sorted {
		if !isUUID(k.ProductID) || !isUUID(k.LocationID) {
			return nil, fmt.Errorf("clave %s/%s: %w", k.ProductID, k.LocationID, domain.ErrNotFound)
		}
		_, err := r.q.Exec(ctx, `
			INSERT INTO stock_balances (product_id, location_id, quantity, updated_at)
			VALUES ($1, $2, 0, now())
			ON CONFLICT (product_id, location_id) DO NOTHING`,
			k.ProductID, k.LocationID,
		)
		if err != nil {
			return nil, wrapErr("init stock balance", err)
		}
		var qty decimal.Decimal
		err = r.q.QueryRow(ctx, `
			SELECT quantity FROM stock_balances
			WHERE product_id = $1 AND location_id = $2
			FOR UPDATE`,
			k.ProductID, k.LocationID,
		).Scan(&qty)
		if err != nil {
			return nil, wrapErr("lock stock balance", err)
		}
		out[k] = qty
	}
	return out, nil
}

// ApplyDelta suma delta a una fila ya bloqueada. El WHERE impide dejarla en negativo.
func (r *StockBalanceRepo) ApplyDelta(ctx context.Context, key entity.StockKey, delta decimal.Decimal) (decimal.Decimal, error) {
	var qty decimal.Decimal
	err := r.q.QueryRow(ctx, `
		UPDATE stock_balances SET quantity = quantity + $3, updated_at = now()
		WHERE product_id = $1 AND location_id = $2 AND quantity + $3 >= 0
		RETURNING quantity`,
		key.ProductID, key.LocationID, delta,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("producto %s ubicación %s, delta %s: %w",
				key.ProductID, key.LocationID, delta, domain.ErrInsufficientStock)
		}
		return decimal.Zero, wrapErr("apply stock delta", err)
	}
	return qty, nil
}

// Set sobrescribe el saldo (reconciliación).
func (r *StockBalanceRepo) Set(ctx context.Context, key entity.StockKey, quantity decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_balances (product_id, location_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`,
		key.ProductID, key.LocationID, quantity,
	)
	return wrapErr("set stock balance", err)
}

// ListByLocation saldos de una ubicación.
func (r *StockBalanceRepo) ListByLocation(ctx context.Context, locationID string) ([]entity.StockBalance, error) {
	if !isUUID(locationID) {
		return nil, nil
	}
	return r.list(ctx, `WHERE location_id = $1`, locationID)
}

// ListByProduct saldos de un producto en todas sus ubicaciones.
func (r *StockBalanceRepo) ListByProduct(ctx context.Context, productID string) ([]entity.StockBalance, error) {
	if !isUUID(productID) {
		return nil, nil
	}
	return r.list(ctx, `WHERE product_id = $1`, productID)
}

func (r *StockBalanceRepo) list(ctx context.Context, where string, arg string) ([]entity.StockBalance, error) {
	query := `
		SELECT product_id::text, location_id::text, quantity, updated_at
		FROM stock_balances ` + where + `
		ORDER BY product_id, location_id`
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, wrapErr("list stock balances", err)
	}
	defer rows.Close()
	var out []entity.StockBalance
	for rows.Next() {
		var b entity.StockBalance
		if err := rows.Scan(&b.ProductID, &b.LocationID, &b.Quantity, &b.UpdatedAt); err != nil {
			return nil, wrapErr("scan stock balance", err)
		}
		out = append(out, b)
	}
	return out, wrapErr("list stock balances", rows.Err())
}
