package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockLocationRepository = (*StockLocationRepo)(nil)

// StockLocationRepo implementación del puerto StockLocationRepository sobre PostgreSQL.
type StockLocationRepo struct {
	q Querier
}

// NewStockLocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLocationRepository(q Querier) *StockLocationRepo {
	return &StockLocationRepo{q: q}
}

// Create persiste una ubicación; código repetido en la bodega -> domain.ErrDuplicate.
func (r *StockLocationRepo) Create(ctx context.Context, loc *entity.StockLocation) error {
	query := `
		INSERT INTO stock_locations (id, warehouse_id, code, name, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, loc.ID, loc.WarehouseID, loc.Code, loc.Name, loc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return wrapErr("insert stock location", err)
	}
	return nil
}

// GetByID obtiene una ubicación por ID.
func (r *StockLocationRepo) GetByID(ctx context.Context, id string) (*entity.StockLocation, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `
		SELECT id::text, warehouse_id::text, code, name, created_at
		FROM stock_locations WHERE id = $1`
	var l entity.StockLocation
	err := r.q.QueryRow(ctx, query, id).Scan(&l.ID, &l.WarehouseID, &l.Code, &l.Name, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get stock location", err)
	}
	return &l, nil
}

// ExistingIDs devuelve el subconjunto de ids que existe.
func (r *StockLocationRepo) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	out := make(map[string]bool, len(ids))
	ids = uuids(ids)
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT id::text FROM stock_locations WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, wrapErr("existing stock locations", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("scan stock location", err)
		}
		out[id] = true
	}
	return out, wrapErr("existing stock locations", rows.Err())
}

// ListByWarehouse lista las ubicaciones de una bodega ordenadas por código.
func (r *StockLocationRepo) ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockLocation, error) {
	if !isUUID(warehouseID) {
		return nil, nil
	}
	query := `
		SELECT id::text, warehouse_id::text, code, name, created_at
		FROM stock_locations WHERE warehouse_id = $1 ORDER BY code`
	rows, err := r.q.Query(ctx, query, warehouseID)
	if err != nil {
		return nil, wrapErr("list stock locations", err)
	}
	defer rows.Close()
	var list []*entity.StockLocation
	for rows.Next() {
		var l entity.StockLocation
		if err := rows.Scan(&l.ID, &l.WarehouseID, &l.Code, &l.Name, &l.CreatedAt); err != nil {
			return nil, wrapErr("scan stock location", err)
		}
		list = append(list, &l)
	}
	return list, wrapErr("list stock locations", rows.Err())
}
