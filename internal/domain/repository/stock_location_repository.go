package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockLocationRepository define el puerto de persistencia para ubicaciones.
type StockLocationRepository interface {
	// Create devuelve domain.ErrDuplicate si el código ya existe en la bodega.
	Create(ctx context.Context, location *entity.StockLocation) error
	GetByID(ctx context.Context, id string) (*entity.StockLocation, error)
	// ExistingIDs devuelve el subconjunto de ids que existe.
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	ListByWarehouse(ctx context.Context, warehouseID string) ([]*entity.StockLocation, error)
}
