package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica un saldo: producto en una ubicación.
type StockKey struct {
	ProductID  string
	LocationID string
}

// Less define el orden canónico de bloqueo (product_id, location_id).
func (k StockKey) Less(o StockKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	return k.LocationID < o.LocationID
}

// StockBalance cantidad disponible materializada por (producto, ubicación).
// Es una proyección del ledger: siempre igual a la suma de sus deltas.
type StockBalance struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
	UpdatedAt  time.Time
}

// Key devuelve la clave del saldo.
func (b StockBalance) Key() StockKey {
	return StockKey{ProductID: b.ProductID, LocationID: b.LocationID}
}
