package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryDraft es un asiento aún no persistido.
type LedgerEntryDraft struct {
	Timestamp          time.Time
	ProductID          string
	LocationID         string
	Delta              decimal.Decimal // positivo entrada, negativo salida
	BalanceAfter       decimal.Decimal
	DocumentType       DocumentType
	DocumentID         string
	LineNo             int
	ReversesDocumentID string // solo asientos de anulación
	ReversesEntryID    string
	CreatedBy          string
}

// LedgerEntry asiento inmutable del libro de stock. Nunca se actualiza ni se borra:
// las correcciones son asientos nuevos con signo opuesto.
type LedgerEntry struct {
	ID  string
	Seq int64 // orden de inserción asignado por el almacenamiento
	LedgerEntryDraft
}

// Key devuelve la clave de saldo afectada por el asiento.
func (e LedgerEntry) Key() StockKey {
	return StockKey{ProductID: e.ProductID, LocationID: e.LocationID}
}

// IsReversal indica si el asiento compensa a otro documento.
func (e LedgerEntry) IsReversal() bool { return e.ReversesDocumentID != "" }
