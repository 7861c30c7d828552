package repository

import (
	"context"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerRepository libro de stock de solo-anexado. No existe operación de
// actualización ni borrado: un asiento se compensa con otro de signo opuesto.
type LedgerRepository interface {
	// Append escribe todos los asientos como una unidad (dentro de la transacción del llamador).
	Append(ctx context.Context, drafts []entity.LedgerEntryDraft) ([]entity.LedgerEntry, error)
	// EntriesFor produce los asientos de la clave ordenados por timestamp y luego
	// orden de inserción. La secuencia es perezosa y reiniciable: cada range vuelve a consultar.
	EntriesFor(ctx context.Context, productID, locationID string, since *time.Time) iter.Seq2[entity.LedgerEntry, error]
	ListByDocument(ctx context.Context, documentID string) ([]entity.LedgerEntry, error)
	SumFor(ctx context.Context, key entity.StockKey) (decimal.Decimal, error)
}
