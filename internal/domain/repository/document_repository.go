package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// DocumentFilter filtros para listar documentos.
type DocumentFilter struct {
	Type   entity.DocumentType
	Status entity.DocumentStatus
	Limit  int
	Offset int
}

// DocumentRepository persiste documentos de movimiento con sus líneas.
// Toda mutación verifica la versión esperada y devuelve domain.ErrConcurrencyConflict
// si otro escritor la cambió.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id string) (*entity.Document, error)
	// GetForUpdate bloquea el documento hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Document, error)
	// ReplaceLines reemplaza las líneas de un borrador e incrementa Version.
	ReplaceLines(ctx context.Context, doc *entity.Document, expectedVersion int) error
	MarkPosted(ctx context.Context, id string, expectedVersion int, postedBy string, at time.Time) error
	MarkVoided(ctx context.Context, id string, expectedVersion int, voidedBy, voidReference string, at time.Time) error
	// DeleteDraft elimina un borrador; nunca afecta documentos contabilizados.
	DeleteDraft(ctx context.Context, id string, expectedVersion int) error
	List(ctx context.Context, filter DocumentFilter) ([]*entity.Document, error)
}
