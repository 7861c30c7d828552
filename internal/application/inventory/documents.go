package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// DocumentUseCase administra documentos en borrador. Nunca toca el ledger ni los saldos:
// eso es exclusivo del PostingEngine.
type DocumentUseCase struct {
	txRunner TxRunner
	docRepo  repository.DocumentRepository
	now      func() time.Time
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(txRunner TxRunner, docRepo repository.DocumentRepository) *DocumentUseCase {
	return &DocumentUseCase{txRunner: txRunner, docRepo: docRepo, now: time.Now}
}

// DocumentInput entrada para crear un documento en borrador.
type DocumentInput struct {
	Type      entity.DocumentType
	Reference string
	Notes     string
	CreatedBy string
	Lines     []LineInput
}

// LineInput línea de entrada. Para ADJUSTMENT Quantity va firmada.
type LineInput struct {
	ProductID      string
	Quantity       decimal.Decimal
	FromLocationID string
	ToLocationID   string
	LocationID     string
	ReasonCode     string
}

// CreateDocument crea un documento en estado DRAFT. La validación completa ocurre al contabilizar.
func (uc *DocumentUseCase) CreateDocument(ctx context.Context, in DocumentInput) (*entity.Document, error) {
	docType := entity.DocumentType(strings.ToUpper(string(in.Type)))
	if !docType.Valid() {
		return nil, fmt.Errorf("tipo de documento %q: %w", in.Type, domain.ErrInvalidInput)
	}
	now := uc.now()
	doc := &entity.Document{
		ID:        uuid.New().String(),
		Type:      docType,
		Status:    entity.DocumentStatusDraft,
		Reference: in.Reference,
		Notes:     in.Notes,
		CreatedBy: in.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
		Lines:     toLines(in.Lines),
	}
	doc.Renumber()
	if err := uc.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateDraft reemplaza las líneas de un borrador. expectedVersion = 0 omite la verificación
// optimista; si no coincide devuelve domain.ErrConcurrencyConflict.
func (uc *DocumentUseCase) UpdateDraft(ctx context.Context, id string, lines []LineInput, expectedVersion int) (*entity.Document, error) {
	var updated *entity.Document
	err := uc.txRunner.Run(ctx, func(
		_ repository.LedgerRepository,
		_ repository.StockBalanceRepository,
		docRepo repository.DocumentRepository,
	) error {
		doc, err := docRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if !doc.IsDraft() {
			return &domain.InvalidStateError{DocumentID: id, Status: string(doc.Status), Operation: "editar"}
		}
		if expectedVersion > 0 && doc.Version != expectedVersion {
			return fmt.Errorf("documento %s versión %d (esperada %d): %w", id, doc.Version, expectedVersion, domain.ErrConcurrencyConflict)
		}
		current := doc.Version
		doc.Lines = toLines(lines)
		doc.Renumber()
		doc.UpdatedAt = uc.now()
		if err := docRepo.ReplaceLines(ctx, doc, current); err != nil {
			return err
		}
		doc.Version = current + 1
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetDocument obtiene un documento con sus líneas.
func (uc *DocumentUseCase) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	doc, err := uc.docRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

// ListDocuments lista documentos con filtros opcionales de tipo y estado.
func (uc *DocumentUseCase) ListDocuments(ctx context.Context, filter repository.DocumentFilter) ([]*entity.Document, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return uc.docRepo.List(ctx, filter)
}

// DiscardDraft elimina un borrador. Documentos contabilizados o anulados no se borran jamás.
func (uc *DocumentUseCase) DiscardDraft(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(
		_ repository.LedgerRepository,
		_ repository.StockBalanceRepository,
		docRepo repository.DocumentRepository,
	) error {
		doc, err := docRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if !doc.IsDraft() {
			return &domain.InvalidStateError{DocumentID: id, Status: string(doc.Status), Operation: "descartar"}
		}
		return docRepo.DeleteDraft(ctx, id, doc.Version)
	})
}

// DuplicateAsDraft copia las líneas de un documento existente en un borrador nuevo.
// Es el camino de corrección: anular el original y contabilizar la copia editada.
func (uc *DocumentUseCase) DuplicateAsDraft(ctx context.Context, id, userID string) (*entity.Document, error) {
	src, err := uc.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	lines := make([]LineInput, 0, len(src.Lines))
	for _, l := range src.Lines {
		lines = append(lines, LineInput{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			FromLocationID: l.FromLocationID,
			ToLocationID:   l.ToLocationID,
			LocationID:     l.LocationID,
			ReasonCode:     l.ReasonCode,
		})
	}
	return uc.CreateDocument(ctx, DocumentInput{
		Type:      src.Type,
		Reference: src.Reference,
		Notes:     "copia de " + src.ID,
		CreatedBy: userID,
		Lines:     lines,
	})
}

func toLines(in []LineInput) []entity.DocumentLine {
	lines := make([]entity.DocumentLine, 0, len(in))
	for _, l := range in {
		lines = append(lines, entity.DocumentLine{
			ProductID:      strings.TrimSpace(l.ProductID),
			Quantity:       l.Quantity,
			FromLocationID: strings.TrimSpace(l.FromLocationID),
			ToLocationID:   strings.TrimSpace(l.ToLocationID),
			LocationID:     strings.TrimSpace(l.LocationID),
			ReasonCode:     l.ReasonCode,
		})
	}
	return lines
}
