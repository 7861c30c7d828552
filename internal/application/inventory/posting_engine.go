package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// PostingEngine es el único camino por el que un documento llega a POSTED/VOIDED y el
// único escritor del ledger y de los saldos. Cada operación es una transacción:
// bloqueo de filas en orden canónico (SELECT FOR UPDATE), validación, asientos,
// saldos y cambio de estado; Commit o Rollback completo.
type PostingEngine struct {
	txRunner     TxRunner
	docRepo      repository.DocumentRepository
	productRepo  repository.ProductRepository
	locationRepo repository.StockLocationRepository
	log          *logger.Logger
	now          func() time.Time
	newID        func() string
}

// NewPostingEngine construye el motor.
func NewPostingEngine(
	txRunner TxRunner,
	docRepo repository.DocumentRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.StockLocationRepository,
	log *logger.Logger,
) *PostingEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &PostingEngine{
		txRunner:     txRunner,
		docRepo:      docRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		log:          log.Component("posting"),
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.New().String() },
	}
}

// BalanceChange saldo resultante de una clave tocada por la operación.
type BalanceChange struct {
	ProductID  string
	LocationID string
	Quantity   decimal.Decimal
}

// PostingResult resultado de contabilizar o anular un documento.
type PostingResult struct {
	DocumentID      string
	Status          entity.DocumentStatus
	VoidReference   string
	LedgerEntryIDs  []string
	UpdatedBalances []BalanceChange
}

// Post contabiliza un borrador:
//  1. el documento debe estar en DRAFT (InvalidStateError);
//  2. validación estructural y de catálogo de todas las líneas (ValidationError);
//  3. en una transacción: bloqueo del documento y de las claves en orden canónico,
//     verificación de saldo acumulada (InsufficientStockError);
//  4. asientos + saldos + estado POSTED;
//  5. Commit. Cualquier fallo deja ledger, saldos y documento intactos.
func (e *PostingEngine) Post(ctx context.Context, documentID, userID string) (*PostingResult, error) {
	doc, err := e.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if !doc.IsDraft() {
		return nil, &domain.InvalidStateError{DocumentID: documentID, Status: string(doc.Status), Operation: "contabilizar"}
	}

	cat, err := e.resolveCatalog(ctx, doc)
	if err != nil {
		return nil, err
	}
	if problems := inventory.Validate(doc, cat); len(problems) > 0 {
		return nil, &domain.ValidationError{DocumentID: documentID, Problems: problems}
	}
	deltas, err := inventory.ComputeDeltas(doc)
	if err != nil {
		return nil, err
	}

	// Una vez iniciada la unidad de trabajo no se cancela: termina en Commit o Rollback.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txCtx := context.WithoutCancel(ctx)

	result := &PostingResult{DocumentID: documentID, Status: entity.DocumentStatusPosted}
	err = e.txRunner.Run(txCtx, func(
		ledgerRepo repository.LedgerRepository,
		stockRepo repository.StockBalanceRepository,
		docRepo repository.DocumentRepository,
	) error {
		current, err := e.lockDocument(txCtx, docRepo, doc, entity.DocumentStatusDraft, "contabilizar")
		if err != nil {
			return err
		}
		entries, changes, now, err := e.commitDeltas(txCtx, ledgerRepo, stockRepo, documentID, deltas,
			func(i int, d inventory.Delta, after decimal.Decimal, at time.Time) entity.LedgerEntryDraft {
				return entity.LedgerEntryDraft{
					Timestamp:    at,
					ProductID:    d.Key.ProductID,
					LocationID:   d.Key.LocationID,
					Delta:        d.Quantity,
					BalanceAfter: after,
					DocumentType: doc.Type,
					DocumentID:   documentID,
					LineNo:       d.LineNo,
					CreatedBy:    userID,
				}
			})
		if err != nil {
			return err
		}
		if err := docRepo.MarkPosted(txCtx, documentID, current.Version, userID, now); err != nil {
			return err
		}
		result.LedgerEntryIDs = entryIDs(entries)
		result.UpdatedBalances = changes
		return nil
	})
	if err != nil {
		e.logFailure("contabilizar", doc, err)
		return nil, err
	}

	e.log.Info().
		Str("document_id", documentID).
		Str("type", string(doc.Type)).
		Int("entries", len(result.LedgerEntryIDs)).
		Str("user_id", userID).
		Msg("documento contabilizado")
	return result, nil
}

// Void anula un documento contabilizado generando un asiento compensatorio por cada
// asiento original (signo opuesto, misma clave). Los asientos nuevos llevan como
// document_id una referencia de anulación nueva y apuntan al documento y asiento originales.
// Si la compensación dejaría algún saldo negativo se rechaza completa.
func (e *PostingEngine) Void(ctx context.Context, documentID, userID string) (*PostingResult, error) {
	doc, err := e.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.Status != entity.DocumentStatusPosted {
		return nil, &domain.InvalidStateError{DocumentID: documentID, Status: string(doc.Status), Operation: "anular"}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	txCtx := context.WithoutCancel(ctx)

	voidRef := e.newID()
	result := &PostingResult{DocumentID: documentID, Status: entity.DocumentStatusVoided, VoidReference: voidRef}
	err = e.txRunner.Run(txCtx, func(
		ledgerRepo repository.LedgerRepository,
		stockRepo repository.StockBalanceRepository,
		docRepo repository.DocumentRepository,
	) error {
		current, err := e.lockDocument(txCtx, docRepo, doc, entity.DocumentStatusPosted, "anular")
		if err != nil {
			return err
		}
		originals, err := ledgerRepo.ListByDocument(txCtx, documentID)
		if err != nil {
			return err
		}
		deltas := inventory.ReversalDeltas(originals)
		entries, changes, now, err := e.commitDeltas(txCtx, ledgerRepo, stockRepo, documentID, deltas,
			func(i int, d inventory.Delta, after decimal.Decimal, at time.Time) entity.LedgerEntryDraft {
				return entity.LedgerEntryDraft{
					Timestamp:          at,
					ProductID:          d.Key.ProductID,
					LocationID:         d.Key.LocationID,
					Delta:              d.Quantity,
					BalanceAfter:       after,
					DocumentType:       doc.Type,
					DocumentID:         voidRef,
					LineNo:             d.LineNo,
					ReversesDocumentID: documentID,
					ReversesEntryID:    originals[i].ID,
					CreatedBy:          userID,
				}
			})
		if err != nil {
			return err
		}
		if err := docRepo.MarkVoided(txCtx, documentID, current.Version, userID, voidRef, now); err != nil {
			return err
		}
		result.LedgerEntryIDs = entryIDs(entries)
		result.UpdatedBalances = changes
		return nil
	})
	if err != nil {
		e.logFailure("anular", doc, err)
		return nil, err
	}

	e.log.Info().
		Str("document_id", documentID).
		Str("void_reference", voidRef).
		Int("entries", len(result.LedgerEntryIDs)).
		Str("user_id", userID).
		Msg("documento anulado")
	return result, nil
}

// lockDocument relee el documento con bloqueo y verifica que nadie lo cambió desde la validación.
func (e *PostingEngine) lockDocument(
	ctx context.Context,
	docRepo repository.DocumentRepository,
	seen *entity.Document,
	want entity.DocumentStatus,
	op string,
) (*entity.Document, error) {
	current, err := docRepo.GetForUpdate(ctx, seen.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.ErrNotFound
	}
	if current.Status != want {
		if current.Status != seen.Status {
			return nil, fmt.Errorf("documento %s cambió a %s: %w", seen.ID, current.Status, domain.ErrConcurrencyConflict)
		}
		return nil, &domain.InvalidStateError{DocumentID: seen.ID, Status: string(current.Status), Operation: op}
	}
	if current.Version != seen.Version {
		return nil, fmt.Errorf("documento %s modificado (versión %d, validada %d): %w",
			seen.ID, current.Version, seen.Version, domain.ErrConcurrencyConflict)
	}
	return current, nil
}

// commitDeltas bloquea las claves en orden canónico, verifica saldos, anexa los asientos y
// aplica los deltas. Debe ejecutarse dentro de TxRunner.Run.
// La marca de tiempo se toma con las claves ya bloqueadas: así el orden por timestamp del
// ledger coincide con el orden en que se aplicaron los saldos. Se devuelve para el documento.
func (e *PostingEngine) commitDeltas(
	ctx context.Context,
	ledgerRepo repository.LedgerRepository,
	stockRepo repository.StockBalanceRepository,
	documentID string,
	deltas []inventory.Delta,
	draft func(i int, d inventory.Delta, after decimal.Decimal, at time.Time) entity.LedgerEntryDraft,
) ([]entity.LedgerEntry, []BalanceChange, time.Time, error) {
	keys := inventory.CanonicalKeys(deltas)
	current, err := stockRepo.LockForUpdate(ctx, keys)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	at := e.now()
	proj, shortages := inventory.Project(current, deltas)
	if len(shortages) > 0 {
		return nil, nil, time.Time{}, &domain.InsufficientStockError{DocumentID: documentID, Shortages: shortages}
	}

	drafts := make([]entity.LedgerEntryDraft, 0, len(deltas))
	for i, d := range deltas {
		drafts = append(drafts, draft(i, d, proj.BalanceAfter[i], at))
	}
	entries, err := ledgerRepo.Append(ctx, drafts)
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	for _, d := range deltas {
		if _, err := stockRepo.ApplyDelta(ctx, d.Key, d.Quantity); err != nil {
			return nil, nil, time.Time{}, err
		}
	}

	changes := make([]BalanceChange, 0, len(keys))
	for _, k := range keys {
		changes = append(changes, BalanceChange{ProductID: k.ProductID, LocationID: k.LocationID, Quantity: proj.Final[k]})
	}
	return entries, changes, at, nil
}

// resolveCatalog carga los productos y ubicaciones referenciados por el documento.
func (e *PostingEngine) resolveCatalog(ctx context.Context, doc *entity.Document) (inventory.Catalog, error) {
	productIDs, locationIDs := inventory.References(doc)
	products, err := e.productRepo.GetMany(ctx, productIDs)
	if err != nil {
		return inventory.Catalog{}, err
	}
	locations, err := e.locationRepo.ExistingIDs(ctx, locationIDs)
	if err != nil {
		return inventory.Catalog{}, err
	}
	return inventory.Catalog{Products: products, Locations: locations}, nil
}

func (e *PostingEngine) logFailure(op string, doc *entity.Document, err error) {
	ev := e.log.Error()
	switch {
	case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, domain.ErrInvalidState):
		ev = e.log.Warn()
	case errors.Is(err, domain.ErrConcurrencyConflict):
		ev = e.log.Info()
	}
	ev.Err(err).
		Str("document_id", doc.ID).
		Str("type", string(doc.Type)).
		Str("operation", op).
		Msg("operación de documento revertida")
}

func entryIDs(entries []entity.LedgerEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, en := range entries {
		ids = append(ids, en.ID)
	}
	return ids
}
