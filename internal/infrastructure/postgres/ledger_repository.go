package postgres

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// DefaultLedgerPageSize filas por página al recorrer el ledger si no se configura otra.
const DefaultLedgerPageSize = 500

// LedgerRepo ledger de solo-anexado sobre PostgreSQL (usable con pool o tx).
// No expone UPDATE ni DELETE; además un trigger los rechaza en la tabla.
type LedgerRepo struct {
	q        Querier
	pageSize int
}

// NewLedgerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier, pageSize int) *LedgerRepo {
	if pageSize <= 0 {
		pageSize = DefaultLedgerPageSize
	}
	return &LedgerRepo{q: q, pageSize: pageSize}
}

const ledgerColumns = `
	id::text, seq, ts, product_id::text, location_id::text, delta, balance_after,
	document_type, document_id::text, line_no,
	COALESCE(reverses_document_id::text, ''), COALESCE(reverses_entry_id::text, ''), created_by`

func scanEntry(row pgx.Row) (entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	err := row.Scan(
		&e.ID, &e.Seq, &e.Timestamp, &e.ProductID, &e.LocationID, &e.Delta, &e.BalanceAfter,
		&e.DocumentType, &e.DocumentID, &e.LineNo,
		&e.ReversesDocumentID, &e.ReversesEntryID, &e.CreatedBy,
	)
	return e, err
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Append inserta los asientos en orden; seq lo asigna la secuencia BIGSERIAL.
func (r *LedgerRepo) Append(ctx context.Context, drafts []entity.LedgerEntryDraft) ([]entity.LedgerEntry, error) {
	query := `
		INSERT INTO ledger_entries (id, ts, product_id, location_id, delta, balance_after,
			document_type, document_id, line_no, reverses_document_id, reverses_entry_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING seq`
	out := make([]entity.LedgerEntry, 0, len(drafts))
	for _, d := range drafts {
		e := entity.LedgerEntry{ID: uuid.New().String(), LedgerEntryDraft: d}
		err := r.q.QueryRow(ctx, query,
			e.ID, d.Timestamp, d.ProductID, d.LocationID, d.Delta, d.BalanceAfter,
			d.DocumentType, d.DocumentID, d.LineNo,
			optional(d.ReversesDocumentID), optional(d.ReversesEntryID), d.CreatedBy,
		).Scan(&e.Seq)
		if err != nil {
			return nil, wrapErr(fmt.Sprintf("append ledger entry (línea %d)", d.LineNo), err)
		}
		out = append(out, e)
	}
	return out, nil
}

// EntriesFor recorre los asientos de la clave con paginación por llave (ts, seq).
// Cada página se lee completa y se libera la conexión antes de entregarla al consumidor.
func (r *LedgerRepo) EntriesFor(ctx context.Context, productID, locationID string, since *time.Time) iter.Seq2[entity.LedgerEntry, error] {
	return func(yield func(entity.LedgerEntry, error) bool) {
		if !isUUID(productID) || !isUUID(locationID) {
			return
		}
		var (
			afterTS  time.Time
			afterSeq int64
		)
		for {
			page, err := r.page(ctx, productID, locationID, since, afterTS, afterSeq)
			if err != nil {
				yield(entity.LedgerEntry{}, err)
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			if len(page) < r.pageSize {
				return
			}
			last := page[len(page)-1]
			afterTS, afterSeq = last.Timestamp, last.Seq
		}
	}
}

func (r *LedgerRepo) page(ctx context.Context, productID, locationID string, since *time.Time, afterTS time.Time, afterSeq int64) ([]entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE product_id = $1 AND location_id = $2
			AND ($3::timestamptz IS NULL OR ts >= $3)
			AND (ts, seq) > ($4, $5)
		ORDER BY ts, seq
		LIMIT $6`
	rows, err := r.q.Query(ctx, query, productID, locationID, since, afterTS, afterSeq, r.pageSize)
	if err != nil {
		return nil, wrapErr("ledger page", err)
	}
	defer rows.Close()
	page := make([]entity.LedgerEntry, 0, r.pageSize)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, wrapErr("scan ledger entry", err)
		}
		page = append(page, e)
	}
	return page, wrapErr("ledger page", rows.Err())
}

// ListByDocument asientos de un documento (o de una referencia de anulación) en orden de inserción.
func (r *LedgerRepo) ListByDocument(ctx context.Context, documentID string) ([]entity.LedgerEntry, error) {
	if !isUUID(documentID) {
		return nil, nil
	}
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE document_id = $1 ORDER BY seq`
	rows, err := r.q.Query(ctx, query, documentID)
	if err != nil {
		return nil, wrapErr("list ledger by document", err)
	}
	defer rows.Close()
	var out []entity.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, wrapErr("scan ledger entry", err)
		}
		out = append(out, e)
	}
	return out, wrapErr("list ledger by document", rows.Err())
}

// SumFor suma firmada de los deltas de la clave.
func (r *LedgerRepo) SumFor(ctx context.Context, key entity.StockKey) (decimal.Decimal, error) {
	if !isUUID(key.ProductID) || !isUUID(key.LocationID) {
		return decimal.Zero, nil
	}
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE product_id = $1 AND location_id = $2`,
		key.ProductID, key.LocationID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, wrapErr("sum ledger", err)
	}
	return sum, nil
}
