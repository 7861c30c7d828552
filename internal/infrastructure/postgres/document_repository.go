package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo documentos y sus líneas sobre PostgreSQL (usable con pool o tx).
// Toda mutación condiciona el UPDATE a la versión esperada.
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `
	id::text, type, status, reference, notes, created_by, created_at, updated_at,
	posted_at, posted_by, voided_at, voided_by, COALESCE(void_reference::text, ''), version`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(
		&d.ID, &d.Type, &d.Status, &d.Reference, &d.Notes, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
		&d.PostedAt, &d.PostedBy, &d.VoidedAt, &d.VoidedBy, &d.VoidReference, &d.Version,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserta el documento y sus líneas.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (id, type, status, reference, notes, created_by, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.Type, doc.Status, doc.Reference, doc.Notes, doc.CreatedBy,
		doc.CreatedAt, doc.UpdatedAt, doc.Version,
	)
	if err != nil {
		return wrapErr("insert document", err)
	}
	return r.insertLines(ctx, doc.ID, doc.Lines)
}

func (r *DocumentRepo) insertLines(ctx context.Context, documentID string, lines []entity.DocumentLine) error {
	query := `
		INSERT INTO document_lines (document_id, line_no, product_id, quantity, from_location_id, to_location_id, location_id, reason_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, l := range lines {
		_, err := r.q.Exec(ctx, query,
			documentID, l.LineNo, l.ProductID, l.Quantity,
			l.FromLocationID, l.ToLocationID, l.LocationID, l.ReasonCode,
		)
		if err != nil {
			return wrapErr(fmt.Sprintf("insert document line %d", l.LineNo), err)
		}
	}
	return nil
}

func (r *DocumentRepo) get(ctx context.Context, id string, forUpdate bool) (*entity.Document, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	doc, err := scanDocument(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get document", err)
	}
	lines, err := r.loadLines(ctx, []string{doc.ID})
	if err != nil {
		return nil, err
	}
	doc.Lines = lines[doc.ID]
	return doc, nil
}

// GetByID obtiene el documento con sus líneas; (nil, nil) si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate igual que GetByID pero bloquea la fila del documento (SELECT FOR UPDATE).
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	return r.get(ctx, id, true)
}

func (r *DocumentRepo) loadLines(ctx context.Context, ids []string) (map[string][]entity.DocumentLine, error) {
	query := `
		SELECT document_id::text, line_no, product_id, quantity,
			from_location_id, to_location_id, location_id, reason_code
		FROM document_lines WHERE document_id = ANY($1::uuid[])
		ORDER BY document_id, line_no`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, wrapErr("load document lines", err)
	}
	defer rows.Close()
	out := make(map[string][]entity.DocumentLine, len(ids))
	for rows.Next() {
		var docID string
		var l entity.DocumentLine
		if err := rows.Scan(&docID, &l.LineNo, &l.ProductID, &l.Quantity,
			&l.FromLocationID, &l.ToLocationID, &l.LocationID, &l.ReasonCode); err != nil {
			return nil, wrapErr("scan document line", err)
		}
		out[docID] = append(out[docID], l)
	}
	return out, wrapErr("load document lines", rows.Err())
}

// bumpVersion aplica set sobre el documento si la versión coincide; si no hubo fila
// distingue entre inexistente y conflicto.
func (r *DocumentRepo) bumpVersion(ctx context.Context, op, id string, expectedVersion int, set string, args ...any) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	query := `UPDATE documents SET ` + set + `, version = version + 1 WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query, append([]any{id, expectedVersion}, args...)...)
	if err != nil {
		return wrapErr(op, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var current int
	err = r.q.QueryRow(ctx, `SELECT version FROM documents WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return wrapErr(op, err)
	}
	return fmt.Errorf("%s: documento %s versión %d, esperada %d: %w", op, id, current, expectedVersion, domain.ErrConcurrencyConflict)
}

// ReplaceLines reemplaza las líneas de un borrador.
func (r *DocumentRepo) ReplaceLines(ctx context.Context, doc *entity.Document, expectedVersion int) error {
	if err := r.bumpVersion(ctx, "replace lines", doc.ID, expectedVersion, `updated_at = $3`, doc.UpdatedAt); err != nil {
		return err
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM document_lines WHERE document_id = $1`, doc.ID); err != nil {
		return wrapErr("delete document lines", err)
	}
	return r.insertLines(ctx, doc.ID, doc.Lines)
}

// MarkPosted congela el documento como contabilizado.
func (r *DocumentRepo) MarkPosted(ctx context.Context, id string, expectedVersion int, postedBy string, at time.Time) error {
	return r.bumpVersion(ctx, "mark posted", id, expectedVersion,
		`status = 'POSTED', posted_by = $3, posted_at = $4, updated_at = $4`, postedBy, at)
}

// MarkVoided marca el documento como anulado y guarda la referencia de los asientos compensatorios.
func (r *DocumentRepo) MarkVoided(ctx context.Context, id string, expectedVersion int, voidedBy, voidReference string, at time.Time) error {
	return r.bumpVersion(ctx, "mark voided", id, expectedVersion,
		`status = 'VOIDED', voided_by = $3, void_reference = $4, voided_at = $5, updated_at = $5`,
		voidedBy, voidReference, at)
}

// DeleteDraft elimina un borrador (las líneas caen por ON DELETE CASCADE).
func (r *DocumentRepo) DeleteDraft(ctx context.Context, id string, expectedVersion int) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM documents WHERE id = $1 AND version = $2 AND status = 'DRAFT'`, id, expectedVersion)
	if err != nil {
		return wrapErr("delete draft", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete draft %s: %w", id, domain.ErrConcurrencyConflict)
	}
	return nil
}

// List lista documentos (más recientes primero) con sus líneas.
func (r *DocumentRepo) List(ctx context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	var where []string
	args := []any{}
	if f.Type != "" {
		args = append(args, f.Type)
		where = append(where, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + documentColumns + ` FROM documents`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list documents", err)
	}
	var list []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, wrapErr("scan document", err)
		}
		list = append(list, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list documents", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.ID)
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range list {
		d.Lines = lines[d.ID]
	}
	return list, nil
}
