package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentLineRequest línea en el body de un documento.
// Receipt usa to_location_id, Delivery from_location_id, Transfer ambas y
// Adjustment location_id con quantity firmada.
type DocumentLineRequest struct {
	ProductID      string          `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	LocationID     string          `json:"location_id,omitempty"`
	ReasonCode     string          `json:"reason_code,omitempty"`
}

// CreateDocumentRequest body para POST /api/documents.
type CreateDocumentRequest struct {
	Type      string                `json:"type"`
	Reference string                `json:"reference"`
	Notes     string                `json:"notes"`
	Lines     []DocumentLineRequest `json:"lines"`
}

// UpdateDocumentLinesRequest body para PUT /api/documents/:id/lines.
// Version = 0 omite la verificación optimista.
type UpdateDocumentLinesRequest struct {
	Version int                   `json:"version"`
	Lines   []DocumentLineRequest `json:"lines"`
}

// DocumentLineResponse línea de un documento.
type DocumentLineResponse struct {
	LineNo         int             `json:"line_no"`
	ProductID      string          `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	FromLocationID string          `json:"from_location_id,omitempty"`
	ToLocationID   string          `json:"to_location_id,omitempty"`
	LocationID     string          `json:"location_id,omitempty"`
	ReasonCode     string          `json:"reason_code,omitempty"`
}

// DocumentResponse salida de un documento.
type DocumentResponse struct {
	ID            string                 `json:"id"`
	Type          string                 `json:"type"`
	Status        string                 `json:"status"`
	Reference     string                 `json:"reference,omitempty"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedBy     string                 `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
	PostedAt      *time.Time             `json:"posted_at,omitempty"`
	PostedBy      string                 `json:"posted_by,omitempty"`
	VoidedAt      *time.Time             `json:"voided_at,omitempty"`
	VoidedBy      string                 `json:"voided_by,omitempty"`
	VoidReference string                 `json:"void_reference,omitempty"`
	Version       int                    `json:"version"`
	Lines         []DocumentLineResponse `json:"lines"`
}

// DocumentListResponse lista paginada de documentos.
type DocumentListResponse struct {
	Items []DocumentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// BalanceChangeDTO saldo resultante de una clave tocada por una contabilización.
type BalanceChangeDTO struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// PostingResultResponse salida de POST /documents/:id/post y /void.
type PostingResultResponse struct {
	DocumentID      string             `json:"document_id"`
	Status          string             `json:"status"`
	VoidReference   string             `json:"void_reference,omitempty"`
	LedgerEntryIDs  []string           `json:"ledger_entry_ids"`
	UpdatedBalances []BalanceChangeDTO `json:"updated_balances"`
}

// BalanceResponse saldo de un producto en una ubicación.
type BalanceResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// LedgerEntryResponse asiento del libro de stock.
type LedgerEntryResponse struct {
	ID                 string          `json:"id"`
	Seq                int64           `json:"seq"`
	Timestamp          time.Time       `json:"timestamp"`
	ProductID          string          `json:"product_id"`
	LocationID         string          `json:"location_id"`
	Delta              decimal.Decimal `json:"delta"`
	BalanceAfter       decimal.Decimal `json:"balance_after"`
	DocumentType       string          `json:"document_type"`
	DocumentID         string          `json:"document_id"`
	LineNo             int             `json:"line_no"`
	ReversesDocumentID string          `json:"reverses_document_id,omitempty"`
	ReversesEntryID    string          `json:"reverses_entry_id,omitempty"`
	CreatedBy          string          `json:"created_by"`
}

// LedgerResponse asientos de una clave.
type LedgerResponse struct {
	ProductID  string                `json:"product_id"`
	LocationID string                `json:"location_id"`
	Entries    []LedgerEntryResponse `json:"entries"`
}

// ReconcileRequest body para POST /api/stock/reconcile.
type ReconcileRequest struct {
	ProductID  string `json:"product_id"`
	LocationID string `json:"location_id"`
}

// ReconcileResponse resultado de recomputar un saldo.
type ReconcileResponse struct {
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Previous   decimal.Decimal `json:"previous"`
	Recomputed decimal.Decimal `json:"recomputed"`
	Drift      decimal.Decimal `json:"drift"`
}

// LineProblemDTO problema de validación de una línea.
type LineProblemDTO struct {
	LineNo  int    `json:"line_no"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ShortageDTO clave que quedaría en negativo.
type ShortageDTO struct {
	LineNo     int             `json:"line_no"`
	ProductID  string          `json:"product_id"`
	LocationID string          `json:"location_id"`
	Available  decimal.Decimal `json:"available"`
	Requested  decimal.Decimal `json:"requested"`
}

// DocumentErrorResponse error de contabilización con el detalle por línea.
type DocumentErrorResponse struct {
	Code      string           `json:"code"`
	Message   string           `json:"message"`
	Problems  []LineProblemDTO `json:"problems,omitempty"`
	Shortages []ShortageDTO    `json:"shortages,omitempty"`
}
