package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CreateDocumentFromRequest adapta el DTO HTTP y crea el borrador a nombre del usuario autenticado.
func (uc *DocumentUseCase) CreateDocumentFromRequest(ctx context.Context, userID string, req dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	doc, err := uc.CreateDocument(ctx, DocumentInput{
		Type:      entity.DocumentType(req.Type),
		Reference: req.Reference,
		Notes:     req.Notes,
		CreatedBy: userID,
		Lines:     linesFromRequest(req.Lines),
	})
	if err != nil {
		return nil, err
	}
	return ToDocumentResponse(doc), nil
}

// UpdateDraftFromRequest adapta el DTO HTTP y reemplaza las líneas del borrador.
func (uc *DocumentUseCase) UpdateDraftFromRequest(ctx context.Context, id string, req dto.UpdateDocumentLinesRequest) (*dto.DocumentResponse, error) {
	doc, err := uc.UpdateDraft(ctx, id, linesFromRequest(req.Lines), req.Version)
	if err != nil {
		return nil, err
	}
	return ToDocumentResponse(doc), nil
}

func linesFromRequest(in []dto.DocumentLineRequest) []LineInput {
	lines := make([]LineInput, 0, len(in))
	for _, l := range in {
		lines = append(lines, LineInput{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			FromLocationID: l.FromLocationID,
			ToLocationID:   l.ToLocationID,
			LocationID:     l.LocationID,
			ReasonCode:     l.ReasonCode,
		})
	}
	return lines
}

// ToDocumentResponse convierte la entidad en el DTO de salida.
func ToDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	if d == nil {
		return nil
	}
	lines := make([]dto.DocumentLineResponse, 0, len(d.Lines))
	for _, l := range d.Lines {
		lines = append(lines, dto.DocumentLineResponse{
			LineNo:         l.LineNo,
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			FromLocationID: l.FromLocationID,
			ToLocationID:   l.ToLocationID,
			LocationID:     l.LocationID,
			ReasonCode:     l.ReasonCode,
		})
	}
	return &dto.DocumentResponse{
		ID:            d.ID,
		Type:          string(d.Type),
		Status:        string(d.Status),
		Reference:     d.Reference,
		Notes:         d.Notes,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		PostedAt:      d.PostedAt,
		PostedBy:      d.PostedBy,
		VoidedAt:      d.VoidedAt,
		VoidedBy:      d.VoidedBy,
		VoidReference: d.VoidReference,
		Version:       d.Version,
		Lines:         lines,
	}
}

// ToPostingResultResponse convierte el resultado del motor en el DTO de salida.
func ToPostingResultResponse(r *PostingResult) *dto.PostingResultResponse {
	balances := make([]dto.BalanceChangeDTO, 0, len(r.UpdatedBalances))
	for _, b := range r.UpdatedBalances {
		balances = append(balances, dto.BalanceChangeDTO{ProductID: b.ProductID, LocationID: b.LocationID, Quantity: b.Quantity})
	}
	ids := r.LedgerEntryIDs
	if ids == nil {
		ids = []string{}
	}
	return &dto.PostingResultResponse{
		DocumentID:      r.DocumentID,
		Status:          string(r.Status),
		VoidReference:   r.VoidReference,
		LedgerEntryIDs:  ids,
		UpdatedBalances: balances,
	}
}

// ToLedgerEntryResponse convierte un asiento en el DTO de salida.
func ToLedgerEntryResponse(e entity.LedgerEntry) dto.LedgerEntryResponse {
	return dto.LedgerEntryResponse{
		ID:                 e.ID,
		Seq:                e.Seq,
		Timestamp:          e.Timestamp,
		ProductID:          e.ProductID,
		LocationID:         e.LocationID,
		Delta:              e.Delta,
		BalanceAfter:       e.BalanceAfter,
		DocumentType:       string(e.DocumentType),
		DocumentID:         e.DocumentID,
		LineNo:             e.LineNo,
		ReversesDocumentID: e.ReversesDocumentID,
		ReversesEntryID:    e.ReversesEntryID,
		CreatedBy:          e.CreatedBy,
	}
}
