package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// VoucherUseCase arma el comprobante imprimible de un documento.
type VoucherUseCase struct {
	docRepo      repository.DocumentRepository
	productRepo  repository.ProductRepository
	locationRepo repository.StockLocationRepository
	ledgerRepo   repository.LedgerRepository
	generator    VoucherGenerator
}

// NewVoucherUseCase construye el caso de uso.
func NewVoucherUseCase(
	docRepo repository.DocumentRepository,
	productRepo repository.ProductRepository,
	locationRepo repository.StockLocationRepository,
	ledgerRepo repository.LedgerRepository,
	generator VoucherGenerator,
) *VoucherUseCase {
	return &VoucherUseCase{
		docRepo:      docRepo,
		productRepo:  productRepo,
		locationRepo: locationRepo,
		ledgerRepo:   ledgerRepo,
		generator:    generator,
	}
}

// BuildVoucher resuelve SKU y códigos de ubicación de cada línea y adjunta los asientos
// del documento (y los de su anulación, si existe).
func (uc *VoucherUseCase) BuildVoucher(ctx context.Context, documentID string) (*Voucher, error) {
	doc, err := uc.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}

	productIDs := make([]string, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		productIDs = append(productIDs, l.ProductID)
	}
	products, err := uc.productRepo.GetMany(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	codes := map[string]string{}
	code := func(id string) (string, error) {
		if id == "" {
			return "", nil
		}
		if c, ok := codes[id]; ok {
			return c, nil
		}
		loc, err := uc.locationRepo.GetByID(ctx, id)
		if err != nil {
			return "", err
		}
		c := id
		if loc != nil {
			c = loc.Code
		}
		codes[id] = c
		return c, nil
	}

	v := &Voucher{Document: doc, Lines: make([]VoucherLine, 0, len(doc.Lines))}
	for _, l := range doc.Lines {
		vl := VoucherLine{DocumentLine: l, SKU: l.ProductID}
		if p := products[l.ProductID]; p != nil {
			vl.SKU, vl.ProductName, vl.UnitMeasure = p.SKU, p.Name, p.UnitMeasure
		}
		if vl.FromLocation, err = code(l.FromLocationID); err != nil {
			return nil, err
		}
		if vl.ToLocation, err = code(l.ToLocationID); err != nil {
			return nil, err
		}
		if vl.Location, err = code(l.LocationID); err != nil {
			return nil, err
		}
		v.Lines = append(v.Lines, vl)
	}

	if doc.Status != entity.DocumentStatusDraft {
		if v.Entries, err = uc.ledgerRepo.ListByDocument(ctx, doc.ID); err != nil {
			return nil, err
		}
	}
	if doc.VoidReference != "" {
		if v.Reversals, err = uc.ledgerRepo.ListByDocument(ctx, doc.VoidReference); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// GenerateVoucherPDF devuelve el PDF del comprobante.
func (uc *VoucherUseCase) GenerateVoucherPDF(ctx context.Context, documentID string) ([]byte, error) {
	v, err := uc.BuildVoucher(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return uc.generator.GenerateVoucherPDF(ctx, v)
}
