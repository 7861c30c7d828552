package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback completo; si no, Commit. Garantiza atomicidad del motor.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		stockRepo repository.StockBalanceRepository,
		docRepo repository.DocumentRepository,
	) error) error
}

// VoucherGenerator genera la representación imprimible (PDF) de un documento.
type VoucherGenerator interface {
	GenerateVoucherPDF(ctx context.Context, voucher *Voucher) ([]byte, error)
}

// Voucher datos del comprobante de un documento, con referencias resueltas.
type Voucher struct {
	Document  *entity.Document
	Lines     []VoucherLine
	Entries   []entity.LedgerEntry
	Reversals []entity.LedgerEntry
}

// VoucherLine línea del comprobante con SKU y códigos de ubicación legibles.
type VoucherLine struct {
	entity.DocumentLine
	SKU          string
	ProductName  string
	UnitMeasure  string
	FromLocation string
	ToLocation   string
	Location     string
}
