package inventory

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// StockQueryUseCase consultas de saldo y ledger, más la reparación del caché de saldos.
// Las lecturas no bloquean y solo ven unidades ya confirmadas.
type StockQueryUseCase struct {
	txRunner   TxRunner
	stockRepo  repository.StockBalanceRepository
	ledgerRepo repository.LedgerRepository
	log        *logger.Logger
}

// NewStockQueryUseCase construye el caso de uso.
func NewStockQueryUseCase(
	txRunner TxRunner,
	stockRepo repository.StockBalanceRepository,
	ledgerRepo repository.LedgerRepository,
	log *logger.Logger,
) *StockQueryUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &StockQueryUseCase{
		txRunner:   txRunner,
		stockRepo:  stockRepo,
		ledgerRepo: ledgerRepo,
		log:        log.Component("stock"),
	}
}

// GetBalance saldo actual de un producto en una ubicación; 0 si nunca se movió.
func (uc *StockQueryUseCase) GetBalance(ctx context.Context, productID, locationID string) (decimal.Decimal, error) {
	key, err := stockKey(productID, locationID)
	if err != nil {
		return decimal.Zero, err
	}
	return uc.stockRepo.Get(ctx, key)
}

// GetLedger secuencia perezosa de asientos de la clave, en orden de timestamp y luego
// de inserción. since = nil devuelve la historia completa.
func (uc *StockQueryUseCase) GetLedger(ctx context.Context, productID, locationID string, since *time.Time) (iter.Seq2[entity.LedgerEntry, error], error) {
	key, err := stockKey(productID, locationID)
	if err != nil {
		return nil, err
	}
	return uc.ledgerRepo.EntriesFor(ctx, key.ProductID, key.LocationID, since), nil
}

// ListByLocation saldos de todos los productos en una ubicación.
func (uc *StockQueryUseCase) ListByLocation(ctx context.Context, locationID string) ([]entity.StockBalance, error) {
	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		return nil, fmt.Errorf("location_id requerido: %w", domain.ErrInvalidInput)
	}
	return uc.stockRepo.ListByLocation(ctx, locationID)
}

// ListByProduct saldos de un producto en todas sus ubicaciones.
func (uc *StockQueryUseCase) ListByProduct(ctx context.Context, productID string) ([]entity.StockBalance, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("product_id requerido: %w", domain.ErrInvalidInput)
	}
	return uc.stockRepo.ListByProduct(ctx, productID)
}

// ReconcileResult resultado de recomputar un saldo desde el ledger.
type ReconcileResult struct {
	ProductID  string
	LocationID string
	Previous   decimal.Decimal
	Recomputed decimal.Decimal
	Drift      decimal.Decimal // Previous - Recomputed
}

// Reconcile recalcula el saldo de la clave sumando el ledger y sobrescribe el caché.
// Corre en una transacción con la clave bloqueada, así que no compite con el motor.
func (uc *StockQueryUseCase) Reconcile(ctx context.Context, productID, locationID string) (*ReconcileResult, error) {
	key, err := stockKey(productID, locationID)
	if err != nil {
		return nil, err
	}
	res := &ReconcileResult{ProductID: key.ProductID, LocationID: key.LocationID}
	ctx = context.WithoutCancel(ctx)
	err = uc.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		stockRepo repository.StockBalanceRepository,
		_ repository.DocumentRepository,
	) error {
		current, err := stockRepo.LockForUpdate(ctx, []entity.StockKey{key})
		if err != nil {
			return err
		}
		sum, err := ledgerRepo.SumFor(ctx, key)
		if err != nil {
			return err
		}
		res.Previous = current[key]
		res.Recomputed = sum
		res.Drift = res.Previous.Sub(sum)
		if res.Drift.IsZero() {
			return nil
		}
		return stockRepo.Set(ctx, key, sum)
	})
	if err != nil {
		return nil, err
	}

	if !res.Drift.IsZero() {
		uc.log.Warn().
			Str("product_id", key.ProductID).
			Str("location_id", key.LocationID).
			Str("previous", res.Previous.String()).
			Str("recomputed", res.Recomputed.String()).
			Str("drift", res.Drift.String()).
			Msg("saldo reconciliado con diferencia")
	}
	return res, nil
}

func stockKey(productID, locationID string) (entity.StockKey, error) {
	k := entity.StockKey{ProductID: strings.TrimSpace(productID), LocationID: strings.TrimSpace(locationID)}
	if k.ProductID == "" || k.LocationID == "" {
		return k, fmt.Errorf("product_id y location_id requeridos: %w", domain.ErrInvalidInput)
	}
	return k, nil
}
