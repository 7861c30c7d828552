package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

// ledgerFeature estado de un escenario Gherkin: nombres legibles -> IDs del almacenamiento.
type ledgerFeature struct {
	store     *memory.Store
	docs      *inventory.DocumentUseCase
	engine    *inventory.PostingEngine
	stock     *inventory.StockQueryUseCase
	products  map[string]string
	locations map[string]string
	posted    []string
	last      string
	err       error
}

func (f *ledgerFeature) reset() {
	f.store = memory.NewStore()
	tx := memory.NewTxRunner(f.store)
	f.docs = inventory.NewDocumentUseCase(tx, f.store.Documents())
	f.engine = inventory.NewPostingEngine(tx, f.store.Documents(), f.store.Products(), f.store.Locations(), nil)
	f.stock = inventory.NewStockQueryUseCase(tx, f.store.Balances(), f.store.Ledger(), nil)
	f.products = map[string]string{}
	f.locations = map[string]string{}
	f.posted = nil
	f.last = ""
	f.err = nil
}

func (f *ledgerFeature) catalog(sku, l1, l2 string) error {
	ctx := context.Background()
	now := time.Now().UTC()
	id := uuid.NewString()
	if err := f.store.Products().Create(ctx, &entity.Product{ID: id, SKU: sku, Name: sku, UnitMeasure: "UND", CreatedAt: now, UpdatedAt: now}); err != nil {
		return err
	}
	f.products[sku] = id
	wh := uuid.NewString()
	if err := f.store.Warehouses().Create(ctx, &entity.Warehouse{ID: wh, Name: "Central", CreatedAt: now, UpdatedAt: now}); err != nil {
		return err
	}
	for _, code := range []string{l1, l2} {
		lid := uuid.NewString()
		if err := f.store.Locations().Create(ctx, &entity.StockLocation{ID: lid, WarehouseID: wh, Code: code, CreatedAt: now}); err != nil {
			return err
		}
		f.locations[code] = lid
	}
	return nil
}

// submit crea el documento y lo contabiliza; el error queda para los pasos Then.
func (f *ledgerFeature) submit(typ entity.DocumentType, line inventory.LineInput) error {
	ctx := context.Background()
	doc, err := f.docs.CreateDocument(ctx, inventory.DocumentInput{Type: typ, CreatedBy: "bdd", Lines: []inventory.LineInput{line}})
	if err != nil {
		return err
	}
	f.last = doc.ID
	_, f.err = f.engine.Post(ctx, doc.ID, "bdd")
	if f.err == nil {
		f.posted = append(f.posted, doc.ID)
	}
	return nil
}

// given igual que submit pero el paso falla si la contabilización falla.
func (f *ledgerFeature) given(typ entity.DocumentType, line inventory.LineInput) error {
	if err := f.submit(typ, line); err != nil {
		return err
	}
	return f.err
}

func (f *ledgerFeature) receiptLine(n int, sku, loc string) inventory.LineInput {
	return inventory.LineInput{ProductID: f.products[sku], Quantity: decimal.NewFromInt(int64(n)), ToLocationID: f.locations[loc]}
}

func (f *ledgerFeature) deliveryLine(n int, sku, loc string) inventory.LineInput {
	return inventory.LineInput{ProductID: f.products[sku], Quantity: decimal.NewFromInt(int64(n)), FromLocationID: f.locations[loc]}
}

func (f *ledgerFeature) givenReceipt(n int, sku, loc string) error {
	return f.given(entity.DocumentTypeReceipt, f.receiptLine(n, sku, loc))
}

func (f *ledgerFeature) givenDelivery(n int, sku, loc string) error {
	return f.given(entity.DocumentTypeDelivery, f.deliveryLine(n, sku, loc))
}

func (f *ledgerFeature) postReceipt(n int, sku, loc string) error {
	return f.submit(entity.DocumentTypeReceipt, f.receiptLine(n, sku, loc))
}

func (f *ledgerFeature) postDelivery(n int, sku, loc string) error {
	return f.submit(entity.DocumentTypeDelivery, f.deliveryLine(n, sku, loc))
}

func (f *ledgerFeature) postTransfer(n int, sku, from, to string) error {
	return f.submit(entity.DocumentTypeTransfer, inventory.LineInput{
		ProductID:      f.products[sku],
		Quantity:       decimal.NewFromInt(int64(n)),
		FromLocationID: f.locations[from],
		ToLocationID:   f.locations[to],
	})
}

func (f *ledgerFeature) postAdjustment(n int, sku, loc, reason string) error {
	return f.submit(entity.DocumentTypeAdjustment, inventory.LineInput{
		ProductID:  f.products[sku],
		Quantity:   decimal.NewFromInt(int64(n)),
		LocationID: f.locations[loc],
		ReasonCode: reason,
	})
}

func (f *ledgerFeature) voidLast() error {
	_, f.err = f.engine.Void(context.Background(), f.last, "bdd")
	return nil
}

func (f *ledgerFeature) voidNth(n int) error {
	if n < 1 || n > len(f.posted) {
		return fmt.Errorf("no hay documento contabilizado número %d", n)
	}
	f.last = f.posted[n-1]
	return f.voidLast()
}

func (f *ledgerFeature) repost() error {
	_, f.err = f.engine.Post(context.Background(), f.last, "bdd")
	return nil
}

func (f *ledgerFeature) succeeded() error {
	if f.err != nil {
		return fmt.Errorf("se esperaba éxito: %w", f.err)
	}
	return nil
}

func (f *ledgerFeature) failedWith(target error) func() error {
	return func() error {
		if !errors.Is(f.err, target) {
			return fmt.Errorf("se esperaba %v, obtenido %v", target, f.err)
		}
		return nil
	}
}

func (f *ledgerFeature) balanceIs(sku, loc string, want int) error {
	got, err := f.stock.GetBalance(context.Background(), f.products[sku], f.locations[loc])
	if err != nil {
		return err
	}
	if !got.Equal(decimal.NewFromInt(int64(want))) {
		return fmt.Errorf("saldo de %s en %s: esperado %d, obtenido %s", sku, loc, want, got)
	}
	return f.ledgerMatches(sku, loc, got)
}

// ledgerMatches comprueba que el ledger de la clave sume exactamente el saldo.
func (f *ledgerFeature) ledgerMatches(sku, loc string, balance decimal.Decimal) error {
	seq, err := f.stock.GetLedger(context.Background(), f.products[sku], f.locations[loc], nil)
	if err != nil {
		return err
	}
	sum := decimal.Zero
	for e, err := range seq {
		if err != nil {
			return err
		}
		sum = sum.Add(e.Delta)
	}
	if !sum.Equal(balance) {
		return fmt.Errorf("ledger de %s en %s suma %s, saldo %s", sku, loc, sum, balance)
	}
	return nil
}

func (f *ledgerFeature) lastStatusIs(status string) error {
	doc, err := f.docs.GetDocument(context.Background(), f.last)
	if err != nil {
		return err
	}
	if string(doc.Status) != status {
		return fmt.Errorf("estado esperado %s, obtenido %s", status, doc.Status)
	}
	return nil
}

func initializeLedgerScenario(ctx *godog.ScenarioContext) {
	f := &ledgerFeature{}
	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		f.reset()
		return ctx, nil
	})

	// Given
	ctx.Step(`^el producto "([^"]*)" y las ubicaciones "([^"]*)" y "([^"]*)"$`, f.catalog)
	ctx.Step(`^una entrada de (\d+) unidades de "([^"]*)" a "([^"]*)"$`, f.givenReceipt)
	ctx.Step(`^una salida de (\d+) unidades de "([^"]*)" desde "([^"]*)"$`, f.givenDelivery)

	// When
	ctx.Step(`^contabilizo una entrada de (\d+) unidades de "([^"]*)" a "([^"]*)"$`, f.postReceipt)
	ctx.Step(`^contabilizo una salida de (\d+) unidades de "([^"]*)" desde "([^"]*)"$`, f.postDelivery)
	ctx.Step(`^contabilizo un traslado de (\d+) unidades de "([^"]*)" desde "([^"]*)" hacia "([^"]*)"$`, f.postTransfer)
	ctx.Step(`^contabilizo un ajuste de (-?\d+) unidades de "([^"]*)" en "([^"]*)" con motivo "([^"]*)"$`, f.postAdjustment)
	ctx.Step(`^anulo el último documento$`, f.voidLast)
	ctx.Step(`^anulo el documento (\d+)$`, f.voidNth)
	ctx.Step(`^contabilizo otra vez el último documento$`, f.repost)

	// Then
	ctx.Step(`^la operación se completa$`, f.succeeded)
	ctx.Step(`^la operación falla por stock insuficiente$`, f.failedWith(domain.ErrInsufficientStock))
	ctx.Step(`^la operación falla por estado inválido$`, f.failedWith(domain.ErrInvalidState))
	ctx.Step(`^el saldo de "([^"]*)" en "([^"]*)" es (\d+)$`, f.balanceIs)
	ctx.Step(`^el último documento sigue en "([^"]*)"$`, f.lastStatusIs)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeLedgerScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
