package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

const testUser = "00000000-0000-0000-0000-0000000000aa"

// testEnv motor completo sobre el almacenamiento en memoria con un producto X
// (unidades enteras), un producto KG (3 decimales) y dos ubicaciones L1 y L2.
type testEnv struct {
	store  *memory.Store
	tx     inventory.TxRunner
	docs   *inventory.DocumentUseCase
	engine *inventory.PostingEngine
	stock  *inventory.StockQueryUseCase

	productX  string
	productKG string
	l1        string
	l2        string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	return newTestEnvWithRunner(t, store, memory.NewTxRunner(store))
}

func newTestEnvWithRunner(t *testing.T, store *memory.Store, tx inventory.TxRunner) *testEnv {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	e := &testEnv{
		store:     store,
		tx:        tx,
		productX:  uuid.NewString(),
		productKG: uuid.NewString(),
		l1:        uuid.NewString(),
		l2:        uuid.NewString(),
	}
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: e.productX, SKU: "X", Name: "Producto X", UnitMeasure: "UND", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{ID: e.productKG, SKU: "HARINA", Name: "Harina", UnitMeasure: "KG", Precision: 3, CreatedAt: now, UpdatedAt: now}))
	wh := uuid.NewString()
	require.NoError(t, store.Warehouses().Create(ctx, &entity.Warehouse{ID: wh, Name: "Central", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, store.Locations().Create(ctx, &entity.StockLocation{ID: e.l1, WarehouseID: wh, Code: "L1", CreatedAt: now}))
	require.NoError(t, store.Locations().Create(ctx, &entity.StockLocation{ID: e.l2, WarehouseID: wh, Code: "L2", CreatedAt: now}))

	docRepo := store.Documents()
	e.docs = inventory.NewDocumentUseCase(tx, docRepo)
	e.engine = inventory.NewPostingEngine(tx, docRepo, store.Products(), store.Locations(), nil)
	e.stock = inventory.NewStockQueryUseCase(tx, store.Balances(), store.Ledger(), nil)
	return e
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func (e *testEnv) draft(t *testing.T, typ entity.DocumentType, lines ...inventory.LineInput) *entity.Document {
	t.Helper()
	doc, err := e.docs.CreateDocument(context.Background(), inventory.DocumentInput{Type: typ, CreatedBy: testUser, Lines: lines})
	require.NoError(t, err)
	return doc
}

// post crea y contabiliza un documento.
func (e *testEnv) post(t *testing.T, typ entity.DocumentType, lines ...inventory.LineInput) (*entity.Document, *inventory.PostingResult, error) {
	t.Helper()
	doc := e.draft(t, typ, lines...)
	res, err := e.engine.Post(context.Background(), doc.ID, testUser)
	return doc, res, err
}

func (e *testEnv) mustPost(t *testing.T, typ entity.DocumentType, lines ...inventory.LineInput) *entity.Document {
	t.Helper()
	doc, _, err := e.post(t, typ, lines...)
	require.NoError(t, err)
	return doc
}

func (e *testEnv) receive(t *testing.T, product, loc string, n int64) *entity.Document {
	t.Helper()
	return e.mustPost(t, entity.DocumentTypeReceipt, inventory.LineInput{ProductID: product, Quantity: qty(n), ToLocationID: loc})
}

func (e *testEnv) balance(t *testing.T, product, loc string) decimal.Decimal {
	t.Helper()
	b, err := e.stock.GetBalance(context.Background(), product, loc)
	require.NoError(t, err)
	return b
}

func (e *testEnv) assertBalance(t *testing.T, product, loc string, want int64) {
	t.Helper()
	got := e.balance(t, product, loc)
	assert.True(t, qty(want).Equal(got), "saldo esperado %d, obtenido %s", want, got)
}

func (e *testEnv) ledger(t *testing.T, product, loc string) []entity.LedgerEntry {
	t.Helper()
	seq, err := e.stock.GetLedger(context.Background(), product, loc, nil)
	require.NoError(t, err)
	var out []entity.LedgerEntry
	for en, err := range seq {
		require.NoError(t, err)
		out = append(out, en)
	}
	return out
}

// assertLedgerMatchesBalances verifica que cada saldo sea la suma de sus asientos,
// que ningún saldo sea negativo y que balance_after coincida con el saldo corrido.
func (e *testEnv) assertLedgerMatchesBalances(t *testing.T) {
	t.Helper()
	for _, p := range []string{e.productX, e.productKG} {
		for _, l := range []string{e.l1, e.l2} {
			running := decimal.Zero
			for _, en := range e.ledger(t, p, l) {
				running = running.Add(en.Delta)
				assert.True(t, running.Equal(en.BalanceAfter), "balance_after de %s", en.ID)
			}
			got := e.balance(t, p, l)
			assert.True(t, running.Equal(got), "ledger %s != saldo %s", running, got)
			assert.False(t, got.IsNegative())
		}
	}
}
