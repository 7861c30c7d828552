package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

// Escenarios A-E encadenados sobre el mismo almacenamiento.
func TestPostingEngine_EscenariosAE(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	// A: entrada de 100 a L1.
	e.receive(t, e.productX, e.l1, 100)
	e.assertBalance(t, e.productX, e.l1, 100)

	// B: salida de 40 desde L1.
	e.mustPost(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: e.productX, Quantity: qty(40), FromLocationID: e.l1})
	e.assertBalance(t, e.productX, e.l1, 60)

	// C: salida de 1000 falla y no toca nada.
	doc, _, err := e.post(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: e.productX, Quantity: qty(1000), FromLocationID: e.l1})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	var serr *domain.InsufficientStockError
	require.ErrorAs(t, err, &serr)
	require.Len(t, serr.Shortages, 1)
	assert.True(t, qty(60).Equal(serr.Shortages[0].Available))
	assert.True(t, qty(1000).Equal(serr.Shortages[0].Requested))
	e.assertBalance(t, e.productX, e.l1, 60)
	stored, err := e.docs.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, stored.Status)

	// D: traslado de 20 de L1 a L2.
	e.mustPost(t, entity.DocumentTypeTransfer, inventory.LineInput{ProductID: e.productX, Quantity: qty(20), FromLocationID: e.l1, ToLocationID: e.l2})
	e.assertBalance(t, e.productX, e.l1, 40)
	e.assertBalance(t, e.productX, e.l2, 20)

	// E: ajuste de -5 en L2 y su anulación.
	adj := e.mustPost(t, entity.DocumentTypeAdjustment, inventory.LineInput{ProductID: e.productX, Quantity: qty(-5), LocationID: e.l2, ReasonCode: "MERMA"})
	e.assertBalance(t, e.productX, e.l2, 15)

	res, err := e.engine.Void(ctx, adj.ID, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusVoided, res.Status)
	e.assertBalance(t, e.productX, e.l2, 20)

	e.assertLedgerMatchesBalances(t)
}

func TestPostingEngine_ResultadoIncluyeAsientosYSaldos(t *testing.T) {
	e := newTestEnv(t)
	e.receive(t, e.productX, e.l1, 10)

	_, res, err := e.post(t, entity.DocumentTypeTransfer,
		inventory.LineInput{ProductID: e.productX, Quantity: qty(3), FromLocationID: e.l1, ToLocationID: e.l2})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusPosted, res.Status)
	require.Len(t, res.LedgerEntryIDs, 2, "un traslado genera débito y crédito")
	require.Len(t, res.UpdatedBalances, 2)

	got := map[string]string{}
	for _, b := range res.UpdatedBalances {
		got[b.LocationID] = b.Quantity.String()
	}
	assert.Equal(t, "7", got[e.l1])
	assert.Equal(t, "3", got[e.l2])
}

func TestPostingEngine_AsientosEnOrdenDeLineaConMismoTimestamp(t *testing.T) {
	e := newTestEnv(t)
	doc := e.mustPost(t, entity.DocumentTypeReceipt,
		inventory.LineInput{ProductID: e.productX, Quantity: qty(1), ToLocationID: e.l1},
		inventory.LineInput{ProductID: e.productX, Quantity: qty(2), ToLocationID: e.l1},
	)

	entries := e.ledger(t, e.productX, e.l1)
	require.Len(t, entries, 2)
	assert.Equal(t, entries[0].Timestamp, entries[1].Timestamp)
	assert.Less(t, entries[0].Seq, entries[1].Seq)
	assert.Equal(t, 1, entries[0].LineNo)
	assert.Equal(t, "3", entries[1].BalanceAfter.String())
	for _, en := range entries {
		assert.Equal(t, doc.ID, en.DocumentID)
		assert.Equal(t, testUser, en.CreatedBy)
	}
}

// Dos líneas que por separado caben pero juntas dejan la clave en negativo.
func TestPostingEngine_VerificacionAcumuladaPorClave(t *testing.T) {
	e := newTestEnv(t)
	e.receive(t, e.productX, e.l1, 10)

	_, _, err := e.post(t, entity.DocumentTypeDelivery,
		inventory.LineInput{ProductID: e.productX, Quantity: qty(6), FromLocationID: e.l1},
		inventory.LineInput{ProductID: e.productX, Quantity: qty(6), FromLocationID: e.l1},
	)
	var serr *domain.InsufficientStockError
	require.ErrorAs(t, err, &serr)
	require.Len(t, serr.Shortages, 1)
	assert.Equal(t, 2, serr.Shortages[0].LineNo)
	e.assertBalance(t, e.productX, e.l1, 10)
	assert.Len(t, e.ledger(t, e.productX, e.l1), 1)
}

// Un traslado que no cabe en origen no acredita el destino.
func TestPostingEngine_TrasladoAtomico(t *testing.T) {
	e := newTestEnv(t)
	e.receive(t, e.productX, e.l1, 5)

	_, _, err := e.post(t, entity.DocumentTypeTransfer,
		inventory.LineInput{ProductID: e.productX, Quantity: qty(2), FromLocationID: e.l1, ToLocationID: e.l2},
		inventory.LineInput{ProductID: e.productX, Quantity: qty(4), FromLocationID: e.l1, ToLocationID: e.l2},
	)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	e.assertBalance(t, e.productX, e.l1, 5)
	e.assertBalance(t, e.productX, e.l2, 0)
	assert.Empty(t, e.ledger(t, e.productX, e.l2))
}

func TestPostingEngine_ValidacionReportaTodasLasLineas(t *testing.T) {
	e := newTestEnv(t)
	_, _, err := e.post(t, entity.DocumentTypeReceipt,
		inventory.LineInput{ProductID: "inexistente", Quantity: qty(1), ToLocationID: e.l1},
		inventory.LineInput{ProductID: e.productX, Quantity: qty(0), ToLocationID: e.l1},
		inventory.LineInput{ProductID: e.productX, Quantity: qty(1), ToLocationID: "otra"},
	)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, domain.ErrValidation)
	lines := map[int]bool{}
	for _, p := range verr.Problems {
		lines[p.LineNo] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, lines)
	e.assertBalance(t, e.productX, e.l1, 0)
}

func TestPostingEngine_PrecisionDelProducto(t *testing.T) {
	e := newTestEnv(t)
	e.mustPost(t, entity.DocumentTypeReceipt,
		inventory.LineInput{ProductID: e.productKG, Quantity: mustDecimal(t, "2.125"), ToLocationID: e.l1})
	assert.Equal(t, "2.125", e.balance(t, e.productKG, e.l1).String())

	_, _, err := e.post(t, entity.DocumentTypeReceipt,
		inventory.LineInput{ProductID: e.productX, Quantity: mustDecimal(t, "1.5"), ToLocationID: e.l1})
	assert.ErrorIs(t, err, domain.ErrValidation, "X solo admite unidades enteras")
}

func TestPostingEngine_NoSeContabilizaDosVeces(t *testing.T) {
	e := newTestEnv(t)
	doc := e.receive(t, e.productX, e.l1, 3)

	_, err := e.engine.Post(context.Background(), doc.ID, testUser)
	var ierr *domain.InvalidStateError
	require.ErrorAs(t, err, &ierr)
	assert.Equal(t, string(entity.DocumentStatusPosted), ierr.Status)
	e.assertBalance(t, e.productX, e.l1, 3)
}

func TestPostingEngine_AnularBorradorOAnuladoFalla(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	d := e.draft(t, entity.DocumentTypeReceipt, inventory.LineInput{ProductID: e.productX, Quantity: qty(1), ToLocationID: e.l1})

	_, err := e.engine.Void(ctx, d.ID, testUser)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	posted := e.receive(t, e.productX, e.l1, 1)
	_, err = e.engine.Void(ctx, posted.ID, testUser)
	require.NoError(t, err)
	_, err = e.engine.Void(ctx, posted.ID, testUser)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = e.engine.Post(ctx, "no-existe", testUser)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPostingEngine_AnulacionReferenciaAsientosOriginales(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.receive(t, e.productX, e.l1, 10)
	tr := e.mustPost(t, entity.DocumentTypeTransfer, inventory.LineInput{ProductID: e.productX, Quantity: qty(4), FromLocationID: e.l1, ToLocationID: e.l2})

	res, err := e.engine.Void(ctx, tr.ID, testUser)
	require.NoError(t, err)
	require.NotEmpty(t, res.VoidReference)
	assert.NotEqual(t, tr.ID, res.VoidReference)
	require.Len(t, res.LedgerEntryIDs, 2)

	originals, err := e.store.Ledger().ListByDocument(ctx, tr.ID)
	require.NoError(t, err)
	reversals, err := e.store.Ledger().ListByDocument(ctx, res.VoidReference)
	require.NoError(t, err)
	require.Len(t, reversals, len(originals))
	for i, r := range reversals {
		assert.True(t, r.IsReversal())
		assert.Equal(t, tr.ID, r.ReversesDocumentID)
		assert.Equal(t, originals[i].ID, r.ReversesEntryID)
		assert.True(t, originals[i].Delta.Neg().Equal(r.Delta))
	}

	stored, err := e.docs.GetDocument(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusVoided, stored.Status)
	assert.Equal(t, res.VoidReference, stored.VoidReference)
	e.assertBalance(t, e.productX, e.l1, 10)
	e.assertBalance(t, e.productX, e.l2, 0)
	e.assertLedgerMatchesBalances(t)
}

// Anular una entrada cuyo stock ya salió dejaría el saldo en negativo.
func TestPostingEngine_AnulacionRechazadaSiDejaNegativo(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	rec := e.receive(t, e.productX, e.l1, 10)
	e.mustPost(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: e.productX, Quantity: qty(8), FromLocationID: e.l1})

	_, err := e.engine.Void(ctx, rec.ID, testUser)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	stored, err := e.docs.GetDocument(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusPosted, stored.Status)
	e.assertBalance(t, e.productX, e.l1, 2)
	e.assertLedgerMatchesBalances(t)
}

// Corrección: anular y contabilizar una copia editada deja el saldo de la copia.
func TestPostingEngine_AnularYRecontabilizarCopia(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	rec := e.receive(t, e.productX, e.l1, 10)

	_, err := e.engine.Void(ctx, rec.ID, testUser)
	require.NoError(t, err)

	copyDoc, err := e.docs.DuplicateAsDraft(ctx, rec.ID, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentStatusDraft, copyDoc.Status)
	_, err = e.docs.UpdateDraft(ctx, copyDoc.ID, []inventory.LineInput{{ProductID: e.productX, Quantity: qty(12), ToLocationID: e.l1}}, copyDoc.Version)
	require.NoError(t, err)
	_, err = e.engine.Post(ctx, copyDoc.ID, testUser)
	require.NoError(t, err)

	e.assertBalance(t, e.productX, e.l1, 12)
	assert.Len(t, e.ledger(t, e.productX, e.l1), 3)
	e.assertLedgerMatchesBalances(t)
}

func TestPostingEngine_ContextoCanceladoAntesDeIniciar(t *testing.T) {
	e := newTestEnv(t)
	d := e.draft(t, entity.DocumentTypeReceipt, inventory.LineInput{ProductID: e.productX, Quantity: qty(1), ToLocationID: e.l1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.engine.Post(ctx, d.ID, testUser)
	require.ErrorIs(t, err, context.Canceled)
	e.assertBalance(t, e.productX, e.l1, 0)
}

// Traslados opuestos concurrentes entre L1 y L2: sin bloqueo mutuo y con el total conservado.
func TestPostingEngine_TrasladosOpuestosConcurrentes(t *testing.T) {
	e := newTestEnv(t)
	e.receive(t, e.productX, e.l1, 100)
	e.receive(t, e.productX, e.l2, 100)

	var g errgroup.Group
	for i := 0; i < 50; i++ {
		for _, dir := range [][2]string{{e.l1, e.l2}, {e.l2, e.l1}} {
			from, to := dir[0], dir[1]
			g.Go(func() error {
				doc, err := e.docs.CreateDocument(context.Background(), inventory.DocumentInput{
					Type:      entity.DocumentTypeTransfer,
					CreatedBy: testUser,
					Lines:     []inventory.LineInput{{ProductID: e.productX, Quantity: qty(1), FromLocationID: from, ToLocationID: to}},
				})
				if err != nil {
					return err
				}
				_, err = e.engine.Post(context.Background(), doc.ID, testUser)
				return err
			})
		}
	}
	require.NoError(t, g.Wait())

	total := e.balance(t, e.productX, e.l1).Add(e.balance(t, e.productX, e.l2))
	assert.Equal(t, "200", total.String())
	assert.Len(t, e.ledger(t, e.productX, e.l1), 101)
	e.assertLedgerMatchesBalances(t)
}

// Dos salidas concurrentes que juntas superan el saldo: exactamente una gana.
func TestPostingEngine_SalidasConcurrentesNoDejanNegativo(t *testing.T) {
	e := newTestEnv(t)
	e.receive(t, e.productX, e.l1, 10)

	drafts := []*entity.Document{
		e.draft(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: e.productX, Quantity: qty(7), FromLocationID: e.l1}),
		e.draft(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: e.productX, Quantity: qty(7), FromLocationID: e.l1}),
	}
	errs := make([]error, len(drafts))
	var g errgroup.Group
	for i, d := range drafts {
		g.Go(func() error {
			_, errs[i] = e.engine.Post(context.Background(), d.ID, testUser)
			return nil
		})
	}
	require.NoError(t, g.Wait())

	failed := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, failed)
	e.assertBalance(t, e.productX, e.l1, 3)
}

// mockLedger delega en el repositorio real salvo Append, controlado por testify/mock.
type mockLedger struct {
	mock.Mock
	repository.LedgerRepository
}

func (m *mockLedger) Append(ctx context.Context, drafts []entity.LedgerEntryDraft) ([]entity.LedgerEntry, error) {
	args := m.Called(ctx, drafts)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	return m.LedgerRepository.Append(ctx, drafts)
}

// failingRunner corre sobre memoria pero sustituye el ledger de la unidad por el mock.
type failingRunner struct {
	inner  *memory.TxRunner
	ledger *mockLedger
}

func (r *failingRunner) Run(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	stockRepo repository.StockBalanceRepository,
	docRepo repository.DocumentRepository,
) error) error {
	return r.inner.Run(ctx, func(l repository.LedgerRepository, s repository.StockBalanceRepository, d repository.DocumentRepository) error {
		r.ledger.LedgerRepository = l
		return fn(r.ledger, s, d)
	})
}

// La marca de tiempo se toma con las claves ya bloqueadas: quien espera el candado
// queda después en el ledger y los balance_after coinciden con el saldo corrido.
func TestPostingEngine_TimestampTomadoConClavesBloqueadas(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.receive(t, e.productX, e.l1, 100)

	base := time.Now().UTC().Add(time.Hour)
	stamped := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	slow := inventory.NewPostingEngine(e.tx, e.store.Documents(), e.store.Products(), e.store.Locations(), nil)
	slow.SetClock(func() time.Time {
		once.Do(func() {
			close(stamped)
			<-release
		})
		return base.Add(time.Second)
	})
	fast := inventory.NewPostingEngine(e.tx, e.store.Documents(), e.store.Products(), e.store.Locations(), nil)
	fast.SetClock(func() time.Time { return base.Add(2 * time.Second) })

	first := e.draft(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: e.productX, Quantity: qty(5), FromLocationID: e.l1})
	second := e.draft(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: e.productX, Quantity: qty(10), FromLocationID: e.l1})

	var g errgroup.Group
	g.Go(func() error {
		_, err := slow.Post(ctx, first.ID, testUser)
		return err
	})
	select {
	case <-stamped:
	case <-time.After(5 * time.Second):
		t.Fatal("el motor lento nunca tomó la marca de tiempo")
	}
	g.Go(func() error {
		_, err := fast.Post(ctx, second.ID, testUser)
		return err
	})
	// la segunda contabilización debe quedar esperando el candado de la clave
	time.Sleep(50 * time.Millisecond)
	close(release)
	require.NoError(t, g.Wait())

	e.assertBalance(t, e.productX, e.l1, 85)
	e.assertLedgerMatchesBalances(t)

	entries := e.ledger(t, e.productX, e.l1)
	require.Len(t, entries, 3)
	assert.Equal(t, first.ID, entries[1].DocumentID)
	assert.Equal(t, second.ID, entries[2].DocumentID)
	assert.True(t, entries[1].Timestamp.Before(entries[2].Timestamp))

	// leer desde la marca de la primera salida devuelve ambas
	since := entries[1].Timestamp
	seq, err := e.stock.GetLedger(ctx, e.productX, e.l1, &since)
	require.NoError(t, err)
	n := 0
	for _, err := range seq {
		require.NoError(t, err)
		n++
	}
	assert.Equal(t, 2, n)
}

func TestPostingEngine_FalloDeAlmacenamientoNoDejaRastro(t *testing.T) {
	store := memory.NewStore()
	ml := &mockLedger{}
	runner := &failingRunner{inner: memory.NewTxRunner(store), ledger: ml}
	e := newTestEnvWithRunner(t, store, runner)

	ml.On("Append", mock.Anything, mock.Anything).Return(nil, nil).Once()
	e.receive(t, e.productX, e.l1, 10)

	storageErr := errors.Join(domain.ErrStorage, errors.New("disco lleno"))
	ml.On("Append", mock.Anything, mock.Anything).Return(nil, storageErr).Once()
	_, _, err := e.post(t, entity.DocumentTypeTransfer,
		inventory.LineInput{ProductID: e.productX, Quantity: qty(4), FromLocationID: e.l1, ToLocationID: e.l2})
	require.ErrorIs(t, err, domain.ErrStorage)
	ml.AssertExpectations(t)

	e.assertBalance(t, e.productX, e.l1, 10)
	e.assertBalance(t, e.productX, e.l2, 0)
	assert.Len(t, e.ledger(t, e.productX, e.l1), 1)

	docs, err := e.docs.ListDocuments(context.Background(), repository.DocumentFilter{Status: entity.DocumentStatusPosted})
	require.NoError(t, err)
	assert.Len(t, docs, 1, "solo la entrada quedó contabilizada")
}
