package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

func TestDocuments_CrearBorradorNumeraLineas(t *testing.T) {
	e := newTestEnv(t)
	doc, err := e.docs.CreateDocumentFromRequest(context.Background(), testUser, dto.CreateDocumentRequest{
		Type:      "transfer",
		Reference: "TR-1",
		Lines: []dto.DocumentLineRequest{
			{ProductID: e.productX, Quantity: qty(1), FromLocationID: e.l1, ToLocationID: e.l2},
			{ProductID: e.productX, Quantity: qty(2), FromLocationID: e.l1, ToLocationID: e.l2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "TRANSFER", doc.Type)
	assert.Equal(t, "DRAFT", doc.Status)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, testUser, doc.CreatedBy)
	require.Len(t, doc.Lines, 2)
	assert.Equal(t, 1, doc.Lines[0].LineNo)
	assert.Equal(t, 2, doc.Lines[1].LineNo)
}

func TestDocuments_TipoDesconocido(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.docs.CreateDocument(context.Background(), inventory.DocumentInput{Type: "RETURN"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Un borrador puede guardarse con referencias inválidas; se rechazan al contabilizar.
func TestDocuments_BorradorAceptaLineasIncompletas(t *testing.T) {
	e := newTestEnv(t)
	d := e.draft(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: "pendiente", Quantity: qty(1)})
	assert.Equal(t, entity.DocumentStatusDraft, d.Status)
}

func TestDocuments_EditarSoloBorradores(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	posted := e.receive(t, e.productX, e.l1, 1)

	_, err := e.docs.UpdateDraft(ctx, posted.ID, []inventory.LineInput{{ProductID: e.productX, Quantity: qty(2), ToLocationID: e.l1}}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	err = e.docs.DiscardDraft(ctx, posted.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = e.docs.GetDocument(ctx, posted.ID)
	assert.NoError(t, err, "un documento contabilizado nunca se borra")
}

func TestDocuments_VersionOptimista(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	d := e.draft(t, entity.DocumentTypeReceipt, inventory.LineInput{ProductID: e.productX, Quantity: qty(1), ToLocationID: e.l1})

	updated, err := e.docs.UpdateDraft(ctx, d.ID, []inventory.LineInput{{ProductID: e.productX, Quantity: qty(5), ToLocationID: e.l1}}, d.Version)
	require.NoError(t, err)
	assert.Equal(t, d.Version+1, updated.Version)

	_, err = e.docs.UpdateDraft(ctx, d.ID, nil, d.Version)
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	// Versión 0 omite la verificación.
	_, err = e.docs.UpdateDraft(ctx, d.ID, []inventory.LineInput{{ProductID: e.productX, Quantity: qty(6), ToLocationID: e.l1}}, 0)
	require.NoError(t, err)

	_, err = e.engine.Post(ctx, d.ID, testUser)
	require.NoError(t, err)
	e.assertBalance(t, e.productX, e.l1, 6)
}

func TestDocuments_DescartarBorrador(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	d := e.draft(t, entity.DocumentTypeReceipt, inventory.LineInput{ProductID: e.productX, Quantity: qty(1), ToLocationID: e.l1})

	require.NoError(t, e.docs.DiscardDraft(ctx, d.ID))
	_, err := e.docs.GetDocument(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, e.docs.DiscardDraft(ctx, d.ID), domain.ErrNotFound)
}

func TestDocuments_ListarConFiltros(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.receive(t, e.productX, e.l1, 3)
	e.draft(t, entity.DocumentTypeReceipt, inventory.LineInput{ProductID: e.productX, Quantity: qty(1), ToLocationID: e.l1})
	e.draft(t, entity.DocumentTypeDelivery, inventory.LineInput{ProductID: e.productX, Quantity: qty(1), FromLocationID: e.l1})

	all, err := e.docs.ListDocuments(ctx, repository.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	drafts, err := e.docs.ListDocuments(ctx, repository.DocumentFilter{Status: entity.DocumentStatusDraft})
	require.NoError(t, err)
	assert.Len(t, drafts, 2)

	receipts, err := e.docs.ListDocuments(ctx, repository.DocumentFilter{Type: entity.DocumentTypeReceipt, Status: entity.DocumentStatusPosted})
	require.NoError(t, err)
	assert.Len(t, receipts, 1)
}
