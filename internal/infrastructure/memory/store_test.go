package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var testKey = entity.StockKey{ProductID: "p1", LocationID: "l1"}

func TestEscrituraFueraDeUnidad(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	_, err := s.Ledger().Append(ctx, []entity.LedgerEntryDraft{{ProductID: "p1", LocationID: "l1", Delta: decimal.NewFromInt(1)}})
	assert.ErrorIs(t, err, errNoUnit)
	_, err = s.Balances().ApplyDelta(ctx, testKey, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, errNoUnit)
	assert.ErrorIs(t, s.Balances().Set(ctx, testKey, decimal.Zero), errNoUnit)
}

func TestUnidadFallidaNoDejaRastro(t *testing.T) {
	s := NewStore()
	tx := NewTxRunner(s)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.Run(ctx, func(l repository.LedgerRepository, b repository.StockBalanceRepository, _ repository.DocumentRepository) error {
		if _, err := b.ApplyDelta(ctx, testKey, decimal.NewFromInt(10)); err != nil {
			return err
		}
		if _, err := l.Append(ctx, []entity.LedgerEntryDraft{{Timestamp: time.Now(), ProductID: "p1", LocationID: "l1", Delta: decimal.NewFromInt(10), DocumentID: "d1"}}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	q, err := s.Balances().Get(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, q.IsZero())
	entries, err := s.Ledger().ListByDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnidadVeSusPropiasEscrituras(t *testing.T) {
	s := NewStore()
	tx := NewTxRunner(s)
	ctx := context.Background()

	err := tx.Run(ctx, func(l repository.LedgerRepository, b repository.StockBalanceRepository, _ repository.DocumentRepository) error {
		if _, err := b.ApplyDelta(ctx, testKey, decimal.NewFromInt(7)); err != nil {
			return err
		}
		if _, err := l.Append(ctx, []entity.LedgerEntryDraft{{Timestamp: time.Now(), ProductID: "p1", LocationID: "l1", Delta: decimal.NewFromInt(7), DocumentID: "d1"}}); err != nil {
			return err
		}
		q, err := b.Get(ctx, testKey)
		require.NoError(t, err)
		assert.True(t, q.Equal(decimal.NewFromInt(7)))

		sum, err := l.SumFor(ctx, testKey)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(7)))

		// otra lectura fuera de la unidad aún no ve nada
		outside, err := s.Balances().Get(ctx, testKey)
		require.NoError(t, err)
		assert.True(t, outside.IsZero())
		return nil
	})
	require.NoError(t, err)

	q, err := s.Balances().Get(ctx, testKey)
	require.NoError(t, err)
	assert.True(t, q.Equal(decimal.NewFromInt(7)))
}

func TestApplyDeltaRechazaNegativo(t *testing.T) {
	s := NewStore()
	tx := NewTxRunner(s)
	ctx := context.Background()

	err := tx.Run(ctx, func(_ repository.LedgerRepository, b repository.StockBalanceRepository, _ repository.DocumentRepository) error {
		_, err := b.ApplyDelta(ctx, testKey, decimal.NewFromInt(-1))
		return err
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestSeqCreceEntreUnidades(t *testing.T) {
	s := NewStore()
	tx := NewTxRunner(s)
	ctx := context.Background()
	ts := time.Now().UTC()

	for i := 0; i < 3; i++ {
		require.NoError(t, tx.Run(ctx, func(l repository.LedgerRepository, _ repository.StockBalanceRepository, _ repository.DocumentRepository) error {
			_, err := l.Append(ctx, []entity.LedgerEntryDraft{{Timestamp: ts, ProductID: "p1", LocationID: "l1", Delta: decimal.NewFromInt(1)}})
			return err
		}))
	}

	var seqs []int64
	for e, err := range s.Ledger().EntriesFor(ctx, "p1", "l1", nil) {
		require.NoError(t, err)
		seqs = append(seqs, e.Seq)
	}
	require.Len(t, seqs, 3)
	assert.Less(t, seqs[0], seqs[1])
	assert.Less(t, seqs[1], seqs[2])
}
