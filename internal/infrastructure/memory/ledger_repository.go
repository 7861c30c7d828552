package memory

import (
	"context"
	"errors"
	"iter"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var errNoUnit = errors.New("memory: escritura del ledger fuera de una unidad de trabajo")

// LedgerRepo implementa repository.LedgerRepository. Solo anexa; nunca modifica ni borra.
type LedgerRepo struct {
	s *Store
	u *unit
}

func (r *LedgerRepo) Append(_ context.Context, drafts []entity.LedgerEntryDraft) ([]entity.LedgerEntry, error) {
	if r.u == nil {
		return nil, errNoUnit
	}
	out := make([]entity.LedgerEntry, 0, len(drafts))
	for _, d := range drafts {
		e := entity.LedgerEntry{ID: uuid.New().String(), Seq: r.s.seq.Add(1), LedgerEntryDraft: d}
		out = append(out, e)
	}
	r.u.ledger = append(r.u.ledger, out...)
	return out, nil
}

// EntriesFor toma una foto de los asientos confirmados de la clave en cada recorrido.
func (r *LedgerRepo) EntriesFor(ctx context.Context, productID, locationID string, since *time.Time) iter.Seq2[entity.LedgerEntry, error] {
	key := entity.StockKey{ProductID: productID, LocationID: locationID}
	return func(yield func(entity.LedgerEntry, error) bool) {
		r.s.mu.RLock()
		idx := r.s.byKey[key]
		entries := make([]entity.LedgerEntry, 0, len(idx))
		for _, i := range idx {
			e := r.s.ledger[i]
			if since != nil && e.Timestamp.Before(*since) {
				continue
			}
			entries = append(entries, e)
		}
		r.s.mu.RUnlock()
		sortEntries(entries)
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				yield(entity.LedgerEntry{}, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

func (r *LedgerRepo) ListByDocument(_ context.Context, documentID string) ([]entity.LedgerEntry, error) {
	r.s.mu.RLock()
	out := make([]entity.LedgerEntry, 0, len(r.s.byDoc[documentID]))
	for _, i := range r.s.byDoc[documentID] {
		out = append(out, r.s.ledger[i])
	}
	r.s.mu.RUnlock()
	if r.u != nil {
		for _, e := range r.u.ledger {
			if e.DocumentID == documentID {
				out = append(out, e)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

func (r *LedgerRepo) SumFor(_ context.Context, key entity.StockKey) (decimal.Decimal, error) {
	sum := decimal.Zero
	r.s.mu.RLock()
	for _, i := range r.s.byKey[key] {
		sum = sum.Add(r.s.ledger[i].Delta)
	}
	r.s.mu.RUnlock()
	if r.u != nil {
		for _, e := range r.u.ledger {
			if e.Key() == key {
				sum = sum.Add(e.Delta)
			}
		}
	}
	return sum, nil
}

func sortEntries(entries []entity.LedgerEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].Seq < entries[j].Seq
	})
}
