package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// DocumentRepo implementa repository.DocumentRepository. Sin unidad de trabajo (u == nil)
// cada escritura se ejecuta y confirma sola.
type DocumentRepo struct {
	s *Store
	u *unit
}

func (r *DocumentRepo) write(fn func(u *unit) error) error {
	if r.u != nil {
		return fn(r.u)
	}
	return r.s.run(fn)
}

func (r *DocumentRepo) Create(_ context.Context, doc *entity.Document) error {
	return r.write(func(u *unit) error {
		u.lockDoc(doc.ID)
		if u.doc(doc.ID) != nil {
			return domain.ErrDuplicate
		}
		delete(u.deleted, doc.ID)
		u.docs[doc.ID] = cloneDoc(doc)
		return nil
	})
}

func (r *DocumentRepo) GetByID(_ context.Context, id string) (*entity.Document, error) {
	if r.u != nil {
		return cloneDoc(r.u.doc(id)), nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneDoc(r.s.docs[id]), nil
}

// GetForUpdate toma el candado del documento hasta el fin de la unidad de trabajo.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Document, error) {
	if r.u == nil {
		return r.GetByID(ctx, id)
	}
	r.u.lockDoc(id)
	return cloneDoc(r.u.doc(id)), nil
}

// mutate aplica fn sobre una copia del documento si la versión coincide y la deja pendiente.
func (r *DocumentRepo) mutate(id string, expectedVersion int, fn func(d *entity.Document)) error {
	return r.write(func(u *unit) error {
		u.lockDoc(id)
		cur := u.doc(id)
		if cur == nil {
			return domain.ErrNotFound
		}
		if cur.Version != expectedVersion {
			return fmt.Errorf("documento %s versión %d, esperada %d: %w", id, cur.Version, expectedVersion, domain.ErrConcurrencyConflict)
		}
		next := cloneDoc(cur)
		fn(next)
		next.Version = cur.Version + 1
		u.docs[id] = next
		return nil
	})
}

func (r *DocumentRepo) ReplaceLines(_ context.Context, doc *entity.Document, expectedVersion int) error {
	return r.mutate(doc.ID, expectedVersion, func(d *entity.Document) {
		d.Lines = append([]entity.DocumentLine(nil), doc.Lines...)
		d.UpdatedAt = doc.UpdatedAt
	})
}

func (r *DocumentRepo) MarkPosted(_ context.Context, id string, expectedVersion int, postedBy string, at time.Time) error {
	return r.mutate(id, expectedVersion, func(d *entity.Document) {
		d.Status = entity.DocumentStatusPosted
		d.PostedBy = postedBy
		d.PostedAt = &at
		d.UpdatedAt = at
	})
}

func (r *DocumentRepo) MarkVoided(_ context.Context, id string, expectedVersion int, voidedBy, voidReference string, at time.Time) error {
	return r.mutate(id, expectedVersion, func(d *entity.Document) {
		d.Status = entity.DocumentStatusVoided
		d.VoidedBy = voidedBy
		d.VoidReference = voidReference
		d.VoidedAt = &at
		d.UpdatedAt = at
	})
}

func (r *DocumentRepo) DeleteDraft(_ context.Context, id string, expectedVersion int) error {
	return r.write(func(u *unit) error {
		u.lockDoc(id)
		cur := u.doc(id)
		if cur == nil {
			return domain.ErrNotFound
		}
		if cur.Version != expectedVersion {
			return fmt.Errorf("documento %s versión %d, esperada %d: %w", id, cur.Version, expectedVersion, domain.ErrConcurrencyConflict)
		}
		if !cur.IsDraft() {
			return &domain.InvalidStateError{DocumentID: id, Status: string(cur.Status), Operation: "descartar"}
		}
		delete(u.docs, id)
		u.deleted[id] = true
		return nil
	})
}

func (r *DocumentRepo) List(_ context.Context, f repository.DocumentFilter) ([]*entity.Document, error) {
	r.s.mu.RLock()
	list := make([]*entity.Document, 0)
	for _, d := range r.s.docs {
		if f.Type != "" && d.Type != f.Type {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		list = append(list, cloneDoc(d))
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, f.Limit, f.Offset), nil
}
