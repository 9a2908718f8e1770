package blogservice

import (
	"context"
	"errors"

	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/pocketbase"
)

var (
	ErrRecordNotFound = pocketbase.ErrNotFound
	ErrDuplicateSlug  = errors.New("slug is already taken")
)

func newRecordModel[T any](b Backend, collection string) *recordModel[T] {
	return &recordModel[T]{b: b, collection: collection}
}

// list returns the first page of records matching filter, ordered by sort.
func (m *recordModel[T]) list(ctx context.Context, filter, sort string, perPage int) ([]T, error) {
	res, err := m.b.List(ctx, m.collection, 1, perPage, pocketbase.ListOptions{Filter: filter, Sort: sort})
	if err != nil {
		return nil, err
	}

	items := []T{}
	if err := res.DecodeItems(&items); err != nil {
		return nil, err
	}

	return items, nil
}

func (m *recordModel[T]) getFirst(ctx context.Context, filter string) (*T, error) {
	var rec T
	err := m.b.GetFirst(ctx, m.collection, filter, &rec)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

func (m *recordModel[T]) insert(ctx context.Context, payload any) (*T, error) {
	var rec T
	err := m.b.Create(ctx, m.collection, payload, &rec)
	if err != nil {
		return nil, uniqueSlugError(err)
	}

	return &rec, nil
}

func (m *recordModel[T]) update(ctx context.Context, id string, payload any) (*T, error) {
	var rec T
	err := m.b.Update(ctx, m.collection, id, payload, &rec)
	if err != nil {
		return nil, uniqueSlugError(err)
	}

	return &rec, nil
}

func (m *recordModel[T]) delete(ctx context.Context, id string) error {
	return m.b.Delete(ctx, m.collection, id)
}

// uniqueSlugError marks a backend rejection of the slug field with
// ErrDuplicateSlug while keeping the original error in the chain.
func uniqueSlugError(err error) error {
	var verr common.ValidationError
	if errors.As(err, &verr) {
		if _, ok := verr.Errors["slug"]; ok {
			return errors.Join(ErrDuplicateSlug, err)
		}
	}
	return err
}
