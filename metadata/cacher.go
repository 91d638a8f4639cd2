package metadata

import (
	"context"

	"github.com/gophersatwork/granary"
	"github.com/gophersatwork/granary/dataset"
)

const cellPrefix = "metadata_"

func cellName(field string) string {
	return cellPrefix + field
}

// fieldCacher is the part of a Cacher the bulk conversion needs.
type fieldCacher interface {
	Name() string
	settled() bool
	convert(ctx context.Context, docs map[dataset.ProjectID]Document) error
	lookup(ctx context.Context, id dataset.ProjectID) (any, bool, error)
}

// Cacher holds the values of one metadata field for every project.
type Cacher[V any] struct {
	field Field[V]
	cell  *granary.Cell[dataset.ProjectID, V]
	owner *ProjectSource
}

func newCacher[V any](ps *ProjectSource, field Field[V]) *Cacher[V] {
	c := &Cacher[V]{
		field: field,
		cell:  granary.NewCell[dataset.ProjectID, V](ps.cache, cellName(field.Name())),
		owner: ps,
	}
	ps.cachers = append(ps.cachers, c)
	return c
}

// Name returns the cache entry name of the field.
func (c *Cacher[V]) Name() string {
	return c.cell.Name()
}

// Field returns the extracted field.
func (c *Cacher[V]) Field() Field[V] {
	return c.field
}

// IsCached reports whether the field has a persisted entry.
func (c *Cacher[V]) IsCached() bool {
	return c.cell.IsCached()
}

// IsLoaded reports whether the field is resident.
func (c *Cacher[V]) IsLoaded() bool {
	return c.cell.IsLoaded()
}

// Map returns the field for every project that has a value.
//
// When the field is neither resident nor persisted, every field of the
// owning ProjectSource is converted in one pass first.
func (c *Cacher[V]) Map(ctx context.Context) (map[dataset.ProjectID]V, error) {
	if !c.settled() {
		if err := c.owner.convertAll(ctx); err != nil {
			return nil, err
		}
	}
	return c.cell.Data(ctx, c.loadAlone)
}

// Get returns the field of one project.
func (c *Cacher[V]) Get(ctx context.Context, id dataset.ProjectID) (V, bool, error) {
	m, err := c.Map(ctx)
	if err != nil {
		var zero V
		return zero, false, err
	}
	v, ok := m[id]
	return v, ok, nil
}

func (c *Cacher[V]) lookup(ctx context.Context, id dataset.ProjectID) (any, bool, error) {
	v, ok, err := c.Get(ctx, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return v, true, nil
}

func (c *Cacher[V]) settled() bool {
	return c.cell.IsLoaded() || c.cell.IsCached()
}

func (c *Cacher[V]) extract(docs map[dataset.ProjectID]Document) (map[dataset.ProjectID]V, error) {
	out := make(map[dataset.ProjectID]V)
	for id, doc := range docs {
		v, ok, err := c.field.Extract(id, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			out[id] = v
		}
	}
	return out, nil
}

func (c *Cacher[V]) convert(ctx context.Context, docs map[dataset.ProjectID]Document) error {
	m, err := c.extract(docs)
	if err != nil {
		return err
	}
	return c.cell.Store(ctx, m)
}

// loadAlone converts just this field. It runs when a persisted entry turns
// out to be unusable after the bulk conversion was skipped.
func (c *Cacher[V]) loadAlone(ctx context.Context) (map[dataset.ProjectID]V, error) {
	docs, err := c.owner.documents(ctx)
	if err != nil {
		return nil, err
	}
	return c.extract(docs)
}
