package granary

import (
	"cmp"
	"context"
	"sync/atomic"
)

// Node is an attribute in the dependency graph.
type Node interface {
	// Name returns the attribute name, unique within a cache.
	Name() string

	// Dependencies returns the prerequisite attributes.
	Dependencies() []Node

	// Resolve makes the attribute resident, resolving prerequisites first.
	Resolve(ctx context.Context) error

	// IsLoaded reports whether the attribute is resident.
	IsLoaded() bool
}

// Attribute is a typed node: a Cell plus the prerequisites and the
// extraction function that fill it.
//
// Attributes are built with FromSource and Derive1 through Derive4. The
// prerequisites an extraction function receives are exactly the nodes its
// attribute declares, so the graph cannot drift from the code that reads it.
type Attribute[K cmp.Ordered, V any] struct {
	cell    *Cell[K, V]
	deps    []Node
	compute Loader[K, V]
	calls   atomic.Int64
}

func newAttribute[K cmp.Ordered, V any](c *Cache, name string, compute Loader[K, V], deps ...Node) *Attribute[K, V] {
	return &Attribute[K, V]{
		cell:    NewCell[K, V](c, name),
		deps:    deps,
		compute: compute,
	}
}

// Name implements Node.
func (a *Attribute[K, V]) Name() string {
	return a.cell.Name()
}

// Dependencies implements Node.
func (a *Attribute[K, V]) Dependencies() []Node {
	return a.deps
}

// IsLoaded implements Node.
func (a *Attribute[K, V]) IsLoaded() bool {
	return a.cell.IsLoaded()
}

// Resolve implements Node.
func (a *Attribute[K, V]) Resolve(ctx context.Context) error {
	_, err := a.Map(ctx)
	return err
}

// WithoutCache disables persistence of this attribute.
func (a *Attribute[K, V]) WithoutCache() *Attribute[K, V] {
	a.cell.WithoutCache()
	return a
}

// Cell returns the cell holding the attribute.
func (a *Attribute[K, V]) Cell() *Cell[K, V] {
	return a.cell
}

// Calls returns how many times the extraction function ran in this process.
func (a *Attribute[K, V]) Calls() int64 {
	return a.calls.Load()
}

// Map returns the whole attribute, computing or loading it on first use.
func (a *Attribute[K, V]) Map(ctx context.Context) (map[K]V, error) {
	return a.cell.Data(ctx, a.load)
}

// Get returns the value of the attribute for key.
// ok is false when there is no data for key; it never means "not computed yet".
func (a *Attribute[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	return a.cell.Get(ctx, a.load, key)
}

// Pirate returns a deep copy of the value for key.
func (a *Attribute[K, V]) Pirate(ctx context.Context, key K) (V, bool, error) {
	return a.cell.Pirate(ctx, a.load, key)
}

// load resolves every prerequisite before running the extraction function.
func (a *Attribute[K, V]) load(ctx context.Context) (map[K]V, error) {
	for _, dep := range a.deps {
		if err := dep.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	a.calls.Add(1)
	return a.compute(ctx)
}

// FromSource declares an attribute extracted directly from the dataset.
func FromSource[K cmp.Ordered, V any](c *Cache, name string, fn Loader[K, V]) *Attribute[K, V] {
	return newAttribute(c, name, func(ctx context.Context) (map[K]V, error) {
		m, err := fn(ctx)
		if err != nil {
			return nil, SourceError(name, err)
		}
		return m, nil
	})
}

// Derive1 declares an attribute computed from one prerequisite.
func Derive1[K cmp.Ordered, V any, K1 cmp.Ordered, V1 any](
	c *Cache, name string,
	p1 *Attribute[K1, V1],
	fn func(map[K1]V1) map[K]V,
) *Attribute[K, V] {
	return newAttribute(c, name, func(ctx context.Context) (map[K]V, error) {
		m1, err := p1.Map(ctx)
		if err != nil {
			return nil, err
		}
		return fn(m1), nil
	}, p1)
}

// Derive2 declares an attribute computed from two prerequisites.
func Derive2[K cmp.Ordered, V any, K1 cmp.Ordered, V1 any, K2 cmp.Ordered, V2 any](
	c *Cache, name string,
	p1 *Attribute[K1, V1], p2 *Attribute[K2, V2],
	fn func(map[K1]V1, map[K2]V2) map[K]V,
) *Attribute[K, V] {
	return newAttribute(c, name, func(ctx context.Context) (map[K]V, error) {
		m1, err := p1.Map(ctx)
		if err != nil {
			return nil, err
		}
		m2, err := p2.Map(ctx)
		if err != nil {
			return nil, err
		}
		return fn(m1, m2), nil
	}, p1, p2)
}

// Derive3 declares an attribute computed from three prerequisites.
func Derive3[K cmp.Ordered, V any, K1 cmp.Ordered, V1 any, K2 cmp.Ordered, V2 any, K3 cmp.Ordered, V3 any](
	c *Cache, name string,
	p1 *Attribute[K1, V1], p2 *Attribute[K2, V2], p3 *Attribute[K3, V3],
	fn func(map[K1]V1, map[K2]V2, map[K3]V3) map[K]V,
) *Attribute[K, V] {
	return newAttribute(c, name, func(ctx context.Context) (map[K]V, error) {
		m1, err := p1.Map(ctx)
		if err != nil {
			return nil, err
		}
		m2, err := p2.Map(ctx)
		if err != nil {
			return nil, err
		}
		m3, err := p3.Map(ctx)
		if err != nil {
			return nil, err
		}
		return fn(m1, m2, m3), nil
	}, p1, p2, p3)
}

// Derive4 declares an attribute computed from four prerequisites.
// Four is the largest fan-in an attribute may have.
func Derive4[K cmp.Ordered, V any, K1 cmp.Ordered, V1 any, K2 cmp.Ordered, V2 any, K3 cmp.Ordered, V3 any, K4 cmp.Ordered, V4 any](
	c *Cache, name string,
	p1 *Attribute[K1, V1], p2 *Attribute[K2, V2], p3 *Attribute[K3, V3], p4 *Attribute[K4, V4],
	fn func(map[K1]V1, map[K2]V2, map[K3]V3, map[K4]V4) map[K]V,
) *Attribute[K, V] {
	return newAttribute(c, name, func(ctx context.Context) (map[K]V, error) {
		m1, err := p1.Map(ctx)
		if err != nil {
			return nil, err
		}
		m2, err := p2.Map(ctx)
		if err != nil {
			return nil, err
		}
		m3, err := p3.Map(ctx)
		if err != nil {
			return nil, err
		}
		m4, err := p4.Map(ctx)
		if err != nil {
			return nil, err
		}
		return fn(m1, m2, m3, m4), nil
	}, p1, p2, p3, p4)
}
