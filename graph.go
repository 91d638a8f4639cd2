package granary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Graph is the validated dependency graph of a set of attributes.
//
// The graph is data: every edge comes from Node.Dependencies. Resolve walks
// it level by level, so a node is only resolved after all its prerequisites.
type Graph struct {
	cache *Cache
	nodes map[string]Node
	order []string       // deterministic topological order
	level map[string]int // longest distance from a source attribute
}

// NewGraph builds a graph from nodes and everything they depend on.
// It fails with a *GraphError when names collide, a dependency is nil,
// or the dependencies form a cycle.
func NewGraph(c *Cache, nodes ...Node) (*Graph, error) {
	g := &Graph{
		cache: c,
		nodes: make(map[string]Node),
		level: make(map[string]int),
	}

	var errs []error
	var visit func(n Node, from string)
	visit = func(n Node, from string) {
		if n == nil {
			if from == "" {
				errs = append(errs, errors.New("nil node"))
			} else {
				errs = append(errs, fmt.Errorf("%s: nil dependency", from))
			}
			return
		}
		name := n.Name()
		if existing, ok := g.nodes[name]; ok {
			if existing != n {
				errs = append(errs, fmt.Errorf("duplicate node name %q", name))
			}
			return
		}
		g.nodes[name] = n
		for _, dep := range n.Dependencies() {
			visit(dep, name)
		}
	}
	for _, n := range nodes {
		visit(n, "")
	}
	if len(errs) > 0 {
		return nil, newGraphError(errs)
	}

	if err := g.detectCycles(); err != nil {
		return nil, newGraphError([]error{err})
	}

	g.order = g.topologicalOrder()
	for _, name := range g.order {
		depth := 0
		for _, dep := range g.nodes[name].Dependencies() {
			if l := g.level[dep.Name()] + 1; l > depth {
				depth = l
			}
		}
		g.level[name] = depth
	}

	return g, nil
}

// detectCycles uses DFS to detect cycles in the graph.
func (g *Graph) detectCycles() error {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make([]string, 0)

	var dfs func(name string) error
	dfs = func(name string) error {
		visited[name] = true
		recStack[name] = true
		path = append(path, name)

		for _, dep := range g.nodes[name].Dependencies() {
			depName := dep.Name()
			if !visited[depName] {
				if err := dfs(depName); err != nil {
					return err
				}
			} else if recStack[depName] {
				cycleStart := 0
				for i, n := range path {
					if n == depName {
						cycleStart = i
						break
					}
				}
				cycle := append(append([]string{}, path[cycleStart:]...), depName)
				return &CycleError{Path: cycle}
			}
		}

		path = path[:len(path)-1]
		recStack[name] = false
		return nil
	}

	for _, name := range g.Names() {
		if !visited[name] {
			if err := dfs(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// topologicalOrder returns prerequisites before dependents, breaking ties by name.
func (g *Graph) topologicalOrder() []string {
	indegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for name := range g.nodes {
		indegree[name] = 0
	}
	for name, n := range g.nodes {
		for _, dep := range n.Dependencies() {
			indegree[name]++
			dependents[dep.Name()] = append(dependents[dep.Name()], name)
		}
	}

	var ready []string
	for name, d := range indegree {
		if d == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Strings(ready)
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, next := range dependents[name] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}
	return order
}

// Names returns all attribute names in the graph, sorted.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Order returns all attribute names so that prerequisites come first.
func (g *Graph) Order() []string {
	return append([]string(nil), g.order...)
}

// Node returns the node with the given name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Level returns the length of the longest prerequisite chain below name.
// Source attributes are at level 0.
func (g *Graph) Level(name string) int {
	return g.level[name]
}

// Dependents returns the names of nodes that directly depend on name.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for other, n := range g.nodes {
		for _, dep := range n.Dependencies() {
			if dep.Name() == name {
				out = append(out, other)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Closure returns the named nodes and all their transitive prerequisites in
// topological order. With no names it returns the whole graph.
func (g *Graph) Closure(names ...string) ([]string, error) {
	if len(names) == 0 {
		return g.Order(), nil
	}

	include := make(map[string]bool)
	var walk func(n Node)
	walk = func(n Node) {
		if include[n.Name()] {
			return
		}
		include[n.Name()] = true
		for _, dep := range n.Dependencies() {
			walk(dep)
		}
	}
	for _, name := range names {
		n, ok := g.nodes[name]
		if !ok {
			return nil, &Error{Kind: KindNotFound, Attribute: name, Err: errors.New("unknown attribute")}
		}
		walk(n)
	}

	out := make([]string, 0, len(include))
	for _, name := range g.order {
		if include[name] {
			out = append(out, name)
		}
	}
	return out, nil
}

// Resolve makes the named attributes and their prerequisites resident.
//
// Nodes are resolved level by level. Nodes on the same level never depend on
// each other, so up to the cache's parallelism of them are loaded at once.
func (g *Graph) Resolve(ctx context.Context, names ...string) error {
	closure, err := g.Closure(names...)
	if err != nil {
		return err
	}

	levels := make(map[int][]Node)
	maxLevel := 0
	for _, name := range closure {
		l := g.level[name]
		levels[l] = append(levels[l], g.nodes[name])
		if l > maxLevel {
			maxLevel = l
		}
	}

	start := time.Now()
	for l := 0; l <= maxLevel; l++ {
		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(g.cache.Parallelism())
		for _, n := range levels[l] {
			if n.IsLoaded() {
				continue
			}
			eg.Go(func() error {
				return n.Resolve(egCtx)
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	}

	g.cache.logger.Info("attributes resolved",
		zap.Int("attributes", len(closure)),
		zap.Int("levels", maxLevel+1),
		zap.Duration("duration", time.Since(start)))
	return nil
}
