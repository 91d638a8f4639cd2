// Package extract holds the pure functions that compute attributes.
//
// Every extractor reads its inputs without modifying them, is deterministic,
// and produces at most one entry per key. Relationships that cannot be
// resolved are dropped: a key with nothing to report is absent from the
// result rather than present with a zero value, unless a zero is a
// meaningful answer (a project with snapshots but no original files).
package extract

import (
	"cmp"
	"maps"
	"slices"
)

// CountPerKey returns the number of values listed for each key.
func CountPerKey[K comparable, V any](m map[K][]V) map[K]int {
	out := make(map[K]int, len(m))
	for k, vs := range m {
		out[k] = len(vs)
	}
	return out
}

// Gather collects, for each key of m, the distinct values that lookup
// assigns to its members. Keys left with no values are dropped.
func Gather[K comparable, M comparable, V cmp.Ordered](m map[K][]M, lookup map[M]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, members := range m {
		set := make(map[V]struct{})
		for _, member := range members {
			if v, ok := lookup[member]; ok {
				set[v] = struct{}{}
			}
		}
		if len(set) > 0 {
			out[k] = slices.Sorted(maps.Keys(set))
		}
	}
	return out
}

// Group inverts a one-to-one mapping into the sorted keys sharing each value.
func Group[K, V cmp.Ordered](m map[K]V) map[V][]K {
	out := make(map[V][]K)
	for k, v := range m {
		out[v] = append(out[v], k)
	}
	for _, ks := range out {
		slices.Sort(ks)
	}
	return out
}

// Invert turns a one-to-many mapping around: each value maps to the sorted,
// distinct keys that list it.
func Invert[K, V cmp.Ordered](m map[K][]V) map[V][]K {
	sets := make(map[V]map[K]struct{})
	for k, vs := range m {
		for _, v := range vs {
			set, ok := sets[v]
			if !ok {
				set = make(map[K]struct{})
				sets[v] = set
			}
			set[k] = struct{}{}
		}
	}
	out := make(map[V][]K, len(sets))
	for v, set := range sets {
		out[v] = slices.Sorted(maps.Keys(set))
	}
	return out
}

// Union merges two one-to-many mappings, keeping distinct sorted values.
func Union[K comparable, V cmp.Ordered](a, b map[K][]V) map[K][]V {
	out := make(map[K][]V, len(a))
	for _, m := range []map[K][]V{a, b} {
		for k, vs := range m {
			out[k] = append(out[k], vs...)
		}
	}
	for k, vs := range out {
		slices.Sort(vs)
		vs = slices.Compact(vs)
		if len(vs) == 0 {
			delete(out, k)
			continue
		}
		out[k] = vs
	}
	return out
}
