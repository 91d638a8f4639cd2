/*
Package granary provides a lazy, dependency-resolved, disk-persisted cache for
derived attributes of large datasets.

An attribute is a map from an entity identifier to a value, computed by a pure
extraction function from the raw dataset or from other attributes. Attributes
are expensive to compute and reused across many queries and many process runs,
so granary computes each one at most once per process, keeps it in memory, and
mirrors it to disk so the next run skips the computation entirely.

# Core Architecture

granary has three layers:
  - Store - one opaque blob per attribute name (files via afero, or BadgerDB)
  - Cell - a memoized, optionally persisted holder of one attribute map
  - Attribute and Graph - typed nodes that know their prerequisites, and the
    validated dependency graph that resolves them in order

An attribute is either Unloaded or Loaded. There is no eviction and no
invalidation: once loaded, a cell stays loaded for the rest of the process,
and once persisted, its entry is treated as the truth for future runs until
an operator deletes it.

# Basic Usage

Opening a cache:

	cache, err := granary.Open(".cache")
	if err != nil {
	    log.Fatalf("Failed to open cache: %v", err)
	}

Declaring attributes:

	commits := granary.FromSource(cache, "commits", loadCommits)
	parents := granary.Derive1(cache, "commit_parents", commits, extract.CommitParents)
	count := granary.Derive1(cache, "commit_parent_count", parents,
	    extract.CountPerKey[dataset.CommitID, dataset.CommitID])

Reading a value forces its prerequisites transparently:

	n, ok, err := count.Get(ctx, id)
	if err != nil {
	    log.Fatalf("Failed to load attribute: %v", err)
	}
	if !ok {
	    // no data for this id
	}

# Entry Format

Each entry is a fixed header followed by a zstd-compressed, canonical msgpack
encoding of the map:

	"GRNY" | version | schema tag | created at | key count | zstd(msgpack(map))

The schema tag is an xxHash of the attribute name and the structure of its
key and value types. An entry whose tag no longer matches is recomputed and
overwritten; an entry that cannot be decoded is reported as ErrDeserialize
and never silently replaced.

# Error Handling

Missing data is not an error: getters report it with ok == false. Everything
else is returned as an *Error whose Kind tells I/O failures, corrupt entries,
schema violations in the input, and unknown attributes apart:

	if errors.Is(err, granary.ErrDeserialize) {
	    // delete the entry and run again
	}
*/
package granary
