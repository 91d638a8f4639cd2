// Package dataset defines the raw entities of a software-repository dataset
// and the Source contract through which the attribute cache reads them.
package dataset

import "iter"

// Source is a read-only provider of raw dataset entities.
//
// Iterating the same Source twice must yield the same logical entities;
// nothing is assumed about their order. An iteration stops at the first
// non-nil error it yields.
type Source interface {
	Projects() iter.Seq2[Project, error]
	ProjectHeads() iter.Seq2[ProjectHeads, error]
	Commits() iter.Seq2[Commit, error]
	CommitMessages() iter.Seq2[CommitMessage, error]
	Changes() iter.Seq2[CommitChanges, error]
	Users() iter.Seq2[User, error]
	Paths() iter.Seq2[Path, error]
	Metadata() iter.Seq2[ProjectMetadata, error]

	// Snapshot returns the contents of a snapshot.
	Snapshot(id SnapshotID) ([]byte, bool, error)
}

// Collect drains seq into a map keyed by key, keeping the last value seen for a key.
func Collect[T any, K comparable, V any](seq iter.Seq2[T, error], key func(T) K, value func(T) V) (map[K]V, error) {
	out := make(map[K]V)
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		out[key(item)] = value(item)
	}
	return out, nil
}
