package extract

import (
	"maps"
	"slices"

	"github.com/gophersatwork/granary/dataset"
)

// ProjectPaths lists the distinct paths changed by each project's commits.
func ProjectPaths(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	changes map[dataset.CommitID][]dataset.Change,
) map[dataset.ProjectID][]dataset.PathID {
	return projectChanges(projectCommits, changes, func(c dataset.Change) (dataset.PathID, bool) {
		return c.Path, true
	})
}

// ProjectSnapshots lists the distinct snapshots introduced by each project's commits.
// Deletions carry no snapshot and are ignored.
func ProjectSnapshots(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	changes map[dataset.CommitID][]dataset.Change,
) map[dataset.ProjectID][]dataset.SnapshotID {
	return projectChanges(projectCommits, changes, func(c dataset.Change) (dataset.SnapshotID, bool) {
		return c.Snapshot, c.HasSnapshot
	})
}

func projectChanges[V dataset.PathID | dataset.SnapshotID](
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	changes map[dataset.CommitID][]dataset.Change,
	pick func(dataset.Change) (V, bool),
) map[dataset.ProjectID][]V {
	out := make(map[dataset.ProjectID][]V)
	for project, commits := range projectCommits {
		set := make(map[V]struct{})
		for _, commit := range commits {
			for _, c := range changes[commit] {
				if v, ok := pick(c); ok {
					set[v] = struct{}{}
				}
			}
		}
		if len(set) > 0 {
			out[project] = slices.Sorted(maps.Keys(set))
		}
	}
	return out
}

// ProjectPeople lists the distinct users that lookup assigns to each project's commits.
// It serves both authors and committers.
func ProjectPeople(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	people map[dataset.CommitID]dataset.UserID,
) map[dataset.ProjectID][]dataset.UserID {
	return Gather(projectCommits, people)
}

// ProjectUsers merges the authors and committers of each project.
func ProjectUsers(authors, committers map[dataset.ProjectID][]dataset.UserID) map[dataset.ProjectID][]dataset.UserID {
	return Union(authors, committers)
}
