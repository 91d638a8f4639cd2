package extract

import (
	"maps"
	"slices"

	"github.com/gophersatwork/granary/dataset"
)

// ProjectAllForks lists, for each project, the projects that share at least
// one commit with it and were created after it. On equal creation times the
// project with the larger id is the fork.
//
// A project without a creation time cannot be ordered against its siblings:
// it has no entry and never appears as a fork.
func ProjectAllForks(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	commitProjects map[dataset.CommitID][]dataset.ProjectID,
	created map[dataset.ProjectID]int64,
) map[dataset.ProjectID][]dataset.ProjectID {
	out := make(map[dataset.ProjectID][]dataset.ProjectID)
	for project, commits := range projectCommits {
		if _, ok := created[project]; !ok {
			continue
		}
		forks := make(map[dataset.ProjectID]struct{})
		for _, c := range commits {
			for _, sibling := range commitProjects[c] {
				if sibling == project {
					continue
				}
				if _, ok := created[sibling]; !ok {
					continue
				}
				if createdBefore(project, sibling, created) {
					forks[sibling] = struct{}{}
				}
			}
		}
		out[project] = slices.Sorted(maps.Keys(forks))
	}
	return out
}
