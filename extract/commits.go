package extract

import (
	"maps"
	"slices"

	"github.com/gophersatwork/granary/dataset"
	"go.uber.org/zap"
)

// CommitParents maps each commit to its parents. Root commits map to an
// empty list, so every known commit is a key.
func CommitParents(commits map[dataset.CommitID]dataset.Commit) map[dataset.CommitID][]dataset.CommitID {
	out := make(map[dataset.CommitID][]dataset.CommitID, len(commits))
	for id, c := range commits {
		out[id] = append([]dataset.CommitID{}, c.Parents...)
	}
	return out
}

// CommitAuthors maps each commit to its author.
func CommitAuthors(commits map[dataset.CommitID]dataset.Commit) map[dataset.CommitID]dataset.UserID {
	return commitField(commits, func(c dataset.Commit) dataset.UserID { return c.Author })
}

// CommitCommitters maps each commit to its committer.
func CommitCommitters(commits map[dataset.CommitID]dataset.Commit) map[dataset.CommitID]dataset.UserID {
	return commitField(commits, func(c dataset.Commit) dataset.UserID { return c.Committer })
}

// CommitAuthorTimes maps each commit to its author time in unix seconds.
func CommitAuthorTimes(commits map[dataset.CommitID]dataset.Commit) map[dataset.CommitID]int64 {
	return commitField(commits, func(c dataset.Commit) int64 { return c.AuthorTime })
}

// CommitCommitterTimes maps each commit to its committer time in unix seconds.
func CommitCommitterTimes(commits map[dataset.CommitID]dataset.Commit) map[dataset.CommitID]int64 {
	return commitField(commits, func(c dataset.Commit) int64 { return c.CommitterTime })
}

// CommitMessageLength maps each commit to the length of its message in bytes.
func CommitMessageLength(messages map[dataset.CommitID]string) map[dataset.CommitID]int {
	out := make(map[dataset.CommitID]int, len(messages))
	for id, msg := range messages {
		out[id] = len(msg)
	}
	return out
}

func commitField[V any](commits map[dataset.CommitID]dataset.Commit, field func(dataset.Commit) V) map[dataset.CommitID]V {
	out := make(map[dataset.CommitID]V, len(commits))
	for id, c := range commits {
		out[id] = field(c)
	}
	return out
}

// ReachableCommits returns an extractor computing, for every project, the
// commits reachable from any of its heads by following parent links.
//
// The walk keeps an explicit stack and a visited set, so it terminates on
// cyclic parent links. Commits missing from parents are logged and skipped.
// Projects with no reachable commit are dropped.
func ReachableCommits(logger *zap.Logger) func(
	heads map[dataset.ProjectID][]dataset.Head,
	parents map[dataset.CommitID][]dataset.CommitID,
) map[dataset.ProjectID][]dataset.CommitID {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(heads map[dataset.ProjectID][]dataset.Head, parents map[dataset.CommitID][]dataset.CommitID) map[dataset.ProjectID][]dataset.CommitID {
		out := make(map[dataset.ProjectID][]dataset.CommitID, len(heads))
		dangling := 0

		for _, project := range slices.Sorted(maps.Keys(heads)) {
			visited := make(map[dataset.CommitID]struct{})
			missing := make(map[dataset.CommitID]struct{})
			stack := make([]dataset.CommitID, 0, len(heads[project]))
			for _, h := range heads[project] {
				stack = append(stack, h.Commit)
			}

			for len(stack) > 0 {
				id := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if _, seen := visited[id]; seen {
					continue
				}
				if _, seen := missing[id]; seen {
					continue
				}
				ps, ok := parents[id]
				if !ok {
					missing[id] = struct{}{}
					dangling++
					logger.Warn("commit not found while walking history",
						zap.Stringer("project", project),
						zap.Stringer("commit", id))
					continue
				}
				visited[id] = struct{}{}
				stack = append(stack, ps...)
			}

			if len(visited) > 0 {
				out[project] = slices.Sorted(maps.Keys(visited))
			}
		}

		if dangling > 0 {
			logger.Warn("history walk skipped unknown commits", zap.Int("count", dangling))
		}
		return out
	}
}
