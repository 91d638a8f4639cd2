package extract

import (
	"slices"

	"github.com/gophersatwork/granary/dataset"
)

// Contribution is the amount of work one user did on a project.
type Contribution struct {
	User  dataset.UserID
	Count int
}

// AuthorCommitContributions lists, per project, how many commits each author
// made, largest first. Equal counts are ordered by user id.
func AuthorCommitContributions(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	authors map[dataset.CommitID]dataset.UserID,
) map[dataset.ProjectID][]Contribution {
	return contributions(projectCommits, authors, func(dataset.CommitID) int { return 1 })
}

// AuthorChangeContributions lists, per project, how many changes each author
// made, largest first. Equal counts are ordered by user id.
func AuthorChangeContributions(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	authors map[dataset.CommitID]dataset.UserID,
	changeCounts map[dataset.CommitID]int,
) map[dataset.ProjectID][]Contribution {
	return contributions(projectCommits, authors, func(c dataset.CommitID) int { return changeCounts[c] })
}

func contributions(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	authors map[dataset.CommitID]dataset.UserID,
	weight func(dataset.CommitID) int,
) map[dataset.ProjectID][]Contribution {
	out := make(map[dataset.ProjectID][]Contribution)
	for project, commits := range projectCommits {
		tally := make(map[dataset.UserID]int)
		for _, c := range commits {
			author, ok := authors[c]
			if !ok {
				continue
			}
			tally[author] += weight(c)
		}
		if len(tally) == 0 {
			continue
		}
		list := make([]Contribution, 0, len(tally))
		for user, n := range tally {
			list = append(list, Contribution{User: user, Count: n})
		}
		SortContributions(list)
		out[project] = list
	}
	return out
}

// SortContributions orders contributions by descending count, then by user id.
func SortContributions(list []Contribution) {
	slices.SortFunc(list, func(a, b Contribution) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		switch {
		case a.User < b.User:
			return -1
		case a.User > b.User:
			return 1
		}
		return 0
	})
}

// CumulativeContributions turns sorted contributions into running
// percentages of the total, truncated to integers. Projects whose total is
// zero are dropped.
//
// Contributions of 7 and 3 give [70, 100].
func CumulativeContributions(contributions map[dataset.ProjectID][]Contribution) map[dataset.ProjectID][]int {
	out := make(map[dataset.ProjectID][]int)
	for project, list := range contributions {
		if p, ok := Cumulative(list); ok {
			out[project] = p
		}
	}
	return out
}

// Cumulative returns the running percentages of one contribution list.
// The list must already be sorted.
func Cumulative(list []Contribution) ([]int, bool) {
	total := 0
	for _, c := range list {
		total += c.Count
	}
	if total <= 0 {
		return nil, false
	}
	out := make([]int, len(list))
	sum := 0
	for i, c := range list {
		sum += c.Count
		out[i] = sum * 100 / total
	}
	return out, true
}

// ContributorsReaching returns how many of the top contributors together
// reach pct percent of the work. ok is false when the threshold is never
// reached.
func ContributorsReaching(cumulative []int, pct int) (int, bool) {
	for i, p := range cumulative {
		if p >= pct {
			return i + 1, true
		}
	}
	return 0, false
}
