package extract

import (
	"slices"
	"time"

	"github.com/gophersatwork/granary/dataset"
)

// CommitSpan is the time range covered by a set of commits, in unix seconds.
type CommitSpan struct {
	Oldest int64
	Newest int64
}

// Lifetime returns the time between the oldest and the newest commit.
func (s CommitSpan) Lifetime() time.Duration {
	return time.Duration(s.Newest-s.Oldest) * time.Second
}

// CommitDeltas summarizes the gaps between consecutive commits.
type CommitDeltas struct {
	Max  time.Duration
	Mean time.Duration
}

// ProjectCommitSpan maps each project to the span of its commits' author times.
func ProjectCommitSpan(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	times map[dataset.CommitID]int64,
) map[dataset.ProjectID]CommitSpan {
	out := make(map[dataset.ProjectID]CommitSpan)
	for project, commits := range projectCommits {
		ts := commitTimes(commits, times)
		if len(ts) == 0 {
			continue
		}
		out[project] = CommitSpan{Oldest: ts[0], Newest: ts[len(ts)-1]}
	}
	return out
}

// ProjectCommitDeltas maps each project with at least two dated commits to
// the largest and the mean gap between consecutive commits.
func ProjectCommitDeltas(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	times map[dataset.CommitID]int64,
) map[dataset.ProjectID]CommitDeltas {
	out := make(map[dataset.ProjectID]CommitDeltas)
	for project, commits := range projectCommits {
		ts := commitTimes(commits, times)
		if len(ts) < 2 {
			continue
		}
		var maxGap, sum int64
		for i := 1; i < len(ts); i++ {
			gap := ts[i] - ts[i-1]
			sum += gap
			if gap > maxGap {
				maxGap = gap
			}
		}
		out[project] = CommitDeltas{
			Max:  time.Duration(maxGap) * time.Second,
			Mean: time.Duration(sum) * time.Second / time.Duration(len(ts)-1),
		}
	}
	return out
}

// UserExperience maps each user to the time between their first and last
// commit, using the given commit times.
func UserExperience(
	userCommits map[dataset.UserID][]dataset.CommitID,
	times map[dataset.CommitID]int64,
) map[dataset.UserID]time.Duration {
	out := make(map[dataset.UserID]time.Duration)
	for user, commits := range userCommits {
		ts := commitTimes(commits, times)
		if len(ts) == 0 {
			continue
		}
		out[user] = time.Duration(ts[len(ts)-1]-ts[0]) * time.Second
	}
	return out
}

// UserCombinedExperience is UserExperience over both roles: author times of
// the commits a user authored and committer times of those they committed.
func UserCombinedExperience(
	authored map[dataset.UserID][]dataset.CommitID,
	committed map[dataset.UserID][]dataset.CommitID,
	authorTimes map[dataset.CommitID]int64,
	committerTimes map[dataset.CommitID]int64,
) map[dataset.UserID]time.Duration {
	spans := make(map[dataset.UserID]CommitSpan)
	widen := func(userCommits map[dataset.UserID][]dataset.CommitID, times map[dataset.CommitID]int64) {
		for user, commits := range userCommits {
			ts := commitTimes(commits, times)
			if len(ts) == 0 {
				continue
			}
			s, ok := spans[user]
			if !ok {
				spans[user] = CommitSpan{Oldest: ts[0], Newest: ts[len(ts)-1]}
				continue
			}
			s.Oldest = min(s.Oldest, ts[0])
			s.Newest = max(s.Newest, ts[len(ts)-1])
			spans[user] = s
		}
	}
	widen(authored, authorTimes)
	widen(committed, committerTimes)

	out := make(map[dataset.UserID]time.Duration, len(spans))
	for user, s := range spans {
		out[user] = s.Lifetime()
	}
	return out
}

// commitTimes returns the known times of commits, sorted ascending.
func commitTimes(commits []dataset.CommitID, times map[dataset.CommitID]int64) []int64 {
	ts := make([]int64, 0, len(commits))
	for _, c := range commits {
		if t, ok := times[c]; ok {
			ts = append(ts, t)
		}
	}
	slices.Sort(ts)
	return ts
}
