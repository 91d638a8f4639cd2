package extract

import (
	"testing"

	"github.com/gophersatwork/granary/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCumulativeContributions_SevenAndThree(t *testing.T) {
	const userA, userB dataset.UserID = 1, 2
	projectCommits := map[dataset.ProjectID][]dataset.CommitID{
		1: {1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}
	authors := make(map[dataset.CommitID]dataset.UserID)
	for c := dataset.CommitID(1); c <= 7; c++ {
		authors[c] = userA
	}
	for c := dataset.CommitID(8); c <= 10; c++ {
		authors[c] = userB
	}

	contrib := AuthorCommitContributions(projectCommits, authors)
	require.Equal(t, []Contribution{{User: userA, Count: 7}, {User: userB, Count: 3}}, contrib[1])

	cumulative := CumulativeContributions(contrib)
	require.Equal(t, []int{70, 100}, cumulative[1])

	n, ok := ContributorsReaching(cumulative[1], 70)
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	n, ok = ContributorsReaching(cumulative[1], 71)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = ContributorsReaching(cumulative[1], 101)
	assert.False(t, ok)
}

func TestCumulativeContributions_Truncates(t *testing.T) {
	list := []Contribution{{User: 1, Count: 1}, {User: 2, Count: 1}, {User: 3, Count: 1}}
	p, ok := Cumulative(list)
	require.True(t, ok)
	assert.Equal(t, []int{33, 66, 100}, p)
}

func TestCumulativeContributions_ZeroTotal(t *testing.T) {
	in := map[dataset.ProjectID][]Contribution{
		1: {{User: 1, Count: 0}},
		2: {},
	}
	assert.Empty(t, CumulativeContributions(in))
}

func TestSortContributions_TiesByUser(t *testing.T) {
	list := []Contribution{{User: 9, Count: 2}, {User: 3, Count: 2}, {User: 5, Count: 4}}
	SortContributions(list)
	assert.Equal(t, []Contribution{{User: 5, Count: 4}, {User: 3, Count: 2}, {User: 9, Count: 2}}, list)
}

func TestAuthorChangeContributions(t *testing.T) {
	projectCommits := map[dataset.ProjectID][]dataset.CommitID{1: {1, 2, 3}}
	authors := map[dataset.CommitID]dataset.UserID{1: 1, 2: 2, 3: 2}
	changes := map[dataset.CommitID]int{1: 5, 2: 1, 3: 1}

	got := AuthorChangeContributions(projectCommits, authors, changes)
	assert.Equal(t, []Contribution{{User: 1, Count: 5}, {User: 2, Count: 2}}, got[1])
}
