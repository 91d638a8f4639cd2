package extract

import (
	"testing"

	"github.com/gophersatwork/granary/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotProjects_EarliestProjectIsOriginal(t *testing.T) {
	const p0, p1 dataset.ProjectID = 0, 1
	const shared dataset.SnapshotID = 42

	changes := map[dataset.CommitID][]dataset.Change{
		10: {{Path: 1, Snapshot: shared, HasSnapshot: true}},
		20: {{Path: 1, Snapshot: shared, HasSnapshot: true}, {Path: 2, Snapshot: 43, HasSnapshot: true}},
	}
	commitProjects := map[dataset.CommitID][]dataset.ProjectID{
		10: {p0},
		20: {p1},
	}
	authorTimes := map[dataset.CommitID]int64{10: 150, 20: 250}
	created := map[dataset.ProjectID]int64{p0: 100, p1: 200}

	owners := SnapshotProjects(changes, commitProjects, authorTimes, created)
	require.Contains(t, owners, shared)
	assert.Equal(t, p0, owners[shared].Original)
	assert.Equal(t, []dataset.ProjectID{p0, p1}, owners[shared].Projects)
	assert.Equal(t, int64(150), owners[shared].FirstSeen)

	projectSnapshots := ProjectSnapshots(
		map[dataset.ProjectID][]dataset.CommitID{p0: {10}, p1: {20}},
		changes,
	)
	unique := ProjectUniqueFiles(projectSnapshots, owners)
	assert.Equal(t, 1, unique[p0])
	assert.Equal(t, 1, unique[p1], "p1 is original only for its own snapshot 43")

	original := ProjectOriginalFiles(projectSnapshots, owners)
	assert.Equal(t, 0, original[p0])
	assert.Equal(t, 1, original[p1])

	impact := ProjectImpact(projectSnapshots, owners)
	assert.Equal(t, 1, impact[p0])
	assert.Equal(t, 0, impact[p1])

	dup := ProjectDuplicatedCode(projectSnapshots, owners)
	assert.InDelta(t, 0.0, dup[p0], 1e-9)
	assert.InDelta(t, 0.5, dup[p1], 1e-9)
}

func TestOriginalProject_TieBreaks(t *testing.T) {
	created := map[dataset.ProjectID]int64{3: 100, 5: 100, 8: 50}

	for i := 0; i < 10; i++ {
		assert.Equal(t, dataset.ProjectID(3), OriginalProject([]dataset.ProjectID{5, 3}, created))
		assert.Equal(t, dataset.ProjectID(3), OriginalProject([]dataset.ProjectID{3, 5}, created))
	}
	assert.Equal(t, dataset.ProjectID(8), OriginalProject([]dataset.ProjectID{3, 5, 8}, created))
}

func TestOriginalProject_UnknownCreationRanksLast(t *testing.T) {
	created := map[dataset.ProjectID]int64{9: 500}
	assert.Equal(t, dataset.ProjectID(9), OriginalProject([]dataset.ProjectID{1, 9}, created))
	assert.Equal(t, dataset.ProjectID(1), OriginalProject([]dataset.ProjectID{4, 1}, nil))
}

func TestProjectAllForks(t *testing.T) {
	projectCommits := map[dataset.ProjectID][]dataset.CommitID{
		1: {100},
		2: {100, 101},
		3: {100},
		4: {100},
	}
	commitProjects := Invert(projectCommits)
	created := map[dataset.ProjectID]int64{1: 10, 2: 20, 3: 10}

	forks := ProjectAllForks(projectCommits, commitProjects, created)

	assert.Equal(t, []dataset.ProjectID{2, 3}, forks[1])
	assert.Empty(t, forks[2])
	assert.Equal(t, []dataset.ProjectID{2}, forks[3])
	_, ok := forks[4]
	assert.False(t, ok, "project without creation time has no fork list")

	counts := CountPerKey(forks)
	assert.Equal(t, 2, counts[1])
}
