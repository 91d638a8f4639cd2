package extract

import (
	"maps"
	"slices"

	"github.com/gophersatwork/granary/dataset"
)

// SnapshotOwners describes where one file content appears.
type SnapshotOwners struct {
	// Projects containing a commit that introduces the snapshot, sorted.
	Projects []dataset.ProjectID
	// Original is the owning project created first.
	Original dataset.ProjectID
	// FirstSeen is the earliest author time of a commit introducing the
	// snapshot, or 0 when none of them is dated.
	FirstSeen int64
}

// SnapshotProjects computes the owners of every snapshot.
//
// The original project is the owner with the earliest creation time.
// Equal creation times go to the smaller project id, and owners whose
// creation time is unknown rank after every dated owner. Snapshots that no
// project's commit introduces are dropped.
func SnapshotProjects(
	changes map[dataset.CommitID][]dataset.Change,
	commitProjects map[dataset.CommitID][]dataset.ProjectID,
	authorTimes map[dataset.CommitID]int64,
	created map[dataset.ProjectID]int64,
) map[dataset.SnapshotID]SnapshotOwners {
	type acc struct {
		projects  map[dataset.ProjectID]struct{}
		firstSeen int64
		dated     bool
	}
	accs := make(map[dataset.SnapshotID]*acc)

	for commit, cs := range changes {
		projects := commitProjects[commit]
		if len(projects) == 0 {
			continue
		}
		t, dated := authorTimes[commit]
		for _, c := range cs {
			if !c.HasSnapshot {
				continue
			}
			a, ok := accs[c.Snapshot]
			if !ok {
				a = &acc{projects: make(map[dataset.ProjectID]struct{})}
				accs[c.Snapshot] = a
			}
			for _, p := range projects {
				a.projects[p] = struct{}{}
			}
			if dated && (!a.dated || t < a.firstSeen) {
				a.firstSeen = t
				a.dated = true
			}
		}
	}

	out := make(map[dataset.SnapshotID]SnapshotOwners, len(accs))
	for id, a := range accs {
		projects := slices.Sorted(maps.Keys(a.projects))
		out[id] = SnapshotOwners{
			Projects:  projects,
			Original:  OriginalProject(projects, created),
			FirstSeen: a.firstSeen,
		}
	}
	return out
}

// OriginalProject picks the earliest created project from candidates.
// candidates must be non-empty.
func OriginalProject(candidates []dataset.ProjectID, created map[dataset.ProjectID]int64) dataset.ProjectID {
	best := candidates[0]
	for _, p := range candidates[1:] {
		if createdBefore(p, best, created) {
			best = p
		}
	}
	return best
}

// createdBefore reports whether a ranks before b by creation time, then id.
// Projects without a creation time rank last.
func createdBefore(a, b dataset.ProjectID, created map[dataset.ProjectID]int64) bool {
	ta, okA := created[a]
	tb, okB := created[b]
	switch {
	case okA && !okB:
		return true
	case !okA && okB:
		return false
	case okA && okB && ta != tb:
		return ta < tb
	default:
		return a < b
	}
}

// ProjectUniqueFiles counts, per project, the snapshots the project is the
// original owner of. Every project with snapshots has an entry.
func ProjectUniqueFiles(
	projectSnapshots map[dataset.ProjectID][]dataset.SnapshotID,
	owners map[dataset.SnapshotID]SnapshotOwners,
) map[dataset.ProjectID]int {
	return countSnapshots(projectSnapshots, owners, func(p dataset.ProjectID, o SnapshotOwners) int {
		if o.Original == p {
			return 1
		}
		return 0
	})
}

// ProjectOriginalFiles counts, per project, the snapshots no other project contains.
func ProjectOriginalFiles(
	projectSnapshots map[dataset.ProjectID][]dataset.SnapshotID,
	owners map[dataset.SnapshotID]SnapshotOwners,
) map[dataset.ProjectID]int {
	return countSnapshots(projectSnapshots, owners, func(_ dataset.ProjectID, o SnapshotOwners) int {
		if len(o.Projects) == 1 {
			return 1
		}
		return 0
	})
}

// ProjectImpact counts, per project, how many times another project reuses
// a snapshot that originated in it.
func ProjectImpact(
	projectSnapshots map[dataset.ProjectID][]dataset.SnapshotID,
	owners map[dataset.SnapshotID]SnapshotOwners,
) map[dataset.ProjectID]int {
	return countSnapshots(projectSnapshots, owners, func(p dataset.ProjectID, o SnapshotOwners) int {
		if o.Original == p {
			return len(o.Projects) - 1
		}
		return 0
	})
}

// ProjectDuplicatedCode maps each project to the fraction of its snapshots
// that originated in another project.
func ProjectDuplicatedCode(
	projectSnapshots map[dataset.ProjectID][]dataset.SnapshotID,
	owners map[dataset.SnapshotID]SnapshotOwners,
) map[dataset.ProjectID]float64 {
	copied := countSnapshots(projectSnapshots, owners, func(p dataset.ProjectID, o SnapshotOwners) int {
		if o.Original != p {
			return 1
		}
		return 0
	})
	out := make(map[dataset.ProjectID]float64, len(copied))
	for project, n := range copied {
		total := 0
		for _, s := range projectSnapshots[project] {
			if _, ok := owners[s]; ok {
				total++
			}
		}
		if total > 0 {
			out[project] = float64(n) / float64(total)
		}
	}
	return out
}

func countSnapshots(
	projectSnapshots map[dataset.ProjectID][]dataset.SnapshotID,
	owners map[dataset.SnapshotID]SnapshotOwners,
	score func(dataset.ProjectID, SnapshotOwners) int,
) map[dataset.ProjectID]int {
	out := make(map[dataset.ProjectID]int)
	for project, snapshots := range projectSnapshots {
		n, known := 0, false
		for _, s := range snapshots {
			o, ok := owners[s]
			if !ok {
				continue
			}
			known = true
			n += score(project, o)
		}
		if known {
			out[project] = n
		}
	}
	return out
}
