package extract

import (
	"maps"
	"slices"

	"github.com/gophersatwork/granary/dataset"
)

// PathLanguages maps each path to the language of its extension.
// Paths in no known language are dropped.
func PathLanguages(paths map[dataset.PathID]string) map[dataset.PathID]dataset.Language {
	out := make(map[dataset.PathID]dataset.Language)
	for id, location := range paths {
		if lang, ok := dataset.LanguageFromPath(location); ok {
			out[id] = lang
		}
	}
	return out
}

// CommitLanguages maps each commit to the distinct languages of the paths it changes.
func CommitLanguages(
	changes map[dataset.CommitID][]dataset.Change,
	languages map[dataset.PathID]dataset.Language,
) map[dataset.CommitID][]dataset.Language {
	out := make(map[dataset.CommitID][]dataset.Language)
	for id, cs := range changes {
		set := make(map[dataset.Language]struct{})
		for _, c := range cs {
			if lang, ok := languages[c.Path]; ok {
				set[lang] = struct{}{}
			}
		}
		if len(set) > 0 {
			out[id] = slices.Sorted(maps.Keys(set))
		}
	}
	return out
}

// ProjectLanguageChanges tallies, per project, how many changes touched
// files of each language.
func ProjectLanguageChanges(
	projectCommits map[dataset.ProjectID][]dataset.CommitID,
	changes map[dataset.CommitID][]dataset.Change,
	languages map[dataset.PathID]dataset.Language,
) map[dataset.ProjectID]map[dataset.Language]int {
	out := make(map[dataset.ProjectID]map[dataset.Language]int)
	for project, commits := range projectCommits {
		tally := make(map[dataset.Language]int)
		for _, commit := range commits {
			for _, c := range changes[commit] {
				if lang, ok := languages[c.Path]; ok {
					tally[lang]++
				}
			}
		}
		if len(tally) > 0 {
			out[project] = tally
		}
	}
	return out
}

// ProjectLanguages lists the languages each project has changes in.
func ProjectLanguages(tallies map[dataset.ProjectID]map[dataset.Language]int) map[dataset.ProjectID][]dataset.Language {
	out := make(map[dataset.ProjectID][]dataset.Language, len(tallies))
	for project, tally := range tallies {
		if len(tally) > 0 {
			out[project] = slices.Sorted(maps.Keys(tally))
		}
	}
	return out
}

// LanguageShare is a language and the number of changes made in it.
type LanguageShare struct {
	Language dataset.Language
	Changes  int
}

// RankLanguages orders a tally by descending change count. Equal counts
// keep the language declaration order.
func RankLanguages(tally map[dataset.Language]int) []LanguageShare {
	ranked := make([]LanguageShare, 0, len(tally))
	for lang, n := range tally {
		ranked = append(ranked, LanguageShare{Language: lang, Changes: n})
	}
	slices.SortFunc(ranked, func(a, b LanguageShare) int {
		if a.Changes != b.Changes {
			return b.Changes - a.Changes
		}
		return int(a.Language) - int(b.Language)
	})
	return ranked
}

// majorLanguage returns the top-ranked language of a tally and the tally total.
func majorLanguage(tally map[dataset.Language]int) (LanguageShare, int, bool) {
	ranked := RankLanguages(tally)
	if len(ranked) == 0 {
		return LanguageShare{}, 0, false
	}
	total := 0
	for _, s := range ranked {
		total += s.Changes
	}
	return ranked[0], total, true
}

// ProjectMajorLanguage maps each project to the language with the most changes.
func ProjectMajorLanguage(tallies map[dataset.ProjectID]map[dataset.Language]int) map[dataset.ProjectID]dataset.Language {
	out := make(map[dataset.ProjectID]dataset.Language)
	for project, tally := range tallies {
		if major, _, ok := majorLanguage(tally); ok {
			out[project] = major.Language
		}
	}
	return out
}

// ProjectMajorLanguageRatio maps each project to the share of its changes
// made in its major language.
func ProjectMajorLanguageRatio(tallies map[dataset.ProjectID]map[dataset.Language]int) map[dataset.ProjectID]float64 {
	out := make(map[dataset.ProjectID]float64)
	for project, tally := range tallies {
		major, total, ok := majorLanguage(tally)
		if !ok || total == 0 {
			continue
		}
		out[project] = float64(major.Changes) / float64(total)
	}
	return out
}

// ProjectMajorLanguageChanges maps each project to the number of changes in its major language.
func ProjectMajorLanguageChanges(tallies map[dataset.ProjectID]map[dataset.Language]int) map[dataset.ProjectID]int {
	out := make(map[dataset.ProjectID]int)
	for project, tally := range tallies {
		if major, _, ok := majorLanguage(tally); ok {
			out[project] = major.Changes
		}
	}
	return out
}
