package data

import (
	"context"
	"time"

	"github.com/gophersatwork/granary/dataset"
	"github.com/gophersatwork/granary/extract"
)

// ProjectURL returns the URL of a project.
func (d *Data) ProjectURL(ctx context.Context, id dataset.ProjectID) (string, bool, error) {
	return d.projectURLs.Get(ctx, id)
}

// ProjectHeads returns the heads of a project.
func (d *Data) ProjectHeads(ctx context.Context, id dataset.ProjectID) ([]dataset.Head, bool, error) {
	return d.projectHeads.Get(ctx, id)
}

// Commit returns the bare commit with the given id.
func (d *Data) Commit(ctx context.Context, id dataset.CommitID) (dataset.Commit, bool, error) {
	return d.commits.Get(ctx, id)
}

// CommitHash returns the hash of a commit.
func (d *Data) CommitHash(ctx context.Context, id dataset.CommitID) (string, bool, error) {
	return d.commitHashes.Get(ctx, id)
}

// CommitMessage returns the message of a commit.
func (d *Data) CommitMessage(ctx context.Context, id dataset.CommitID) (string, bool, error) {
	return d.commitMessages.Get(ctx, id)
}

// CommitChanges returns the changes of a commit, ordered by path.
func (d *Data) CommitChanges(ctx context.Context, id dataset.CommitID) ([]dataset.Change, bool, error) {
	return d.commitChanges.Get(ctx, id)
}

// UserEmail returns the email address of a user.
func (d *Data) UserEmail(ctx context.Context, id dataset.UserID) (string, bool, error) {
	return d.userEmails.Get(ctx, id)
}

// Path returns the location of a path.
func (d *Data) Path(ctx context.Context, id dataset.PathID) (string, bool, error) {
	return d.paths.Get(ctx, id)
}

// ProjectCreated returns the creation time of a project in unix seconds.
func (d *Data) ProjectCreated(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return d.projectCreated.Get(ctx, id)
}

// CommitParents returns the parents of a commit.
func (d *Data) CommitParents(ctx context.Context, id dataset.CommitID) ([]dataset.CommitID, bool, error) {
	return d.commitParents.Get(ctx, id)
}

// CommitAuthor returns the author of a commit.
func (d *Data) CommitAuthor(ctx context.Context, id dataset.CommitID) (dataset.UserID, bool, error) {
	return d.commitAuthors.Get(ctx, id)
}

// CommitCommitter returns the committer of a commit.
func (d *Data) CommitCommitter(ctx context.Context, id dataset.CommitID) (dataset.UserID, bool, error) {
	return d.commitCommitters.Get(ctx, id)
}

// CommitAuthorTime returns the author time of a commit in unix seconds.
func (d *Data) CommitAuthorTime(ctx context.Context, id dataset.CommitID) (int64, bool, error) {
	return d.commitAuthorTimes.Get(ctx, id)
}

// CommitCommitterTime returns the committer time of a commit in unix seconds.
func (d *Data) CommitCommitterTime(ctx context.Context, id dataset.CommitID) (int64, bool, error) {
	return d.commitCommitterTimes.Get(ctx, id)
}

// CommitChangeCount returns how many paths a commit changes.
func (d *Data) CommitChangeCount(ctx context.Context, id dataset.CommitID) (int, bool, error) {
	return d.commitChangeCount.Get(ctx, id)
}

// CommitMessageLength returns the length of a commit message in bytes.
func (d *Data) CommitMessageLength(ctx context.Context, id dataset.CommitID) (int, bool, error) {
	return d.commitMessageLength.Get(ctx, id)
}

// CommitProjects returns the projects whose history contains the commit.
func (d *Data) CommitProjects(ctx context.Context, id dataset.CommitID) ([]dataset.ProjectID, bool, error) {
	return d.commitProjects.Get(ctx, id)
}

// CommitProjectCount returns how many projects contain a commit.
func (d *Data) CommitProjectCount(ctx context.Context, id dataset.CommitID) (int, bool, error) {
	return d.commitProjectCount.Get(ctx, id)
}

// CommitLanguages returns the distinct languages of the paths a commit changes.
func (d *Data) CommitLanguages(ctx context.Context, id dataset.CommitID) ([]dataset.Language, bool, error) {
	return d.commitLanguages.Get(ctx, id)
}

// CommitLanguageCount returns how many languages a commit touches.
func (d *Data) CommitLanguageCount(ctx context.Context, id dataset.CommitID) (int, bool, error) {
	return d.commitLanguageCount.Get(ctx, id)
}

// PathLanguage returns the language detected from the extension of a path.
func (d *Data) PathLanguage(ctx context.Context, id dataset.PathID) (dataset.Language, bool, error) {
	return d.pathLanguages.Get(ctx, id)
}

// ProjectCommits returns the commits reachable from the heads of a project.
func (d *Data) ProjectCommits(ctx context.Context, id dataset.ProjectID) ([]dataset.CommitID, bool, error) {
	return d.projectCommits.Get(ctx, id)
}

// ProjectCommitCount returns how many commits are reachable from a project's heads.
func (d *Data) ProjectCommitCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectCommitCount.Get(ctx, id)
}

// ProjectHeadCount returns how many heads a project has.
func (d *Data) ProjectHeadCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectHeadCount.Get(ctx, id)
}

// ProjectPaths returns the distinct paths changed by a project's commits.
func (d *Data) ProjectPaths(ctx context.Context, id dataset.ProjectID) ([]dataset.PathID, bool, error) {
	return d.projectPaths.Get(ctx, id)
}

// ProjectPathCount returns how many distinct paths a project changed.
func (d *Data) ProjectPathCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectPathCount.Get(ctx, id)
}

// ProjectSnapshots returns the distinct snapshots a project's commits recorded.
func (d *Data) ProjectSnapshots(ctx context.Context, id dataset.ProjectID) ([]dataset.SnapshotID, bool, error) {
	return d.projectSnapshots.Get(ctx, id)
}

// ProjectSnapshotCount returns how many distinct snapshots a project recorded.
func (d *Data) ProjectSnapshotCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectSnapshotCount.Get(ctx, id)
}

// ProjectAuthors returns the authors of a project's commits.
func (d *Data) ProjectAuthors(ctx context.Context, id dataset.ProjectID) ([]dataset.UserID, bool, error) {
	return d.projectAuthors.Get(ctx, id)
}

// ProjectAuthorCount returns how many authors a project has.
func (d *Data) ProjectAuthorCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectAuthorCount.Get(ctx, id)
}

// ProjectCommitters returns the committers of a project's commits.
func (d *Data) ProjectCommitters(ctx context.Context, id dataset.ProjectID) ([]dataset.UserID, bool, error) {
	return d.projectCommitters.Get(ctx, id)
}

// ProjectCommitterCount returns how many committers a project has.
func (d *Data) ProjectCommitterCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectCommitterCount.Get(ctx, id)
}

// ProjectUsers returns the authors and committers of a project.
func (d *Data) ProjectUsers(ctx context.Context, id dataset.ProjectID) ([]dataset.UserID, bool, error) {
	return d.projectUsers.Get(ctx, id)
}

// ProjectUserCount returns how many authors and committers a project has.
func (d *Data) ProjectUserCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectUserCount.Get(ctx, id)
}

// ProjectLanguageChanges returns how many changes of a project touched each language.
func (d *Data) ProjectLanguageChanges(ctx context.Context, id dataset.ProjectID) (map[dataset.Language]int, bool, error) {
	return d.projectLanguageChanges.Get(ctx, id)
}

// ProjectLanguages returns the languages a project's changes touched.
func (d *Data) ProjectLanguages(ctx context.Context, id dataset.ProjectID) ([]dataset.Language, bool, error) {
	return d.projectLanguages.Get(ctx, id)
}

// ProjectLanguageCount returns how many languages a project's changes touched.
func (d *Data) ProjectLanguageCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectLanguageCount.Get(ctx, id)
}

// ProjectMajorLanguage returns the language most changes of a project touched.
func (d *Data) ProjectMajorLanguage(ctx context.Context, id dataset.ProjectID) (dataset.Language, bool, error) {
	return d.projectMajorLanguage.Get(ctx, id)
}

// ProjectMajorLanguageRatio returns the share of a project's changes made in its major language.
func (d *Data) ProjectMajorLanguageRatio(ctx context.Context, id dataset.ProjectID) (float64, bool, error) {
	return d.projectMajorLanguageRatio.Get(ctx, id)
}

// ProjectMajorLanguageChanges returns how many changes of a project touched its major language.
func (d *Data) ProjectMajorLanguageChanges(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectMajorLanguageChanges.Get(ctx, id)
}

// ProjectCommitSpan returns the author times of the oldest and newest commit of a project.
func (d *Data) ProjectCommitSpan(ctx context.Context, id dataset.ProjectID) (extract.CommitSpan, bool, error) {
	return d.projectCommitSpan.Get(ctx, id)
}

// ProjectCommitDeltas summarizes the gaps between consecutive commits of a project.
func (d *Data) ProjectCommitDeltas(ctx context.Context, id dataset.ProjectID) (extract.CommitDeltas, bool, error) {
	return d.projectCommitDeltas.Get(ctx, id)
}

// ProjectAuthorCommitContributions returns commit counts per author, largest first.
func (d *Data) ProjectAuthorCommitContributions(ctx context.Context, id dataset.ProjectID) ([]extract.Contribution, bool, error) {
	return d.projectAuthorCommitContrib.Get(ctx, id)
}

// ProjectCumulativeCommitContributions returns the running percentages of ProjectAuthorCommitContributions.
func (d *Data) ProjectCumulativeCommitContributions(ctx context.Context, id dataset.ProjectID) ([]int, bool, error) {
	return d.projectCumulativeCommitShare.Get(ctx, id)
}

// ProjectAuthorChangeContributions returns change counts per author, largest first.
func (d *Data) ProjectAuthorChangeContributions(ctx context.Context, id dataset.ProjectID) ([]extract.Contribution, bool, error) {
	return d.projectAuthorChangeContrib.Get(ctx, id)
}

// ProjectCumulativeChangeContributions returns the running percentages of ProjectAuthorChangeContributions.
func (d *Data) ProjectCumulativeChangeContributions(ctx context.Context, id dataset.ProjectID) ([]int, bool, error) {
	return d.projectCumulativeChangeShare.Get(ctx, id)
}

// ProjectUniqueFiles returns how many file contents first appeared in the project.
func (d *Data) ProjectUniqueFiles(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectUniqueFiles.Get(ctx, id)
}

// ProjectOriginalFiles returns how many file contents appear in no other project.
func (d *Data) ProjectOriginalFiles(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectOriginalFiles.Get(ctx, id)
}

// ProjectImpact returns how many times other projects reuse a snapshot that originated in the project.
func (d *Data) ProjectImpact(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectImpact.Get(ctx, id)
}

// ProjectDuplicatedCode returns the fraction of a project's snapshots that originated elsewhere.
func (d *Data) ProjectDuplicatedCode(ctx context.Context, id dataset.ProjectID) (float64, bool, error) {
	return d.projectDuplicatedCode.Get(ctx, id)
}

// ProjectAllForks returns the projects sharing a commit with the project and created after it.
func (d *Data) ProjectAllForks(ctx context.Context, id dataset.ProjectID) ([]dataset.ProjectID, bool, error) {
	return d.projectAllForks.Get(ctx, id)
}

// ProjectForkCount returns how many forks ProjectAllForks finds.
func (d *Data) ProjectForkCount(ctx context.Context, id dataset.ProjectID) (int, bool, error) {
	return d.projectForkCount.Get(ctx, id)
}

// SnapshotProjects returns the projects containing a snapshot and the one it originated in.
func (d *Data) SnapshotProjects(ctx context.Context, id dataset.SnapshotID) (extract.SnapshotOwners, bool, error) {
	return d.snapshotProjects.Get(ctx, id)
}

// UserAuthoredCommits returns the commits a user authored.
func (d *Data) UserAuthoredCommits(ctx context.Context, id dataset.UserID) ([]dataset.CommitID, bool, error) {
	return d.userAuthoredCommits.Get(ctx, id)
}

// UserAuthoredCommitCount returns how many commits a user authored.
func (d *Data) UserAuthoredCommitCount(ctx context.Context, id dataset.UserID) (int, bool, error) {
	return d.userAuthoredCommitCount.Get(ctx, id)
}

// UserCommittedCommits returns the commits a user committed.
func (d *Data) UserCommittedCommits(ctx context.Context, id dataset.UserID) ([]dataset.CommitID, bool, error) {
	return d.userCommittedCommits.Get(ctx, id)
}

// UserCommittedCommitCount returns how many commits a user committed.
func (d *Data) UserCommittedCommitCount(ctx context.Context, id dataset.UserID) (int, bool, error) {
	return d.userCommittedCommitCount.Get(ctx, id)
}

// UserAuthorExperience returns the time between the first and last commit a user authored.
func (d *Data) UserAuthorExperience(ctx context.Context, id dataset.UserID) (time.Duration, bool, error) {
	return d.userAuthorExperience.Get(ctx, id)
}

// UserCommitterExperience returns the time between the first and last commit a user committed.
func (d *Data) UserCommitterExperience(ctx context.Context, id dataset.UserID) (time.Duration, bool, error) {
	return d.userCommitterExperience.Get(ctx, id)
}

// UserExperience returns the time between the first and last commit a user authored or committed.
func (d *Data) UserExperience(ctx context.Context, id dataset.UserID) (time.Duration, bool, error) {
	return d.userExperience.Get(ctx, id)
}

// UserProjects returns the projects containing a commit the user authored or committed.
func (d *Data) UserProjects(ctx context.Context, id dataset.UserID) ([]dataset.ProjectID, bool, error) {
	return d.userProjects.Get(ctx, id)
}

// UserProjectCount returns how many projects a user contributed to.
func (d *Data) UserProjectCount(ctx context.Context, id dataset.UserID) (int, bool, error) {
	return d.userProjectCount.Get(ctx, id)
}

// ProjectAuthorsContributingCommitsCount returns how many of a project's
// top authors together made at least pct percent of its commits.
func (d *Data) ProjectAuthorsContributingCommitsCount(ctx context.Context, id dataset.ProjectID, pct int) (int, bool, error) {
	return contributorsReaching(ctx, d.projectCumulativeCommitShare.Get, id, pct)
}

// ProjectAuthorsContributingChangesCount returns how many of a project's
// top authors together made at least pct percent of its changes.
func (d *Data) ProjectAuthorsContributingChangesCount(ctx context.Context, id dataset.ProjectID, pct int) (int, bool, error) {
	return contributorsReaching(ctx, d.projectCumulativeChangeShare.Get, id, pct)
}

func contributorsReaching(
	ctx context.Context,
	get func(context.Context, dataset.ProjectID) ([]int, bool, error),
	id dataset.ProjectID, pct int,
) (int, bool, error) {
	cumulative, ok, err := get(ctx, id)
	if err != nil || !ok {
		return 0, false, err
	}
	n, ok := extract.ContributorsReaching(cumulative, pct)
	return n, ok, nil
}
