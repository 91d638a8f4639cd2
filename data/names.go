package data

// Attribute names. Each is also the name of the attribute's cache entry.
const (
	ProjectURLs    = "project_urls"
	ProjectHeads   = "project_heads"
	Commits        = "commits"
	CommitHashes   = "commit_hashes"
	CommitMessages = "commit_messages"
	CommitChanges  = "commit_changes"
	UserEmails     = "user_emails"
	Paths          = "paths"
	ProjectCreated = "project_created"

	CommitParents        = "commit_parents"
	CommitAuthors        = "commit_authors"
	CommitCommitters     = "commit_committers"
	CommitAuthorTimes    = "commit_author_times"
	CommitCommitterTimes = "commit_committer_times"
	CommitChangeCount    = "commit_change_count"
	CommitMessageLength  = "commit_message_length"
	CommitProjects       = "commit_projects"
	CommitProjectCount   = "commit_project_count"
	CommitLanguages      = "commit_languages"
	CommitLanguageCount  = "commit_language_count"
	PathLanguages        = "path_languages"

	ProjectCommits               = "project_commits"
	ProjectCommitCount           = "project_commit_count"
	ProjectHeadCount             = "project_head_count"
	ProjectPaths                 = "project_paths"
	ProjectPathCount             = "project_path_count"
	ProjectSnapshots             = "project_snapshots"
	ProjectSnapshotCount         = "project_snapshot_count"
	ProjectAuthors               = "project_authors"
	ProjectAuthorCount           = "project_author_count"
	ProjectCommitters            = "project_committers"
	ProjectCommitterCount        = "project_committer_count"
	ProjectUsers                 = "project_users"
	ProjectUserCount             = "project_user_count"
	ProjectLanguageChanges       = "project_language_changes"
	ProjectLanguages             = "project_languages"
	ProjectLanguageCount         = "project_language_count"
	ProjectMajorLanguage         = "project_major_language"
	ProjectMajorLanguageRatio    = "project_major_language_ratio"
	ProjectMajorLanguageChanges  = "project_major_language_changes"
	ProjectCommitSpan            = "project_commit_span"
	ProjectCommitDeltas          = "project_commit_deltas"
	ProjectAuthorCommitContrib   = "project_author_commit_contributions"
	ProjectCumulativeCommitShare = "project_cumulative_commit_contributions"
	ProjectAuthorChangeContrib   = "project_author_change_contributions"
	ProjectCumulativeChangeShare = "project_cumulative_change_contributions"
	ProjectUniqueFiles           = "project_unique_files"
	ProjectOriginalFiles         = "project_original_files"
	ProjectImpact                = "project_impact"
	ProjectDuplicatedCode        = "project_duplicated_code"
	ProjectAllForks              = "project_all_forks"
	ProjectForkCount             = "project_fork_count"

	SnapshotProjects = "snapshot_projects"

	UserAuthoredCommits       = "user_authored_commits"
	UserAuthoredCommitCount   = "user_authored_commit_count"
	UserCommittedCommits      = "user_committed_commits"
	UserCommittedCommitCount  = "user_committed_commit_count"
	UserAuthorExperience      = "user_author_experience"
	UserCommitterExperience   = "user_committer_experience"
	UserExperience            = "user_experience"
	UserProjects              = "user_projects"
	UserProjectCount          = "user_project_count"
)
