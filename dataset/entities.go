package dataset

// Head is a named ref of a project and the commit it points to.
type Head struct {
	Name   string
	Commit CommitID
}

// Project is a raw project record.
type Project struct {
	ID  ProjectID
	URL string
}

// ProjectHeads lists the heads of one project.
type ProjectHeads struct {
	Project ProjectID
	Heads   []Head
}

// Commit is a bare commit: identity, people, parents and timestamps.
// Times are unix seconds.
type Commit struct {
	ID            CommitID
	Hash          string
	Author        UserID
	Committer     UserID
	Parents       []CommitID
	AuthorTime    int64
	CommitterTime int64
}

// CommitMessage holds the message of one commit.
// Messages are kept apart from bare commits because they dominate their size.
type CommitMessage struct {
	Commit  CommitID
	Message string
}

// Change is one path touched by a commit.
// A change without a snapshot deletes the path.
type Change struct {
	Path        PathID
	Snapshot    SnapshotID
	HasSnapshot bool
}

// CommitChanges lists the changes made by one commit.
type CommitChanges struct {
	Commit  CommitID
	Changes []Change
}

// User is an author or committer identity.
type User struct {
	ID    UserID
	Email string
}

// Path is a file path as it appears in the repositories.
type Path struct {
	ID       PathID
	Location string
}

// ProjectMetadata is the raw GitHub API document of a project.
type ProjectMetadata struct {
	Project ProjectID
	JSON    []byte
}
