package dataset

import "strconv"

// ProjectID identifies a project.
type ProjectID uint64

// CommitID identifies a commit.
type CommitID uint64

// UserID identifies a user (an author or committer identity).
type UserID uint64

// PathID identifies a file path.
type PathID uint64

// SnapshotID identifies one exact file content.
type SnapshotID uint64

func (id ProjectID) String() string  { return "project:" + strconv.FormatUint(uint64(id), 10) }
func (id CommitID) String() string   { return "commit:" + strconv.FormatUint(uint64(id), 10) }
func (id UserID) String() string     { return "user:" + strconv.FormatUint(uint64(id), 10) }
func (id PathID) String() string     { return "path:" + strconv.FormatUint(uint64(id), 10) }
func (id SnapshotID) String() string { return "snapshot:" + strconv.FormatUint(uint64(id), 10) }
