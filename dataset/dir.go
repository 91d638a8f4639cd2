package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/ugorji/go/codec"
)

// File names read by Dir.
const (
	ProjectsFile  = "projects.jsonl"
	HeadsFile     = "heads.jsonl"
	CommitsFile   = "commits.jsonl"
	MessagesFile  = "messages.jsonl"
	ChangesFile   = "changes.jsonl"
	UsersFile     = "users.jsonl"
	PathsFile     = "paths.jsonl"
	MetadataDir   = "metadata"
	SnapshotsDir  = "snapshots"
	maxLineLength = 64 << 20
)

var jsonHandle = &codec.JsonHandle{}

// Dir is a Source backed by a directory of JSON-lines files:
//
//	projects.jsonl  {"id": 1, "url": "https://github.com/a/b"}
//	heads.jsonl     {"project": 1, "heads": [{"name": "main", "commit": 7}]}
//	commits.jsonl   {"id": 7, "hash": "ab12", "author": 3, "committer": 3, "parents": [6],
//	                 "author_time": 1500000000, "committer_time": 1500000000}
//	messages.jsonl  {"commit": 7, "message": "fix"}
//	changes.jsonl   {"commit": 7, "changes": [{"path": 2, "snapshot": 9}, {"path": 4}]}
//	users.jsonl     {"id": 3, "email": "a@example.com"}
//	paths.jsonl     {"id": 2, "location": "src/main.go"}
//	metadata/<project id>.json
//	snapshots/<snapshot id>
//
// A missing file yields an empty iteration.
type Dir struct {
	fs   afero.Fs
	root string
}

// NewDir creates a source reading from root on fs.
func NewDir(fs afero.Fs, root string) *Dir {
	return &Dir{fs: fs, root: root}
}

type headRecord struct {
	Name   string   `codec:"name"`
	Commit CommitID `codec:"commit"`
}

type projectRecord struct {
	ID  ProjectID `codec:"id"`
	URL string    `codec:"url"`
}

type headsRecord struct {
	Project ProjectID    `codec:"project"`
	Heads   []headRecord `codec:"heads"`
}

type commitRecord struct {
	ID            CommitID   `codec:"id"`
	Hash          string     `codec:"hash"`
	Author        UserID     `codec:"author"`
	Committer     UserID     `codec:"committer"`
	Parents       []CommitID `codec:"parents"`
	AuthorTime    int64      `codec:"author_time"`
	CommitterTime int64      `codec:"committer_time"`
}

type messageRecord struct {
	Commit  CommitID `codec:"commit"`
	Message string   `codec:"message"`
}

type changeRecord struct {
	Path     PathID      `codec:"path"`
	Snapshot *SnapshotID `codec:"snapshot"`
}

type changesRecord struct {
	Commit  CommitID       `codec:"commit"`
	Changes []changeRecord `codec:"changes"`
}

type userRecord struct {
	ID    UserID `codec:"id"`
	Email string `codec:"email"`
}

type pathRecord struct {
	ID       PathID `codec:"id"`
	Location string `codec:"location"`
}

// Projects implements Source.
func (d *Dir) Projects() iter.Seq2[Project, error] {
	return readLines(d, ProjectsFile, func(r projectRecord) Project {
		return Project(r)
	})
}

// ProjectHeads implements Source.
func (d *Dir) ProjectHeads() iter.Seq2[ProjectHeads, error] {
	return readLines(d, HeadsFile, func(r headsRecord) ProjectHeads {
		heads := make([]Head, len(r.Heads))
		for i, h := range r.Heads {
			heads[i] = Head(h)
		}
		return ProjectHeads{Project: r.Project, Heads: heads}
	})
}

// Commits implements Source.
func (d *Dir) Commits() iter.Seq2[Commit, error] {
	return readLines(d, CommitsFile, func(r commitRecord) Commit {
		return Commit(r)
	})
}

// CommitMessages implements Source.
func (d *Dir) CommitMessages() iter.Seq2[CommitMessage, error] {
	return readLines(d, MessagesFile, func(r messageRecord) CommitMessage {
		return CommitMessage(r)
	})
}

// Changes implements Source.
func (d *Dir) Changes() iter.Seq2[CommitChanges, error] {
	return readLines(d, ChangesFile, func(r changesRecord) CommitChanges {
		changes := make([]Change, len(r.Changes))
		for i, c := range r.Changes {
			changes[i] = Change{Path: c.Path}
			if c.Snapshot != nil {
				changes[i].Snapshot = *c.Snapshot
				changes[i].HasSnapshot = true
			}
		}
		return CommitChanges{Commit: r.Commit, Changes: changes}
	})
}

// Users implements Source.
func (d *Dir) Users() iter.Seq2[User, error] {
	return readLines(d, UsersFile, func(r userRecord) User {
		return User(r)
	})
}

// Paths implements Source.
func (d *Dir) Paths() iter.Seq2[Path, error] {
	return readLines(d, PathsFile, func(r pathRecord) Path {
		return Path(r)
	})
}

// Metadata implements Source.
// Every file named <project id>.json in the metadata directory is one document.
func (d *Dir) Metadata() iter.Seq2[ProjectMetadata, error] {
	return func(yield func(ProjectMetadata, error) bool) {
		dir := filepath.Join(d.root, MetadataDir)
		infos, err := afero.ReadDir(d.fs, dir)
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		if err != nil {
			yield(ProjectMetadata{}, fmt.Errorf("failed to read metadata directory: %w", err))
			return
		}
		sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

		for _, info := range infos {
			name := info.Name()
			if info.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			id, err := strconv.ParseUint(strings.TrimSuffix(name, ".json"), 10, 64)
			if err != nil {
				continue
			}
			doc, err := afero.ReadFile(d.fs, filepath.Join(dir, name))
			if err != nil {
				yield(ProjectMetadata{}, fmt.Errorf("failed to read metadata of project %d: %w", id, err))
				return
			}
			if !yield(ProjectMetadata{Project: ProjectID(id), JSON: doc}, nil) {
				return
			}
		}
	}
}

// Snapshot implements Source.
func (d *Dir) Snapshot(id SnapshotID) ([]byte, bool, error) {
	p := filepath.Join(d.root, SnapshotsDir, strconv.FormatUint(uint64(id), 10))
	contents, err := afero.ReadFile(d.fs, p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot %d: %w", id, err)
	}
	return contents, true, nil
}

// readLines decodes one JSON record per non-blank line of the named file.
func readLines[R, T any](d *Dir, name string, conv func(R) T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		f, err := d.fs.Open(filepath.Join(d.root, name))
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			yield(zero, fmt.Errorf("failed to open %s: %w", name, err))
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
		line := 0
		for scanner.Scan() {
			line++
			b := bytes.TrimSpace(scanner.Bytes())
			if len(b) == 0 {
				continue
			}
			var rec R
			if err := codec.NewDecoderBytes(b, jsonHandle).Decode(&rec); err != nil {
				yield(zero, fmt.Errorf("%s:%d: %w", name, line, err))
				return
			}
			if !yield(conv(rec), nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(zero, fmt.Errorf("failed to read %s: %w", name, err))
		}
	}
}

var _ Source = (*Dir)(nil)
