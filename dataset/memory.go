package dataset

import (
	"cmp"
	"iter"
	"maps"
	"slices"
	"sync"
)

// Memory is an in-memory Source, filled through its Add methods.
// Iteration yields entities in ascending id order.
type Memory struct {
	mu        sync.RWMutex
	projects  map[ProjectID]Project
	heads     map[ProjectID][]Head
	commits   map[CommitID]Commit
	messages  map[CommitID]string
	changes   map[CommitID][]Change
	users     map[UserID]User
	paths     map[PathID]Path
	snapshots map[SnapshotID][]byte
	metadata  map[ProjectID][]byte
}

// NewMemory creates an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{
		projects:  make(map[ProjectID]Project),
		heads:     make(map[ProjectID][]Head),
		commits:   make(map[CommitID]Commit),
		messages:  make(map[CommitID]string),
		changes:   make(map[CommitID][]Change),
		users:     make(map[UserID]User),
		paths:     make(map[PathID]Path),
		snapshots: make(map[SnapshotID][]byte),
		metadata:  make(map[ProjectID][]byte),
	}
}

// AddProject adds a project, replacing any project with the same id.
func (m *Memory) AddProject(id ProjectID, url string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[id] = Project{ID: id, URL: url}
	return m
}

// AddHead appends a head to a project.
func (m *Memory) AddHead(project ProjectID, name string, commit CommitID) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heads[project] = append(m.heads[project], Head{Name: name, Commit: commit})
	return m
}

// AddCommit adds a bare commit.
func (m *Memory) AddCommit(c Commit) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commits[c.ID] = c
	return m
}

// AddMessage sets the message of a commit.
func (m *Memory) AddMessage(commit CommitID, message string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[commit] = message
	return m
}

// AddChange appends a change to a commit.
func (m *Memory) AddChange(commit CommitID, change Change) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes[commit] = append(m.changes[commit], change)
	return m
}

// AddUser adds a user.
func (m *Memory) AddUser(id UserID, email string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = User{ID: id, Email: email}
	return m
}

// AddPath adds a path.
func (m *Memory) AddPath(id PathID, location string) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[id] = Path{ID: id, Location: location}
	return m
}

// AddSnapshot stores the contents of a snapshot.
func (m *Memory) AddSnapshot(id SnapshotID, contents []byte) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[id] = contents
	return m
}

// AddMetadata stores the raw metadata document of a project.
func (m *Memory) AddMetadata(project ProjectID, doc []byte) *Memory {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[project] = doc
	return m
}

// Projects implements Source.
func (m *Memory) Projects() iter.Seq2[Project, error] {
	return sorted(&m.mu, m.projects, func(_ ProjectID, p Project) Project { return p })
}

// ProjectHeads implements Source.
func (m *Memory) ProjectHeads() iter.Seq2[ProjectHeads, error] {
	return sorted(&m.mu, m.heads, func(id ProjectID, heads []Head) ProjectHeads {
		return ProjectHeads{Project: id, Heads: slices.Clone(heads)}
	})
}

// Commits implements Source.
func (m *Memory) Commits() iter.Seq2[Commit, error] {
	return sorted(&m.mu, m.commits, func(_ CommitID, c Commit) Commit {
		c.Parents = slices.Clone(c.Parents)
		return c
	})
}

// CommitMessages implements Source.
func (m *Memory) CommitMessages() iter.Seq2[CommitMessage, error] {
	return sorted(&m.mu, m.messages, func(id CommitID, msg string) CommitMessage {
		return CommitMessage{Commit: id, Message: msg}
	})
}

// Changes implements Source.
func (m *Memory) Changes() iter.Seq2[CommitChanges, error] {
	return sorted(&m.mu, m.changes, func(id CommitID, changes []Change) CommitChanges {
		return CommitChanges{Commit: id, Changes: slices.Clone(changes)}
	})
}

// Users implements Source.
func (m *Memory) Users() iter.Seq2[User, error] {
	return sorted(&m.mu, m.users, func(_ UserID, u User) User { return u })
}

// Paths implements Source.
func (m *Memory) Paths() iter.Seq2[Path, error] {
	return sorted(&m.mu, m.paths, func(_ PathID, p Path) Path { return p })
}

// Metadata implements Source.
func (m *Memory) Metadata() iter.Seq2[ProjectMetadata, error] {
	return sorted(&m.mu, m.metadata, func(id ProjectID, doc []byte) ProjectMetadata {
		return ProjectMetadata{Project: id, JSON: slices.Clone(doc)}
	})
}

// Snapshot implements Source.
func (m *Memory) Snapshot(id SnapshotID) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	contents, ok := m.snapshots[id]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(contents), true, nil
}

// sorted yields the converted values of src in ascending key order.
// The keys are captured when iteration starts.
func sorted[K cmp.Ordered, V, T any](mu *sync.RWMutex, src map[K]V, conv func(K, V) T) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		mu.RLock()
		keys := slices.Sorted(maps.Keys(src))
		items := make([]T, 0, len(keys))
		for _, k := range keys {
			items = append(items, conv(k, src[k]))
		}
		mu.RUnlock()

		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

var _ Source = (*Memory)(nil)
