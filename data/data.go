// Package data wires every attribute of a dataset into one dependency graph
// and exposes a getter per attribute.
package data

import (
	"cmp"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gophersatwork/granary"
	"github.com/gophersatwork/granary/dataset"
	"github.com/gophersatwork/granary/extract"
	"github.com/gophersatwork/granary/metadata"
	"go.uber.org/zap"
)

type (
	projectID  = dataset.ProjectID
	commitID   = dataset.CommitID
	userID     = dataset.UserID
	pathID     = dataset.PathID
	snapshotID = dataset.SnapshotID
)

// Data is the attribute registry of one dataset.
//
// Getters compute what they need on first use: asking for an attribute
// resolves its prerequisites, computes or loads it once, and serves every
// later call from memory. A getter's ok result is false when the dataset has
// no value for the id; it never means "not computed yet".
type Data struct {
	cache  *granary.Cache
	source dataset.Source
	meta   *metadata.ProjectSource
	logger *zap.Logger
	graph  *granary.Graph

	nodes   []granary.Node
	lookups map[string]lookupFunc

	projectURLs    *granary.Attribute[projectID, string]
	projectHeads   *granary.Attribute[projectID, []dataset.Head]
	commits        *granary.Attribute[commitID, dataset.Commit]
	commitHashes   *granary.Attribute[commitID, string]
	commitMessages *granary.Attribute[commitID, string]
	commitChanges  *granary.Attribute[commitID, []dataset.Change]
	userEmails     *granary.Attribute[userID, string]
	paths          *granary.Attribute[pathID, string]
	projectCreated *granary.Attribute[projectID, int64]

	commitParents        *granary.Attribute[commitID, []commitID]
	commitAuthors        *granary.Attribute[commitID, userID]
	commitCommitters     *granary.Attribute[commitID, userID]
	commitAuthorTimes    *granary.Attribute[commitID, int64]
	commitCommitterTimes *granary.Attribute[commitID, int64]
	commitChangeCount    *granary.Attribute[commitID, int]
	commitMessageLength  *granary.Attribute[commitID, int]
	commitProjects       *granary.Attribute[commitID, []projectID]
	commitProjectCount   *granary.Attribute[commitID, int]
	commitLanguages      *granary.Attribute[commitID, []dataset.Language]
	commitLanguageCount  *granary.Attribute[commitID, int]
	pathLanguages        *granary.Attribute[pathID, dataset.Language]

	projectCommits               *granary.Attribute[projectID, []commitID]
	projectCommitCount           *granary.Attribute[projectID, int]
	projectHeadCount             *granary.Attribute[projectID, int]
	projectPaths                 *granary.Attribute[projectID, []pathID]
	projectPathCount             *granary.Attribute[projectID, int]
	projectSnapshots             *granary.Attribute[projectID, []snapshotID]
	projectSnapshotCount         *granary.Attribute[projectID, int]
	projectAuthors               *granary.Attribute[projectID, []userID]
	projectAuthorCount           *granary.Attribute[projectID, int]
	projectCommitters            *granary.Attribute[projectID, []userID]
	projectCommitterCount        *granary.Attribute[projectID, int]
	projectUsers                 *granary.Attribute[projectID, []userID]
	projectUserCount             *granary.Attribute[projectID, int]
	projectLanguageChanges       *granary.Attribute[projectID, map[dataset.Language]int]
	projectLanguages             *granary.Attribute[projectID, []dataset.Language]
	projectLanguageCount         *granary.Attribute[projectID, int]
	projectMajorLanguage         *granary.Attribute[projectID, dataset.Language]
	projectMajorLanguageRatio    *granary.Attribute[projectID, float64]
	projectMajorLanguageChanges  *granary.Attribute[projectID, int]
	projectCommitSpan            *granary.Attribute[projectID, extract.CommitSpan]
	projectCommitDeltas          *granary.Attribute[projectID, extract.CommitDeltas]
	projectAuthorCommitContrib   *granary.Attribute[projectID, []extract.Contribution]
	projectCumulativeCommitShare *granary.Attribute[projectID, []int]
	projectAuthorChangeContrib   *granary.Attribute[projectID, []extract.Contribution]
	projectCumulativeChangeShare *granary.Attribute[projectID, []int]
	projectUniqueFiles           *granary.Attribute[projectID, int]
	projectOriginalFiles         *granary.Attribute[projectID, int]
	projectImpact                *granary.Attribute[projectID, int]
	projectDuplicatedCode        *granary.Attribute[projectID, float64]
	projectAllForks              *granary.Attribute[projectID, []projectID]
	projectForkCount             *granary.Attribute[projectID, int]

	snapshotProjects *granary.Attribute[snapshotID, extract.SnapshotOwners]

	userAuthoredCommits      *granary.Attribute[userID, []commitID]
	userAuthoredCommitCount  *granary.Attribute[userID, int]
	userCommittedCommits     *granary.Attribute[userID, []commitID]
	userCommittedCommitCount *granary.Attribute[userID, int]
	userAuthorExperience     *granary.Attribute[userID, time.Duration]
	userCommitterExperience  *granary.Attribute[userID, time.Duration]
	userExperience           *granary.Attribute[userID, time.Duration]
	userProjects             *granary.Attribute[userID, []projectID]
	userProjectCount         *granary.Attribute[userID, int]
}

type lookupFunc func(ctx context.Context, id uint64) (any, bool, error)

// New registers every attribute of src on the cache and validates the
// resulting dependency graph.
func New(c *granary.Cache, src dataset.Source) (*Data, error) {
	d := &Data{
		cache:   c,
		source:  src,
		meta:    metadata.NewProjectSource(c, src),
		logger:  c.Logger().Named("data"),
		lookups: make(map[string]lookupFunc),
	}
	d.wire()

	g, err := granary.NewGraph(c, d.nodes...)
	if err != nil {
		return nil, err
	}
	d.graph = g
	return d, nil
}

// wire declares every attribute. Prerequisites must be declared before the
// attributes that consume them.
func (d *Data) wire() {
	c, src := d.cache, d.source

	d.projectURLs = attr(d, granary.FromSource(c, ProjectURLs, load(src, extract.ProjectURLs)))
	d.projectHeads = attr(d, granary.FromSource(c, ProjectHeads, load(src, extract.ProjectHeads)))
	d.commits = attr(d, granary.FromSource(c, Commits, load(src, extract.Commits)))
	d.commitHashes = attr(d, granary.FromSource(c, CommitHashes, load(src, extract.CommitHashes)))
	d.commitMessages = attr(d, granary.FromSource(c, CommitMessages, load(src, extract.CommitMessages)))
	d.commitChanges = attr(d, granary.FromSource(c, CommitChanges, load(src, extract.CommitChanges)))
	d.userEmails = attr(d, granary.FromSource(c, UserEmails, load(src, extract.UserEmails)).WithoutCache())
	d.paths = attr(d, granary.FromSource(c, Paths, load(src, extract.Paths)).WithoutCache())
	d.projectCreated = attr(d, granary.FromSource(c, ProjectCreated, granary.Loader[projectID, int64](d.meta.CreatedTimes)).WithoutCache())

	d.commitParents = attr(d, granary.Derive1(c, CommitParents, d.commits, extract.CommitParents))
	d.commitAuthors = attr(d, granary.Derive1(c, CommitAuthors, d.commits, extract.CommitAuthors))
	d.commitCommitters = attr(d, granary.Derive1(c, CommitCommitters, d.commits, extract.CommitCommitters))
	d.commitAuthorTimes = attr(d, granary.Derive1(c, CommitAuthorTimes, d.commits, extract.CommitAuthorTimes))
	d.commitCommitterTimes = attr(d, granary.Derive1(c, CommitCommitterTimes, d.commits, extract.CommitCommitterTimes))
	d.commitChangeCount = attr(d, granary.Derive1(c, CommitChangeCount, d.commitChanges,
		extract.CountPerKey[commitID, dataset.Change]))
	d.commitMessageLength = attr(d, granary.Derive1(c, CommitMessageLength, d.commitMessages, extract.CommitMessageLength))
	d.pathLanguages = attr(d, granary.Derive1(c, PathLanguages, d.paths, extract.PathLanguages))
	d.commitLanguages = attr(d, granary.Derive2(c, CommitLanguages, d.commitChanges, d.pathLanguages, extract.CommitLanguages))
	d.commitLanguageCount = attr(d, granary.Derive1(c, CommitLanguageCount, d.commitLanguages,
		extract.CountPerKey[commitID, dataset.Language]))

	d.projectCommits = attr(d, granary.Derive2(c, ProjectCommits, d.projectHeads, d.commitParents,
		extract.ReachableCommits(d.logger)))
	d.projectCommitCount = attr(d, granary.Derive1(c, ProjectCommitCount, d.projectCommits,
		extract.CountPerKey[projectID, commitID]))
	d.projectHeadCount = attr(d, granary.Derive1(c, ProjectHeadCount, d.projectHeads,
		extract.CountPerKey[projectID, dataset.Head]))
	d.commitProjects = attr(d, granary.Derive1(c, CommitProjects, d.projectCommits, extract.Invert[projectID, commitID]))
	d.commitProjectCount = attr(d, granary.Derive1(c, CommitProjectCount, d.commitProjects,
		extract.CountPerKey[commitID, projectID]))

	d.projectPaths = attr(d, granary.Derive2(c, ProjectPaths, d.projectCommits, d.commitChanges, extract.ProjectPaths))
	d.projectPathCount = attr(d, granary.Derive1(c, ProjectPathCount, d.projectPaths,
		extract.CountPerKey[projectID, pathID]))
	d.projectSnapshots = attr(d, granary.Derive2(c, ProjectSnapshots, d.projectCommits, d.commitChanges, extract.ProjectSnapshots))
	d.projectSnapshotCount = attr(d, granary.Derive1(c, ProjectSnapshotCount, d.projectSnapshots,
		extract.CountPerKey[projectID, snapshotID]))

	d.projectAuthors = attr(d, granary.Derive2(c, ProjectAuthors, d.projectCommits, d.commitAuthors, extract.ProjectPeople))
	d.projectAuthorCount = attr(d, granary.Derive1(c, ProjectAuthorCount, d.projectAuthors,
		extract.CountPerKey[projectID, userID]))
	d.projectCommitters = attr(d, granary.Derive2(c, ProjectCommitters, d.projectCommits, d.commitCommitters, extract.ProjectPeople))
	d.projectCommitterCount = attr(d, granary.Derive1(c, ProjectCommitterCount, d.projectCommitters,
		extract.CountPerKey[projectID, userID]))
	d.projectUsers = attr(d, granary.Derive2(c, ProjectUsers, d.projectAuthors, d.projectCommitters, extract.ProjectUsers))
	d.projectUserCount = attr(d, granary.Derive1(c, ProjectUserCount, d.projectUsers,
		extract.CountPerKey[projectID, userID]))

	d.projectLanguageChanges = attr(d, granary.Derive3(c, ProjectLanguageChanges,
		d.projectCommits, d.commitChanges, d.pathLanguages, extract.ProjectLanguageChanges))
	d.projectLanguages = attr(d, granary.Derive1(c, ProjectLanguages, d.projectLanguageChanges, extract.ProjectLanguages))
	d.projectLanguageCount = attr(d, granary.Derive1(c, ProjectLanguageCount, d.projectLanguages,
		extract.CountPerKey[projectID, dataset.Language]))
	d.projectMajorLanguage = attr(d, granary.Derive1(c, ProjectMajorLanguage, d.projectLanguageChanges,
		extract.ProjectMajorLanguage))
	d.projectMajorLanguageRatio = attr(d, granary.Derive1(c, ProjectMajorLanguageRatio, d.projectLanguageChanges,
		extract.ProjectMajorLanguageRatio))
	d.projectMajorLanguageChanges = attr(d, granary.Derive1(c, ProjectMajorLanguageChanges, d.projectLanguageChanges,
		extract.ProjectMajorLanguageChanges))

	d.projectCommitSpan = attr(d, granary.Derive2(c, ProjectCommitSpan, d.projectCommits, d.commitAuthorTimes,
		extract.ProjectCommitSpan))
	d.projectCommitDeltas = attr(d, granary.Derive2(c, ProjectCommitDeltas, d.projectCommits, d.commitAuthorTimes,
		extract.ProjectCommitDeltas))

	d.projectAuthorCommitContrib = attr(d, granary.Derive2(c, ProjectAuthorCommitContrib,
		d.projectCommits, d.commitAuthors, extract.AuthorCommitContributions))
	d.projectCumulativeCommitShare = attr(d, granary.Derive1(c, ProjectCumulativeCommitShare,
		d.projectAuthorCommitContrib, extract.CumulativeContributions))
	d.projectAuthorChangeContrib = attr(d, granary.Derive3(c, ProjectAuthorChangeContrib,
		d.projectCommits, d.commitAuthors, d.commitChangeCount, extract.AuthorChangeContributions))
	d.projectCumulativeChangeShare = attr(d, granary.Derive1(c, ProjectCumulativeChangeShare,
		d.projectAuthorChangeContrib, extract.CumulativeContributions))

	d.snapshotProjects = attr(d, granary.Derive4(c, SnapshotProjects,
		d.commitChanges, d.commitProjects, d.commitAuthorTimes, d.projectCreated, extract.SnapshotProjects))
	d.projectUniqueFiles = attr(d, granary.Derive2(c, ProjectUniqueFiles, d.projectSnapshots, d.snapshotProjects,
		extract.ProjectUniqueFiles))
	d.projectOriginalFiles = attr(d, granary.Derive2(c, ProjectOriginalFiles, d.projectSnapshots, d.snapshotProjects,
		extract.ProjectOriginalFiles))
	d.projectImpact = attr(d, granary.Derive2(c, ProjectImpact, d.projectSnapshots, d.snapshotProjects,
		extract.ProjectImpact))
	d.projectDuplicatedCode = attr(d, granary.Derive2(c, ProjectDuplicatedCode, d.projectSnapshots, d.snapshotProjects,
		extract.ProjectDuplicatedCode))

	d.projectAllForks = attr(d, granary.Derive3(c, ProjectAllForks,
		d.projectCommits, d.commitProjects, d.projectCreated, extract.ProjectAllForks))
	d.projectForkCount = attr(d, granary.Derive1(c, ProjectForkCount, d.projectAllForks,
		extract.CountPerKey[projectID, projectID]))

	d.userAuthoredCommits = attr(d, granary.Derive1(c, UserAuthoredCommits, d.commitAuthors, extract.Group[commitID, userID]))
	d.userAuthoredCommitCount = attr(d, granary.Derive1(c, UserAuthoredCommitCount, d.userAuthoredCommits,
		extract.CountPerKey[userID, commitID]))
	d.userCommittedCommits = attr(d, granary.Derive1(c, UserCommittedCommits, d.commitCommitters, extract.Group[commitID, userID]))
	d.userCommittedCommitCount = attr(d, granary.Derive1(c, UserCommittedCommitCount, d.userCommittedCommits,
		extract.CountPerKey[userID, commitID]))
	d.userAuthorExperience = attr(d, granary.Derive2(c, UserAuthorExperience, d.userAuthoredCommits, d.commitAuthorTimes,
		extract.UserExperience))
	d.userCommitterExperience = attr(d, granary.Derive2(c, UserCommitterExperience, d.userCommittedCommits, d.commitCommitterTimes,
		extract.UserExperience))
	d.userExperience = attr(d, granary.Derive4(c, UserExperience,
		d.userAuthoredCommits, d.userCommittedCommits, d.commitAuthorTimes, d.commitCommitterTimes,
		extract.UserCombinedExperience))
	d.userProjects = attr(d, granary.Derive1(c, UserProjects, d.projectUsers, extract.Invert[projectID, userID]))
	d.userProjectCount = attr(d, granary.Derive1(c, UserProjectCount, d.userProjects,
		extract.CountPerKey[userID, projectID]))
}

// attr records a in the registry and makes it reachable by name.
func attr[K ~uint64, V any](d *Data, a *granary.Attribute[K, V]) *granary.Attribute[K, V] {
	d.nodes = append(d.nodes, a)
	d.lookups[a.Name()] = func(ctx context.Context, id uint64) (any, bool, error) {
		v, ok, err := a.Get(ctx, K(id))
		if err != nil || !ok {
			return nil, ok, err
		}
		return v, true, nil
	}
	return a
}

// load adapts a source extractor to a loader.
func load[K cmp.Ordered, V any](src dataset.Source, fn func(context.Context, dataset.Source) (map[K]V, error)) granary.Loader[K, V] {
	return func(ctx context.Context) (map[K]V, error) {
		return fn(ctx, src)
	}
}

// Cache returns the cache the attributes persist to.
func (d *Data) Cache() *granary.Cache {
	return d.cache
}

// Graph returns the dependency graph of all attributes.
func (d *Data) Graph() *granary.Graph {
	return d.graph
}

// Attributes returns the names of all attributes, sorted.
func (d *Data) Attributes() []string {
	return d.graph.Names()
}

// Metadata returns the metadata fields of projects.
func (d *Data) Metadata() *metadata.ProjectSource {
	return d.meta
}

// Warm makes the named attributes and their prerequisites resident,
// computing and persisting whatever is missing. With no names, every
// attribute is warmed.
func (d *Data) Warm(ctx context.Context, names ...string) error {
	return d.graph.Resolve(ctx, names...)
}

// Value returns the value of any attribute or metadata field by name.
// The id is interpreted as the attribute's key type.
func (d *Data) Value(ctx context.Context, name string, id uint64) (any, bool, error) {
	if fn, ok := d.lookups[name]; ok {
		return fn(ctx, id)
	}
	if strings.HasPrefix(name, "metadata_") {
		return d.meta.Lookup(ctx, name, projectID(id))
	}
	return nil, false, &granary.Error{Kind: granary.KindNotFound, Attribute: name, Err: errors.New("unknown attribute")}
}

// Snapshot returns the contents of a snapshot.
func (d *Data) Snapshot(_ context.Context, id dataset.SnapshotID) ([]byte, bool, error) {
	contents, ok, err := d.source.Snapshot(id)
	if err != nil {
		return nil, false, granary.SourceError("snapshot", err)
	}
	return contents, ok, nil
}
