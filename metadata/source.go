// Package metadata extracts typed fields from the GitHub metadata document
// of each project and caches every field separately.
package metadata

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"time"

	"github.com/gophersatwork/granary"
	"github.com/gophersatwork/granary/dataset"
	"github.com/ugorji/go/codec"
	"go.uber.org/zap"
)

var jsonHandle = func() *codec.JsonHandle {
	h := &codec.JsonHandle{}
	h.MapType = reflect.TypeOf(map[string]any(nil))
	h.SignedInteger = true
	return h
}()

// ProjectSource serves metadata fields of projects.
//
// Parsing a document is far more expensive than extracting a field, so the
// first request for a field that is not persisted converts every field from
// a single pass over the documents.
type ProjectSource struct {
	cache  *granary.Cache
	src    dataset.Source
	logger *zap.Logger

	mu          sync.Mutex
	conversions int
	cachers     []fieldCacher

	isFork        *Cacher[bool]
	isArchived    *Cacher[bool]
	isDisabled    *Cacher[bool]
	stars         *Cacher[int64]
	watchers      *Cacher[int64]
	size          *Cacher[int64]
	openIssues    *Cacher[int64]
	forks         *Cacher[int64]
	subscribers   *Cacher[int64]
	license       *Cacher[string]
	language      *Cacher[string]
	description   *Cacher[string]
	homepage      *Cacher[string]
	hasIssues     *Cacher[bool]
	hasDownloads  *Cacher[bool]
	hasWiki       *Cacher[bool]
	hasPages      *Cacher[bool]
	created       *Cacher[int64]
	updated       *Cacher[int64]
	pushed        *Cacher[int64]
	defaultBranch *Cacher[string]
	masterBranch  *Cacher[string]
}

// NewProjectSource registers one cache entry per field on c.
func NewProjectSource(c *granary.Cache, src dataset.Source) *ProjectSource {
	ps := &ProjectSource{
		cache:  c,
		src:    src,
		logger: c.Logger().Named("metadata"),
	}
	ps.isFork = newCacher(ps, Bool("is_fork", "fork"))
	ps.isArchived = newCacher(ps, Bool("is_archived", "archived"))
	ps.isDisabled = newCacher(ps, Bool("is_disabled", "disabled"))
	ps.stars = newCacher(ps, Int("stargazers", "stargazers_count"))
	ps.watchers = newCacher(ps, Int("watchers", "watchers_count"))
	ps.size = newCacher(ps, Int("size"))
	ps.openIssues = newCacher(ps, Int("open_issues", "open_issues_count"))
	ps.forks = newCacher(ps, Int("forks", "forks_count"))
	ps.subscribers = newCacher(ps, Int("subscribers", "subscribers_count"))
	ps.license = newCacher(ps, String("license", "license", "name"))
	ps.language = newCacher(ps, String("language"))
	ps.description = newCacher(ps, String("description"))
	ps.homepage = newCacher(ps, String("homepage"))
	ps.hasIssues = newCacher(ps, Bool("has_issues"))
	ps.hasDownloads = newCacher(ps, Bool("has_downloads"))
	ps.hasWiki = newCacher(ps, Bool("has_wiki"))
	ps.hasPages = newCacher(ps, Bool("has_pages"))
	ps.created = newCacher(ps, Timestamp("created", "created_at"))
	ps.updated = newCacher(ps, Timestamp("updated", "updated_at"))
	ps.pushed = newCacher(ps, Timestamp("pushed", "pushed_at"))
	ps.defaultBranch = newCacher(ps, String("default_branch"))
	ps.masterBranch = newCacher(ps, String("master_branch"))
	return ps
}

// Fields returns the cache entry names of all fields.
func (ps *ProjectSource) Fields() []string {
	names := make([]string, len(ps.cachers))
	for i, c := range ps.cachers {
		names[i] = c.Name()
	}
	return names
}

// Lookup returns the value of a field by its cache entry name.
func (ps *ProjectSource) Lookup(ctx context.Context, name string, id dataset.ProjectID) (any, bool, error) {
	for _, c := range ps.cachers {
		if c.Name() == name {
			return c.lookup(ctx, id)
		}
	}
	return nil, false, &granary.Error{Kind: granary.KindNotFound, Attribute: name, Err: errors.New("unknown metadata field")}
}

// Conversions returns how many bulk conversions ran in this process.
func (ps *ProjectSource) Conversions() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.conversions
}

// convertAll parses every document once and stores each field that is
// neither resident nor persisted.
func (ps *ProjectSource) convertAll(ctx context.Context) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	var pending []fieldCacher
	for _, c := range ps.cachers {
		if !c.settled() {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	start := time.Now()
	docs, err := ps.documents(ctx)
	if err != nil {
		return err
	}
	for _, c := range pending {
		if err := c.convert(ctx, docs); err != nil {
			return err
		}
	}
	ps.conversions++

	ps.logger.Info("metadata converted",
		zap.Int("documents", len(docs)),
		zap.Int("fields", len(pending)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// documents parses every metadata document of the source.
func (ps *ProjectSource) documents(ctx context.Context) (map[dataset.ProjectID]Document, error) {
	docs := make(map[dataset.ProjectID]Document)
	for m, err := range ps.src.Metadata() {
		if err != nil {
			return nil, granary.SourceError("metadata", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(m.JSON) == 0 {
			continue
		}
		var doc Document
		if err := codec.NewDecoderBytes(m.JSON, jsonHandle).Decode(&doc); err != nil {
			return nil, granary.SchemaViolation("metadata", "%s: invalid document: %v", m.Project, err)
		}
		if doc != nil {
			docs[m.Project] = doc
		}
	}
	return docs, nil
}

// IsFork reports whether the project is a GitHub fork.
func (ps *ProjectSource) IsFork(ctx context.Context, id dataset.ProjectID) (bool, bool, error) {
	return ps.isFork.Get(ctx, id)
}

// IsArchived reports whether the project is archived.
func (ps *ProjectSource) IsArchived(ctx context.Context, id dataset.ProjectID) (bool, bool, error) {
	return ps.isArchived.Get(ctx, id)
}

// IsDisabled reports whether the project is disabled.
func (ps *ProjectSource) IsDisabled(ctx context.Context, id dataset.ProjectID) (bool, bool, error) {
	return ps.isDisabled.Get(ctx, id)
}

// Stars returns the stargazer count.
func (ps *ProjectSource) Stars(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.stars.Get(ctx, id)
}

// Watchers returns the watcher count.
func (ps *ProjectSource) Watchers(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.watchers.Get(ctx, id)
}

// Size returns the repository size in kilobytes as reported by GitHub.
func (ps *ProjectSource) Size(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.size.Get(ctx, id)
}

// OpenIssues returns the open issue count.
func (ps *ProjectSource) OpenIssues(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.openIssues.Get(ctx, id)
}

// Forks returns the fork count reported by GitHub.
func (ps *ProjectSource) Forks(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.forks.Get(ctx, id)
}

// Subscribers returns the subscriber count.
func (ps *ProjectSource) Subscribers(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.subscribers.Get(ctx, id)
}

// License returns the license name.
func (ps *ProjectSource) License(ctx context.Context, id dataset.ProjectID) (string, bool, error) {
	return ps.license.Get(ctx, id)
}

// Language returns the language GitHub detected for the project.
func (ps *ProjectSource) Language(ctx context.Context, id dataset.ProjectID) (string, bool, error) {
	return ps.language.Get(ctx, id)
}

// Description returns the project description.
func (ps *ProjectSource) Description(ctx context.Context, id dataset.ProjectID) (string, bool, error) {
	return ps.description.Get(ctx, id)
}

// Homepage returns the project homepage.
func (ps *ProjectSource) Homepage(ctx context.Context, id dataset.ProjectID) (string, bool, error) {
	return ps.homepage.Get(ctx, id)
}

// HasIssues reports whether the issue tracker is enabled.
func (ps *ProjectSource) HasIssues(ctx context.Context, id dataset.ProjectID) (bool, bool, error) {
	return ps.hasIssues.Get(ctx, id)
}

// HasDownloads reports whether downloads are enabled.
func (ps *ProjectSource) HasDownloads(ctx context.Context, id dataset.ProjectID) (bool, bool, error) {
	return ps.hasDownloads.Get(ctx, id)
}

// HasWiki reports whether the wiki is enabled.
func (ps *ProjectSource) HasWiki(ctx context.Context, id dataset.ProjectID) (bool, bool, error) {
	return ps.hasWiki.Get(ctx, id)
}

// HasPages reports whether GitHub Pages is enabled.
func (ps *ProjectSource) HasPages(ctx context.Context, id dataset.ProjectID) (bool, bool, error) {
	return ps.hasPages.Get(ctx, id)
}

// Created returns the creation time of the project in unix seconds.
func (ps *ProjectSource) Created(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.created.Get(ctx, id)
}

// Updated returns the last update time in unix seconds.
func (ps *ProjectSource) Updated(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.updated.Get(ctx, id)
}

// Pushed returns the last push time in unix seconds.
func (ps *ProjectSource) Pushed(ctx context.Context, id dataset.ProjectID) (int64, bool, error) {
	return ps.pushed.Get(ctx, id)
}

// DefaultBranch returns the name of the default branch.
func (ps *ProjectSource) DefaultBranch(ctx context.Context, id dataset.ProjectID) (string, bool, error) {
	return ps.defaultBranch.Get(ctx, id)
}

// MasterBranch returns the legacy master branch name, when the document has one.
func (ps *ProjectSource) MasterBranch(ctx context.Context, id dataset.ProjectID) (string, bool, error) {
	return ps.masterBranch.Get(ctx, id)
}

// CreatedTimes returns the creation time of every project that has one.
func (ps *ProjectSource) CreatedTimes(ctx context.Context) (map[dataset.ProjectID]int64, error) {
	return ps.created.Map(ctx)
}
