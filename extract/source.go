package extract

import (
	"cmp"
	"context"
	"iter"
	"slices"

	"github.com/gophersatwork/granary/dataset"
)

// ProjectURLs maps each project to its URL.
func ProjectURLs(ctx context.Context, src dataset.Source) (map[dataset.ProjectID]string, error) {
	return collect(ctx, src.Projects(),
		func(p dataset.Project) dataset.ProjectID { return p.ID },
		func(p dataset.Project) string { return p.URL })
}

// ProjectHeads maps each project to its heads.
func ProjectHeads(ctx context.Context, src dataset.Source) (map[dataset.ProjectID][]dataset.Head, error) {
	return collect(ctx, src.ProjectHeads(),
		func(h dataset.ProjectHeads) dataset.ProjectID { return h.Project },
		func(h dataset.ProjectHeads) []dataset.Head { return h.Heads })
}

// Commits maps each commit id to its bare commit.
func Commits(ctx context.Context, src dataset.Source) (map[dataset.CommitID]dataset.Commit, error) {
	return collect(ctx, src.Commits(),
		func(c dataset.Commit) dataset.CommitID { return c.ID },
		func(c dataset.Commit) dataset.Commit { return c })
}

// CommitHashes maps each commit to its hash.
func CommitHashes(ctx context.Context, src dataset.Source) (map[dataset.CommitID]string, error) {
	return collect(ctx, src.Commits(),
		func(c dataset.Commit) dataset.CommitID { return c.ID },
		func(c dataset.Commit) string { return c.Hash })
}

// CommitMessages maps each commit to its message.
func CommitMessages(ctx context.Context, src dataset.Source) (map[dataset.CommitID]string, error) {
	return collect(ctx, src.CommitMessages(),
		func(m dataset.CommitMessage) dataset.CommitID { return m.Commit },
		func(m dataset.CommitMessage) string { return m.Message })
}

// CommitChanges maps each commit to its changes, ordered by path.
func CommitChanges(ctx context.Context, src dataset.Source) (map[dataset.CommitID][]dataset.Change, error) {
	return collect(ctx, src.Changes(),
		func(c dataset.CommitChanges) dataset.CommitID { return c.Commit },
		func(c dataset.CommitChanges) []dataset.Change {
			changes := slices.Clone(c.Changes)
			slices.SortStableFunc(changes, func(a, b dataset.Change) int {
				return cmp.Compare(a.Path, b.Path)
			})
			return changes
		})
}

// UserEmails maps each user to its email.
func UserEmails(ctx context.Context, src dataset.Source) (map[dataset.UserID]string, error) {
	return collect(ctx, src.Users(),
		func(u dataset.User) dataset.UserID { return u.ID },
		func(u dataset.User) string { return u.Email })
}

// Paths maps each path id to its location.
func Paths(ctx context.Context, src dataset.Source) (map[dataset.PathID]string, error) {
	return collect(ctx, src.Paths(),
		func(p dataset.Path) dataset.PathID { return p.ID },
		func(p dataset.Path) string { return p.Location })
}

// collect is dataset.Collect with cancellation between items.
func collect[T any, K comparable, V any](ctx context.Context, seq iter.Seq2[T, error], key func(T) K, value func(T) V) (map[K]V, error) {
	out := make(map[K]V)
	for item, err := range seq {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[key(item)] = value(item)
	}
	return out, nil
}
