package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/gophersatwork/granary"
	"github.com/gophersatwork/granary/dataset"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forkDoc = `{
	"fork": true,
	"archived": false,
	"stargazers_count": 42,
	"watchers_count": 42,
	"size": 1024,
	"forks_count": 3,
	"license": {"key": "mit", "name": "MIT License"},
	"language": "Go",
	"description": null,
	"has_wiki": true,
	"created_at": "2015-06-01T12:00:00Z",
	"default_branch": "main"
}`

const plainDoc = `{
	"fork": false,
	"stargazers_count": 0,
	"license": null,
	"created_at": "2012-01-01T00:00:00Z"
}`

func newSource() *dataset.Memory {
	return dataset.NewMemory().
		AddMetadata(1, []byte(forkDoc)).
		AddMetadata(2, []byte(plainDoc))
}

func TestProjectSource_ConvertsAllFieldsOnce(t *testing.T) {
	ctx := context.Background()
	cache := granary.OpenTemp()
	ps := NewProjectSource(cache, newSource())

	fork, ok, err := ps.IsFork(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fork)

	stars, ok, err := ps.Stars(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), stars)

	license, ok, err := ps.License(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "MIT License", license)

	created, ok, err := ps.Created(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1433160000), created)

	assert.Equal(t, 1, ps.Conversions())
	for _, name := range ps.Fields() {
		assert.True(t, cache.Has(name), "field %s should be persisted", name)
	}
}

func TestProjectSource_NullIsAbsent(t *testing.T) {
	ctx := context.Background()
	ps := NewProjectSource(granary.OpenTemp(), newSource())

	_, ok, err := ps.License(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ps.Description(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ps.MasterBranch(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = ps.Stars(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProjectSource_SecondRunReadsCache(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()

	first, err := granary.Open("cache", granary.WithFs(fs))
	require.NoError(t, err)
	ps := NewProjectSource(first, newSource())
	_, _, err = ps.Stars(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 1, ps.Conversions())

	second, err := granary.Open("cache", granary.WithFs(fs))
	require.NoError(t, err)
	ps2 := NewProjectSource(second, newSource())
	stars, ok, err := ps2.Stars(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), stars)
	assert.Equal(t, 0, ps2.Conversions())
}

func TestProjectSource_TypeMismatch(t *testing.T) {
	ctx := context.Background()
	src := dataset.NewMemory().AddMetadata(7, []byte(`{"stargazers_count": "many"}`))
	ps := NewProjectSource(granary.OpenTemp(), src)

	_, _, err := ps.IsFork(ctx, 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, granary.ErrSchemaViolation))
	assert.Contains(t, err.Error(), "stargazers_count")
	assert.Contains(t, err.Error(), "project:7")
}

func TestField_Extract(t *testing.T) {
	doc := Document{
		"license": map[string]any{"name": "MIT"},
		"size":    float64(12),
		"ratio":   1.5,
		"flag":    "yes",
		"owner":   "someone",
	}

	v, ok, err := String("license", "license", "name").Extract(1, doc)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "MIT", v)

	n, ok, err := Int("size").Extract(1, doc)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(12), n)

	_, _, err = Int("ratio").Extract(1, doc)
	assert.ErrorIs(t, err, granary.ErrSchemaViolation)

	_, _, err = Bool("flag").Extract(1, doc)
	assert.ErrorIs(t, err, granary.ErrSchemaViolation)

	_, _, err = String("owner_login", "owner", "login").Extract(1, doc)
	assert.ErrorIs(t, err, granary.ErrSchemaViolation)

	_, ok, err = Timestamp("pushed", "pushed_at").Extract(1, doc)
	require.NoError(t, err)
	assert.False(t, ok)
}
