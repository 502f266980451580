package folder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdex/ragdex/pkg/types"
)

func TestNormalizePathTrimsTrailingSlashAndBackslashes(t *testing.T) {
	assert.Equal(t, "a/b/c", NormalizePath(`a\b\c/`))
	assert.Equal(t, "a/b", NormalizePath("a/b/"))
	assert.Equal(t, "a/b", NormalizePath("a/b"))
}

func TestRegistryGetOrCreateIsSingletonPerFolder(t *testing.T) {
	r := NewRegistry()
	c1 := r.GetOrCreate("/repo", "")
	c2 := r.GetOrCreate("/repo", "")
	assert.Same(t, c1, c2)
	assert.Equal(t, 1, r.Count())
}

func TestRegistryDistinctStoragePathsYieldDistinctCaches(t *testing.T) {
	r := NewRegistry()
	c1 := r.GetOrCreate("/repo", "")
	c2 := r.GetOrCreate("/repo", "/other-output")
	assert.NotSame(t, c1, c2)
	assert.Equal(t, 2, r.Count())
}

func TestRegistryDrop(t *testing.T) {
	r := NewRegistry()
	r.GetOrCreate("/repo", "")
	require.Equal(t, 1, r.Count())
	r.Drop("/repo", "")
	assert.Equal(t, 0, r.Count())
}

func TestStartIndexIsIdempotentForConcurrentCallers(t *testing.T) {
	c := New("/repo", "")

	run1, started1 := c.StartIndex()
	require.True(t, started1)

	run2, started2 := c.StartIndex()
	assert.False(t, started2)
	assert.Same(t, run1, run2)

	c.FinishIndex(run1, types.Status{Phase: types.PhaseReady}, nil)
	status, err := run2.Wait()
	require.NoError(t, err)
	assert.Equal(t, types.PhaseReady, status.Phase)

	_, started3 := c.StartIndex()
	assert.True(t, started3, "a new transaction can start once the previous one finishes")
}

func TestHealthRefreshThrottleTimestamp(t *testing.T) {
	c := New("/repo", "")
	assert.Equal(t, int64(0), c.LastHealthRefresh())
	c.SetLastHealthRefresh(12345)
	assert.Equal(t, int64(12345), c.LastHealthRefresh())
}
