package vectormath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineUnitVector(t *testing.T) {
	v := []float32{1, 0, 0}
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-6)

	neg := []float32{-1, 0, 0}
	assert.InDelta(t, -1.0, Cosine(v, neg), 1e-6)
}

func TestCosineMismatchedOrEmpty(t *testing.T) {
	assert.Equal(t, -1.0, Cosine(nil, nil))
	assert.Equal(t, -1.0, Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, -1.0, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestProjectionDeterministic(t *testing.T) {
	a := NewProjection(8, 4)
	b := NewProjection(8, 4)
	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i], b[i])
	}

	c := NewProjection(16, 4)
	assert.NotEqual(t, a, c)
}

func TestProjectionBounds(t *testing.T) {
	m := NewProjection(32, 16)
	for _, row := range m {
		require.Len(t, row, 32)
		for _, v := range row {
			assert.True(t, v >= -1 && v <= 1)
		}
	}
}

func TestMulberry32Deterministic(t *testing.T) {
	a := NewMulberry32(42)
	b := NewMulberry32(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}
