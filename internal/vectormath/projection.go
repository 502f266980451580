package vectormath

// NewProjection returns a deterministic projectionDim x dimensions matrix
// of values in [-1, 1], seeded purely from its shape so that identical
// (dimensions, projectionDim) pairs always yield identical matrices --
// across processes, platforms and Go versions.
func NewProjection(dimensions, projectionDim int) [][]float32 {
	seed := uint32(dimensions)*73856093 + uint32(projectionDim)*19349663
	prng := NewMulberry32(seed)

	matrix := make([][]float32, projectionDim)
	for i := range matrix {
		row := make([]float32, dimensions)
		for j := range row {
			row[j] = float32(prng.Float64()*2 - 1)
		}
		matrix[i] = row
	}
	return matrix
}
