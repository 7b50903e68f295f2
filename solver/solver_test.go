package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *System {
	t.Helper()
	s, err := NewSystem([][]float32{
		{4, -1, 0},
		{-1, 4, -1},
		{0, -1, 4},
	}, []float32{2, 4, 10})
	require.NoError(t, err)
	return s
}

func TestJacobiConverges(t *testing.T) {
	s := sample(t)
	require.True(t, s.DiagonallyDominant())

	res, err := Jacobi(s, nil, Options{Tolerance: 1e-4, MaxIterations: 200})
	require.NoError(t, err)
	require.True(t, res.Converged)
	assert.InDeltaSlice(t, []float32{1, 2, 3}, res.X, 1e-4)
	assert.Less(t, res.Residual, 1e-4)
}

func TestGaussSeidelBeatsJacobi(t *testing.T) {
	s := Tridiagonal(32, 4, -1, 1)
	opts := Options{Tolerance: 1e-4, MaxIterations: 500}

	j, err := Jacobi(s, nil, opts)
	require.NoError(t, err)
	g, err := GaussSeidel(s, nil, opts)
	require.NoError(t, err)

	require.True(t, j.Converged)
	require.True(t, g.Converged)
	assert.Less(t, g.Iterations, j.Iterations)
	assert.InDeltaSlice(t, j.X, g.X, 1e-3)
}

func TestFixedIterationCount(t *testing.T) {
	s := sample(t)
	res, err := Jacobi(s, nil, Options{MaxIterations: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, res.Iterations)
	assert.False(t, res.Converged)
}

func TestFirstJacobiSweepFromZero(t *testing.T) {
	s := sample(t)
	dst := make([]float32, 3)
	s.JacobiStep(dst, make([]float32, 3))
	assert.Equal(t, []float32{0.5, 1, 2.5}, dst)
}

func TestInitialGuessIsNotModified(t *testing.T) {
	s := sample(t)
	x0 := []float32{1, 1, 1}
	_, err := GaussSeidel(s, x0, Options{MaxIterations: 3})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1}, x0)
}

func TestExactGuessConvergesImmediately(t *testing.T) {
	s := sample(t)
	res, err := Jacobi(s, []float32{1, 2, 3}, Options{Tolerance: 1e-6, MaxIterations: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Iterations)
	assert.True(t, res.Converged)
}

func TestInvalidSystems(t *testing.T) {
	_, err := NewSystem([][]float32{{1, 2}, {3, 4}}, []float32{1})
	assert.ErrorIs(t, err, ErrDimension)

	_, err = NewSystem([][]float32{{1, 2}, {3}}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrDimension)

	_, err = NewSystem([][]float32{{0, 1}, {1, 1}}, []float32{1, 2})
	assert.ErrorIs(t, err, ErrZeroDiagonal)

	_, err = Jacobi(sample(t), []float32{1}, Options{MaxIterations: 1})
	assert.ErrorIs(t, err, ErrDimension)
}

func TestDiagonalDominance(t *testing.T) {
	s, err := NewSystem([][]float32{{1, 2}, {2, 1}}, []float32{1, 1})
	require.NoError(t, err)
	assert.False(t, s.DiagonallyDominant())
	assert.True(t, Tridiagonal(8, 3, -1, 0).DiagonallyDominant())
}
