// Package solver holds the CPU reference for the iterative linear solvers the
// compute example runs on the device. Systems are dense, row-major and
// float32 so results can be compared with what a shader produces.
package solver

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDimension    = errors.New("solver: dimension mismatch")
	ErrZeroDiagonal = errors.New("solver: zero on the diagonal")
)

// System is the linear system Ax = b.
type System struct {
	N int
	A []float32
	B []float32
}

// NewSystem copies rows and b into a System.
func NewSystem(rows [][]float32, b []float32) (*System, error) {
	n := len(rows)
	if n == 0 || len(b) != n {
		return nil, fmt.Errorf("%w: %d rows, %d right hand side values", ErrDimension, n, len(b))
	}
	s := &System{N: n, A: make([]float32, 0, n*n), B: append([]float32(nil), b...)}
	for i, r := range rows {
		if len(r) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrDimension, i, len(r))
		}
		s.A = append(s.A, r...)
	}
	return s, s.check()
}

// Tridiagonal builds an n by n system with diag on the diagonal, off on both
// neighbours and every b entry set to rhs.
func Tridiagonal(n int, diag, off, rhs float32) *System {
	s := &System{N: n, A: make([]float32, n*n), B: make([]float32, n)}
	for i := 0; i < n; i++ {
		s.A[i*n+i] = diag
		if i > 0 {
			s.A[i*n+i-1] = off
		}
		if i+1 < n {
			s.A[i*n+i+1] = off
		}
		s.B[i] = rhs
	}
	return s
}

func (s *System) check() error {
	for i := 0; i < s.N; i++ {
		if s.At(i, i) == 0 {
			return fmt.Errorf("%w: row %d", ErrZeroDiagonal, i)
		}
	}
	return nil
}

// At returns A[i][j].
func (s *System) At(i, j int) float32 {
	return s.A[i*s.N+j]
}

// DiagonallyDominant reports whether every row is strictly diagonally
// dominant, which guarantees both iterations converge.
func (s *System) DiagonallyDominant() bool {
	for i := 0; i < s.N; i++ {
		var sum float64
		for j := 0; j < s.N; j++ {
			if j != i {
				sum += math.Abs(float64(s.At(i, j)))
			}
		}
		if math.Abs(float64(s.At(i, i))) <= sum {
			return false
		}
	}
	return true
}

// Residual returns the euclidean norm of Ax - b.
func (s *System) Residual(x []float32) float64 {
	var sum float64
	for i := 0; i < s.N; i++ {
		var ax float64
		for j := 0; j < s.N; j++ {
			ax += float64(s.At(i, j)) * float64(x[j])
		}
		d := ax - float64(s.B[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// JacobiStep writes one Jacobi sweep of x into dst. dst and x must not alias.
func (s *System) JacobiStep(dst, x []float32) {
	for i := 0; i < s.N; i++ {
		sigma := float32(0)
		for j := 0; j < s.N; j++ {
			if j != i {
				sigma += s.At(i, j) * x[j]
			}
		}
		dst[i] = (s.B[i] - sigma) / s.At(i, i)
	}
}

// GaussSeidelStep performs one in-place Gauss-Seidel sweep over x.
func (s *System) GaussSeidelStep(x []float32) {
	for i := 0; i < s.N; i++ {
		sigma := float32(0)
		for j := 0; j < s.N; j++ {
			if j != i {
				sigma += s.At(i, j) * x[j]
			}
		}
		x[i] = (s.B[i] - sigma) / s.At(i, i)
	}
}

// Options bound an iteration.
type Options struct {
	// Tolerance stops the iteration once the residual drops below it. Zero
	// runs exactly MaxIterations sweeps.
	Tolerance     float64
	MaxIterations int
}

// Result is the outcome of an iteration.
type Result struct {
	X          []float32
	Iterations int
	Residual   float64
	Converged  bool
}

// Jacobi iterates from x0, or from zero when x0 is nil.
func Jacobi(s *System, x0 []float32, opts Options) (Result, error) {
	x, err := start(s, x0)
	if err != nil {
		return Result{}, err
	}
	next := make([]float32, s.N)
	return iterate(s, x, opts, func(x []float32) []float32 {
		s.JacobiStep(next, x)
		next, x = x, next
		return x
	}), nil
}

// GaussSeidel iterates from x0, or from zero when x0 is nil.
func GaussSeidel(s *System, x0 []float32, opts Options) (Result, error) {
	x, err := start(s, x0)
	if err != nil {
		return Result{}, err
	}
	return iterate(s, x, opts, func(x []float32) []float32 {
		s.GaussSeidelStep(x)
		return x
	}), nil
}

func start(s *System, x0 []float32) ([]float32, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	x := make([]float32, s.N)
	if x0 != nil {
		if len(x0) != s.N {
			return nil, fmt.Errorf("%w: initial guess has %d values, want %d", ErrDimension, len(x0), s.N)
		}
		copy(x, x0)
	}
	return x, nil
}

func iterate(s *System, x []float32, opts Options, step func([]float32) []float32) Result {
	res := Result{Residual: s.Residual(x)}
	for res.Iterations < opts.MaxIterations {
		if opts.Tolerance > 0 && res.Residual < opts.Tolerance {
			res.Converged = true
			break
		}
		x = step(x)
		res.Iterations++
		res.Residual = s.Residual(x)
	}
	if opts.Tolerance > 0 && res.Residual < opts.Tolerance {
		res.Converged = true
	}
	res.X = x
	return res
}
