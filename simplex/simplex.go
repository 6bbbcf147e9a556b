// Package simplex provides validated discrete probability types: vectors
// whose entries are non-negative and sum to one, and row-stochastic
// matrices built from them.
//
// Model code in this repository never works with raw []float64
// probability tables. Constructing a Vector or Matrix validates the
// simplex constraint once, up front, so downstream recursions can assume
// well-formed distributions and report constraint violations as caller
// errors rather than producing a silently invalid log-density.
package simplex

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Tol is the absolute tolerance applied to the unit-sum constraint.
const Tol = 1e-9

// ErrNotSimplex reports a vector that is not a valid probability
// distribution: a negative entry, or entries not summing to 1 within Tol.
var ErrNotSimplex = errors.New("not a probability simplex")

// Vector is a discrete probability distribution. The zero value is
// invalid; construct via NewVector, Uniform, or Unit.
type Vector []float64

// NewVector validates p and returns it as a Vector. The slice is copied
// so later mutation of p cannot break the invariant.
func NewVector(p []float64) (Vector, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrNotSimplex)
	}
	for i, v := range p {
		if v < 0 {
			return nil, fmt.Errorf("%w: entry %d is negative (%g)", ErrNotSimplex, i, v)
		}
	}
	if s := floats.Sum(p); s < 1-Tol || s > 1+Tol {
		return nil, fmt.Errorf("%w: entries sum to %.12f, want 1", ErrNotSimplex, floats.Sum(p))
	}
	v := make(Vector, len(p))
	copy(v, p)
	return v, nil
}

// Uniform returns the uniform distribution over k outcomes.
func Uniform(k int) Vector {
	v := make(Vector, k)
	for i := range v {
		v[i] = 1 / float64(k)
	}
	return v
}

// Unit returns the degenerate distribution with all mass on outcome i.
func Unit(k, i int) Vector {
	v := make(Vector, k)
	v[i] = 1
	return v
}

// Len returns the number of outcomes.
func (v Vector) Len() int { return len(v) }

// Matrix is a row-stochastic matrix: each row is a Vector over the same
// outcome count. Rows index the conditioning value (e.g. current hidden
// state), columns the outcome (next state, or emitted symbol).
type Matrix struct {
	rows []Vector
	cols int
}

// NewMatrix validates every row of p and returns the stochastic matrix.
// All rows must have the same length.
func NewMatrix(p [][]float64) (Matrix, error) {
	if len(p) == 0 {
		return Matrix{}, fmt.Errorf("%w: matrix has no rows", ErrNotSimplex)
	}
	cols := len(p[0])
	rows := make([]Vector, len(p))
	for i, r := range p {
		if len(r) != cols {
			return Matrix{}, fmt.Errorf("row %d has %d entries, want %d", i, len(r), cols)
		}
		v, err := NewVector(r)
		if err != nil {
			return Matrix{}, fmt.Errorf("row %d: %w", i, err)
		}
		rows[i] = v
	}
	return Matrix{rows: rows, cols: cols}, nil
}

// Dim returns the row and column counts.
func (m Matrix) Dim() (rows, cols int) { return len(m.rows), m.cols }

// Row returns row i. The returned Vector must not be mutated.
func (m Matrix) Row(i int) Vector { return m.rows[i] }

// At returns the entry at row i, column j.
func (m Matrix) At(i, j int) float64 { return m.rows[i][j] }

// Square reports whether the matrix has as many columns as rows, as a
// state-transition matrix must.
func (m Matrix) Square() bool { return len(m.rows) == m.cols }

// IsAbsorbing reports whether row i places all transition mass on itself,
// i.e. state i is absorbing. Only meaningful for square matrices.
func (m Matrix) IsAbsorbing(i int) bool {
	return m.Square() && m.rows[i][i] == 1
}

// LogSumExp returns log(sum(exp(x))) computed stably. It is a thin
// wrapper kept here so model packages share one numeric policy.
func LogSumExp(x []float64) float64 {
	return floats.LogSumExp(x)
}
