package kernel

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/floats"
)

const (
	cgMaxIters  = 5000
	cgTolerance = 1e-10
)

// A sparseMatrix is a square matrix stored as one map per row.
type sparseMatrix struct {
	rows []map[int]float64
}

func newSparseMatrix(n int) *sparseMatrix {
	rows := make([]map[int]float64, n)
	for i := range rows {
		rows[i] = map[int]float64{}
	}
	return &sparseMatrix{rows: rows}
}

func (s *sparseMatrix) Size() int {
	return len(s.rows)
}

func (s *sparseMatrix) Add(i, j int, v float64) {
	s.rows[i][j] += v
}

func (s *sparseMatrix) Get(i, j int) float64 {
	return s.rows[i][j]
}

// Mul computes the matrix product s*other.
func (s *sparseMatrix) Mul(other *sparseMatrix) *sparseMatrix {
	res := newSparseMatrix(s.Size())
	for i, row := range s.rows {
		for k, v := range row {
			for j, w := range other.rows[k] {
				res.rows[i][j] += v * w
			}
		}
	}
	return res
}

// ScaleRows multiplies row i by scales[i].
func (s *sparseMatrix) ScaleRows(scales []float64) *sparseMatrix {
	res := newSparseMatrix(s.Size())
	for i, row := range s.rows {
		for j, v := range row {
			res.rows[i][j] = v * scales[i]
		}
	}
	return res
}

// AddScaled computes s + scale*other.
func (s *sparseMatrix) AddScaled(scale float64, other *sparseMatrix) *sparseMatrix {
	res := newSparseMatrix(s.Size())
	for i, row := range s.rows {
		for j, v := range row {
			res.rows[i][j] = v
		}
		for j, v := range other.rows[i] {
			res.rows[i][j] += scale * v
		}
	}
	return res
}

// A reducedSystem is the restriction of a sparse matrix to a subset of its
// variables, stored in compressed rows.
type reducedSystem struct {
	cols [][]int
	vals [][]float64
	diag []float64
}

func (r *reducedSystem) Apply(x, dst []float64) {
	for i, cols := range r.cols {
		var sum float64
		for j, col := range cols {
			sum += r.vals[i][j] * x[col]
		}
		dst[i] = sum
	}
}

// solvePinned solves a*x = b where the variables not marked free are pinned
// to their values in x0. A nil b is treated as zero.
//
// The matrix must be symmetric positive definite on the free variables.
func solvePinned(a *sparseMatrix, b, x0 []model3d.Coord3D, free []bool) ([]model3d.Coord3D, error) {
	index := make([]int, len(free))
	var freeVars []int
	for i, f := range free {
		if f {
			index[i] = len(freeVars)
			freeVars = append(freeVars, i)
		} else {
			index[i] = -1
		}
	}
	res := append([]model3d.Coord3D{}, x0...)
	if len(freeVars) == 0 {
		return res, nil
	}

	system := &reducedSystem{
		cols: make([][]int, len(freeVars)),
		vals: make([][]float64, len(freeVars)),
		diag: make([]float64, len(freeVars)),
	}
	rhs := make([][3]float64, len(freeVars))
	for i, v := range freeVars {
		if b != nil {
			rhs[i] = b[v].Array()
		}
		for j, w := range a.rows[v] {
			if index[j] >= 0 {
				system.cols[i] = append(system.cols[i], index[j])
				system.vals[i] = append(system.vals[i], w)
				if j == v {
					system.diag[i] = w
				}
			} else {
				pinned := x0[j].Array()
				for k := range rhs[i] {
					rhs[i][k] -= w * pinned[k]
				}
			}
		}
	}

	solutions := make([][]float64, 3)
	failures := make([]error, 3)
	essentials.ConcurrentMap(3, 3, func(axis int) {
		bAxis := make([]float64, len(freeVars))
		guess := make([]float64, len(freeVars))
		for i, v := range freeVars {
			bAxis[i] = rhs[i][axis]
			guess[i] = x0[v].Array()[axis]
		}
		solutions[axis], failures[axis] = conjugateGradient(system, bAxis, guess)
	})
	for _, err := range failures {
		if err != nil {
			return nil, err
		}
	}
	for i, v := range freeVars {
		res[v] = model3d.XYZ(solutions[0][i], solutions[1][i], solutions[2][i])
	}
	return res, nil
}

// conjugateGradient runs Jacobi-preconditioned conjugate gradients.
func conjugateGradient(a *reducedSystem, b, x []float64) ([]float64, error) {
	n := len(b)
	r := make([]float64, n)
	a.Apply(x, r)
	floats.SubTo(r, b, r)

	precond := make([]float64, n)
	for i, d := range a.diag {
		if d > 0 {
			precond[i] = 1 / d
		} else {
			precond[i] = 1
		}
	}
	z := make([]float64, n)
	floats.MulTo(z, precond, r)
	p := append([]float64{}, z...)
	ap := make([]float64, n)

	bNorm := math.Max(floats.Norm(b, 2), 1)
	rz := floats.Dot(r, z)
	for iter := 0; iter < cgMaxIters; iter++ {
		if floats.Norm(r, 2) <= cgTolerance*bNorm {
			return x, nil
		}
		a.Apply(p, ap)
		pap := floats.Dot(p, ap)
		if pap <= 0 || math.IsNaN(pap) {
			return nil, errors.Wrap(ErrNotConverged, "matrix is not positive definite")
		}
		alpha := rz / pap
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, ap)
		floats.MulTo(z, precond, r)
		newRZ := floats.Dot(r, z)
		beta := newRZ / rz
		rz = newRZ
		floats.Scale(beta, p)
		floats.Add(p, z)
	}
	if floats.Norm(r, 2) <= 1e-6*bNorm {
		return x, nil
	}
	return nil, ErrNotConverged
}
