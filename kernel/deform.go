package kernel

import (
	"math"

	"github.com/pkg/errors"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/mesh-pmp/mesh"
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/mat"
)

type DeformMode int

const (
	// DeformSmooth minimizes the bi-Laplacian energy of the displacement.
	DeformSmooth DeformMode = iota

	// DeformSREARAP is as-rigid-as-possible deformation with smoothed
	// rotation enhancement.
	DeformSREARAP
)

func (d DeformMode) String() string {
	switch d {
	case DeformSmooth:
		return "smooth"
	case DeformSREARAP:
		return "sre_arap"
	}
	return "unknown"
}

type DeformOptions struct {
	Mode DeformMode

	// Alpha weights the rotation smoothness term of DeformSREARAP.
	Alpha float64

	Iterations int
	Tolerance  float64
}

// Deform moves control vertices to their targets and solves for the
// remaining vertices of the region of interest. Vertices outside the region
// never move.
//
// Control vertices are added to the region of interest if necessary.
func Deform(s *mesh.Surface, roi []mesh.Vertex, controls map[mesh.Vertex]model3d.Coord3D,
	opts DeformOptions) Result[*mesh.Surface] {
	return call("deform "+opts.Mode.String(), func() (*mesh.Surface, error) {
		t, err := newTriMesh(s)
		if err != nil {
			return nil, err
		}
		if len(controls) == 0 {
			return nil, errors.New("no control vertices")
		}
		free := make([]bool, len(t.Points))
		for _, v := range roi {
			if int(v) < 0 || int(v) >= len(free) {
				return nil, errors.Errorf("region vertex %d out of range", v)
			}
			free[v] = true
		}
		x0 := append([]model3d.Coord3D{}, t.Points...)
		for v, target := range controls {
			if int(v) < 0 || int(v) >= len(free) {
				return nil, errors.Errorf("control vertex %d out of range", v)
			}
			free[v] = false
			x0[v] = target
		}

		points, err := solvePinned(t.polyharmonic(2), nil, x0, free)
		if err != nil {
			return nil, err
		}
		if opts.Mode == DeformSREARAP {
			points, err = t.arap(points, free, opts)
			if err != nil {
				return nil, err
			}
		} else if opts.Mode != DeformSmooth {
			return nil, errors.Errorf("unknown deformation mode %d", opts.Mode)
		}
		res := s.Copy()
		for i, p := range points {
			res.SetPoint(mesh.Vertex(i), p)
		}
		return res, nil
	})
}

// arap refines an initial deformation with alternating local rotation fits
// and global position solves.
func (t *triMesh) arap(initial []model3d.Coord3D, free []bool, opts DeformOptions) ([]model3d.Coord3D, error) {
	stiffness := t.stiffness()
	weights := make([]map[int]float64, len(t.Points))
	for i := range weights {
		weights[i] = map[int]float64{}
		for j, w := range stiffness.rows[i] {
			if j != i {
				weights[i][j] = -w
			}
		}
	}
	var area float64
	for idx, tri := range t.Tris {
		if tri[0] >= 0 {
			area += t.triangle(idx).Area()
		}
	}

	rest := t.Points
	current := initial
	rotations := make([]*mat.Dense, len(rest))
	for i := range rotations {
		rotations[i] = identity3()
	}
	prevEnergy := math.Inf(1)
	for iter := 0; iter < opts.Iterations; iter++ {
		next := make([]*mat.Dense, len(rest))
		essentials.ConcurrentMap(0, len(rest), func(i int) {
			cov := mat.NewDense(3, 3, nil)
			for j, w := range weights[i] {
				e := rest[i].Sub(rest[j]).Array()
				e2 := current[i].Sub(current[j]).Array()
				for r := 0; r < 3; r++ {
					for c := 0; c < 3; c++ {
						cov.Set(r, c, cov.At(r, c)+w*e[r]*e2[c])
					}
				}
			}
			if opts.Alpha > 0 {
				// Smoothed rotations pull towards the neighbors' rotations.
				for j := range weights[i] {
					cov.Add(cov, scaledTranspose(rotations[j], opts.Alpha*area))
				}
			}
			next[i] = fitRotation(cov)
		})
		rotations = next

		rhs := make([]model3d.Coord3D, len(rest))
		for i := range rest {
			var sum model3d.Coord3D
			for j, w := range weights[i] {
				rot := mat.NewDense(3, 3, nil)
				rot.Add(rotations[i], rotations[j])
				sum = sum.Add(apply3(rot, rest[i].Sub(rest[j])).Scale(w / 2))
			}
			rhs[i] = sum
		}
		solved, err := solvePinned(stiffness, rhs, current, free)
		if err != nil {
			return nil, err
		}
		current = solved

		energy := t.arapEnergy(rest, current, weights, rotations)
		if prevEnergy < math.Inf(1) && math.Abs(prevEnergy-energy) <= opts.Tolerance*math.Max(prevEnergy, 1e-12) {
			break
		}
		prevEnergy = energy
	}
	return current, nil
}

func (t *triMesh) arapEnergy(rest, current []model3d.Coord3D, weights []map[int]float64,
	rotations []*mat.Dense) float64 {
	var energy float64
	for i := range rest {
		for j, w := range weights[i] {
			diff := current[i].Sub(current[j]).Sub(apply3(rotations[i], rest[i].Sub(rest[j])))
			energy += w * diff.Dot(diff)
		}
	}
	return energy
}

func identity3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func scaledTranspose(m *mat.Dense, scale float64) *mat.Dense {
	res := mat.NewDense(3, 3, nil)
	res.Scale(scale, m.T())
	return res
}

// fitRotation finds the rotation R maximizing tr(R cov), which is V U^T for
// cov = U S V^T.
func fitRotation(cov *mat.Dense) *mat.Dense {
	var svd mat.SVD
	if !svd.Factorize(cov, mat.SVDFull) {
		return identity3()
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	rot := mat.NewDense(3, 3, nil)
	rot.Mul(&v, u.T())
	if mat.Det(rot) < 0 {
		// Flip the axis of the smallest singular value.
		for r := 0; r < 3; r++ {
			u.Set(r, 2, -u.At(r, 2))
		}
		rot.Mul(&v, u.T())
	}
	return rot
}

func apply3(m *mat.Dense, c model3d.Coord3D) model3d.Coord3D {
	arr := c.Array()
	var res [3]float64
	for r := 0; r < 3; r++ {
		for k := 0; k < 3; k++ {
			res[r] += m.At(r, k) * arr[k]
		}
	}
	return model3d.XYZ(res[0], res[1], res[2])
}
